package database

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/xavierca1/traction-hub/internal/entity"
)

const snapshotQueryTimeout = 5 * time.Second

// LeadRepository is the Postgres-backed remote store for lead documents.
// Besides plain CRUD it offers a push subscription built on LISTEN/NOTIFY:
// each change notification triggers a re-query of the full collection, which
// is delivered to the subscriber as one snapshot.
type LeadRepository struct {
	DB  *sql.DB
	DSN string // the listener needs its own connection
}

func NewLeadRepository(db *sql.DB, dsn string) *LeadRepository {
	return &LeadRepository{DB: db, DSN: dsn}
}

// FindAll loads the whole collection in stable creation order, so snapshot
// deliveries give derive a deterministic source order.
func (r *LeadRepository) FindAll(ctx context.Context) ([]entity.Lead, error) {
	query := `
		SELECT id, name, type, description, stage, status_note, is_high_intensity
		FROM leads
		ORDER BY created_at, id
	`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []entity.Lead
	for rows.Next() {
		var l entity.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Type, &l.Description, &l.Stage, &l.StatusNote, &l.IsHighIntensity); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}

	return leads, rows.Err()
}

// CreateOrUpdate assigns an id when the lead doesn't have one yet and
// upserts the document. The trigger takes care of notifying subscribers.
func (r *LeadRepository) CreateOrUpdate(ctx context.Context, lead *entity.Lead) (string, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}

	query := `
		INSERT INTO leads (id, name, type, description, stage, status_note, is_high_intensity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			stage = EXCLUDED.stage,
			status_note = EXCLUDED.status_note,
			is_high_intensity = EXCLUDED.is_high_intensity,
			updated_at = NOW()
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		string(lead.Type),
		lead.Description,
		lead.Stage,
		lead.StatusNote,
		lead.IsHighIntensity,
	)
	if err != nil {
		return "", err
	}

	return lead.ID, nil
}

// UpdateStage writes exactly the stage field. A missing document is an error
// here (unlike Delete): the caller had a concrete record in hand.
func (r *LeadRepository) UpdateStage(ctx context.Context, leadID string, stage int) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET stage = $2, updated_at = NOW() WHERE id = $1`,
		leadID, stage,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

// Delete removes the document. Not-found is treated as success so repeated
// deletes stay idempotent.
func (r *LeadRepository) Delete(ctx context.Context, leadID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, leadID)
	return err
}

// Subscribe pushes the full current collection immediately and again after
// every change notification. The returned stop function is synchronous: once
// it returns, onSnapshot will not be invoked again.
func (r *LeadRepository) Subscribe(onSnapshot func(leads []entity.Lead)) (func(), error) {
	listener := pq.NewListener(r.DSN, 10*time.Second, time.Minute, nil)
	if err := listener.Listen("leads_changed"); err != nil {
		listener.Close()
		return nil, err
	}

	stopCh := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		push := func() {
			ctx, cancel := context.WithTimeout(context.Background(), snapshotQueryTimeout)
			leads, err := r.FindAll(ctx)
			cancel()
			if err != nil {
				log.Printf("❌ snapshot query failed: %v", err)
				return
			}
			onSnapshot(leads)
		}

		// Initial full push, then one per notification.
		push()

		ping := time.NewTicker(time.Minute)
		defer ping.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-listener.Notify:
				// A nil notification means the listener reconnected and may
				// have missed events; re-query either way.
				push()
			case <-ping.C:
				go listener.Ping()
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(stopCh)
			<-done
			listener.Close()
		})
	}
	return stop, nil
}
