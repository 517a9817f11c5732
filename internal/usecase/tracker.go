package usecase

import (
	"context"
	"log"
	"sync"

	"github.com/xavierca1/traction-hub/internal/entity"
	"github.com/xavierca1/traction-hub/internal/infra/queue"
)

// Tracker owns the authoritative in-memory lead collection. While a user is
// signed in it is fed by the store subscription, whose every snapshot
// replaces the collection wholesale; stage-click intents mutate it
// optimistically in between, and the store remains the ground truth.
//
// Single-writer discipline: all mutation happens under mu, readers get
// copies. There is no rollback path for failed optimistic writes; the next
// snapshot corrects the display.
type Tracker struct {
	Store  LeadStore
	Events EventPublisher // optional, nil disables lifecycle events

	mu          sync.Mutex
	leads       []entity.Lead
	userID      string
	unsubscribe func()

	filterStage int
	sortMode    SortMode

	onChange func()
}

func NewTracker(store LeadStore, events EventPublisher) *Tracker {
	return &Tracker{
		Store:       store,
		Events:      events,
		filterStage: FilterAll,
		sortMode:    SortDefault,
	}
}

// SetOnChange registers a hook invoked (outside the lock) after every state
// change that affects the derived view. Set it once, during wiring.
func (t *Tracker) SetOnChange(cb func()) {
	t.mu.Lock()
	t.onChange = cb
	t.mu.Unlock()
}

func (t *Tracker) notifyChanged() {
	t.mu.Lock()
	cb := t.onChange
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// OnAuthChange reacts to identity events. Signing out tears the subscription
// down synchronously and clears the collection; signing in opens a fresh
// subscription. Wire it to IdentityProvider.OnAuthChange.
func (t *Tracker) OnAuthChange(userID string) {
	t.mu.Lock()
	prevStop := t.unsubscribe
	t.unsubscribe = nil
	t.userID = userID
	t.leads = nil
	t.mu.Unlock()

	if prevStop != nil {
		prevStop() // synchronous: no stale snapshot lands after this
	}

	if userID == "" {
		t.notifyChanged()
		return
	}

	stop, err := t.Store.Subscribe(func(leads []entity.Lead) {
		t.mu.Lock()
		if t.userID != userID {
			// Torn down (or switched users) while this snapshot was in
			// flight; drop it.
			t.mu.Unlock()
			return
		}
		t.leads = append([]entity.Lead(nil), leads...)
		t.mu.Unlock()
		t.notifyChanged()
	})
	if err != nil {
		log.Printf("❌ lead subscription failed for user %s: %v", userID, err)
		return
	}

	t.mu.Lock()
	if t.userID != userID {
		// Signed out while we were subscribing.
		t.mu.Unlock()
		stop()
		return
	}
	t.unsubscribe = stop
	t.mu.Unlock()
	t.notifyChanged()
}

// RequestStageChange applies a stage-click intent. An unknown id is a silent
// no-op (the lead may have just been deleted by another path). A rejected
// transition mutates nothing. An accepted one is applied optimistically so
// the view updates before the remote write lands; the write itself is
// dispatched asynchronously and a failure only gets logged — ground truth
// arrives with the next snapshot.
func (t *Tracker) RequestStageChange(ctx context.Context, leadID string, newStage int) error {
	if newStage < entity.StageMin || newStage > entity.StageMax {
		return ErrStageOutOfRange
	}

	t.mu.Lock()
	idx := -1
	for i := range t.leads {
		if t.leads[i].ID == leadID {
			idx = i
			break
		}
	}
	if idx == -1 {
		t.mu.Unlock()
		return nil
	}

	lead := t.leads[idx]
	if err := ValidateTransition(&lead, newStage); err != nil {
		t.mu.Unlock()
		return err
	}

	fromStage := lead.Stage
	t.leads[idx].Stage = newStage
	t.mu.Unlock()
	t.notifyChanged()

	bg := context.WithoutCancel(ctx)
	go func() {
		if err := t.Store.UpdateStage(bg, leadID, newStage); err != nil {
			// No rollback: the optimistic value stands until the next
			// snapshot overwrites it.
			log.Printf("❌ failed to persist stage %d for lead %s: %v", newStage, leadID, err)
			return
		}
		t.publish(bg, queue.LeadEventPayload{
			Kind:      queue.EventStageChanged,
			LeadID:    leadID,
			Name:      lead.Name,
			FromStage: fromStage,
			ToStage:   newStage,
		})
	}()

	return nil
}

// RequestSave dispatches a create-or-update. Local state is deliberately not
// touched: on create the store assigns the id, and echoing a locally
// synthesized record could diverge from the store-assigned one. The next
// snapshot is the single source of truth for this path.
func (t *Tracker) RequestSave(ctx context.Context, lead entity.Lead) (string, error) {
	if err := lead.Validate(); err != nil {
		return "", &DomainError{Code: "INVALID_LEAD", Message: err.Error()}
	}

	creating := lead.ID == ""
	id, err := t.Store.CreateOrUpdate(ctx, &lead)
	if err != nil {
		return "", &TechnicalError{Code: "WRITE_ERROR", Message: err.Error()}
	}

	if creating {
		t.publish(ctx, queue.LeadEventPayload{
			Kind:    queue.EventCreated,
			LeadID:  id,
			Name:    lead.Name,
			ToStage: lead.Stage,
		})
	}
	return id, nil
}

// RequestDelete dispatches a remote delete without optimistically removing
// the lead locally, for the same reason RequestSave doesn't mutate.
func (t *Tracker) RequestDelete(ctx context.Context, leadID string) error {
	if err := t.Store.Delete(ctx, leadID); err != nil {
		return &TechnicalError{Code: "WRITE_ERROR", Message: err.Error()}
	}

	t.publish(ctx, queue.LeadEventPayload{
		Kind:   queue.EventDeleted,
		LeadID: leadID,
	})
	return nil
}

// SetFilter narrows the derived view to one stage, or FilterAll.
func (t *Tracker) SetFilter(stage int) error {
	if stage != FilterAll && (stage < entity.StageMin || stage > entity.StageMax) {
		return ErrStageOutOfRange
	}
	t.mu.Lock()
	t.filterStage = stage
	t.mu.Unlock()
	t.notifyChanged()
	return nil
}

// SetSort switches the derived view ordering.
func (t *Tracker) SetSort(mode SortMode) error {
	switch mode {
	case SortDefault, SortIntensity, SortAlpha:
	default:
		return ErrUnknownSortMode
	}
	t.mu.Lock()
	t.sortMode = mode
	t.mu.Unlock()
	t.notifyChanged()
	return nil
}

// Leads returns a copy of the raw authoritative collection.
func (t *Tracker) Leads() []entity.Lead {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]entity.Lead(nil), t.leads...)
}

// View returns the derived display list under the current filter and sort.
func (t *Tracker) View() []entity.Lead {
	t.mu.Lock()
	leads := append([]entity.Lead(nil), t.leads...)
	filter, mode := t.filterStage, t.sortMode
	t.mu.Unlock()
	return Derive(leads, filter, mode)
}

// ViewWith derives a one-off display list without touching the sticky
// filter/sort settings.
func (t *Tracker) ViewWith(filterStage int, mode SortMode) []entity.Lead {
	return Derive(t.Leads(), filterStage, mode)
}

func (t *Tracker) publish(ctx context.Context, payload queue.LeadEventPayload) {
	if t.Events == nil {
		return
	}
	if err := t.Events.PublishLeadEvent(ctx, payload); err != nil {
		log.Printf("⚠️ failed to publish %s event for lead %s: %v", payload.Kind, payload.LeadID, err)
	}
}
