package usecase

import (
	"context"

	"github.com/xavierca1/traction-hub/internal/entity"
	"github.com/xavierca1/traction-hub/internal/infra/queue"
)

// LeadStore is the remote document store contract. Subscribe pushes the full
// current collection once immediately and again after every change; delivery
// is monotonic (never an older state after a newer one). The returned stop
// function is synchronous: once it returns, no further snapshot is delivered.
type LeadStore interface {
	Subscribe(onSnapshot func(leads []entity.Lead)) (stop func(), err error)

	// CreateOrUpdate creates the document when lead.ID is empty (the store
	// assigns the id) and replaces it otherwise. Returns the id written.
	CreateOrUpdate(ctx context.Context, lead *entity.Lead) (string, error)

	// UpdateStage is a partial update of exactly the stage field, used for
	// confirming optimistic stage changes.
	UpdateStage(ctx context.Context, leadID string, stage int) error

	// Delete treats a missing document as success so retries stay idempotent.
	Delete(ctx context.Context, leadID string) error
}

// IdentityProvider supplies the signed-in user, or "" when nobody is.
type IdentityProvider interface {
	// OnAuthChange invokes cb once immediately with the current user id and
	// again on every sign-in/sign-out. The returned function detaches cb.
	OnAuthChange(cb func(userID string)) (stop func())

	SignOut(ctx context.Context) error
}

// EventPublisher fans lead lifecycle events out to interested consumers
// (commitment alerts, downstream CRM sync). A publish failure is logged and
// must never block or fail the intent that produced it.
type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, payload queue.LeadEventPayload) error
}
