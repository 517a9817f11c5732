package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/traction-hub/internal/entity"
	"github.com/xavierca1/traction-hub/internal/infra/queue"
)

// MockLeadStore fakes the remote document store. Writes go through testify
// expectations; the subscription side is driven by hand via PushSnapshot.
type MockLeadStore struct {
	mock.Mock

	mu           sync.Mutex
	snapshot     func([]entity.Lead)
	stopCount    int
	subscribeErr error
}

func (m *MockLeadStore) Subscribe(cb func([]entity.Lead)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}
	m.snapshot = cb
	return func() {
		m.mu.Lock()
		m.stopCount++
		m.snapshot = nil
		m.mu.Unlock()
	}, nil
}

// PushSnapshot simulates the store emitting the full collection.
func (m *MockLeadStore) PushSnapshot(leads []entity.Lead) {
	m.mu.Lock()
	cb := m.snapshot
	m.mu.Unlock()
	if cb != nil {
		cb(leads)
	}
}

// SnapshotFn exposes the raw callback, to simulate a snapshot that was
// already in flight when the subscription got torn down.
func (m *MockLeadStore) SnapshotFn() func([]entity.Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *MockLeadStore) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCount
}

func (m *MockLeadStore) CreateOrUpdate(ctx context.Context, lead *entity.Lead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *MockLeadStore) UpdateStage(ctx context.Context, leadID string, stage int) error {
	args := m.Called(ctx, leadID, stage)
	return args.Error(0)
}

func (m *MockLeadStore) Delete(ctx context.Context, leadID string) error {
	args := m.Called(ctx, leadID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLeadEvent(ctx context.Context, payload queue.LeadEventPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func waitOn(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func pipelineSnapshot() []entity.Lead {
	return []entity.Lead{
		{ID: "1", Name: "Vertex Pharma", Type: entity.LeadTypeUnset, Stage: 2},
		{ID: "2", Name: "Aether Biosciences", Type: entity.LeadTypeLOI, Stage: 5},
	}
}

func signedInTracker(t *testing.T, store *MockLeadStore, events EventPublisher) *Tracker {
	t.Helper()
	tracker := NewTracker(store, events)
	tracker.OnAuthChange("ops@constellate.bio")
	store.PushSnapshot(pipelineSnapshot())
	return tracker
}

func leadByID(t *testing.T, tracker *Tracker, id string) entity.Lead {
	t.Helper()
	for _, l := range tracker.Leads() {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("lead %s not found", id)
	return entity.Lead{}
}

func TestStageChangeRejectedWithoutType(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	err := tracker.RequestStageChange(context.Background(), "1", 4)

	assert.ErrorIs(t, err, ErrTypeRequiredForCommitment)
	assert.Equal(t, 2, leadByID(t, tracker, "1").Stage, "rejected transition must not mutate")
	store.AssertNotCalled(t, "UpdateStage", mock.Anything, mock.Anything, mock.Anything)
}

func TestStageChangeAppliesOptimisticallyBeforeRemoteWrite(t *testing.T) {
	store := new(MockLeadStore)
	events := new(MockEventPublisher)
	tracker := signedInTracker(t, store, events)

	updated := make(chan struct{})
	published := make(chan struct{})
	store.On("UpdateStage", mock.Anything, "2", 6).
		Run(func(mock.Arguments) { close(updated) }).Return(nil)
	events.On("PublishLeadEvent", mock.Anything, mock.MatchedBy(func(p queue.LeadEventPayload) bool {
		return p.Kind == queue.EventStageChanged && p.LeadID == "2" && p.FromStage == 5 && p.ToStage == 6
	})).Run(func(mock.Arguments) { close(published) }).Return(nil)

	err := tracker.RequestStageChange(context.Background(), "2", 6)

	assert.NoError(t, err)
	// Visible immediately, before the remote write confirms anything.
	assert.Equal(t, 6, leadByID(t, tracker, "2").Stage)

	waitOn(t, updated, "remote stage write")
	waitOn(t, published, "stage-changed event")
}

func TestStageChangeUnknownLeadIsSilentNoOp(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	err := tracker.RequestStageChange(context.Background(), "ghost", 3)

	assert.NoError(t, err)
	store.AssertNotCalled(t, "UpdateStage", mock.Anything, mock.Anything, mock.Anything)
}

func TestStageChangeOutOfRangeRejected(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	assert.ErrorIs(t, tracker.RequestStageChange(context.Background(), "2", 0), ErrStageOutOfRange)
	assert.ErrorIs(t, tracker.RequestStageChange(context.Background(), "2", 7), ErrStageOutOfRange)
	assert.Equal(t, 5, leadByID(t, tracker, "2").Stage)
}

func TestStageChangeWriteFailureKeepsOptimisticValue(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	updated := make(chan struct{})
	store.On("UpdateStage", mock.Anything, "2", 6).
		Run(func(mock.Arguments) { close(updated) }).Return(errors.New("network down"))

	err := tracker.RequestStageChange(context.Background(), "2", 6)

	assert.NoError(t, err)
	waitOn(t, updated, "failed remote stage write")

	// No rollback: the optimistic value stands until the next snapshot.
	assert.Equal(t, 6, leadByID(t, tracker, "2").Stage)

	// ...and the next snapshot restores ground truth.
	store.PushSnapshot(pipelineSnapshot())
	assert.Equal(t, 5, leadByID(t, tracker, "2").Stage)
}

func TestSnapshotReplacesCollectionWholesale(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	store.PushSnapshot([]entity.Lead{
		{ID: "9", Name: "Chimera Labs", Type: entity.LeadTypeLOI, Stage: 6},
	})

	leads := tracker.Leads()
	assert.Len(t, leads, 1)
	assert.Equal(t, "9", leads[0].ID)
}

func TestSignOutClearsCollectionAndUnsubscribesOnce(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)
	assert.NotEmpty(t, tracker.Leads())

	tracker.OnAuthChange("")

	assert.Empty(t, tracker.Leads())
	assert.Equal(t, 1, store.StopCount())

	// A second sign-out event must not unsubscribe again.
	tracker.OnAuthChange("")
	assert.Equal(t, 1, store.StopCount())
}

func TestLateSnapshotAfterSignOutIsIgnored(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	inFlight := store.SnapshotFn()
	tracker.OnAuthChange("")

	inFlight(pipelineSnapshot())

	assert.Empty(t, tracker.Leads(), "snapshot delivered after teardown must not mutate state")
}

func TestSignInAfterSignOutResubscribes(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	tracker.OnAuthChange("")
	tracker.OnAuthChange("ops@constellate.bio")
	store.PushSnapshot(pipelineSnapshot())

	assert.Len(t, tracker.Leads(), 2)
}

func TestSubscribeFailureLeavesCollectionEmpty(t *testing.T) {
	store := new(MockLeadStore)
	store.subscribeErr = errors.New("store unavailable")
	tracker := NewTracker(store, nil)

	tracker.OnAuthChange("ops@constellate.bio")

	assert.Empty(t, tracker.Leads())
}

func TestSaveDoesNotMutateLocalState(t *testing.T) {
	store := new(MockLeadStore)
	events := new(MockEventPublisher)
	tracker := signedInTracker(t, store, events)

	store.On("CreateOrUpdate", mock.Anything, mock.Anything).Return("store-assigned-id", nil)
	events.On("PublishLeadEvent", mock.Anything, mock.MatchedBy(func(p queue.LeadEventPayload) bool {
		return p.Kind == queue.EventCreated && p.LeadID == "store-assigned-id"
	})).Return(nil)

	id, err := tracker.RequestSave(context.Background(), entity.Lead{
		Name:  "Omega Synthesis",
		Type:  entity.LeadTypePaidPilot,
		Stage: 1,
	})

	assert.NoError(t, err)
	assert.Equal(t, "store-assigned-id", id)
	// The new lead only appears via the next subscription snapshot.
	assert.Len(t, tracker.Leads(), 2)
	events.AssertExpectations(t)
}

func TestSaveUpdateDoesNotPublishCreatedEvent(t *testing.T) {
	store := new(MockLeadStore)
	events := new(MockEventPublisher)
	tracker := signedInTracker(t, store, events)

	store.On("CreateOrUpdate", mock.Anything, mock.Anything).Return("2", nil)

	_, err := tracker.RequestSave(context.Background(), entity.Lead{
		ID:    "2",
		Name:  "Aether Biosciences",
		Type:  entity.LeadTypeLOI,
		Stage: 5,
	})

	assert.NoError(t, err)
	events.AssertNotCalled(t, "PublishLeadEvent", mock.Anything, mock.Anything)
}

func TestSaveRejectsInvalidLead(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	_, err := tracker.RequestSave(context.Background(), entity.Lead{Name: "", Stage: 1})

	assert.True(t, IsDomainError(err))
	store.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
}

func TestSaveWriteErrorIsTechnical(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	store.On("CreateOrUpdate", mock.Anything, mock.Anything).Return("", errors.New("permission denied"))

	_, err := tracker.RequestSave(context.Background(), entity.Lead{Name: "Novus Gen", Stage: 1})

	assert.True(t, IsTechnicalError(err))
}

func TestDeleteDoesNotRemoveLocally(t *testing.T) {
	store := new(MockLeadStore)
	events := new(MockEventPublisher)
	tracker := signedInTracker(t, store, events)

	store.On("Delete", mock.Anything, "1").Return(nil)
	events.On("PublishLeadEvent", mock.Anything, mock.MatchedBy(func(p queue.LeadEventPayload) bool {
		return p.Kind == queue.EventDeleted && p.LeadID == "1"
	})).Return(nil)

	err := tracker.RequestDelete(context.Background(), "1")

	assert.NoError(t, err)
	// Still there until the snapshot says otherwise.
	assert.Len(t, tracker.Leads(), 2)
	events.AssertExpectations(t)
}

func TestDeleteWriteErrorIsTechnical(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	store.On("Delete", mock.Anything, "1").Return(errors.New("network down"))

	err := tracker.RequestDelete(context.Background(), "1")

	assert.True(t, IsTechnicalError(err))
}

func TestViewAppliesStickyFilterAndSort(t *testing.T) {
	store := new(MockLeadStore)
	tracker := signedInTracker(t, store, nil)

	assert.NoError(t, tracker.SetFilter(5))
	view := tracker.View()
	assert.Len(t, view, 1)
	assert.Equal(t, "2", view[0].ID)

	assert.NoError(t, tracker.SetFilter(FilterAll))
	assert.NoError(t, tracker.SetSort(SortAlpha))
	view = tracker.View()
	assert.Equal(t, "Aether Biosciences", view[0].Name)

	assert.ErrorIs(t, tracker.SetFilter(9), ErrStageOutOfRange)
	assert.ErrorIs(t, tracker.SetSort("BOGUS"), ErrUnknownSortMode)
}

func TestOnChangeFiresOnSnapshotAndOptimisticApply(t *testing.T) {
	store := new(MockLeadStore)
	tracker := NewTracker(store, nil)

	var mu sync.Mutex
	fired := 0
	tracker.SetOnChange(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	tracker.OnAuthChange("ops@constellate.bio")
	store.PushSnapshot(pipelineSnapshot())

	mu.Lock()
	afterSnapshot := fired
	mu.Unlock()
	assert.Greater(t, afterSnapshot, 0)

	updated := make(chan struct{})
	store.On("UpdateStage", mock.Anything, "2", 6).
		Run(func(mock.Arguments) { close(updated) }).Return(nil)
	assert.NoError(t, tracker.RequestStageChange(context.Background(), "2", 6))
	waitOn(t, updated, "remote stage write")

	mu.Lock()
	afterClick := fired
	mu.Unlock()
	assert.Greater(t, afterClick, afterSnapshot)
}
