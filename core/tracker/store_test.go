package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"content-orchestrator/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records every store call so tests can verify the write-through
// contract without a database.
type fakeStore struct {
	mu       sync.Mutex
	created  []models.JobView
	events   map[string][]models.JobEvent
	statuses map[string][]models.JobStatus
	loaded   []models.JobView

	failCreate bool
	failAppend bool
	failUpdate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:   make(map[string][]models.JobEvent),
		statuses: make(map[string][]models.JobStatus),
	}
}

func (s *fakeStore) CreateJob(_ context.Context, view models.JobView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return fmt.Errorf("create failed")
	}
	s.created = append(s.created, view)
	return nil
}

func (s *fakeStore) AppendEvent(_ context.Context, jobID string, event models.JobEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend {
		return fmt.Errorf("append failed")
	}
	s.events[jobID] = append(s.events[jobID], event)
	return nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, jobID string, status models.JobStatus, _ json.RawMessage, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return fmt.Errorf("update failed")
	}
	s.statuses[jobID] = append(s.statuses[jobID], status)
	return nil
}

func (s *fakeStore) LoadJobs(_ context.Context) ([]models.JobView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded, nil
}

func TestWriteThroughOnEveryMutation(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	ctx := context.Background()

	id, err := tr.Submit(ctx, testInput())
	require.NoError(t, err)
	require.NoError(t, tr.MarkRunning(ctx, id))
	require.NoError(t, tr.AppendEvent(ctx, id, "working"))
	require.NoError(t, tr.Complete(ctx, id, json.RawMessage(`{"ok":true}`)))

	require.Len(t, store.created, 1)
	assert.Equal(t, id, store.created[0].ID)
	require.Len(t, store.events[id], 1)
	assert.Equal(t, "working", store.events[id][0].Message)
	assert.Equal(t, []models.JobStatus{models.JobStatusRunning, models.JobStatusCompleted}, store.statuses[id])
}

func TestRejectedMutationsNeverReachStore(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	ctx := context.Background()

	id, _ := tr.Submit(ctx, testInput())
	require.NoError(t, tr.MarkRunning(ctx, id))
	require.NoError(t, tr.Fail(ctx, id, "boom"))

	// Invalid transitions must not produce store writes
	_ = tr.AppendEvent(ctx, id, "stale")
	_ = tr.Complete(ctx, id, json.RawMessage(`{}`))
	_ = tr.MarkRunning(ctx, id)

	assert.Empty(t, store.events[id])
	assert.Equal(t, []models.JobStatus{models.JobStatusRunning, models.JobStatusFailed}, store.statuses[id])
}

func TestStoreFailureLeavesMemoryUnchanged(t *testing.T) {
	store := newFakeStore()
	tr := newTestTracker(store)
	ctx := context.Background()

	id, _ := tr.Submit(ctx, testInput())

	store.failUpdate = true
	require.Error(t, tr.MarkRunning(ctx, id))
	view, _ := tr.Get(id)
	assert.Equal(t, models.JobStatusPending, view.Status)

	store.failAppend = true
	require.Error(t, tr.AppendEvent(ctx, id, "lost"))
	view, _ = tr.Get(id)
	assert.Empty(t, view.Events)

	// Once the store recovers the same transitions go through
	store.failUpdate = false
	store.failAppend = false
	require.NoError(t, tr.MarkRunning(ctx, id))
	require.NoError(t, tr.AppendEvent(ctx, id, "recovered"))
}

func TestSubmitNotPublishedOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failCreate = true
	tr := newTestTracker(store)
	ctx := context.Background()

	_, err := tr.Submit(ctx, testInput())
	require.Error(t, err)

	// The registry never held the job, not even transiently
	assert.Empty(t, tr.List(nil, 0))
	assert.Empty(t, tr.Counts())
	assert.Empty(t, store.created)

	// A healthy store accepts the next submission as usual
	store.failCreate = false
	id, err := tr.Submit(ctx, testInput())
	require.NoError(t, err)
	_, err = tr.Get(id)
	require.NoError(t, err)
}

func TestRestoreRehydratesJobs(t *testing.T) {
	now := time.Now().UTC()
	store := newFakeStore()
	store.loaded = []models.JobView{
		{
			ID:        "11111111-1111-1111-1111-111111111111",
			Status:    models.JobStatusRunning,
			Input:     testInput(),
			Events:    []models.JobEvent{{Timestamp: now, Message: "stage trend_digest started"}},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "22222222-2222-2222-2222-222222222222",
			Status:    models.JobStatusCompleted,
			Input:     testInput(),
			Result:    json.RawMessage(`{"title":"done"}`),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	tr := newTestTracker(store)
	restored, err := tr.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	view, err := tr.Get("11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, view.Status)
	require.Len(t, view.Events, 1)

	// Restored jobs keep their transition rules
	ctx := context.Background()
	require.NoError(t, tr.AppendEvent(ctx, view.ID, "resumed"))
	assert.True(t, IsInvalidTransition(tr.Complete(ctx, "22222222-2222-2222-2222-222222222222", nil)))
}
