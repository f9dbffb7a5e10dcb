package tracker

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"content-orchestrator/core/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// job is the tracker-owned record for one submission. Each job carries its
// own mutex so mutations on unrelated jobs never contend.
type job struct {
	mu sync.Mutex

	id        string
	status    models.JobStatus
	input     models.JobInput
	result    json.RawMessage
	errMsg    string
	events    []models.JobEvent
	createdAt time.Time
	updatedAt time.Time
}

// view builds a consistent snapshot. Callers must hold j.mu.
func (j *job) view() models.JobView {
	events := make([]models.JobEvent, len(j.events))
	copy(events, j.events)

	var result json.RawMessage
	if j.result != nil {
		result = append(json.RawMessage(nil), j.result...)
	}

	return models.JobView{
		ID:        j.id,
		Status:    j.status,
		Input:     j.input.Clone(),
		Result:    result,
		Error:     j.errMsg,
		Events:    events,
		CreatedAt: j.createdAt,
		UpdatedAt: j.updatedAt,
	}
}

// Tracker is the single source of truth for job state. All reads and writes
// pass through it; the registry lock guards only map membership, never the
// jobs themselves.
type Tracker struct {
	mu    sync.RWMutex
	jobs  map[string]*job
	store Store
	log   *logrus.Logger
}

// New creates a tracker. store may be nil for a memory-only registry.
func New(store Store, log *logrus.Logger) *Tracker {
	return &Tracker{
		jobs:  make(map[string]*job),
		store: store,
		log:   log,
	}
}

// Restore rehydrates the registry from the store. Call once at startup,
// before the tracker is shared with the API or the executor.
func (t *Tracker) Restore(ctx context.Context) (int, error) {
	if t.store == nil {
		return 0, nil
	}

	views, err := t.store.LoadJobs(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "loading persisted jobs")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, v := range views {
		t.jobs[v.ID] = &job{
			id:        v.ID,
			status:    v.Status,
			input:     v.Input,
			result:    v.Result,
			errMsg:    v.Error,
			events:    v.Events,
			createdAt: v.CreatedAt,
			updatedAt: v.UpdatedAt,
		}
	}

	return len(views), nil
}

// Submit creates a new PENDING job and returns its id. It never blocks on
// workflow execution; handing the id to an executor is the caller's job.
func (t *Tracker) Submit(ctx context.Context, input models.JobInput) (string, error) {
	now := time.Now().UTC()
	j := &job{
		id:        uuid.New().String(),
		status:    models.JobStatusPending,
		input:     input.Clone(),
		createdAt: now,
		updatedAt: now,
	}

	// Persist before publishing: a store failure must not leave a job
	// briefly visible to List or Get. The job is still private here, so no
	// lock is needed for the snapshot.
	if t.store != nil {
		if err := t.store.CreateJob(ctx, j.view()); err != nil {
			return "", errors.Wrap(err, "persisting job")
		}
	}

	t.mu.Lock()
	if _, exists := t.jobs[j.id]; exists {
		t.mu.Unlock()
		return "", &DuplicateIDError{JobID: j.id}
	}
	t.jobs[j.id] = j
	t.mu.Unlock()

	t.log.Infof("Job %s submitted (operation: %s)", j.id, input.OperationType)
	return j.id, nil
}

// MarkRunning transitions PENDING to RUNNING. Re-entry is rejected rather
// than silently accepted so double dispatch in the executor surfaces as an
// error.
func (t *Tracker) MarkRunning(ctx context.Context, jobID string) error {
	j, err := t.lookup(jobID)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != models.JobStatusPending {
		return &InvalidTransitionError{JobID: jobID, Status: j.status, Op: "mark running"}
	}

	if t.store != nil {
		if err := t.store.UpdateStatus(ctx, jobID, models.JobStatusRunning, nil, ""); err != nil {
			return errors.Wrap(err, "persisting status")
		}
	}

	j.status = models.JobStatusRunning
	j.updatedAt = time.Now().UTC()
	return nil
}

// AppendEvent appends a timestamped message to the job's event log. Valid in
// any non-terminal state; stale writes after completion are rejected so the
// executor can detect its own logic errors.
func (t *Tracker) AppendEvent(ctx context.Context, jobID, message string) error {
	j, err := t.lookup(jobID)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.Terminal() {
		return &InvalidTransitionError{JobID: jobID, Status: j.status, Op: "append event to"}
	}

	event := models.JobEvent{Timestamp: time.Now().UTC(), Message: message}
	if t.store != nil {
		if err := t.store.AppendEvent(ctx, jobID, event); err != nil {
			return errors.Wrap(err, "persisting event")
		}
	}

	j.events = append(j.events, event)
	j.updatedAt = event.Timestamp
	return nil
}

// Complete transitions the job to COMPLETED and sets its result. The job is
// frozen afterwards.
func (t *Tracker) Complete(ctx context.Context, jobID string, result json.RawMessage) error {
	return t.finish(ctx, jobID, models.JobStatusCompleted, result, "", "complete")
}

// Fail transitions the job to FAILED and sets its error description.
func (t *Tracker) Fail(ctx context.Context, jobID, errMsg string) error {
	return t.finish(ctx, jobID, models.JobStatusFailed, nil, errMsg, "fail")
}

// Cancel transitions the job to CANCELLED, recording the reason in the error
// field. Like Fail it is valid from any non-terminal state.
func (t *Tracker) Cancel(ctx context.Context, jobID, reason string) error {
	return t.finish(ctx, jobID, models.JobStatusCancelled, nil, reason, "cancel")
}

// finish moves a job into a terminal state. Any non-terminal state may go
// terminal directly: RUNNING is advisory instrumentation, not a gate, so an
// executor that crashes before dequeue can still fail a PENDING job.
func (t *Tracker) finish(ctx context.Context, jobID string, status models.JobStatus, result json.RawMessage, errMsg, op string) error {
	j, err := t.lookup(jobID)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.Terminal() {
		return &InvalidTransitionError{JobID: jobID, Status: j.status, Op: op}
	}

	if t.store != nil {
		if err := t.store.UpdateStatus(ctx, jobID, status, result, errMsg); err != nil {
			return errors.Wrap(err, "persisting status")
		}
	}

	j.status = status
	j.result = result
	j.errMsg = errMsg
	j.updatedAt = time.Now().UTC()
	return nil
}

// Get returns a snapshot of the job. It blocks only for the per-job lock and
// always observes the log either entirely before or entirely after any
// concurrent mutation.
func (t *Tracker) Get(jobID string) (models.JobView, error) {
	j, err := t.lookup(jobID)
	if err != nil {
		return models.JobView{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.view(), nil
}

// List returns snapshots of jobs, newest first, optionally filtered by
// status. limit <= 0 means no limit.
func (t *Tracker) List(status *models.JobStatus, limit int) []models.JobView {
	t.mu.RLock()
	jobs := make([]*job, 0, len(t.jobs))
	for _, j := range t.jobs {
		jobs = append(jobs, j)
	}
	t.mu.RUnlock()

	views := make([]models.JobView, 0, len(jobs))
	for _, j := range jobs {
		j.mu.Lock()
		v := j.view()
		j.mu.Unlock()
		if status != nil && v.Status != *status {
			continue
		}
		views = append(views, v)
	}

	sort.Slice(views, func(i, k int) bool {
		return views[i].CreatedAt.After(views[k].CreatedAt)
	})

	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views
}

// Counts returns the number of jobs per status.
func (t *Tracker) Counts() map[models.JobStatus]int {
	t.mu.RLock()
	jobs := make([]*job, 0, len(t.jobs))
	for _, j := range t.jobs {
		jobs = append(jobs, j)
	}
	t.mu.RUnlock()

	counts := make(map[models.JobStatus]int)
	for _, j := range jobs {
		j.mu.Lock()
		counts[j.status]++
		j.mu.Unlock()
	}
	return counts
}

// lookup fetches the job record under the registry read lock. Jobs are never
// evicted, so the returned pointer stays valid after the lock is released.
func (t *Tracker) lookup(jobID string) (*job, error) {
	t.mu.RLock()
	j, ok := t.jobs[jobID]
	t.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{JobID: jobID}
	}
	return j, nil
}
