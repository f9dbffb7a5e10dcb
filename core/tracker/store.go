package tracker

import (
	"context"
	"encoding/json"

	"content-orchestrator/core/models"
)

// Store persists tracker state so jobs survive a process restart. Every
// mutating tracker call maps to exactly one Store call, issued while the
// per-job lock is held, so implementations see writes for one job strictly
// in order. A nil Store keeps jobs in memory for the process lifetime only.
type Store interface {
	// CreateJob persists a freshly submitted job.
	CreateJob(ctx context.Context, view models.JobView) error

	// AppendEvent persists one event-log entry and refreshes updated_at.
	AppendEvent(ctx context.Context, jobID string, event models.JobEvent) error

	// UpdateStatus persists a status transition together with the
	// result or error payload that accompanies a terminal state.
	UpdateStatus(ctx context.Context, jobID string, status models.JobStatus, result json.RawMessage, errMsg string) error

	// LoadJobs returns every persisted job with its full event log,
	// used to rehydrate the tracker at startup.
	LoadJobs(ctx context.Context) ([]models.JobView, error)
}
