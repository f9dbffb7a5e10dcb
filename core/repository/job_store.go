package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"content-orchestrator/core/models"

	"github.com/pkg/errors"
)

// JobStore persists tracker state in Postgres. It implements tracker.Store:
// one transaction per mutating call, so a job row and its event rows never
// diverge.
type JobStore struct {
	db *DB
}

// NewJobStore creates a new job store
func NewJobStore(db *DB) *JobStore {
	return &JobStore{db: db}
}

// CreateJob inserts the job row for a fresh submission
func (s *JobStore) CreateJob(ctx context.Context, view models.JobView) error {
	inputJSON, err := json.Marshal(view.Input)
	if err != nil {
		return errors.Wrap(err, "encoding job input")
	}

	query := `
		INSERT INTO jobs (id, status, operation_type, input_json, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		view.ID,
		view.Status,
		view.Input.OperationType,
		inputJSON,
		view.Error,
		view.CreatedAt,
		view.UpdatedAt,
	)
	return errors.Wrap(err, "inserting job")
}

// AppendEvent inserts an event row and refreshes the job's updated_at
func (s *JobStore) AppendEvent(ctx context.Context, jobID string, event models.JobEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO job_events (job_id, at, message) VALUES ($1, $2, $3)`,
		jobID, event.Timestamp, event.Message,
	); err != nil {
		return errors.Wrap(err, "inserting event")
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET updated_at = $1 WHERE id = $2`,
		event.Timestamp, jobID,
	); err != nil {
		return errors.Wrap(err, "updating job timestamp")
	}

	return errors.Wrap(tx.Commit(), "committing event")
}

// UpdateStatus persists a status transition with its terminal payload
func (s *JobStore) UpdateStatus(ctx context.Context, jobID string, status models.JobStatus, result json.RawMessage, errMsg string) error {
	var resultJSON interface{}
	if result != nil {
		resultJSON = []byte(result)
	}

	query := `
		UPDATE jobs
		SET status = $1, result_json = $2, error = $3, updated_at = $4
		WHERE id = $5
	`
	_, err := s.db.ExecContext(ctx, query, status, resultJSON, errMsg, time.Now().UTC(), jobID)
	return errors.Wrap(err, "updating job status")
}

// LoadJobs returns every persisted job with its event log, events in
// insertion order.
func (s *JobStore) LoadJobs(ctx context.Context) ([]models.JobView, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, status, input_json, result_json, error, created_at, updated_at
		FROM jobs
		ORDER BY created_at
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying jobs")
	}
	defer rows.Close()

	var views []models.JobView
	index := make(map[string]int)
	for rows.Next() {
		var (
			view       models.JobView
			inputJSON  []byte
			resultJSON sql.NullString
		)
		if err := rows.Scan(&view.ID, &view.Status, &inputJSON, &resultJSON, &view.Error, &view.CreatedAt, &view.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning job")
		}
		if err := json.Unmarshal(inputJSON, &view.Input); err != nil {
			return nil, errors.Wrapf(err, "decoding input for job %s", view.ID)
		}
		if resultJSON.Valid {
			view.Result = json.RawMessage(resultJSON.String)
		}
		index[view.ID] = len(views)
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating jobs")
	}

	eventRows, err := s.db.QueryxContext(ctx, `
		SELECT job_id, at, message
		FROM job_events
		ORDER BY id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	defer eventRows.Close()

	for eventRows.Next() {
		var (
			jobID string
			event models.JobEvent
		)
		if err := eventRows.Scan(&jobID, &event.Timestamp, &event.Message); err != nil {
			return nil, errors.Wrap(err, "scanning event")
		}
		if i, ok := index[jobID]; ok {
			views[i].Events = append(views[i].Events, event)
		}
	}
	return views, errors.Wrap(eventRows.Err(), "iterating events")
}
