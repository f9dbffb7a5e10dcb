package models

import (
	"encoding/json"
	"time"
)

// JobEvent is one timestamped entry in a job's event log. The log is
// append-only and keeps emission order, not wall-clock order.
type JobEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// JobView is a consistent snapshot of a job returned to API callers.
// Result is populated only for COMPLETED jobs; Error only for FAILED or
// CANCELLED ones.
type JobView struct {
	ID        string          `json:"id"`
	Status    JobStatus       `json:"status"`
	Input     JobInput        `json:"input"`
	Result    json.RawMessage `json:"result"`
	Error     string          `json:"error,omitempty"`
	Events    []JobEvent      `json:"events"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
