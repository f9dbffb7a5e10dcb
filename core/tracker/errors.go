package tracker

import (
	"errors"
	"fmt"

	"content-orchestrator/core/models"
)

// NotFoundError reports an operation that referenced an unknown job id.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.JobID)
}

// InvalidTransitionError reports an operation attempted on a job whose
// current status forbids it. It signals a caller-side logic error and is
// never masked or repaired by the tracker.
type InvalidTransitionError struct {
	JobID  string
	Status models.JobStatus
	Op     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s job %s in status %s", e.Op, e.JobID, e.Status)
}

// DuplicateIDError reports an id collision during submission. With random
// 128-bit ids this is effectively unreachable, but callers supplying their
// own ids must handle it.
type DuplicateIDError struct {
	JobID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("job id %s already exists", e.JobID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}
