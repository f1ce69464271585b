package domain

import "errors"

var (
	// ErrJobSuperseded is returned when a job's task id no longer matches
	// the live schedule of its message: the schedule was canceled, replaced,
	// or already resolved. The job is dropped without side effects.
	ErrJobSuperseded = errors.New("job superseded by a newer or canceled schedule")

	// ErrInvalidPayload is returned when a job payload JSON is malformed
	ErrInvalidPayload = errors.New("invalid job payload")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
