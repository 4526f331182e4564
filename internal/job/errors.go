package job

import (
	"context"
	"errors"
)

// Common errors returned by the job manager
var (
	// ErrInvalidJob is returned by Submit when the spec has no action.
	ErrInvalidJob = errors.New("invalid job")

	// ErrManagerClosed is returned by Submit after Close.
	ErrManagerClosed = errors.New("job manager is closed")

	// ErrJobNotFound is returned for ids that are unknown or already retired.
	ErrJobNotFound = errors.New("job not found")

	// ErrQueueClosed is returned when pushing onto a closed queue.
	ErrQueueClosed = errors.New("job queue is closed")

	// ErrCanceled may be wrapped by an action to report that it stopped early
	// because cancellation was requested. The job then ends canceled rather
	// than finished.
	ErrCanceled = errors.New("job canceled")

	// ErrActionPanicked wraps the value recovered from a panicking action.
	ErrActionPanicked = errors.New("job action panicked")
)

// isCancellation reports whether an action error means the action stopped
// because it was asked to.
func isCancellation(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}
