package bus

import "errors"

var (
	// ErrSchedulerNil is returned by New when no scheduler is provided.
	ErrSchedulerNil = errors.New("bus scheduler is nil")

	// ErrNoSubscribers is returned by Pipe when no binding matches the topic.
	ErrNoSubscribers = errors.New("no subscribers for topic")

	// ErrHandlerPanic is returned when a pipeline stage panics.
	ErrHandlerPanic = errors.New("subscriber handler panicked")

	// ErrInvalidOption is returned when a publish option cannot be applied.
	ErrInvalidOption = errors.New("invalid publish option")

	// ErrRequestCancelled is returned by Ask when the request is abandoned with Cancel.
	ErrRequestCancelled = errors.New("request cancelled")
)
