package workqueue

import "errors"

var (
	// ErrSchedulerNil is returned by New when no scheduler is provided.
	ErrSchedulerNil = errors.New("workqueue scheduler is nil")

	// ErrConsumerNil is returned by NewWorker when no queue is provided.
	ErrConsumerNil = errors.New("workqueue consumer is nil")

	// ErrHandlerNil is returned by NewWorker when no handler is provided.
	ErrHandlerNil = errors.New("workqueue handler is nil")

	// ErrWorkerAlreadyStarted is returned when attempting to start a running worker.
	ErrWorkerAlreadyStarted = errors.New("worker already started")

	// ErrWorkerNotStarted is returned when attempting to stop a worker that is not running.
	ErrWorkerNotStarted = errors.New("worker not started")

	// ErrShutdownTimeout is returned when in-flight handlers outlive the shutdown timeout.
	ErrShutdownTimeout = errors.New("worker shutdown timeout exceeded")

	// ErrHealthcheckFailed wraps every healthcheck failure.
	ErrHealthcheckFailed = errors.New("healthcheck failed")

	// ErrWorkerNotRunning is reported by Healthcheck for a stopped worker.
	ErrWorkerNotRunning = errors.New("worker is not running")

	// ErrWorkerOverloaded is reported by Healthcheck when every slot is busy.
	ErrWorkerOverloaded = errors.New("worker is overloaded")

	// ErrHandlerPanic is the failure recorded for a handler that panicked.
	ErrHandlerPanic = errors.New("handler panicked")
)
