package loop

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Loop.
type Option func(*options)

type options struct {
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// WithLogger sets the logger used to report panics and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the running turn to finish.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}
