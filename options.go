package fabric

import (
	"log/slog"
	"time"
)

// Option configures a Hub. Options are applied on top of the Config passed
// to NewFromConfig.
type Option func(*options)

type options struct {
	cfg    Config
	logger *slog.Logger
}

// WithLogger sets the logger shared by every component of the hub.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLeaseTimeout sets how long a peeked item stays leased.
func WithLeaseTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cfg.LeaseTimeout = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the running callback.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cfg.ShutdownTimeout = d
		}
	}
}

// WithDebug enables Snapshot and Dump.
func WithDebug() Option {
	return func(o *options) {
		o.cfg.Debug = true
	}
}
