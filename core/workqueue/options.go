package workqueue

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Queue.
type Option func(*options)

type options struct {
	leaseTimeout time.Duration
	logger       *slog.Logger
}

// WithLeaseTimeout sets how long a peeked item stays invisible before it is
// returned to its channel automatically.
func WithLeaseTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.leaseTimeout = d
		}
	}
}

// WithLogger configures structured logging for lease expiry.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// PeekOption tunes a single Peek call.
type PeekOption func(*peekOptions)

type peekOptions struct {
	offset int
}

// AtOffset claims the item at position n of the chosen channel instead of
// the head. Only channels holding more than n items qualify.
func AtOffset(n int) PeekOption {
	return func(o *peekOptions) {
		if n >= 0 {
			o.offset = n
		}
	}
}
