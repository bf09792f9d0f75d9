package bus

import (
	"fmt"
	"log/slog"

	"github.com/fogfish/opts"
)

// Option is a functional option for configuring a Bus.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger configures structured logging for dispatch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type publishOptions struct {
	sync           bool
	kind           Kind
	replyTo        string
	correlationKey string
}

// PublishOption tunes a single Publish call.
type PublishOption = opts.Option[publishOptions]

// WithSync switches Publish to pipeline mode: subscribers run on the caller's
// stack and each one receives the previous one's return value.
func WithSync() PublishOption {
	return opts.Type[publishOptions](func(o *publishOptions) error {
		o.sync = true
		return nil
	})
}

// WithKind tags the message with a messaging idiom. Defaults to KindPublish.
func WithKind(k Kind) PublishOption {
	return opts.Type[publishOptions](func(o *publishOptions) error {
		switch k {
		case KindPublish, KindRequest, KindFulfill, KindCommand, KindNotify:
			o.kind = k
			return nil
		default:
			return fmt.Errorf("%w: unknown kind %q", ErrInvalidOption, k)
		}
	})
}

// WithReplyTo attaches a reply topic and correlation key to the message.
func WithReplyTo(replyTo, correlationKey string) PublishOption {
	return opts.Type[publishOptions](func(o *publishOptions) error {
		if replyTo == "" || correlationKey == "" {
			return fmt.Errorf("%w: reply topic and correlation key are required", ErrInvalidOption)
		}
		o.replyTo = replyTo
		o.correlationKey = correlationKey
		return nil
	})
}
