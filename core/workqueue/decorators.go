package workqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/fabric/core/logger"
)

// Decorator wraps a Handler to add cross-cutting behavior.
type Decorator func(Handler) Handler

// Decorate applies decorators to h. The first decorator becomes the
// outermost wrapper:
//
//	h := workqueue.Decorate(send,
//		workqueue.Logging(log),   // runs first
//		workqueue.Timeout(time.Second),
//		workqueue.Retry(3),       // wraps send directly
//	)
func Decorate(h Handler, decorators ...Decorator) Handler {
	for i := len(decorators) - 1; i >= 0; i-- {
		if decorators[i] != nil {
			h = decorators[i](h)
		}
	}
	return h
}

// Retry runs the handler up to n extra times within one lease.
// The last error is returned when every attempt fails.
func Retry(n int) Decorator {
	return Backoff(n, 0, 0)
}

// Backoff is Retry with an exponentially growing pause between attempts,
// capped at maxDelay. Waiting stops early when ctx is done, which includes
// the lease deadline.
func Backoff(n int, initialDelay, maxDelay time.Duration) Decorator {
	return func(next Handler) Handler {
		return func(ctx context.Context, d Delivery) error {
			var lastErr error
			delay := initialDelay

			for attempt := 0; attempt <= n; attempt++ {
				if attempt > 0 {
					if err := sleep(ctx, delay); err != nil {
						return err
					}
					delay = min(delay*2, maxDelay)
				}

				lastErr = next(ctx, d)
				if lastErr == nil {
					return nil
				}
			}
			return fmt.Errorf("failed after %d retries: %w", n, lastErr)
		}
	}
}

// Timeout bounds a single handler call. The handler keeps running in the
// background if it ignores its context; its result is then discarded.
func Timeout(d time.Duration) Decorator {
	return func(next Handler) Handler {
		return func(ctx context.Context, dl Delivery) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- next(ctx, dl)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return fmt.Errorf("handler timeout after %s: %w", d, ctx.Err())
			}
		}
	}
}

// Logging logs every call with its outcome and duration.
func Logging(log *slog.Logger) Decorator {
	return func(next Handler) Handler {
		return func(ctx context.Context, d Delivery) error {
			start := time.Now()
			err := next(ctx, d)

			attrs := []any{
				logger.ItemID(d.Item.ID),
				logger.Channel(d.Item.Channel),
				logger.Attempt(d.Attempt),
				logger.Key("captures", d.Captures),
				logger.Elapsed(start),
			}
			if err != nil {
				log.ErrorContext(ctx, "work item failed", append(attrs, logger.Error(err))...)
				return err
			}
			log.InfoContext(ctx, "work item done", attrs...)
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
