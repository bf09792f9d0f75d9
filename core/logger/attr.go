package logger

import (
	"log/slog"
	"runtime"
	"time"
)

// Attribute helpers return the empty Attr for zero inputs, which slog drops.
// This allows calls like log.Info("msg", logger.Error(err)) without nil checks.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// ============================================================================
// Error Handling
// ============================================================================

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Panic records a recovered panic value.
func Panic(r any) slog.Attr {
	if r == nil {
		return slog.Attr{}
	}
	return slog.Any("panic", r)
}

// ============================================================================
// Timing
// ============================================================================

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Timeout creates an attribute for a configured timeout.
func Timeout(d time.Duration) slog.Attr {
	return slog.Duration("timeout", d)
}

// Elapsed calculates the duration since start.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// ============================================================================
// Messaging
// ============================================================================

// Topic creates an attribute for a published topic.
func Topic(topic string) slog.Attr {
	return slog.String("topic", topic)
}

// Pattern creates an attribute for a subscription or peek pattern.
func Pattern(pattern string) slog.Attr {
	return slog.String("pattern", pattern)
}

// Kind creates an attribute for a message kind.
func Kind(kind string) slog.Attr {
	if kind == "" {
		return slog.Attr{}
	}
	return slog.String("kind", kind)
}

// MessageID creates an attribute for a message id.
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

// SubscriptionID creates an attribute for a subscription id.
func SubscriptionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("subscription_id", id)
}

// CorrelationKey creates an attribute for a request correlation key.
func CorrelationKey(key string) slog.Attr {
	if key == "" {
		return slog.Attr{}
	}
	return slog.String("correlation_key", key)
}

// ============================================================================
// Work Queue
// ============================================================================

// Channel creates an attribute for a work queue channel name.
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// ItemID creates an attribute for a work item id.
func ItemID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("item_id", id)
}

// Attempt creates an attribute for a lease attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// ============================================================================
// Generic Metadata
// ============================================================================

// Component creates an attribute for component names.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event creates an attribute for event names.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Key creates a generic key-value attribute.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// ============================================================================
// Debugging
// ============================================================================

// Stack captures the current goroutine's stack trace.
func Stack() slog.Attr {
	const size = 64 << 10
	buf := make([]byte, size)
	buf = buf[:runtime.Stack(buf, false)]
	return slog.String("stack", string(buf))
}
