package logger_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fabric/core/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("lease", logger.ItemID("1"), logger.Attempt(2))
	require.Equal(t, "lease", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "item_id", g[0].Key)
	assert.Equal(t, "attempt", g[1].Key)
}

func TestNilSafeAttrs(t *testing.T) {
	t.Parallel()

	empty := []slog.Attr{
		logger.Error(nil),
		logger.Panic(nil),
		logger.Kind(""),
		logger.MessageID(""),
		logger.SubscriptionID(""),
		logger.CorrelationKey(""),
		logger.ItemID(""),
		logger.Key("k", nil),
	}
	for _, attr := range empty {
		assert.True(t, attr.Equal(slog.Attr{}), "attr %q should be empty", attr.Key)
	}
}

func TestMessagingAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attr slog.Attr
		key  string
		want any
	}{
		{logger.Topic("a:b"), "topic", "a:b"},
		{logger.Pattern("a:*"), "pattern", "a:*"},
		{logger.Kind("request"), "kind", "request"},
		{logger.MessageID("m1"), "message_id", "m1"},
		{logger.SubscriptionID("s1"), "subscription_id", "s1"},
		{logger.CorrelationKey("c1"), "correlation_key", "c1"},
		{logger.Channel("emails"), "channel", "emails"},
		{logger.ItemID("i1"), "item_id", "i1"},
		{logger.Attempt(3), "attempt", int64(3)},
		{logger.Component("bus"), "component", "bus"},
		{logger.Event("started"), "event", "started"},
		{logger.Count("items", 4), "items", int64(4)},
		{logger.Panic("boom"), "panic", "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, tt.attr.Key)
		assert.Equal(t, tt.want, tt.attr.Value.Any())
	}
}

func TestTimingAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Second, logger.Duration(time.Second).Value.Duration())
	assert.Equal(t, "timeout", logger.Timeout(time.Second).Key)

	elapsed := logger.Elapsed(time.Now().Add(-time.Second))
	assert.Equal(t, "elapsed", elapsed.Key)
	assert.GreaterOrEqual(t, elapsed.Value.Duration(), time.Second)
}

func TestDebugAttrs(t *testing.T) {
	t.Parallel()

	stack := logger.Stack()
	assert.Equal(t, "stack", stack.Key)
	assert.Contains(t, stack.Value.String(), "TestDebugAttrs")
}
