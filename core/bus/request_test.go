package bus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fabric/core/bus"
	"github.com/dmitrymomot/fabric/core/loop"
)

func TestReplyTopic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "svc:reply:k1", bus.ReplyTopic("svc", "k1"))
}

func TestBus_RequestFulfill(t *testing.T) {
	t.Parallel()

	b, l := newBus(t)
	ctx := context.Background()

	service := &recorder{}
	b.Subscribe("svc", service.handler(nil))

	requester := &recorder{}
	key := b.Request(ctx, "svc", "P", requester.handler(nil))
	require.NotEmpty(t, key)
	assert.Equal(t, 1, b.Stats().PendingRequests)

	drain(t, l)
	reqs := service.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, bus.KindRequest, reqs[0].Kind)
	assert.Equal(t, "P", reqs[0].Payload)
	assert.Equal(t, key, reqs[0].CorrelationKey)
	assert.Equal(t, bus.ReplyTopic("svc", key), reqs[0].ReplyTo)
	assert.True(t, reqs[0].IsReplyExpected())

	assert.True(t, b.Fulfill(ctx, "svc", key, "R"))
	assert.False(t, b.Fulfill(ctx, "svc", key, "R2"), "second fulfill is a no-op")
	drain(t, l)

	replies := requester.all()
	require.Len(t, replies, 1)
	assert.Equal(t, "R", replies[0].Payload)
	assert.Equal(t, bus.KindFulfill, replies[0].Kind)
	assert.Equal(t, key, replies[0].CorrelationKey)

	stats := b.Stats()
	assert.Equal(t, 0, stats.PendingRequests)
	assert.Equal(t, 1, stats.Bindings, "reply binding is removed after fulfill")
	assert.Len(t, service.all(), 1, "the reply does not reach the service topic")
}

func TestBus_RequestFansOutFirstFulfillWins(t *testing.T) {
	t.Parallel()

	b, l := newBus(t)
	ctx := context.Background()

	var seen, answered []string
	answer := func(name string) bus.Handler {
		return func(ctx context.Context, msg bus.Message) any {
			seen = append(seen, name)
			if b.Reply(ctx, msg, name) {
				answered = append(answered, name)
			}
			return nil
		}
	}
	b.Subscribe("svc", answer("exact"))
	b.Subscribe("*", answer("wildcard"))

	requester := &recorder{}
	b.Request(ctx, "svc", "P", requester.handler(nil))
	drain(t, l)

	assert.Equal(t, []string{"exact", "wildcard"}, seen)
	assert.Equal(t, []string{"exact"}, answered, "only the first answer is accepted")
	replies := requester.all()
	require.Len(t, replies, 1)
	assert.Equal(t, "exact", replies[0].Payload)
	assert.Equal(t, 0, b.Stats().PendingRequests)
}

func TestBus_FulfillUnknownKey(t *testing.T) {
	t.Parallel()

	b, l := newBus(t)
	rec := &recorder{}
	b.Subscribe("svc:#", rec.handler(nil))

	assert.False(t, b.Fulfill(context.Background(), "svc", "unknown", "R"))
	assert.Zero(t, drain(t, l))
}

func TestBus_CommandNotifyViaReply(t *testing.T) {
	t.Parallel()

	b, l := newBus(t)
	ctx := context.Background()

	b.Subscribe("users:*:disable", func(ctx context.Context, msg bus.Message) any {
		assert.Equal(t, bus.KindCommand, msg.Kind)
		assert.Equal(t, "42", msg.Capture(0))
		assert.True(t, b.Reply(ctx, msg, "disabled"))
		assert.False(t, b.Reply(ctx, msg, "again"))
		return nil
	})

	acks := &recorder{}
	key := b.Command(ctx, "users:42:disable", nil, acks.handler(nil))
	drain(t, l)

	got := acks.all()
	require.Len(t, got, 1)
	assert.Equal(t, bus.KindNotify, got[0].Kind)
	assert.Equal(t, "disabled", got[0].Payload)
	assert.Equal(t, key, got[0].CorrelationKey)

	assert.False(t, b.Notify(ctx, "users:42:disable", key, "late"))
}

func TestBus_ReplyToPlainMessage(t *testing.T) {
	t.Parallel()

	b, _ := newBus(t)
	assert.False(t, b.Reply(context.Background(), bus.Message{Kind: bus.KindPublish}, nil))
	assert.False(t, b.Reply(context.Background(), bus.Message{Kind: bus.KindRequest}, nil))
}

func TestBus_Cancel(t *testing.T) {
	t.Parallel()

	b, l := newBus(t)
	ctx := context.Background()

	rec := &recorder{}
	key := b.Request(ctx, "svc", nil, rec.handler(nil))
	require.Len(t, b.Pending(), 1)
	assert.Equal(t, "svc", b.Pending()[0].Topic)
	assert.Equal(t, bus.KindRequest, b.Pending()[0].Kind)

	assert.True(t, b.Cancel(key))
	assert.False(t, b.Cancel(key))
	assert.False(t, b.Fulfill(ctx, "svc", key, "R"))
	drain(t, l)

	assert.Empty(t, rec.all())
	assert.Empty(t, b.Pending())
	assert.Equal(t, 0, b.Stats().Bindings)
}

func TestBus_Ask(t *testing.T) {
	t.Parallel()

	startedBus := func(t *testing.T) *bus.Bus {
		t.Helper()

		l := loop.New()
		b, err := bus.New(l)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		go func() { _ = l.Start(ctx) }()
		return b
	}

	t.Run("answered", func(t *testing.T) {
		t.Parallel()

		b := startedBus(t)
		b.Subscribe("ping", func(ctx context.Context, msg bus.Message) any {
			b.Reply(ctx, msg, msg.Payload.(string)+"-pong")
			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		got, err := b.Ask(ctx, "ping", "ping")
		require.NoError(t, err)
		assert.Equal(t, "ping-pong", got)
		assert.Eventually(t, func() bool { return b.Stats().PendingRequests == 0 }, time.Second, time.Millisecond)
	})

	t.Run("timeout cleans up", func(t *testing.T) {
		t.Parallel()

		b := startedBus(t)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := b.Ask(ctx, "silence", nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, b.Pending())
		assert.Equal(t, 0, b.Stats().Bindings)
	})

	t.Run("cancelled by another caller", func(t *testing.T) {
		t.Parallel()

		b := startedBus(t)
		b.Subscribe("slow", func(_ context.Context, msg bus.Message) any {
			b.Cancel(msg.CorrelationKey)
			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := b.Ask(ctx, "slow", nil)
		assert.ErrorIs(t, err, bus.ErrRequestCancelled)
	})
}

func TestBus_Bindings(t *testing.T) {
	t.Parallel()

	b, _ := newBus(t)
	t1 := b.Subscribe("a", func(context.Context, bus.Message) any { return nil })
	t2 := b.Subscribe("a", func(context.Context, bus.Message) any { return nil })
	t3 := b.Subscribe("b:#", func(context.Context, bus.Message) any { return nil })

	assert.Equal(t, []bus.BindingInfo{
		{Pattern: "a", Subscriptions: []string{t1.ID, t2.ID}},
		{Pattern: "b:#", Subscriptions: []string{t3.ID}},
	}, b.Bindings())
}
