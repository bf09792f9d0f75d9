package workqueue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fabric/core/loop"
	"github.com/dmitrymomot/fabric/core/workqueue"
)

func newQueue(t *testing.T, opts ...workqueue.Option) (*workqueue.Queue, *loop.Loop) {
	t.Helper()

	l := loop.New()
	q, err := workqueue.New(l, opts...)
	require.NoError(t, err)
	return q, l
}

func drain(t *testing.T, l *loop.Loop) {
	t.Helper()

	_, err := l.Drain(context.Background())
	require.NoError(t, err)
}

// peek runs a Peek and steps the loop until its callback has run.
func peek(t *testing.T, q *workqueue.Queue, l *loop.Loop, pattern string, opts ...workqueue.PeekOption) workqueue.Delivery {
	t.Helper()

	var (
		got    workqueue.Delivery
		called bool
	)
	q.Peek(context.Background(), pattern, func(_ context.Context, d workqueue.Delivery) {
		got, called = d, true
	}, opts...)
	assert.False(t, called, "peek callback must not run on the caller's stack")

	drain(t, l)
	require.True(t, called)
	return got
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := workqueue.New(nil)
	assert.ErrorIs(t, err, workqueue.ErrSchedulerNil)

	q, err := workqueue.NewFromConfig(workqueue.Config{LeaseTimeout: time.Minute}, loop.New())
	require.NoError(t, err)
	assert.Equal(t, time.Minute, q.LeaseTimeout())

	q, err = workqueue.New(loop.New())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, q.LeaseTimeout())
}

func TestQueue_RoundTrip(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t)
	token := q.Enqueue("q", "X")
	require.NotNil(t, token)
	assert.Equal(t, "q", token.Channel)
	assert.Equal(t, "X", token.Payload)
	assert.NotEmpty(t, token.ID)

	first := peek(t, q, l, "q")
	require.False(t, first.Empty())
	assert.Same(t, token, first.Item)
	assert.Equal(t, 1, first.Attempt)
	assert.False(t, first.Deadline.IsZero())

	second := peek(t, q, l, "q")
	assert.True(t, second.Empty(), "leased item is invisible to other peeks")

	assert.True(t, q.Handle(token.ID))
	assert.False(t, q.Handle(token.ID), "handle is idempotent")
	assert.False(t, q.Release(token.ID), "terminated lease cannot be released")

	stats := q.Stats()
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 0, stats.Leased)
	assert.Equal(t, 0, stats.Channels)
	assert.Equal(t, int64(1), stats.Handled)
}

func TestQueue_FIFOWithinChannel(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t)
	a := q.Enqueue("q", "a")
	b := q.Enqueue("q", "b")

	assert.Same(t, a, peek(t, q, l, "q").Item)
	assert.Same(t, b, peek(t, q, l, "q").Item)
}

func TestQueue_LeaseTimeout(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t, workqueue.WithLeaseTimeout(50*time.Millisecond))
	item := q.Enqueue("q", "X")
	newer := q.Enqueue("q", "Y")

	first := peek(t, q, l, "q")
	require.Same(t, item, first.Item)

	time.Sleep(60 * time.Millisecond)
	drain(t, l)

	again := peek(t, q, l, "q")
	require.Same(t, item, again.Item, "expired item is back at the front of its channel")
	assert.Equal(t, 2, again.Attempt)
	assert.Equal(t, int64(1), q.Stats().Expired)

	assert.True(t, q.Handle(item.ID))
	assert.Same(t, newer, peek(t, q, l, "q").Item)
}

func TestQueue_ExpiryAfterHandleIsNoop(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t, workqueue.WithLeaseTimeout(10*time.Millisecond))
	item := q.Enqueue("q", "X")
	peek(t, q, l, "q")

	require.True(t, q.Handle(item.ID))
	time.Sleep(20 * time.Millisecond)
	drain(t, l)

	stats := q.Stats()
	assert.Equal(t, 0, stats.Pending)
	assert.Zero(t, stats.Expired)
}

func TestQueue_Release(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t, workqueue.WithLeaseTimeout(time.Hour))
	item := q.Enqueue("q", "X")
	newer := q.Enqueue("q", "Y")

	require.Same(t, item, peek(t, q, l, "q").Item)
	assert.True(t, q.Release(item.ID))
	assert.False(t, q.Release(item.ID), "release is idempotent")
	assert.False(t, q.Handle(item.ID))

	got := peek(t, q, l, "q")
	assert.Same(t, item, got.Item, "released item is available immediately, ahead of newer items")
	assert.Equal(t, 2, got.Attempt)

	assert.Equal(t, []workqueue.ChannelInfo{{Name: "q", Items: []string{newer.ID}}}, q.Channels())
}

func TestQueue_ReleaseRecreatesChannel(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t)
	item := q.Enqueue("solo", "X")
	peek(t, q, l, "solo")
	assert.Equal(t, 0, q.Stats().Channels)

	require.True(t, q.Release(item.ID))
	assert.Same(t, item, peek(t, q, l, "solo").Item)
}

func TestQueue_UnknownIDs(t *testing.T) {
	t.Parallel()

	q, _ := newQueue(t)
	assert.False(t, q.Handle("missing"))
	assert.False(t, q.Release("missing"))
	assert.False(t, q.Extend("missing", time.Second))
	assert.False(t, q.Dequeue(nil))
}

func TestQueue_DequeueIdentity(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t)
	token := q.Enqueue("q", "X")

	clone := *token
	assert.False(t, q.Dequeue(&clone), "equal fields but different identity must not match")
	assert.Equal(t, 1, q.Stats().Pending)

	assert.True(t, q.Dequeue(token))
	assert.False(t, q.Dequeue(token))
	assert.Equal(t, 0, q.Stats().Channels)
	assert.True(t, peek(t, q, l, "q").Empty())
}

func TestQueue_DequeueLeasedItem(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t)
	token := q.Enqueue("q", "X")
	peek(t, q, l, "q")

	assert.False(t, q.Dequeue(token))
	assert.Equal(t, 1, q.Stats().Leased)
}

func TestQueue_PeekSelection(t *testing.T) {
	t.Parallel()

	t.Run("exact channel preferred", func(t *testing.T) {
		t.Parallel()

		q, l := newQueue(t)
		q.Enqueue("jobs:email", "e")
		q.Enqueue("jobs:*", "literal-star")

		got := peek(t, q, l, "jobs:*")
		assert.Equal(t, "literal-star", got.Item.Payload)
		assert.Nil(t, got.Captures)
	})

	t.Run("wildcard match in creation order with captures", func(t *testing.T) {
		t.Parallel()

		q, l := newQueue(t)
		q.Enqueue("reports:daily", "r")
		q.Enqueue("jobs:email", "e")
		q.Enqueue("jobs:sms", "s")

		got := peek(t, q, l, "jobs:*")
		assert.Equal(t, "e", got.Item.Payload)
		assert.Equal(t, []string{"email"}, got.Captures)

		got = peek(t, q, l, "JOBS:#")
		assert.Equal(t, "s", got.Item.Payload)
		assert.Equal(t, []string{"sms"}, got.Captures)
	})

	t.Run("offset", func(t *testing.T) {
		t.Parallel()

		q, l := newQueue(t)
		q.Enqueue("short", "s0")
		q.Enqueue("long", "l0")
		q.Enqueue("long", "l1")
		q.Enqueue("long", "l2")

		got := peek(t, q, l, "*", workqueue.AtOffset(1))
		assert.Equal(t, "l1", got.Item.Payload, "channels without enough items are skipped")

		assert.True(t, peek(t, q, l, "short", workqueue.AtOffset(1)).Empty())
		assert.Equal(t, "s0", peek(t, q, l, "short", workqueue.AtOffset(-3)).Item.Payload)
		channels := q.Channels()
		require.Len(t, channels, 1)
		assert.Equal(t, "long", channels[0].Name)
		assert.Len(t, channels[0].Items, 2)
	})

	t.Run("nothing matches", func(t *testing.T) {
		t.Parallel()

		q, l := newQueue(t)
		q.Enqueue("a", 1)
		assert.True(t, peek(t, q, l, "b:#").Empty())
		assert.Equal(t, 1, q.Stats().Pending)
	})

	t.Run("nil callback claims nothing", func(t *testing.T) {
		t.Parallel()

		q, _ := newQueue(t)
		q.Enqueue("a", 1)
		q.Peek(context.Background(), "a", nil)
		assert.Equal(t, 0, q.Stats().Leased)
		assert.Equal(t, 1, q.Stats().Pending)
	})
}

func TestQueue_Extend(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t, workqueue.WithLeaseTimeout(20*time.Millisecond))
	item := q.Enqueue("q", "X")
	d := peek(t, q, l, "q")

	assert.False(t, q.Extend(item.ID, 0))
	require.True(t, q.Extend(item.ID, time.Hour))

	leases := q.Leases()
	require.Len(t, leases, 1)
	assert.True(t, leases[0].Deadline.After(d.Deadline))
	assert.Equal(t, 1, leases[0].Attempt)

	time.Sleep(30 * time.Millisecond)
	drain(t, l)
	assert.Equal(t, 1, q.Stats().Leased, "extended lease survives its original deadline")
	assert.Zero(t, q.Stats().Expired)
}

func TestQueue_ReleasedLeaseTimerDoesNotExpireNewLease(t *testing.T) {
	t.Parallel()

	q, l := newQueue(t, workqueue.WithLeaseTimeout(20*time.Millisecond))
	item := q.Enqueue("q", "X")

	first := peek(t, q, l, "q")
	require.Same(t, item, first.Item)
	require.True(t, q.Release(item.ID))

	second := peek(t, q, l, "q")
	require.Same(t, item, second.Item)
	assert.Equal(t, 2, second.Attempt)
	require.True(t, q.Extend(item.ID, time.Hour))

	time.Sleep(50 * time.Millisecond)
	drain(t, l)

	stats := q.Stats()
	assert.Equal(t, 1, stats.Leased)
	assert.Zero(t, stats.Expired)
	assert.Equal(t, int64(1), stats.Released)
	assert.True(t, q.Handle(item.ID))
}

func TestQueue_ConcurrentPeekClaimsOnce(t *testing.T) {
	t.Parallel()

	l := loop.New()
	q, err := workqueue.New(l, workqueue.WithLeaseTimeout(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Start(ctx) }()

	const items = 50
	for i := range items {
		q.Enqueue("work", i)
	}

	var (
		mu    sync.Mutex
		seen  = make(map[string]int)
		empty int
		wg    sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				q.Peek(ctx, "work", func(_ context.Context, d workqueue.Delivery) {
					mu.Lock()
					defer mu.Unlock()
					if d.Empty() {
						empty++
						return
					}
					seen[d.Item.ID]++
				})
			}
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen)+empty == 80
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, items)
	for id, n := range seen {
		assert.Equal(t, 1, n, "item %s claimed more than once", id)
	}
	assert.Equal(t, 30, empty)
}
