package workqueue

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/fabric/core/logger"
	"github.com/dmitrymomot/fabric/core/loop"
	"github.com/dmitrymomot/fabric/core/topic"
	"github.com/dmitrymomot/fabric/pkg/uuidx"
)

// Scheduler runs peek callbacks and lease deadlines.
// *loop.Loop satisfies it.
type Scheduler interface {
	Defer(fn func(context.Context))
	AfterFunc(d time.Duration, fn func(context.Context)) *loop.Timer
}

// Item is a unit of work waiting in a channel. The pointer returned by
// Enqueue is the only handle Dequeue accepts; a copy with equal fields is a
// different item.
type Item struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	Payload    any       `json:"payload"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	attempts int
}

// Delivery is what a peek callback receives.
type Delivery struct {
	Item *Item
	// Captures holds the wildcard captures when the channel was chosen by pattern.
	Captures []string
	Deadline time.Time
	// Attempt counts how many times the item has been leased, this one included.
	Attempt int
}

// Empty reports whether the peek found nothing to claim.
func (d Delivery) Empty() bool {
	return d.Item == nil
}

// PeekFunc receives the outcome of a Peek.
type PeekFunc func(ctx context.Context, d Delivery)

// Stats provides observability metrics for monitoring and debugging.
type Stats struct {
	Channels int   // Channels holding at least one item
	Pending  int   // Items waiting in channels
	Leased   int   // Items currently leased
	Enqueued int64 // Items ever enqueued
	Handled  int64 // Leases finalized with Handle
	Released int64 // Leases returned with Release
	Expired  int64 // Leases returned by deadline expiry
}

type channel struct {
	items []*Item
}

type lease struct {
	item     *Item
	deadline time.Time
	timer    *loop.Timer
}

// Queue is a set of named channels of work items with lease-based delivery.
type Queue struct {
	mu       sync.Mutex
	channels *topic.Index[*channel]
	leases   map[string]*lease

	sched        Scheduler
	leaseTimeout time.Duration
	logger       *slog.Logger

	enqueued atomic.Int64
	handled  atomic.Int64
	released atomic.Int64
	expired  atomic.Int64
}

// New creates a Queue that defers peek callbacks and lease deadlines onto sched.
func New(sched Scheduler, opts ...Option) (*Queue, error) {
	if sched == nil {
		return nil, ErrSchedulerNil
	}

	o := &options{
		leaseTimeout: DefaultConfig().LeaseTimeout,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Queue{
		channels:     topic.NewIndex[*channel](),
		leases:       make(map[string]*lease),
		sched:        sched,
		leaseTimeout: o.leaseTimeout,
		logger:       o.logger,
	}, nil
}

// NewFromConfig creates a Queue from configuration.
// Additional options can override config values.
func NewFromConfig(cfg Config, sched Scheduler, opts ...Option) (*Queue, error) {
	return New(sched, append([]Option{WithLeaseTimeout(cfg.LeaseTimeout)}, opts...)...)
}

// LeaseTimeout returns the lease duration applied by Peek.
func (q *Queue) LeaseTimeout() time.Duration {
	return q.leaseTimeout
}

// Enqueue appends payload to the named channel, creating the channel if needed.
func (q *Queue) Enqueue(channelName string, payload any) *Item {
	item := &Item{
		ID:         uuidx.NewString(),
		Channel:    channelName,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}

	q.mu.Lock()
	e, _ := q.channels.GetOrCreate(channelName, func() *channel { return &channel{} })
	e.Value.items = append(e.Value.items, item)
	q.mu.Unlock()

	q.enqueued.Add(1)
	return item
}

// Dequeue removes the exact item returned by Enqueue from its channel.
// Leased items are not in a channel and are left alone. Returns false when
// the item is not waiting.
func (q *Queue) Dequeue(item *Item) bool {
	if item == nil {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.channels.Get(item.Channel)
	if !ok {
		return false
	}
	i := slices.Index(e.Value.items, item)
	if i < 0 {
		return false
	}
	q.removeAt(e, i)
	return true
}

// Peek claims one item and schedules fn with it on a later turn.
//
// The channel named exactly by pattern is tried first; otherwise the first
// channel, in creation order, whose name matches pattern. Only channels
// holding more than the peek offset qualify. The claimed item leaves its
// channel and is leased until Handle, Release or the lease deadline. When
// nothing qualifies fn still runs, with an empty Delivery. A nil fn claims nothing.
func (q *Queue) Peek(ctx context.Context, pattern string, fn PeekFunc, opts ...PeekOption) {
	if fn == nil {
		return
	}

	o := &peekOptions{}
	for _, opt := range opts {
		opt(o)
	}

	d := q.claim(pattern, o.offset)

	ctx = context.WithoutCancel(ctx)
	q.sched.Defer(func(context.Context) {
		fn(ctx, d)
	})
}

// Handle finalizes the lease on id and discards the item.
// Returns false when no lease exists.
func (q *Queue) Handle(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.leases[id]
	if !ok {
		return false
	}
	delete(q.leases, id)
	l.timer.Stop()

	q.handled.Add(1)
	return true
}

// Release ends the lease on id and puts the item back at the head of its
// channel. Returns false when no lease exists.
func (q *Queue) Release(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.leases[id]
	if !ok {
		return false
	}
	delete(q.leases, id)
	l.timer.Stop()
	q.requeue(l.item)

	q.released.Add(1)
	return true
}

// Extend moves the deadline of the lease on id to d from now.
// Returns false when no lease exists or d is not positive.
func (q *Queue) Extend(id string, d time.Duration) bool {
	if d <= 0 {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.leases[id]
	if !ok {
		return false
	}
	l.deadline = time.Now().Add(d)
	l.timer.Reset(d)
	return true
}

// Stats returns current queue metrics.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	channels, pending := q.channels.Len(), 0
	for e := range q.channels.All() {
		pending += len(e.Value.items)
	}
	leased := len(q.leases)
	q.mu.Unlock()

	return Stats{
		Channels: channels,
		Pending:  pending,
		Leased:   leased,
		Enqueued: q.enqueued.Load(),
		Handled:  q.handled.Load(),
		Released: q.released.Load(),
		Expired:  q.expired.Load(),
	}
}

func (q *Queue) claim(pattern string, offset int) Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()

	var (
		found *topic.Entry[*channel]
		caps  []string
	)
	for m := range q.channels.Select(topic.Compile(pattern)) {
		if len(m.Entry.Value.items) > offset {
			found, caps = m.Entry, m.Captures
			break
		}
	}
	if found == nil {
		return Delivery{}
	}

	item := found.Value.items[offset]
	q.removeAt(found, offset)
	item.attempts++

	l := &lease{
		item:     item,
		deadline: time.Now().Add(q.leaseTimeout),
	}
	l.timer = q.sched.AfterFunc(q.leaseTimeout, func(ctx context.Context) {
		q.expire(ctx, item.ID, l)
	})
	q.leases[item.ID] = l

	return Delivery{
		Item:     item,
		Captures: caps,
		Deadline: l.deadline,
		Attempt:  item.attempts,
	}
}

// expire returns the item of l to its channel unless the lease already ended
// or its deadline was pushed back.
func (q *Queue) expire(ctx context.Context, id string, l *lease) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cur, ok := q.leases[id]
	if !ok || cur != l || time.Now().Before(l.deadline) {
		return
	}
	delete(q.leases, id)
	q.requeue(l.item)

	q.expired.Add(1)
	q.logger.WarnContext(ctx, "lease expired, item returned to channel",
		logger.ItemID(id),
		logger.Channel(l.item.Channel),
		logger.Attempt(l.item.attempts))
}

// requeue must be called with mu held.
func (q *Queue) requeue(item *Item) {
	e, _ := q.channels.GetOrCreate(item.Channel, func() *channel { return &channel{} })
	e.Value.items = slices.Insert(e.Value.items, 0, item)
}

// removeAt must be called with mu held. Empty channels are deleted.
func (q *Queue) removeAt(e *topic.Entry[*channel], i int) {
	e.Value.items = slices.Delete(e.Value.items, i, i+1)
	if len(e.Value.items) == 0 {
		q.channels.Delete(e.Name())
	}
}
