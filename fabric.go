package fabric

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/fabric/core/bus"
	"github.com/dmitrymomot/fabric/core/logger"
	"github.com/dmitrymomot/fabric/core/loop"
	"github.com/dmitrymomot/fabric/core/workqueue"
)

// Re-exported so most programs only import the root package.
type (
	Message           = bus.Message
	Handler           = bus.Handler
	SubscriptionToken = bus.SubscriptionToken
	Item              = workqueue.Item
	Delivery          = workqueue.Delivery
	PeekFunc          = workqueue.PeekFunc
)

// Hub is one messaging fabric: a topic bus and a work queue sharing a single
// cooperative loop. Deferred callbacks of both run on that loop, one at a time.
type Hub struct {
	loop   *loop.Loop
	bus    *bus.Bus
	queue  *workqueue.Queue
	cfg    Config
	logger *slog.Logger
}

// Stats aggregates the metrics of every hub component.
type Stats struct {
	Loop  loop.Stats
	Bus   bus.Stats
	Queue workqueue.Stats
}

// New creates a Hub with DefaultConfig.
func New(opts ...Option) *Hub {
	return NewFromConfig(DefaultConfig(), opts...)
}

// NewFromConfig creates a Hub from configuration.
// Additional options can override config values.
func NewFromConfig(cfg Config, opts ...Option) *Hub {
	o := &options{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	l := loop.New(
		loop.WithLogger(o.logger.With(logger.Component("loop"))),
		loop.WithShutdownTimeout(o.cfg.ShutdownTimeout),
	)
	// The loop satisfies both schedulers, so construction cannot fail.
	b, _ := bus.New(l, bus.WithLogger(o.logger.With(logger.Component("bus"))))
	q, _ := workqueue.NewFromConfig(o.cfg.Config, l,
		workqueue.WithLogger(o.logger.With(logger.Component("workqueue"))))

	return &Hub{
		loop:   l,
		bus:    b,
		queue:  q,
		cfg:    o.cfg,
		logger: o.logger,
	}
}

// Config returns the effective configuration.
func (h *Hub) Config() Config {
	return h.cfg
}

// Bus exposes the underlying topic bus.
func (h *Hub) Bus() *bus.Bus {
	return h.bus
}

// Queue exposes the underlying work queue.
func (h *Hub) Queue() *workqueue.Queue {
	return h.queue
}

// ============================================================================
// Topics
// ============================================================================

// Subscribe binds handler to pattern.
func (h *Hub) Subscribe(pattern string, handler Handler) SubscriptionToken {
	return h.bus.Subscribe(pattern, handler)
}

// Unsubscribe removes the subscription id from pattern.
func (h *Hub) Unsubscribe(pattern, id string) (SubscriptionToken, bool) {
	return h.bus.Unsubscribe(pattern, id)
}

// Publish delivers payload to every subscription matching topic.
func (h *Hub) Publish(ctx context.Context, topic string, payload any, opts ...bus.PublishOption) error {
	return h.bus.Publish(ctx, topic, payload, opts...)
}

// Pipe runs the synchronous pipeline for topic and returns the last result.
func (h *Hub) Pipe(ctx context.Context, topic string, payload any) (any, error) {
	return h.bus.Pipe(ctx, topic, payload)
}

// Request publishes a request and calls cb once with the reply.
func (h *Hub) Request(ctx context.Context, topic string, payload any, cb Handler) string {
	return h.bus.Request(ctx, topic, payload, cb)
}

// Fulfill answers the request identified by key.
func (h *Hub) Fulfill(ctx context.Context, topic, key string, payload any) bool {
	return h.bus.Fulfill(ctx, topic, key, payload)
}

// Command publishes a command and calls cb once with the notification.
func (h *Hub) Command(ctx context.Context, topic string, payload any, cb Handler) string {
	return h.bus.Command(ctx, topic, payload, cb)
}

// Notify answers the command identified by key.
func (h *Hub) Notify(ctx context.Context, topic, key string, payload any) bool {
	return h.bus.Notify(ctx, topic, key, payload)
}

// Reply answers msg with the matching reply kind.
func (h *Hub) Reply(ctx context.Context, msg Message, payload any) bool {
	return h.bus.Reply(ctx, msg, payload)
}

// Cancel abandons the outstanding request or command identified by key.
func (h *Hub) Cancel(key string) bool {
	return h.bus.Cancel(key)
}

// Ask publishes a request and blocks until it is answered or ctx is done.
func (h *Hub) Ask(ctx context.Context, topic string, payload any) (any, error) {
	return h.bus.Ask(ctx, topic, payload)
}

// ============================================================================
// Work queue
// ============================================================================

// Enqueue appends payload to channel.
func (h *Hub) Enqueue(channel string, payload any) *Item {
	return h.queue.Enqueue(channel, payload)
}

// Dequeue removes a waiting item.
func (h *Hub) Dequeue(item *Item) bool {
	return h.queue.Dequeue(item)
}

// Peek leases one item from the channels matching pattern.
func (h *Hub) Peek(ctx context.Context, pattern string, fn PeekFunc, opts ...workqueue.PeekOption) {
	h.queue.Peek(ctx, pattern, fn, opts...)
}

// Handle finalizes the lease on id.
func (h *Hub) Handle(id string) bool {
	return h.queue.Handle(id)
}

// Release returns the leased item id to the head of its channel.
func (h *Hub) Release(id string) bool {
	return h.queue.Release(id)
}

// Extend pushes back the deadline of the lease on id.
func (h *Hub) Extend(id string, d time.Duration) bool {
	return h.queue.Extend(id, d)
}

// NewWorker creates a worker consuming the channels matching pattern, with
// the worker settings from the hub configuration.
func (h *Hub) NewWorker(pattern string, handler workqueue.Handler, opts ...workqueue.WorkerOption) (*workqueue.Worker, error) {
	allOpts := append([]workqueue.WorkerOption{
		workqueue.WithWorkerLogger(h.logger.With(logger.Component("worker"), logger.Pattern(pattern))),
	}, opts...)
	return workqueue.NewWorkerFromConfig(h.cfg.Config, h.queue, pattern, handler, allOpts...)
}

// ============================================================================
// Lifecycle
// ============================================================================

// Start runs the hub loop. It blocks until ctx is cancelled or Stop is called.
func (h *Hub) Start(ctx context.Context) error {
	return h.loop.Start(ctx)
}

// Stop halts the loop, waiting up to the shutdown timeout for the running callback.
func (h *Hub) Stop() error {
	return h.loop.Stop()
}

// Run provides errgroup compatibility for coordinated lifecycle management.
func (h *Hub) Run(ctx context.Context) func() error {
	return h.loop.Run(ctx)
}

// Drain runs queued callbacks on the calling goroutine until none are due.
// Use it instead of Start in tests and single-threaded programs.
func (h *Hub) Drain(ctx context.Context) (int, error) {
	return h.loop.Drain(ctx)
}

// Stats returns current metrics of every component.
func (h *Hub) Stats() Stats {
	return Stats{
		Loop:  h.loop.Stats(),
		Bus:   h.bus.Stats(),
		Queue: h.queue.Stats(),
	}
}

// Healthcheck reports whether the hub loop is running.
func (h *Hub) Healthcheck(ctx context.Context) error {
	if !h.loop.Stats().IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrNotRunning)
	}
	return nil
}
