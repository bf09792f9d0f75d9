package workqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/fabric/core/logger"
)

// Consumer is the part of a queue a Worker needs. *Queue satisfies it.
type Consumer interface {
	Peek(ctx context.Context, pattern string, fn PeekFunc, opts ...PeekOption)
	Handle(id string) bool
	Release(id string) bool
}

// Handler processes one delivery. Returning nil finalizes the item;
// an error puts it back at the head of its channel.
type Handler func(ctx context.Context, d Delivery) error

// Worker is a competing consumer: it polls a channel pattern and runs a
// handler for every item it manages to lease.
type Worker struct {
	queue   Consumer
	pattern string
	handler Handler
	sem     chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex

	// Configuration
	pullInterval    time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// State management
	ctx    context.Context
	cancel context.CancelFunc

	// Observability metrics
	itemsProcessed atomic.Int64
	itemsFailed    atomic.Int64
	leasesLost     atomic.Int64
	activeItems    atomic.Int32
}

// WorkerStats provides observability metrics for monitoring and debugging
type WorkerStats struct {
	ItemsProcessed int64 // Items handled successfully
	ItemsFailed    int64 // Items released after an error or panic
	LeasesLost     int64 // Items whose lease ended before the handler finished
	ActiveItems    int32 // Items currently being processed
	IsRunning      bool  // Whether the worker is currently running
}

// NewWorker creates a worker that leases items from channels matching pattern.
func NewWorker(queue Consumer, pattern string, handler Handler, opts ...WorkerOption) (*Worker, error) {
	if queue == nil {
		return nil, ErrConsumerNil
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}

	defaults := DefaultConfig()
	options := &workerOptions{
		pullInterval:    defaults.PullInterval,
		shutdownTimeout: defaults.WorkerStopTimeout,
		maxConcurrent:   defaults.MaxConcurrent,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		queue:           queue,
		pattern:         pattern,
		handler:         handler,
		sem:             make(chan struct{}, options.maxConcurrent),
		pullInterval:    options.pullInterval,
		shutdownTimeout: options.shutdownTimeout,
		logger:          options.logger,
	}, nil
}

// NewWorkerFromConfig creates a Worker from configuration.
// Additional options can override config values.
func NewWorkerFromConfig(cfg Config, queue Consumer, pattern string, handler Handler, opts ...WorkerOption) (*Worker, error) {
	allOpts := append([]WorkerOption{
		WithPullInterval(cfg.PullInterval),
		WithMaxConcurrent(cfg.MaxConcurrent),
		WithWorkerShutdownTimeout(cfg.WorkerStopTimeout),
	}, opts...)

	return NewWorker(queue, pattern, handler, allOpts...)
}

// Start begins polling. This is a blocking operation that runs until the
// context is cancelled. Use Run() for errgroup pattern or call this in a goroutine.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return ErrWorkerAlreadyStarted
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	ctx = w.ctx
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "worker started",
		logger.Pattern(w.pattern),
		slog.Int("max_concurrent", cap(w.sem)))

	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(context.Background(), "worker stopping")
			return ctx.Err()
		case <-ticker.C:
			select {
			case w.sem <- struct{}{}:
				w.queue.Peek(ctx, w.pattern, w.dispatch)
			default:
				w.logger.DebugContext(ctx, "all worker slots busy, skipping tick",
					logger.Pattern(w.pattern))
			}
		}
	}
}

// Stop gracefully shuts down the worker with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	start := time.Now()

	w.logger.InfoContext(context.Background(), "worker stopping, waiting for active items to complete",
		logger.Pattern(w.pattern),
		logger.Timeout(w.shutdownTimeout))

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.InfoContext(context.Background(), "worker stopped cleanly",
			logger.Pattern(w.pattern),
			logger.Elapsed(start))
		return nil
	case <-time.After(w.shutdownTimeout):
		w.logger.WarnContext(context.Background(), "worker shutdown timeout exceeded - some items may be abandoned",
			logger.Pattern(w.pattern),
			logger.Timeout(w.shutdownTimeout),
			logger.Elapsed(start))
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, w.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the worker, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- w.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = w.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Stats returns current worker statistics for observability and monitoring.
func (w *Worker) Stats() WorkerStats {
	w.mu.RLock()
	isRunning := w.cancel != nil
	w.mu.RUnlock()

	return WorkerStats{
		ItemsProcessed: w.itemsProcessed.Load(),
		ItemsFailed:    w.itemsFailed.Load(),
		LeasesLost:     w.leasesLost.Load(),
		ActiveItems:    w.activeItems.Load(),
		IsRunning:      isRunning,
	}
}

// Healthcheck validates that the worker is running and has a free slot.
//
// The returned error can be checked using errors.Is:
//
//	if errors.Is(err, workqueue.ErrWorkerNotRunning) { ... }
//	if errors.Is(err, workqueue.ErrWorkerOverloaded) { ... }
func (w *Worker) Healthcheck(ctx context.Context) error {
	stats := w.Stats()

	if !stats.IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrWorkerNotRunning)
	}

	maxConcurrent := int32(cap(w.sem))
	if stats.ActiveItems >= maxConcurrent {
		return errors.Join(ErrHealthcheckFailed, ErrWorkerOverloaded,
			fmt.Errorf("%d/%d slots busy", stats.ActiveItems, maxConcurrent))
	}

	return nil
}

// dispatch runs on the scheduler with the outcome of a peek and hands the
// item to a goroutine so the scheduler is never blocked by a handler.
func (w *Worker) dispatch(_ context.Context, d Delivery) {
	if d.Empty() {
		<-w.sem
		return
	}

	// Mutex protects against shutdown race: the worker must still be running
	// when the item is added to the waitgroup, otherwise Stop might miss it.
	w.mu.RLock()
	if w.cancel == nil {
		w.mu.RUnlock()
		w.queue.Release(d.Item.ID)
		<-w.sem
		return
	}
	w.wg.Add(1)
	w.mu.RUnlock()

	go func() {
		defer w.wg.Done()
		defer func() { <-w.sem }()
		w.process(d)
	}()
}

// process executes the handler and settles the lease.
func (w *Worker) process(d Delivery) {
	start := time.Now()

	w.activeItems.Add(1)
	defer w.activeItems.Add(-1)

	// Handlers get until the lease deadline even during graceful shutdown.
	ctx, cancel := context.WithDeadline(context.Background(), d.Deadline)
	defer cancel()

	err := w.call(ctx, d)
	duration := time.Since(start)

	if err != nil {
		w.itemsFailed.Add(1)
		w.logger.ErrorContext(ctx, "item failed, releasing",
			logger.ItemID(d.Item.ID),
			logger.Channel(d.Item.Channel),
			logger.Attempt(d.Attempt),
			logger.Duration(duration),
			logger.Error(err))
		w.queue.Release(d.Item.ID)
		return
	}

	if !w.queue.Handle(d.Item.ID) {
		w.leasesLost.Add(1)
		w.logger.WarnContext(ctx, "lease ended before item was handled",
			logger.ItemID(d.Item.ID),
			logger.Channel(d.Item.Channel),
			logger.Duration(duration))
		return
	}

	w.itemsProcessed.Add(1)
	w.logger.DebugContext(ctx, "item handled",
		logger.ItemID(d.Item.ID),
		logger.Channel(d.Item.Channel),
		logger.Duration(duration))
}

func (w *Worker) call(ctx context.Context, d Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return w.handler(ctx, d)
}
