package loop

import (
	"container/heap"
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

// Loop executes callbacks one at a time on a single goroutine.
type Loop struct {
	mu     sync.Mutex
	tasks  []func(context.Context)
	timers timerHeap
	seq    uint64
	wake   chan struct{}

	logger          *slog.Logger
	shutdownTimeout time.Duration

	// State management
	cancel context.CancelFunc
	done   chan struct{}
	active atomic.Bool

	// Observability metrics
	tasksRun    atomic.Int64
	timersFired atomic.Int64
	panics      atomic.Int64
}

// Stats is a point-in-time view of a Loop.
type Stats struct {
	PendingTasks  int   // Callbacks queued with Defer and not yet run
	PendingTimers int   // Timers scheduled and not yet fired
	TasksRun      int64 // Deferred callbacks executed
	TimersFired   int64 // Timer callbacks executed
	Panics        int64 // Callbacks that panicked
	IsRunning     bool  // Whether Start is currently executing
}

// New creates a Loop. The loop does nothing until Start or Drain is called.
func New(opts ...Option) *Loop {
	o := &options{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Loop{
		wake:            make(chan struct{}, 1),
		logger:          o.logger,
		shutdownTimeout: o.shutdownTimeout,
	}
}

// Defer queues fn to run on a later turn of the loop.
func (l *Loop) Defer(fn func(context.Context)) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	l.notify()
}

// AfterFunc schedules fn to run on the loop once d has elapsed.
// Timers with equal deadlines fire in scheduling order.
func (l *Loop) AfterFunc(d time.Duration, fn func(context.Context)) *Timer {
	if fn == nil {
		fn = func(context.Context) {}
	}

	l.mu.Lock()
	t := &Timer{
		loop:  l,
		fn:    fn,
		when:  time.Now().Add(d),
		seq:   l.nextSeq(),
		index: -1,
	}
	heap.Push(&l.timers, t)
	l.mu.Unlock()

	l.notify()
	return t
}

// Start runs the loop until the context is cancelled or Stop is called.
// This is a blocking operation. Use Run() for errgroup pattern or call this in a goroutine.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.cancel != nil || !l.active.CompareAndSwap(false, true) {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	// A parent context cancellation ends the run without Stop, so clear
	// the run state here unless Stop already did.
	defer func() {
		cancel()
		l.mu.Lock()
		if l.done == done {
			l.cancel = nil
		}
		l.mu.Unlock()
		l.active.Store(false)
		close(done)
	}()

	l.logger.InfoContext(ctx, "loop started")

	for {
		if l.turn(ctx) > 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		var timer *time.Timer
		var due <-chan time.Time
		if wait, ok := l.nextDeadline(); ok {
			timer = time.NewTimer(wait)
			due = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			l.logger.InfoContext(context.Background(), "loop stopping")
			return ctx.Err()
		case <-l.wake:
		case <-due:
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// Stop cancels the loop and waits for the current turn to finish.
// Queued callbacks and pending timers are kept and run if the loop is started again.
// Returns an error if the shutdown timeout is exceeded.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if l.cancel == nil {
		l.mu.Unlock()
		return ErrNotStarted
	}
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.mu.Unlock()

	cancel()

	select {
	case <-done:
		l.logger.InfoContext(context.Background(), "loop stopped cleanly")
		return nil
	case <-time.After(l.shutdownTimeout):
		l.logger.WarnContext(context.Background(), "loop shutdown timeout exceeded",
			logger.Timeout(l.shutdownTimeout))
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, l.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the loop, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (l *Loop) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- l.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = l.Stop()
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

// Drain runs queued callbacks and due timers on the calling goroutine until
// no due work remains, and returns the number of callbacks executed.
// It fails with ErrAlreadyStarted while the loop is running.
func (l *Loop) Drain(ctx context.Context) (int, error) {
	if !l.active.CompareAndSwap(false, true) {
		return 0, ErrAlreadyStarted
	}
	defer l.active.Store(false)

	total := 0
	for {
		n := l.turn(ctx)
		if n == 0 {
			return total, nil
		}
		total += n
	}
}

// Stats returns current loop metrics.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Stats{
		PendingTasks:  len(l.tasks),
		PendingTimers: len(l.timers),
		TasksRun:      l.tasksRun.Load(),
		TimersFired:   l.timersFired.Load(),
		Panics:        l.panics.Load(),
		IsRunning:     l.cancel != nil && l.active.Load(),
	}
}

// turn runs the callbacks queued so far, then every timer due at the start
// of the turn. Callbacks queued during the turn wait for the next one.
func (l *Loop) turn(ctx context.Context) int {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	for _, fn := range tasks {
		l.exec(ctx, fn)
		l.tasksRun.Add(1)
	}

	now := time.Now()
	fired := 0
	for {
		l.mu.Lock()
		if len(l.timers) == 0 || l.timers[0].when.After(now) {
			l.mu.Unlock()
			break
		}
		t := heap.Pop(&l.timers).(*Timer)
		l.mu.Unlock()

		l.exec(ctx, t.fn)
		l.timersFired.Add(1)
		fired++
	}

	return len(tasks) + fired
}

func (l *Loop) exec(ctx context.Context, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.logger.ErrorContext(ctx, "loop callback panicked",
				logger.Panic(r),
				logger.Stack())
		}
	}()
	fn(ctx)
}

// nextDeadline returns the wait until the earliest timer.
func (l *Loop) nextDeadline() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.timers) == 0 {
		return 0, false
	}
	return max(time.Until(l.timers[0].when), 0), true
}

// nextSeq must be called with mu held.
func (l *Loop) nextSeq() uint64 {
	l.seq++
	return l.seq
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
