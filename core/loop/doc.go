// Package loop provides a single-goroutine cooperative executor.
//
// Every callback handed to a Loop runs on the loop's own goroutine, one at a
// time, in the order it was scheduled. Work is either deferred to the next
// turn with Defer or scheduled at a deadline with AfterFunc. Nothing ever
// runs on the caller's stack.
//
// Basic usage:
//
//	l := loop.New(loop.WithLogger(log))
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(l.Run(ctx))
//
//	l.Defer(func(ctx context.Context) {
//		// runs on the loop goroutine
//	})
//
//	t := l.AfterFunc(5*time.Second, func(ctx context.Context) {
//		// runs once the deadline passes, unless stopped
//	})
//	t.Stop()
//
// Work may be scheduled before the loop is started; it runs once Start is
// called. Stop abandons queued work without running it. A stopped loop can
// be started again and picks up where it left off.
//
// Loops that are never started can be stepped manually with Drain, which is
// handy in tests.
//
// # Panics
//
// A panicking callback is recovered and logged. The loop keeps running and
// the panic is counted in Stats.
package loop
