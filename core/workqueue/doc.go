// Package workqueue provides point-to-point work channels with lease-based
// delivery and automatic redelivery on timeout.
//
// Items are appended to named channels with Enqueue. A consumer claims one
// with Peek: the item leaves its channel and is leased for the configured
// lease timeout. Exactly one of three things ends a lease:
//
//   - Handle finalizes the item; it is gone for good.
//   - Release puts it back at the head of its channel right away.
//   - The deadline passes; the item goes back to the head of its channel.
//
// Basic usage:
//
//	q, _ := workqueue.New(l, workqueue.WithLeaseTimeout(30*time.Second))
//
//	q.Enqueue("emails:welcome", msg)
//
//	q.Peek(ctx, "emails:*", func(ctx context.Context, d workqueue.Delivery) {
//		if d.Empty() {
//			return
//		}
//		if err := send(d.Item.Payload); err != nil {
//			q.Release(d.Item.ID)
//			return
//		}
//		q.Handle(d.Item.ID)
//	})
//
// Peek never calls back on the caller's stack. The callback runs on the
// scheduler, normally the fabric's loop, and also runs when nothing could be
// claimed, with an empty Delivery.
//
// # Channel selection
//
// Peek first tries the channel whose name equals the pattern, then every
// other channel in creation order whose name the pattern matches, using the
// wildcard grammar of package topic. AtOffset skips items at the head of the
// chosen channel. Channels are removed once they run empty.
//
// # Workers
//
// Worker polls Peek on an interval and runs a Handler for each claimed item
// on its own goroutine, with Handle on success and Release on error or panic:
//
//	w, _ := workqueue.NewWorker(q, "emails:#", func(ctx context.Context, d workqueue.Delivery) error {
//		return send(d.Item.Payload)
//	}, workqueue.WithMaxConcurrent(4))
//
//	g.Go(w.Run(ctx))
//
// Handlers can be wrapped with decorators:
//
//	h := workqueue.Decorate(send,
//		workqueue.Logging(log),
//		workqueue.Retry(3),
//	)
package workqueue
