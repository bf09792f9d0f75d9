// Package fabric is an in-process message fabric: topic publish/subscribe
// with wildcard patterns, request/reply over generated reply topics, and a
// lease-based work queue.
//
// Topics and patterns are sequences of segments separated by ':'. Literal
// segments compare case-insensitively. In patterns, '*' matches exactly one
// segment and '#' matches any number of segments, including none:
//
//	orders:*:created   matches orders:42:created
//	orders:#           matches orders, orders:42, orders:42:created
//
// # Hub
//
// A Hub composes a topic bus and a work queue on one cooperative loop. Deferred
// deliveries, reply callbacks, peek callbacks and lease expiry all run on the
// loop, one callback at a time, never on the caller's stack.
//
//	hub := fabric.New(fabric.WithLogger(log))
//
//	eg, ctx := errgroup.WithContext(ctx)
//	eg.Go(hub.Run(ctx))
//
//	hub.Subscribe("orders:*", func(ctx context.Context, msg fabric.Message) any {
//		log.Info("order event", "id", msg.Capture(0))
//		return nil
//	})
//	_ = hub.Publish(ctx, "orders:42", order)
//
// # Pipelines
//
// A synchronous publish runs matching handlers in order on the caller's
// stack, the exact-topic binding first. Each handler's result becomes the
// payload of the next, and Pipe returns the last one:
//
//	out, err := hub.Pipe(ctx, "price:quote", 100)
//
// # Request and Command
//
// Request and Command subscribe a one-shot callback to a reply topic and
// publish with a correlation key. The receiver answers with Reply, or with
// Fulfill and Notify given the key. Ask wraps Request in a blocking call:
//
//	res, err := hub.Ask(ctx, "users:lookup", userID)
//
// # Work Queue
//
// Items wait in named channels. Peek leases the head of a matching channel;
// the lease ends with Handle, Release, or expiry, which puts the item back at
// the head of its channel:
//
//	hub.Enqueue("emails:welcome", msg)
//
//	w, _ := hub.NewWorker("emails:*", func(ctx context.Context, d fabric.Delivery) error {
//		return send(ctx, d.Item.Payload)
//	})
//	eg.Go(w.Run(ctx))
//
// # Debugging
//
// With Config.Debug set, Snapshot and Dump expose bindings, outstanding
// requests, channels and leases.
package fabric
