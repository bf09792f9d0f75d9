// Package bus implements topic-based publish/subscribe with wildcard
// bindings and the request/fulfill and command/notify idioms built on it.
//
// Topics are colon-separated. A subscription pattern may use `*` for exactly
// one segment and `#` for any number of trailing or inner segments; the text
// matched by each wildcard reaches the handler as Message.Captures. See
// package topic for the full grammar.
//
// # Delivery modes
//
// Publish defers every delivery to a Scheduler, normally the fabric's
// single-goroutine loop, so handlers never run on the publisher's stack and
// every subscriber sees the same payload:
//
//	b, _ := bus.New(l)
//	b.Subscribe("orders:*:created", func(ctx context.Context, msg bus.Message) any {
//		region := msg.Capture(0)
//		...
//		return nil
//	})
//	_ = b.Publish(ctx, "orders:eu:created", order)
//
// WithSync turns a publish into a pipeline that runs on the caller's stack:
// each subscriber receives the previous subscriber's return value. Pipe does
// the same and hands back the final value:
//
//	b.Subscribe("price", addTax)
//	b.Subscribe("price", roundUp)
//	total, err := b.Pipe(ctx, "price", 100)
//
// In both modes the binding registered under the published topic itself is
// served first, then pattern bindings in registration order. Subscriptions
// within one binding keep subscription order.
//
// # Request and command
//
// Request subscribes a callback to a reply topic of the form
// `<topic>:reply:<key>` and publishes the payload with ReplyTo and
// CorrelationKey set. The first Fulfill for that key publishes the answer to
// the reply topic and removes the subscription; later ones are no-ops.
// Command and Notify are the same mechanics under a different Kind.
// A request fans out like any publish: every matching subscriber sees it and
// may try to answer, but only the first answer reaches the requester.
//
//	b.Subscribe("users:get", func(ctx context.Context, msg bus.Message) any {
//		b.Reply(ctx, msg, lookup(msg.Payload))
//		return nil
//	})
//
//	user, err := b.Ask(ctx, "users:get", id)
//
// # Unsubscribing
//
// Handlers are funcs and cannot be compared, so there is no unsubscribe by
// callback. Keep the SubscriptionToken returned by Subscribe and call its
// Unsubscribe, or pass its Pattern and ID to Bus.Unsubscribe.
//
// # Failures
//
// A panicking handler is recovered and logged. Deferred deliveries to other
// subscribers are unaffected; a pipeline stops at the failed stage.
package bus
