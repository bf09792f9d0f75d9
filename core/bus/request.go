package bus

import (
	"context"
	"time"

	"github.com/dmitrymomot/fabric/core/topic"
	"github.com/dmitrymomot/fabric/pkg/async"
	"github.com/dmitrymomot/fabric/pkg/uuidx"
)

// replySegment sits between the request topic and the correlation key in a
// synthesized reply topic.
const replySegment = "reply"

type pendingReply struct {
	topic     string
	replyTo   string
	kind      Kind
	createdAt time.Time
	cancelled chan struct{}
}

// ReplyTopic returns the reply topic for a request on topicName correlated by key.
func ReplyTopic(topicName, key string) string {
	return topicName + topic.Separator + replySegment + topic.Separator + key
}

// Request publishes payload to topicName as a request and subscribes cb to a
// one-shot reply topic. The request reaches every subscriber matching
// topicName, not a single responder; the first Fulfill wins and cb runs at
// most once with its payload. Returns the correlation key the fulfiller must
// echo back.
func (b *Bus) Request(ctx context.Context, topicName string, payload any, cb Handler) string {
	key, _ := b.ask(ctx, KindRequest, topicName, payload, cb)
	return key
}

// Command works like Request for state-changing intents. The fabric treats
// both the same; the distinction is a convention between the parties.
func (b *Bus) Command(ctx context.Context, topicName string, payload any, cb Handler) string {
	key, _ := b.ask(ctx, KindCommand, topicName, payload, cb)
	return key
}

// Fulfill answers the request on topicName correlated by key. The first call
// delivers payload to the requester and removes its reply subscription; later
// calls are no-ops and return false.
func (b *Bus) Fulfill(ctx context.Context, topicName, key string, payload any) bool {
	return b.settle(ctx, ReplyTopic(topicName, key), key, KindFulfill, payload)
}

// Notify answers a command. It behaves exactly like Fulfill.
func (b *Bus) Notify(ctx context.Context, topicName, key string, payload any) bool {
	return b.settle(ctx, ReplyTopic(topicName, key), key, KindNotify, payload)
}

// Reply answers msg with Fulfill or Notify depending on how it was sent.
// Returns false for messages that do not expect a reply.
func (b *Bus) Reply(ctx context.Context, msg Message, payload any) bool {
	kind, ok := msg.Kind.reply()
	if !ok || !msg.IsReplyExpected() {
		return false
	}
	return b.settle(ctx, msg.ReplyTo, msg.CorrelationKey, kind, payload)
}

// Cancel abandons a pending request or command without delivering a reply.
func (b *Bus) Cancel(key string) bool {
	p, ok := b.take(key, "")
	if !ok {
		return false
	}
	b.Unsubscribe(p.replyTo, key)
	close(p.cancelled)
	return true
}

// Ask sends a request and blocks until it is fulfilled or ctx is done.
// On cancellation the reply subscription is removed, so a late fulfill is a no-op.
func (b *Bus) Ask(ctx context.Context, topicName string, payload any) (any, error) {
	reply := async.NewPromise[any]()
	key, p := b.ask(ctx, KindRequest, topicName, payload, func(_ context.Context, msg Message) any {
		reply.Complete(msg.Payload)
		return nil
	})

	// A reply that lands while Ask gives up wins over the failure.
	select {
	case <-reply.Done():
	case <-p.cancelled:
		reply.Fail(ErrRequestCancelled)
	case <-ctx.Done():
		b.Cancel(key)
		reply.Fail(ctx.Err())
	}
	return reply.Await(context.WithoutCancel(ctx))
}

func (b *Bus) ask(ctx context.Context, kind Kind, topicName string, payload any, cb Handler) (string, *pendingReply) {
	key := uuidx.NewString()
	replyTo := ReplyTopic(topicName, key)

	if cb != nil {
		b.subscribe(replyTo, key, cb)
	}
	p := &pendingReply{
		topic:     topicName,
		replyTo:   replyTo,
		kind:      kind,
		createdAt: time.Now(),
		cancelled: make(chan struct{}),
	}
	b.pending.Set(key, p)

	// Options built here are always valid.
	_ = b.Publish(ctx, topicName, payload, WithKind(kind), WithReplyTo(replyTo, key))
	return key, p
}

func (b *Bus) settle(ctx context.Context, replyTo, key string, kind Kind, payload any) bool {
	if _, ok := b.take(key, replyTo); !ok {
		return false
	}

	_ = b.Publish(ctx, replyTo, payload, WithKind(kind), WithReplyTo(replyTo, key))
	b.Unsubscribe(replyTo, key)
	return true
}

// take removes the pending entry for key. A non-empty replyTo must match the
// entry's reply topic. Check and removal happen under the bus lock so only
// one caller settles a request.
func (b *Bus) take(key, replyTo string) (*pendingReply, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending.Get(key)
	if !ok || (replyTo != "" && p.replyTo != replyTo) {
		return nil, false
	}
	b.pending.Del(key)
	return p, true
}
