package bus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"

	"github.com/dmitrymomot/fabric/core/logger"
	"github.com/dmitrymomot/fabric/core/topic"
	"github.com/dmitrymomot/fabric/pkg/uuidx"
)

// Scheduler runs deferred deliveries on a later turn.
// *loop.Loop satisfies it.
type Scheduler interface {
	Defer(fn func(context.Context))
}

// Bus is a topic-based publish/subscribe dispatcher.
type Bus struct {
	mu       sync.Mutex
	bindings *topic.Index[*binding]
	sched    Scheduler
	pending  *haxmap.Map[string, *pendingReply]
	logger   *slog.Logger

	published atomic.Int64
	delivered atomic.Int64
	panicked  atomic.Int64
}

// SubscriptionToken identifies a subscription for later removal.
type SubscriptionToken struct {
	Pattern string
	ID      string
	Handler Handler

	bus *Bus
}

// Unsubscribe removes the subscription the token was issued for.
func (t SubscriptionToken) Unsubscribe() bool {
	if t.bus == nil {
		return false
	}
	_, ok := t.bus.Unsubscribe(t.Pattern, t.ID)
	return ok
}

// Stats provides observability metrics for monitoring and debugging.
type Stats struct {
	Bindings        int   // Distinct subscribed patterns
	Subscriptions   int   // Subscriptions across all patterns
	PendingRequests int   // Requests and commands awaiting a reply
	Published       int64 // Publish calls that matched at least one subscriber
	Delivered       int64 // Handler invocations that returned normally
	Panicked        int64 // Handler invocations that panicked
}

type binding struct {
	subs []SubscriptionToken
}

// target is one matched binding captured at publish time.
type target struct {
	pattern  string
	captures []string
	subs     []SubscriptionToken
}

// New creates a Bus that defers deliveries onto sched.
func New(sched Scheduler, opts ...Option) (*Bus, error) {
	if sched == nil {
		return nil, ErrSchedulerNil
	}

	o := &options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Bus{
		bindings: topic.NewIndex[*binding](),
		sched:    sched,
		pending:  haxmap.New[string, *pendingReply](),
		logger:   o.logger,
	}, nil
}

// Subscribe registers h under pattern. Subscriptions to the same pattern
// string share one binding and are invoked in subscription order.
// A nil handler is ignored and yields a zero token.
func (b *Bus) Subscribe(pattern string, h Handler) SubscriptionToken {
	if h == nil {
		return SubscriptionToken{}
	}
	return b.subscribe(pattern, uuidx.NewString(), h)
}

func (b *Bus) subscribe(pattern, id string, h Handler) SubscriptionToken {
	token := SubscriptionToken{
		Pattern: pattern,
		ID:      id,
		Handler: h,
		bus:     b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	e, _ := b.bindings.GetOrCreate(pattern, func() *binding { return &binding{} })
	e.Value.subs = append(e.Value.subs, token)
	return token
}

// Unsubscribe removes the subscription with the given id from the binding
// registered under the exact pattern string. The boolean is false when the
// pattern has no binding or the id is unknown. A binding left without
// subscriptions is deleted.
//
// Subscriptions cannot be removed by handler: Go func values are not comparable.
func (b *Bus) Unsubscribe(pattern, id string) (SubscriptionToken, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.bindings.Get(pattern)
	if !ok {
		return SubscriptionToken{}, false
	}

	i := slices.IndexFunc(e.Value.subs, func(s SubscriptionToken) bool { return s.ID == id })
	if i < 0 {
		return SubscriptionToken{}, false
	}

	token := e.Value.subs[i]
	e.Value.subs = slices.Delete(e.Value.subs, i, i+1)
	if len(e.Value.subs) == 0 {
		b.bindings.Delete(pattern)
	}
	return token, true
}

// Publish delivers payload to every subscription whose pattern matches
// topicName. The binding registered under topicName itself is served first,
// then pattern bindings in registration order.
//
// By default each delivery is deferred to the scheduler and every subscriber
// receives the same payload. With WithSync the subscribers run as a pipeline
// on the caller's stack. Publishing to a topic nobody listens to is a no-op.
func (b *Bus) Publish(ctx context.Context, topicName string, payload any, options ...PublishOption) error {
	o := publishOptions{kind: KindPublish}
	if err := opts.Apply(&o, options); err != nil {
		return err
	}

	msg := b.envelope(topicName, payload, o)
	targets := b.resolve(topicName)
	if len(targets) == 0 {
		return nil
	}
	b.published.Add(1)

	if o.sync {
		_, err := b.pipeline(ctx, msg, targets)
		return err
	}
	b.fanOut(ctx, msg, targets)
	return nil
}

// Pipe publishes payload in pipeline mode and returns the value produced by
// the last subscriber. It fails with ErrNoSubscribers when nothing matches and
// with ErrHandlerPanic when a stage panics; in that case the value is the
// input of the failed stage.
func (b *Bus) Pipe(ctx context.Context, topicName string, payload any) (any, error) {
	targets := b.resolve(topicName)
	if len(targets) == 0 {
		return payload, ErrNoSubscribers
	}
	b.published.Add(1)

	msg := b.envelope(topicName, payload, publishOptions{kind: KindPublish, sync: true})
	return b.pipeline(ctx, msg, targets)
}

// Stats returns current bus metrics.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	bindings, subs := b.bindings.Len(), 0
	for e := range b.bindings.All() {
		subs += len(e.Value.subs)
	}
	b.mu.Unlock()

	return Stats{
		Bindings:        bindings,
		Subscriptions:   subs,
		PendingRequests: int(b.pending.Len()),
		Published:       b.published.Load(),
		Delivered:       b.delivered.Load(),
		Panicked:        b.panicked.Load(),
	}
}

func (b *Bus) envelope(topicName string, payload any, o publishOptions) Message {
	return Message{
		ID:             uuidx.NewString(),
		Topic:          topicName,
		Kind:           o.kind,
		Payload:        payload,
		Raw:            payload,
		ReplyTo:        o.replyTo,
		CorrelationKey: o.correlationKey,
		CreatedAt:      time.Now(),
	}
}

// resolve snapshots the matching bindings so delivery can run without the lock.
func (b *Bus) resolve(topicName string) []target {
	b.mu.Lock()
	defer b.mu.Unlock()

	var targets []target
	for m := range b.bindings.Lookup(topicName) {
		targets = append(targets, target{
			pattern:  m.Entry.Name(),
			captures: m.Captures,
			subs:     slices.Clone(m.Entry.Value.subs),
		})
	}
	return targets
}

func (b *Bus) fanOut(ctx context.Context, msg Message, targets []target) {
	ctx = context.WithoutCancel(ctx)
	for _, tg := range targets {
		for _, sub := range tg.subs {
			m := msg
			m.Pattern = tg.pattern
			m.Captures = slices.Clone(tg.captures)
			b.sched.Defer(func(context.Context) {
				b.invoke(ctx, sub, m)
			})
		}
	}
}

func (b *Bus) pipeline(ctx context.Context, msg Message, targets []target) (any, error) {
	value := msg.Payload
	for _, tg := range targets {
		for _, sub := range tg.subs {
			m := msg
			m.Pattern = tg.pattern
			m.Payload = value
			m.Captures = slices.Clone(tg.captures)

			out, ok := b.invoke(ctx, sub, m)
			if !ok {
				return value, fmt.Errorf("%w: topic %q, subscription %s", ErrHandlerPanic, msg.Topic, sub.ID)
			}
			value = out
		}
	}
	return value, nil
}

func (b *Bus) invoke(ctx context.Context, sub SubscriptionToken, msg Message) (out any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.panicked.Add(1)
			b.logger.ErrorContext(ctx, "subscriber panicked",
				logger.Topic(msg.Topic),
				logger.Pattern(msg.Pattern),
				logger.SubscriptionID(sub.ID),
				logger.MessageID(msg.ID),
				logger.Panic(r))
			out, ok = nil, false
		}
	}()

	out = sub.Handler(ctx, msg)
	b.delivered.Add(1)
	return out, true
}
