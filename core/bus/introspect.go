package bus

import (
	"cmp"
	"slices"
	"time"
)

// BindingInfo describes one subscribed pattern.
type BindingInfo struct {
	Pattern       string   `json:"pattern"`
	Subscriptions []string `json:"subscriptions"`
}

// PendingRequest describes a request or command awaiting its reply.
type PendingRequest struct {
	Key       string    `json:"key"`
	Topic     string    `json:"topic"`
	ReplyTo   string    `json:"reply_to"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Bindings lists subscribed patterns in registration order.
func (b *Bus) Bindings() []BindingInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]BindingInfo, 0, b.bindings.Len())
	for e := range b.bindings.All() {
		ids := make([]string, len(e.Value.subs))
		for i, s := range e.Value.subs {
			ids[i] = s.ID
		}
		out = append(out, BindingInfo{Pattern: e.Name(), Subscriptions: ids})
	}
	return out
}

// Pending lists requests and commands awaiting a reply, oldest first.
func (b *Bus) Pending() []PendingRequest {
	var out []PendingRequest
	b.pending.ForEach(func(key string, p *pendingReply) bool {
		out = append(out, PendingRequest{
			Key:       key,
			Topic:     p.topic,
			ReplyTo:   p.replyTo,
			Kind:      p.kind,
			CreatedAt: p.createdAt,
		})
		return true
	})

	slices.SortFunc(out, func(x, y PendingRequest) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.Key, y.Key)
	})
	return out
}
