package workqueue

import (
	"cmp"
	"slices"
	"time"
)

// ChannelInfo describes one channel.
type ChannelInfo struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// LeaseInfo describes one outstanding lease.
type LeaseInfo struct {
	ItemID   string    `json:"item_id"`
	Channel  string    `json:"channel"`
	Deadline time.Time `json:"deadline"`
	Attempt  int       `json:"attempt"`
}

// Channels lists channels in creation order with the ids of their items, head first.
func (q *Queue) Channels() []ChannelInfo {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]ChannelInfo, 0, q.channels.Len())
	for e := range q.channels.All() {
		ids := make([]string, len(e.Value.items))
		for i, it := range e.Value.items {
			ids[i] = it.ID
		}
		out = append(out, ChannelInfo{Name: e.Name(), Items: ids})
	}
	return out
}

// Leases lists outstanding leases, earliest deadline first.
func (q *Queue) Leases() []LeaseInfo {
	q.mu.Lock()
	out := make([]LeaseInfo, 0, len(q.leases))
	for id, l := range q.leases {
		out = append(out, LeaseInfo{
			ItemID:   id,
			Channel:  l.item.Channel,
			Deadline: l.deadline,
			Attempt:  l.item.attempts,
		})
	}
	q.mu.Unlock()

	slices.SortFunc(out, func(x, y LeaseInfo) int {
		if c := x.Deadline.Compare(y.Deadline); c != 0 {
			return c
		}
		return cmp.Compare(x.ItemID, y.ItemID)
	})
	return out
}
