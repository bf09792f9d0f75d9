package loop

import (
	"container/heap"
	"context"
	"time"
)

// Timer is a callback scheduled on a Loop at a deadline.
type Timer struct {
	loop  *Loop
	fn    func(context.Context)
	when  time.Time
	seq   uint64
	index int // position in the heap, -1 when not scheduled
}

// Stop cancels the timer. It reports whether the timer was still pending;
// false means it already fired or was stopped.
func (t *Timer) Stop() bool {
	l := t.loop
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.index < 0 {
		return false
	}
	heap.Remove(&l.timers, t.index)
	return true
}

// Reset reschedules the timer to fire after d, counted from now.
// A fired or stopped timer is scheduled again. The result reports whether
// the timer was pending before the call.
func (t *Timer) Reset(d time.Duration) bool {
	l := t.loop
	l.mu.Lock()
	pending := t.index >= 0
	t.when = time.Now().Add(d)
	t.seq = l.nextSeq()
	if pending {
		heap.Fix(&l.timers, t.index)
	} else {
		heap.Push(&l.timers, t)
	}
	l.mu.Unlock()

	l.notify()
	return pending
}

// Deadline returns the time the timer is due.
func (t *Timer) Deadline() time.Time {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	return t.when
}

// timerHeap orders timers by deadline, then by scheduling order.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
