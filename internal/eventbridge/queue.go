package eventbridge

import (
	"container/heap"
	"time"
)

// entry is one scheduled action.
type entry struct {
	id       Handle
	seq      uint64 // submission order, breaks ties between equal due times
	due      time.Time
	interval time.Duration // > 0 for periodic actions
	fn       Action

	// index is the position in the heap, -1 while executing or removed.
	index int

	// cancelled is set when a running periodic action is cancelled
	// so it is not re-enqueued after it returns.
	cancelled bool
}

// entryHeap orders entries by (due, seq).
// It implements heap.Interface; all access happens under Bridge.mu.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry) //nolint:forcetypeassert // only *entry is ever pushed
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil // release for GC
	e.index = -1
	*h = old[:n-1]
	return e
}

// peek returns the earliest entry without removing it.
func (h entryHeap) peek() *entry {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// remove deletes e from the heap if present.
func (h *entryHeap) remove(e *entry) {
	if e.index < 0 || e.index >= len(*h) || (*h)[e.index] != e {
		return
	}
	heap.Remove(h, e.index)
}
