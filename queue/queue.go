package queue

import "container/heap"

// Compile time check to ensure offsetHeap satisfies the heap interface.
var _ heap.Interface = (*offsetHeap)(nil)

// OffsetQueue hands out recycled cell offsets lowest-first, so reclaimed
// storage slots are refilled from the front and column slices stay dense.
type OffsetQueue struct {
	h offsetHeap
}

// Len returns the number of queued offsets.
func (q *OffsetQueue) Len() int { return q.h.Len() }

// Push queues a freed offset for reuse.
func (q *OffsetQueue) Push(offset int) {
	heap.Push(&q.h, offset)
}

// Pop removes and returns the smallest queued offset; ok is false when the
// queue is empty.
func (q *OffsetQueue) Pop() (int, bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	return heap.Pop(&q.h).(int), true
}

// Clear discards all queued offsets.
func (q *OffsetQueue) Clear() {
	q.h = nil
}

type offsetHeap []int

func (h offsetHeap) Len() int           { return len(h) }
func (h offsetHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h offsetHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *offsetHeap) Push(x any) {
	*h = append(*h, x.(int))
}

func (h *offsetHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
