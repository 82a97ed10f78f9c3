package triage

import (
	"container/heap"
	"sort"
)

// byUrgency is the total order consumed by Serve: severity first
// (1 before 3), admission order as the tie-break.
func byUrgency(a, b *Patient) bool {
	if a.Severity != b.Severity {
		return a.Severity < b.Severity
	}
	return a.Arrival < b.Arrival
}

// waitingQueue is a binary heap over byUrgency.
type waitingQueue []*Patient

func (q waitingQueue) Len() int { return len(q) }

func (q waitingQueue) Less(i, j int) bool { return byUrgency(q[i], q[j]) }

func (q waitingQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *waitingQueue) Push(x any) {
	*q = append(*q, x.(*Patient))
}

func (q *waitingQueue) Pop() any {
	old := *q
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return p
}

func (q *waitingQueue) push(p *Patient) {
	heap.Push(q, p)
}

func (q *waitingQueue) pop() *Patient {
	if len(*q) == 0 {
		return nil
	}
	return heap.Pop(q).(*Patient)
}

// peek returns the next patient without removal. Heap order keeps the
// minimum at index 0.
func (q waitingQueue) peek() *Patient {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

// sorted returns a fully ordered copy. The heap itself only maintains a
// partial order, so the copy is sorted with the same comparator; the heap
// is never disturbed.
func (q waitingQueue) sorted() []*Patient {
	out := make([]*Patient, len(q))
	copy(out, q)
	sort.Slice(out, func(i, j int) bool { return byUrgency(out[i], out[j]) })
	return out
}
