package sequence

import "sync/atomic"

// Sequencer issues strictly monotonic admission numbers. Ids start at
// start+1, are never reused and never decrease; the same number doubles
// as the arrival tie-break in the waiting order.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer. A fresh system passes start = 0 so the first
// admission gets id 1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next admission number.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued number without consuming one.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
