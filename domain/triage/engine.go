package triage

import (
	"strings"
	"time"

	"triage/infra/sequence"
)

// Engine is single-writer and deterministic. It owns the waiting heap,
// the single-slot undo buffer, the served log and the per-severity
// counters; callers mutate state only through its methods.
type Engine struct {
	seq     *sequence.Sequencer
	waiting waitingQueue

	// lastServed holds at most the one patient eligible for undo.
	// Serve overwrites it, UndoLastServe empties it.
	lastServed *Patient

	served []*Patient
	counts [NonUrgent + 1]int
}

// NewEngine wires the admission sequencer in explicitly. No globals.
func NewEngine(seq *sequence.Sequencer) *Engine {
	return &Engine{seq: seq}
}

// Register admits a new patient. Validation runs before the sequencer is
// touched, so a rejected admission consumes no id and mutates nothing.
func (e *Engine) Register(name string, severity Severity, note string) (*Patient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !severity.Valid() {
		return nil, &ValidationError{Field: "severity", Reason: "must be 1, 2 or 3"}
	}
	if note == "" {
		note = DefaultNote
	}

	id := e.seq.Next()
	p := &Patient{
		ID:        id,
		Name:      name,
		Severity:  severity,
		Arrival:   id,
		ArrivedAt: time.Now(),
		Note:      note,
	}

	e.waiting.push(p)
	e.counts[severity]++
	return p, nil
}

// PeekNext returns the next patient to be served without removing them.
// Nil means the waiting room is empty, which is not an error.
func (e *Engine) PeekNext() *Patient {
	return e.waiting.peek()
}

// Serve removes the most urgent waiting patient. The undo slot, the served
// log and the counters move together; partial updates would break count
// consistency.
func (e *Engine) Serve() *Patient {
	p := e.waiting.pop()
	if p == nil {
		return nil
	}
	e.counts[p.Severity]--
	e.lastServed = p
	e.served = append(e.served, p)
	return p
}

// UndoLastServe reverses the most recent Serve: the patient rejoins the
// waiting set under the normal ordering and the served log loses its tail.
// The slot empties, so a second consecutive undo is a nil no-op.
func (e *Engine) UndoLastServe() *Patient {
	p := e.lastServed
	if p == nil {
		return nil
	}
	e.lastServed = nil
	e.waiting.push(p)
	e.counts[p.Severity]++
	e.served = e.served[:len(e.served)-1]
	return p
}

// WaitingSnapshot returns the waiting set fully sorted in serve order.
// It is a copy; repeated calls never disturb the heap.
func (e *Engine) WaitingSnapshot() []*Patient {
	return e.waiting.sorted()
}

// Counts returns the live tally of waiting patients per severity class.
// All three classes are always present.
func (e *Engine) Counts() map[Severity]int {
	return map[Severity]int{
		Critical:  e.counts[Critical],
		Urgent:    e.counts[Urgent],
		NonUrgent: e.counts[NonUrgent],
	}
}

// ServedHistory returns served patients oldest-first, as a copy.
func (e *Engine) ServedHistory() []*Patient {
	out := make([]*Patient, len(e.served))
	copy(out, e.served)
	return out
}

// WaitingLen reports how many patients are waiting.
func (e *Engine) WaitingLen() int {
	return len(e.waiting)
}
