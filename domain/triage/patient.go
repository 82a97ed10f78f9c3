package triage

import (
	"fmt"
	"time"
)

type Severity int

const (
	Critical  Severity = 1
	Urgent    Severity = 2
	NonUrgent Severity = 3
)

// String is a display mapping, not a validation path. Unknown values
// render as "Unknown" instead of failing.
func (s Severity) String() string {
	switch s {
	case Critical:
		return "Critical"
	case Urgent:
		return "Urgent"
	case NonUrgent:
		return "Non-urgent"
	default:
		return "Unknown"
	}
}

func (s Severity) Valid() bool {
	return s >= Critical && s <= NonUrgent
}

// DefaultNote is recorded when a patient is admitted without symptoms.
const DefaultNote = "Not specified"

// ValidationError reports which admission field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("triage: invalid %s: %s", e.Field, e.Reason)
}

// Patient is a pure domain entity. Every field is fixed at admission;
// Arrival is the monotonic admission sequence used to break severity ties,
// so two patients admitted in the same wall-clock instant still order
// deterministically.
type Patient struct {
	ID        uint64
	Name      string
	Severity  Severity
	Arrival   uint64
	ArrivedAt time.Time
	Note      string
}

func (p *Patient) String() string {
	return fmt.Sprintf("[%d] %s - %s - arrived %s - %s",
		p.ID, p.Name, p.Severity, p.ArrivedAt.Format("15:04:05"), p.Note)
}
