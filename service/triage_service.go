package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"triage/domain/triage"
	"triage/infra/outbox"
)

/*
TriageService is the ONLY write entry point into the system.

All coordination between:
- domain (triage engine)
- infra (outbox)
- logging
happens here. The engine itself is single-writer; the mutex makes every
operation the critical section the engine requires of its callers.
*/

type TriageService struct {
	mu     sync.Mutex
	engine *triage.Engine
	outbox *outbox.Outbox // nil disables event recording
	log    zerolog.Logger
}

// NewTriageService wires all dependencies. No globals. No magic.
func NewTriageService(
	engine *triage.Engine,
	ob *outbox.Outbox,
	log zerolog.Logger,
) *TriageService {
	return &TriageService{
		engine: engine,
		outbox: ob,
		log:    log,
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Register admits a new patient. A validation failure is returned to the
// caller untouched: the service never substitutes values.
func (s *TriageService) Register(name string, severity triage.Severity, note string) (*triage.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.engine.Register(name, severity, note)
	if err != nil {
		s.log.Warn().Err(err).Str("name", name).Msg("admission rejected")
		return nil, err
	}

	s.log.Info().
		Uint64("patient_id", p.ID).
		Str("severity", p.Severity.String()).
		Msg("patient admitted")

	s.recordEvent(outbox.KindAdmitted, p)
	return p, nil
}

// Serve removes the most urgent waiting patient. Nil means an empty
// waiting room.
func (s *TriageService) Serve() *triage.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.engine.Serve()
	if p == nil {
		return nil
	}

	s.log.Info().
		Uint64("patient_id", p.ID).
		Str("severity", p.Severity.String()).
		Msg("patient served")

	s.recordEvent(outbox.KindServed, p)
	return p
}

// UndoLastServe reverses the most recent Serve, if any.
func (s *TriageService) UndoLastServe() *triage.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.engine.UndoLastServe()
	if p == nil {
		return nil
	}

	s.log.Info().
		Uint64("patient_id", p.ID).
		Msg("service undone, patient back in waiting room")

	s.recordEvent(outbox.KindReinstated, p)
	return p
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *TriageService) PeekNext() *triage.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.PeekNext()
}

func (s *TriageService) WaitingSnapshot() []*triage.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.WaitingSnapshot()
}

func (s *TriageService) Counts() map[triage.Severity]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Counts()
}

func (s *TriageService) ServedHistory() []*triage.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ServedHistory()
}

//
// ──────────────────────────────────────────────────────────
// Events
// ──────────────────────────────────────────────────────────
//

// recordEvent appends to the outbox best-effort: a full disk must not
// take the waiting room down with it.
func (s *TriageService) recordEvent(kind outbox.EventKind, p *triage.Patient) {
	if s.outbox == nil {
		return
	}

	ev := &outbox.Event{
		EventID:   uuid.NewString(),
		Kind:      kind,
		PatientID: p.ID,
		Severity:  uint32(p.Severity),
		Name:      p.Name,
		Time:      time.Now().UnixNano(),
	}

	if _, err := s.outbox.Append(ev); err != nil {
		s.log.Error().
			Err(err).
			Str("kind", kind.String()).
			Uint64("patient_id", p.ID).
			Msg("event not recorded")
	}
}
