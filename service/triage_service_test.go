package service

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"triage/domain/triage"
	"triage/infra/outbox"
	"triage/infra/sequence"
)

// nil outbox disables event recording, like the teacher tests disabling
// the log before exercising the book.
func newTestService() *TriageService {
	engine := triage.NewEngine(sequence.New(0))
	return NewTriageService(engine, nil, zerolog.Nop())
}

func TestServiceRegisterAndServe(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Register("Ana", triage.Critical, "cardiac arrest"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register("Luis", triage.NonUrgent, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	next := svc.PeekNext()
	if next == nil || next.Name != "Ana" {
		t.Fatalf("peek = %v, want Ana", next)
	}

	served := svc.Serve()
	if served == nil || served.Name != "Ana" {
		t.Fatalf("serve = %v, want Ana", served)
	}
	if got := svc.Counts()[triage.Critical]; got != 0 {
		t.Errorf("critical count after serve = %d", got)
	}

	undone := svc.UndoLastServe()
	if undone != served {
		t.Errorf("undo = %v, want the served patient", undone)
	}
	if got := len(svc.ServedHistory()); got != 0 {
		t.Errorf("served history after undo has %d entries", got)
	}
}

func TestServiceRejectsInvalidAdmission(t *testing.T) {
	svc := newTestService()

	_, err := svc.Register("", triage.Critical, "x")
	var verr *triage.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(svc.WaitingSnapshot()) != 0 {
		t.Error("rejected admission must not enter the waiting set")
	}
}

func TestServiceRecordsEvents(t *testing.T) {
	ob, err := outbox.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer ob.Close()

	engine := triage.NewEngine(sequence.New(0))
	svc := NewTriageService(engine, ob, zerolog.Nop())

	svc.Register("Ana", triage.Critical, "")
	svc.Serve()
	svc.UndoLastServe()

	var kinds []outbox.EventKind
	err = ob.ScanPending(func(rec *outbox.Record) error {
		kinds = append(kinds, rec.Event.Kind)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []outbox.EventKind{outbox.KindAdmitted, outbox.KindServed, outbox.KindReinstated}
	if len(kinds) != len(want) {
		t.Fatalf("recorded %d events, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestServiceEmptyResults(t *testing.T) {
	svc := newTestService()
	if svc.Serve() != nil || svc.PeekNext() != nil || svc.UndoLastServe() != nil {
		t.Error("empty service must return nil, not error")
	}
}
