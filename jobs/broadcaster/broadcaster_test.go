package broadcaster

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"triage/infra/outbox"
)

type fakePublisher struct {
	published [][]byte
	fail      bool
}

func (f *fakePublisher) Publish(_ context.Context, _, value []byte) error {
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, value)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func openTestOutbox(t *testing.T) *outbox.Outbox {
	t.Helper()
	ob, err := outbox.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() { ob.Close() })
	return ob
}

func TestDrainPublishesAndAcks(t *testing.T) {
	ob := openTestOutbox(t)
	seq, _ := ob.Append(&outbox.Event{EventID: "e1", Kind: outbox.KindServed, PatientID: 5})

	pub := &fakePublisher{}
	b := New(ob, pub, 0, zerolog.Nop())
	b.DrainOnce(context.Background())

	if len(pub.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.published))
	}
	ev, err := outbox.DecodeEvent(pub.published[0])
	if err != nil {
		t.Fatalf("published payload does not decode: %v", err)
	}
	if ev.PatientID != 5 || ev.Kind != outbox.KindServed {
		t.Errorf("published event = %+v", ev)
	}

	rec, _ := ob.Get(seq)
	if rec.State != outbox.StateAcked {
		t.Errorf("record state = %v, want ACKED", rec.State)
	}
}

func TestFailedPublishStaysPending(t *testing.T) {
	ob := openTestOutbox(t)
	seq, _ := ob.Append(&outbox.Event{EventID: "e1", Kind: outbox.KindAdmitted, PatientID: 1})

	pub := &fakePublisher{fail: true}
	b := New(ob, pub, 0, zerolog.Nop())
	b.DrainOnce(context.Background())

	rec, _ := ob.Get(seq)
	if rec.State != outbox.StateSent {
		t.Fatalf("record state = %v, want SENT", rec.State)
	}

	// Next pass with a healthy broker delivers it.
	pub.fail = false
	b.DrainOnce(context.Background())

	if len(pub.published) != 1 {
		t.Fatalf("published %d messages after recovery, want 1", len(pub.published))
	}
	rec, _ = ob.Get(seq)
	if rec.State != outbox.StateAcked {
		t.Errorf("record state = %v after recovery, want ACKED", rec.State)
	}
	if rec.Retries < 2 {
		t.Errorf("retries = %d, want at least 2", rec.Retries)
	}
}

func TestDrainNothingPending(t *testing.T) {
	ob := openTestOutbox(t)
	pub := &fakePublisher{}
	b := New(ob, pub, 0, zerolog.Nop())
	b.DrainOnce(context.Background())

	if len(pub.published) != 0 {
		t.Errorf("published %d messages from an empty outbox", len(pub.published))
	}
}
