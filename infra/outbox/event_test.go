package outbox

import (
	"errors"
	"testing"
)

func TestEventRoundTrip(t *testing.T) {
	in := &Event{
		EventID:   "b5c7f3a0-1111-2222-3333-444455556666",
		Kind:      KindServed,
		PatientID: 42,
		Severity:  1,
		Name:      "Ana Garcia",
		Time:      1700000000123456789,
	}

	out, err := DecodeEvent(EncodeEvent(in))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *out != *in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	data := EncodeEvent(&Event{EventID: "x", Kind: KindAdmitted, PatientID: 1})

	// Flip a payload byte; the crc must catch it.
	data[len(data)-1] ^= 0xff
	if _, err := DecodeEvent(data); !errors.Is(err, ErrCorruptEvent) {
		t.Errorf("expected ErrCorruptEvent, got %v", err)
	}

	if _, err := DecodeEvent([]byte{1, 2, 3}); !errors.Is(err, ErrCorruptEvent) {
		t.Errorf("short input: expected ErrCorruptEvent, got %v", err)
	}
}

func TestEventKindLabels(t *testing.T) {
	if KindAdmitted.String() != "ADMITTED" ||
		KindServed.String() != "SERVED" ||
		KindReinstated.String() != "REINSTATED" {
		t.Error("kind labels changed")
	}
	if EventKind(99).String() != "UNKNOWN" {
		t.Error("unknown kind must render as UNKNOWN")
	}
}
