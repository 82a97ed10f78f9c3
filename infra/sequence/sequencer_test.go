package sequence

import "testing"

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	if s.Current() != 0 {
		t.Errorf("fresh sequencer Current() = %d, want 0", s.Current())
	}
	for want := uint64(1); want <= 5; want++ {
		if got := s.Next(); got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
	if s.Current() != 5 {
		t.Errorf("Current() = %d after five Next calls", s.Current())
	}
}

func TestSequencerStart(t *testing.T) {
	s := New(41)
	if got := s.Next(); got != 42 {
		t.Errorf("Next() = %d, want 42", got)
	}
}
