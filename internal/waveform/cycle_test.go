package waveform

import (
	"testing"

	"github.com/ab1hl/js8decode/internal/js8"
)

func TestCycleFeederCarryOver(t *testing.T) {
	const rate = 1000
	f := NewCycleFeeder(rate, nil)

	cycle1 := make([]float64, 15*rate)
	for i := range cycle1 {
		cycle1[i] = 1
	}
	w1 := f.Push(cycle1)
	if len(w1.Samples) != len(cycle1) {
		t.Fatalf("first window len = %d, want %d (no carry yet)", len(w1.Samples), len(cycle1))
	}
	if w1.Start != 0.5*rate {
		t.Fatalf("first window start = %v, want %v", w1.Start, 0.5*rate)
	}

	cycle2 := make([]float64, 15*rate)
	for i := range cycle2 {
		cycle2[i] = 2
	}
	w2 := f.Push(cycle2)

	wantCarry := 2 * rate
	if len(w2.Samples) != wantCarry+len(cycle2) {
		t.Fatalf("second window len = %d, want %d", len(w2.Samples), wantCarry+len(cycle2))
	}
	if w2.Start != float64(wantCarry)+0.5*rate {
		t.Fatalf("second window start = %v, want %v", w2.Start, float64(wantCarry)+0.5*rate)
	}
	for i := 0; i < wantCarry; i++ {
		if w2.Samples[i] != 1 {
			t.Fatalf("carried sample %d = %v, want 1 (from cycle1's tail)", i, w2.Samples[i])
		}
	}
	if w2.Samples[wantCarry] != 2 {
		t.Fatalf("first cycle2 sample = %v, want 2", w2.Samples[wantCarry])
	}
}

func TestCycleFeederClearsDupsPerWindow(t *testing.T) {
	dups := js8.NewDupSet()
	dups.CheckAndAdd("already-seen")

	f := NewCycleFeeder(1000, dups)
	f.Push(make([]float64, 1000))

	if dups.CheckAndAdd("already-seen") {
		t.Fatal("expected dup set to have been cleared on Push")
	}
}
