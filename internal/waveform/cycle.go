package waveform

import "github.com/ab1hl/js8decode/internal/js8"

// Window is one decode window assembled by CycleFeeder: a buffer of
// samples and the sample index of its nominal 0.5-second mark.
type Window struct {
	Samples []float64
	Start   float64
}

// CycleFeeder assembles successive 15-second capture cycles into the
// overlapping windows the decoder expects: each window carries the
// previous cycle's final CarryOverSeconds prepended to the new cycle, so
// a signal starting just before a cycle boundary still aligns against the
// nominal 0.5s mark. When Dups is set, it is cleared at the start of
// every new window, since duplicate suppression is per window.
type CycleFeeder struct {
	Rate int

	CycleSeconds       float64
	CarryOverSeconds   float64
	StartOffsetSeconds float64

	Dups *js8.DupSet

	carry []float64
}

// NewCycleFeeder returns a feeder at the standard JS8 cadence: 15-second
// cycles, a 2-second carry-over, and a 0.5s start offset, giving
// start = 2.5*rate for every window after the first.
func NewCycleFeeder(rate int, dups *js8.DupSet) *CycleFeeder {
	return &CycleFeeder{
		Rate:               rate,
		CycleSeconds:       15,
		CarryOverSeconds:   2,
		StartOffsetSeconds: 0.5,
		Dups:               dups,
	}
}

// Push appends one freshly-captured cycle and returns the window the
// decoder should run against: the prior cycle's carried-over tail
// prepended to cycleSamples.
func (f *CycleFeeder) Push(cycleSamples []float64) Window {
	if f.Dups != nil {
		f.Dups.Clear()
	}

	prevCarryLen := len(f.carry)
	win := make([]float64, 0, prevCarryLen+len(cycleSamples))
	win = append(win, f.carry...)
	win = append(win, cycleSamples...)

	start := float64(prevCarryLen) + f.StartOffsetSeconds*float64(f.Rate)

	carryLen := int(f.CarryOverSeconds * float64(f.Rate))
	if carryLen > len(cycleSamples) {
		carryLen = len(cycleSamples)
	}
	f.carry = append([]float64(nil), cycleSamples[len(cycleSamples)-carryLen:]...)

	return Window{Samples: win, Start: start}
}
