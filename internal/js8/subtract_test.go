package js8

import (
	"math"
	"math/rand"
	"testing"
)

func TestChooseSubtractorSelectsByConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FancySubtract = true
	if _, ok := ChooseSubtractor(cfg).(FancySubtractor); !ok {
		t.Fatal("ChooseSubtractor should return FancySubtractor when FancySubtract is true")
	}
	cfg.FancySubtract = false
	if _, ok := ChooseSubtractor(cfg).(SimpleSubtractor); !ok {
		t.Fatal("ChooseSubtractor should return SimpleSubtractor when FancySubtract is false")
	}
}

func TestNearbyAmpReadsTimeNeighborsAtTheirOwnBin(t *testing.T) {
	// re79 constant at 0, bin0 = 4: every symbol's own tone bin is always
	// bin 4. coeffs[si][4] = si, so nearbyAmp at si=40 with win=3 should be
	// the median of {37..43} = 40, matching nearby_amp's time-axis (not
	// frequency-axis) definition.
	var re79 [NSymbols]int
	coeffs := make([][]complex128, NSymbols)
	for si := range coeffs {
		row := make([]complex128, 16)
		row[4] = complex(float64(si), 0)
		coeffs[si] = row
	}
	got := nearbyAmp(coeffs, 4, re79, 40, 3)
	if got != 40 {
		t.Fatalf("nearbyAmp = %v, want 40 (median of time-neighbor symbols, not a frequency-neighbor)", got)
	}
}

func TestNearbyPhaseResolvesWraparoundAcrossSymbols(t *testing.T) {
	// Phases clustered near +pi/-pi boundary across time-neighbor symbols;
	// naive averaging would give a value near 0 instead of near +-pi.
	var re79 [NSymbols]int
	angles := []float64{math.Pi - 0.1, -math.Pi + 0.1, math.Pi - 0.05, -math.Pi + 0.05}
	coeffs := make([][]complex128, NSymbols)
	for si := range coeffs {
		row := make([]complex128, 8)
		a := angles[si%len(angles)]
		row[4] = complex(math.Cos(a), math.Sin(a))
		coeffs[si] = row
	}
	got := nearbyPhase(coeffs, 4, re79, 40, len(angles))
	if math.Abs(got) < math.Pi/2 {
		t.Fatalf("nearbyPhase = %v, want a value near +-pi, not near 0", got)
	}
}

func TestFancySubtractorNoOpOnSilentBuffer(t *testing.T) {
	// Subtracting a zero-magnitude signal must leave the buffer identical:
	// the estimated tone amplitude over a silent buffer is zero, so nothing
	// is synthesized and nothing changes.
	const rate = 2000
	block := BlockSize(rate)
	total := NSymbols * block

	var re79 [NSymbols]int
	for i79 := range re79 {
		if ci, ok := costasSymbolIndices(i79); ok {
			re79[i79] = Costas[ci]
		}
	}

	samples := make([]float64, total)
	cache := NewPlanCache()
	cfg := DefaultConfig()
	out := FancySubtractor{}.Subtract(cache, samples, rate, re79, 500, 500, 0, cfg)

	for i := range out {
		if math.Abs(out[i]) > 1e-9 {
			t.Fatalf("sample %d = %v after subtracting from silence, want ~0", i, out[i])
		}
	}
}

func TestSimpleSubtractorReducesSignalEnergy(t *testing.T) {
	const rate = 2000
	block := BlockSize(rate)
	total := NSymbols * block

	var re79 [NSymbols]int
	for i79 := range re79 {
		if ci, ok := costasSymbolIndices(i79); ok {
			re79[i79] = Costas[ci]
		} else {
			re79[i79] = 3
		}
	}

	const hz0 = 500.0
	binHz := BinHz(rate, block)
	bin0 := int(math.Round(hz0 / binHz))

	rng := rand.New(rand.NewSource(5))
	samples := make([]float64, total)
	for si, tone := range re79 {
		freq := float64(bin0+tone) * binHz
		for n := 0; n < block; n++ {
			idx := si*block + n
			samples[idx] += math.Sin(2 * math.Pi * freq * float64(idx) / rate)
		}
	}
	for i := range samples {
		samples[i] += 0.01 * (rng.Float64()*2 - 1)
	}

	cache := NewPlanCache()
	cfg := DefaultConfig()
	out := SimpleSubtractor{}.Subtract(cache, samples, rate, re79, hz0, hz0, 0, cfg)

	var before, after float64
	for i := range samples {
		before += samples[i] * samples[i]
		if i < len(out) {
			after += out[i] * out[i]
		}
	}
	if after >= before {
		t.Fatalf("subtracted energy %v should be less than original energy %v", after, before)
	}
}
