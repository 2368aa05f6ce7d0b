package js8

import (
	"math"
	"math/cmplx"
	"sort"
)

// Subtractor removes an accepted decode's reconstructed signal from a
// working sample buffer. The two modes have little code in common and
// subtly different numeric error behavior, so they are separate types
// rather than a single function with a branch.
type Subtractor interface {
	Subtract(cache *PlanCache, nsamples []float64, rate int, re79 [NSymbols]int, hz0, hz1, offSec float64, cfg Config) []float64
}

// shiftToBin Hilbert-shifts nsamples so that the frequency interpolated
// linearly between hz0 (start of window) and hz1 (end of window, capturing
// drift) lands on the integer bin bin0, returning the shifted buffer and
// the per-block Hz shift actually applied at block 0 and the last block
// (symmetric helper used to reverse the shift afterward).
func shiftToBin(cache *PlanCache, nsamples []float64, rate, block, bin0 int, hz0, hz1 float64) ([]float64, float64, float64) {
	binHz := BinHz(rate, block)
	targetHz := float64(bin0) * binHz
	shift0 := targetHz - hz0
	shift1 := targetHz - hz1
	if shift0 == shift1 {
		return FFTShift(cache, nsamples, rate, shift0), shift0, shift1
	}

	n := len(nsamples)
	out := make([]float64, 0, n)
	for start := 0; start < n; start += block {
		end := start + block
		if end > n {
			end = n
		}
		frac := float64(start) / float64(n)
		hz := shift0 + (shift1-shift0)*frac
		chunk := nsamples[start:end]
		if len(chunk) == block {
			out = append(out, FFTShift(cache, chunk, rate, hz)...)
		} else {
			out = append(out, chunk...)
		}
	}
	return out, shift0, shift1
}

// blockCoeffs forward-FFTs each of the 79 symbol blocks of samples starting
// at off, stride block. A nil entry marks a symbol whose block fell outside
// samples.
func blockCoeffs(cache *PlanCache, samples []float64, off, block int) [][]complex128 {
	coeffs := make([][]complex128, NSymbols)
	for si := 0; si < NSymbols; si++ {
		start := off + si*block
		if start < 0 || start+block > len(samples) {
			continue
		}
		coeffs[si] = cache.ForwardReal(samples[start : start+block])
	}
	return coeffs
}

// nearbyAmp returns the median amplitude of symbol si's own tone bin across
// the TIME-neighbor symbols si-win..si+win (including si itself), each read
// at *that* symbol's own decoded tone bin bin0+re79[si+i].
func nearbyAmp(coeffsBySymbol [][]complex128, bin0 int, re79 [NSymbols]int, si, win int) float64 {
	var mags []float64
	for d := -win; d <= win; d++ {
		j := si + d
		if j < 0 || j >= NSymbols {
			continue
		}
		row := coeffsBySymbol[j]
		bi := bin0 + re79[j]
		if row == nil || bi < 0 || bi >= len(row) {
			continue
		}
		mags = append(mags, cmplx.Abs(row[bi]))
	}
	if len(mags) == 0 {
		return 0
	}
	sort.Float64s(mags)
	return mags[len(mags)/2]
}

// nearbyPhase returns the phase among symbol si's time-neighbor tone
// samples si-win..si+win (including si itself, each read at that symbol's
// own decoded tone bin) with minimum total angular distance to the others,
// like a median but avoiding the -pi..pi wraparound.
func nearbyPhase(coeffsBySymbol [][]complex128, bin0 int, re79 [NSymbols]int, si, win int) float64 {
	var phases []float64
	for d := -win; d <= win; d++ {
		j := si + d
		if j < 0 || j >= NSymbols {
			continue
		}
		row := coeffsBySymbol[j]
		bi := bin0 + re79[j]
		if row == nil || bi < 0 || bi >= len(row) {
			continue
		}
		phases = append(phases, cmplx.Phase(row[bi]))
	}
	if len(phases) == 0 {
		return 0
	}
	best := phases[0]
	bestCost := math.MaxFloat64
	for _, cand := range phases {
		var cost float64
		for _, p := range phases {
			d := math.Abs(p - cand)
			if d > math.Pi {
				d = 2*math.Pi - d
			}
			cost += d
		}
		if cost < bestCost {
			bestCost = cost
			best = cand
		}
	}
	return best
}

// SimpleSubtractor zeroes (or attenuates to the local noise floor) the
// reconstructed tone bin of each symbol and inverse-FFTs each block, the
// mode selected when fancy_subtract is off.
type SimpleSubtractor struct{}

func (SimpleSubtractor) Subtract(cache *PlanCache, nsamples []float64, rate int, re79 [NSymbols]int, hz0, hz1, offSec float64, cfg Config) []float64 {
	block := BlockSize(rate)
	binHz := BinHz(rate, block)
	mhz := (hz0 + hz1) / 2
	bin0 := int(math.Round(mhz / binHz))
	shifted, shift0, shift1 := shiftToBin(cache, nsamples, rate, block, bin0, hz0, hz1)

	off := int(offSec * float64(rate))
	out := make([]float64, len(shifted))
	copy(out, shifted)

	coeffs := blockCoeffs(cache, out, off, block)

	var nearby [NSymbols]float64
	if cfg.SubAmpWin > 0 {
		for si := 0; si < NSymbols; si++ {
			nearby[si] = nearbyAmp(coeffs, bin0, re79, si, cfg.SubAmpWin)
		}
	}

	for si := 0; si < NSymbols; si++ {
		row := coeffs[si]
		if row == nil {
			continue
		}
		sym := bin0 + re79[si]
		if sym < 0 || sym >= len(row) {
			continue
		}

		if cfg.SubAmpWin > 0 {
			aa := cmplx.Abs(row[sym])
			ampl := nearby[si]
			if ampl > aa {
				ampl = aa
			}
			if aa > 0 {
				row[sym] *= complex((aa-ampl)/aa, 0)
			}
		} else {
			row[sym] = 0
		}

		start := off + si*block
		newBlock := cache.InverseReal(block, row)
		copy(out[start:start+block], newBlock)
	}

	return unshift(cache, out, rate, block, shift0, shift1, hz0, hz1)
}

// FancySubtractor synthesizes a pure cosine at the reconstructed tone's
// estimated amplitude/phase/frequency and subtracts it in the time
// domain, the mode selected when fancy_subtract is on.
type FancySubtractor struct{}

func (FancySubtractor) Subtract(cache *PlanCache, nsamples []float64, rate int, re79 [NSymbols]int, hz0, hz1, offSec float64, cfg Config) []float64 {
	block := BlockSize(rate)
	binHz := BinHz(rate, block)
	mhz := (hz0 + hz1) / 2
	bin0 := int(math.Round(mhz / binHz))
	shifted, shift0, shift1 := shiftToBin(cache, nsamples, rate, block, bin0, hz0, hz1)

	off := int(offSec * float64(rate))
	out := make([]float64, len(shifted))
	copy(out, shifted)

	coeffs := blockCoeffs(cache, out, off, block)

	var nearby [NSymbols]float64
	if cfg.SubAmpWin > 0 {
		for si := 0; si < NSymbols; si++ {
			nearby[si] = nearbyAmp(coeffs, bin0, re79, si, cfg.SubAmpWin)
		}
	}
	var phases [NSymbols]float64
	if cfg.SubPhaseWin > 0 {
		for si := 0; si < NSymbols; si++ {
			phases[si] = nearbyPhase(coeffs, bin0, re79, si, cfg.SubPhaseWin)
		}
	}

	for si := 0; si < NSymbols; si++ {
		row := coeffs[si]
		if row == nil {
			continue
		}
		sym := bin0 + re79[si]
		if sym < 0 || sym >= len(row) {
			continue
		}
		c := row[sym]

		amp := cmplx.Abs(c)
		if cfg.SubAmpWin > 0 {
			amp = nearby[si]
		}
		phase := cmplx.Phase(c)
		if cfg.SubPhaseWin > 0 {
			phase = phases[si]
		}

		// Forward FFT coefficients carry a factor of block/2 for a real
		// tone, so the synthesized cosine's amplitude must be scaled back
		// down before subtracting in the time domain.
		amp /= float64(block) / 2
		toneHz := ToneSpacingHz * float64(bin0+re79[si])

		start := off + si*block
		theta := phase
		for n := 0; n < block; n++ {
			out[start+n] -= amp * math.Cos(theta)
			theta += 2 * math.Pi / (float64(rate) / toneHz)
		}
	}

	return unshift(cache, out, rate, block, shift0, shift1, hz0, hz1)
}

// unshift reverses the shiftToBin translation, restoring the original
// frequency axis.
func unshift(cache *PlanCache, samples []float64, rate, block int, shift0, shift1, hz0, hz1 float64) []float64 {
	if shift0 == shift1 {
		return FFTShift(cache, samples, rate, -shift0)
	}
	n := len(samples)
	out := make([]float64, 0, n)
	for start := 0; start < n; start += block {
		end := start + block
		if end > n {
			end = n
		}
		frac := float64(start) / float64(n)
		hz := shift0 + (shift1-shift0)*frac
		chunk := samples[start:end]
		if len(chunk) == block {
			out = append(out, FFTShift(cache, chunk, rate, -hz)...)
		} else {
			out = append(out, chunk...)
		}
	}
	return out
}

// ChooseSubtractor returns the Subtractor strategy selected by
// cfg.FancySubtract.
func ChooseSubtractor(cfg Config) Subtractor {
	if cfg.FancySubtract {
		return FancySubtractor{}
	}
	return SimpleSubtractor{}
}
