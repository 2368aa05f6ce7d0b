package js8

import "math/cmplx"

// OneStrength computes the Costas-sync match strength of a 200sps buffer
// under the hypothesis that the signal sits at 25+hzAdj Hz with symbol 0
// at sample offset off: three length-32 FFTs per each of the seven Costas
// symbols (one per sync block at symbol indices 0, 36, 72). The expected
// tone contributes +magnitude; the other seven tones contribute
// -magnitude/7, so a clean sync has a strongly positive score and noise
// averages near zero.
func OneStrength(cache *PlanCache, samples200 []float64, off int, hzAdj float64) float64 {
	shifted := samples200
	if hzAdj != 0 {
		shifted = FFTShift(cache, samples200, 200, -hzAdj)
	}

	var strength float64
	for _, k := range [3]int{0, 36, 72} {
		for s := 0; s < 7; s++ {
			start := off + (k+s)*32
			if start < 0 || start+32 > len(shifted) {
				continue
			}
			coeffs := cache.ForwardReal(shifted[start : start+32])
			for tone := 0; tone < 8; tone++ {
				bi := 4 + tone
				if bi >= len(coeffs) {
					continue
				}
				mag := cmplx.Abs(coeffs[bi])
				if tone == Costas[s] {
					strength += mag
				} else {
					strength -= mag / 7
				}
			}
		}
	}
	return strength
}

// fineResult is the outcome of a local search over (hz, offset).
type fineResult struct {
	Hz       float64
	Off      int
	Strength float64
}

// SearchBoth is the first-stage refine: sweep
// hz = 25 +/- SecondHzWin in steps of SecondHzInc, and
// off = off0 +/- SecondOffWin*32 in steps of SecondOffInc*32, keeping the
// combination with the largest OneStrength.
func SearchBoth(cache *PlanCache, samples200 []float64, off0 int, cfg Config) fineResult {
	best := fineResult{Hz: 25, Off: off0, Strength: -1e18}

	hzWin := cfg.SecondHzWin
	hzInc := cfg.SecondHzInc
	if hzInc <= 0 {
		hzInc = 0.25
	}
	offWin := int(cfg.SecondOffWin * 32)
	offInc := cfg.SecondOffInc * 32
	if offInc < 1 {
		offInc = 1
	}

	for hzAdj := -hzWin; hzAdj <= hzWin+1e-9; hzAdj += hzInc {
		for offDelta := -float64(offWin); offDelta <= float64(offWin)+1e-9; offDelta += offInc {
			off := off0 + int(offDelta)
			s := OneStrength(cache, samples200, off, hzAdj)
			if s > best.Strength {
				best = fineResult{Hz: 25 + hzAdj, Off: off, Strength: s}
			}
		}
	}
	return best
}

// driftShift approximates a linear frequency drift across the window by
// applying a Hilbert-style shift that grows linearly from 0 at the start
// of the buffer to driftHz at the end: each 32-sample block is shifted by
// its own interpolated amount.
func driftShift(cache *PlanCache, samples200 []float64, driftHz float64) []float64 {
	if driftHz == 0 {
		out := make([]float64, len(samples200))
		copy(out, samples200)
		return out
	}
	const block = 32
	out := make([]float64, 0, len(samples200))
	n := len(samples200)
	for start := 0; start < n; start += block {
		end := start + block
		if end > n {
			end = n
		}
		frac := float64(start) / float64(n)
		hz := driftHz * frac
		chunk := samples200[start:end]
		if len(chunk) == block {
			out = append(out, FFTShift(cache, chunk, 200, hz)...)
		} else {
			out = append(out, chunk...)
		}
	}
	return out
}

// SearchDrift tries the three canonical drift values {0, -drift, +drift}
// and returns whichever maximizes sync strength at the already-found
// (hz, off).
func SearchDrift(cache *PlanCache, samples200 []float64, fine fineResult, cfg Config) (driftHz float64, shifted []float64) {
	if !cfg.UseDrift || cfg.Drift == 0 {
		return 0, samples200
	}
	bestDrift := 0.0
	bestShifted := samples200
	bestStrength := OneStrength(cache, samples200, fine.Off, fine.Hz-25)
	for _, d := range [2]float64{-cfg.Drift, cfg.Drift} {
		cand := driftShift(cache, samples200, d)
		s := OneStrength(cache, cand, fine.Off, fine.Hz-25)
		if s > bestStrength {
			bestStrength = s
			bestDrift = d
			bestShifted = cand
		}
	}
	return bestDrift, bestShifted
}

// knownStrength scores (hz, off) using the full 79-symbol decoded sequence
// re79 instead of only the three Costas blocks, for the post-LDPC tight
// refine.
func knownStrength(cache *PlanCache, samples200 []float64, off int, hzAdj float64, re79 [NSymbols]int) float64 {
	shifted := samples200
	if hzAdj != 0 {
		shifted = FFTShift(cache, samples200, 200, -hzAdj)
	}
	var strength float64
	for i79, tone := range re79 {
		start := off + i79*32
		if start < 0 || start+32 > len(shifted) {
			continue
		}
		coeffs := cache.ForwardReal(shifted[start : start+32])
		for t := 0; t < 8; t++ {
			bi := 4 + t
			if bi >= len(coeffs) {
				continue
			}
			mag := cmplx.Abs(coeffs[bi])
			if t == tone {
				strength += mag
			} else {
				strength -= mag / 7
			}
		}
	}
	return strength
}

// SearchBothKnown is the final tight refine: once LDPC has produced a
// decoded symbol sequence, tune hz by ThirdHzInc and off by
// ThirdOffInc over the small ThirdHzWin/ThirdOffWin windows, scoring with
// knownStrength rather than the Costas-only metric.
func SearchBothKnown(cache *PlanCache, samples200 []float64, off0 int, re79 [NSymbols]int, cfg Config) fineResult {
	best := fineResult{Hz: 25, Off: off0, Strength: -1e18}

	hzInc := cfg.ThirdHzInc
	if hzInc <= 0 {
		hzInc = 0.02
	}
	offInc := cfg.ThirdOffInc
	if offInc <= 0 {
		offInc = 0.1
	}
	offWinSamples := int(cfg.ThirdOffWin * 32)

	for hzAdj := -cfg.ThirdHzWin; hzAdj <= cfg.ThirdHzWin+1e-9; hzAdj += hzInc {
		for offDelta := -float64(offWinSamples); offDelta <= float64(offWinSamples)+1e-9; offDelta += offInc * 32 {
			off := off0 + int(offDelta)
			s := knownStrength(cache, samples200, off, hzAdj, re79)
			if s > best.Strength {
				best = fineResult{Hz: 25 + hzAdj, Off: off, Strength: s}
			}
		}
	}
	return best
}
