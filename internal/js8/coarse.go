package js8

import (
	"math/cmplx"
	"sort"
)

// Candidate is a ranked coarse-search hit: an estimated frequency, a
// sample offset for symbol 0, and a strength scalar used only for
// ranking.
type Candidate struct {
	Hz       float64
	Offset   int
	Strength float64
}

// BlockFFTs computes one real FFT per non-overlapping block of `block`
// samples, giving the short-window spectrogram the coarse and subtract
// stages both index into.
func BlockFFTs(cache *PlanCache, samples []float64, block int) [][]complex128 {
	nBlocks := len(samples) / block
	out := make([][]complex128, nBlocks)
	for i := 0; i < nBlocks; i++ {
		out[i] = cache.ForwardReal(samples[i*block : (i+1)*block])
	}
	return out
}

// oneCoarseStrength computes the Costas-match ratio at frequency bin bi0
// and symbol offset si0: the sum of magnitudes at the Costas-expected
// tone across the three 7-symbol sync blocks, divided by the sum of
// magnitudes at the other seven tones over the same blocks.
func oneCoarseStrength(bins [][]complex128, bi0, si0 int) float64 {
	var signal, noise float64
	for _, k := range [3]int{0, 36, 72} {
		for s := 0; s < 7; s++ {
			si := si0 + k + s
			if si < 0 || si >= len(bins) {
				continue
			}
			row := bins[si]
			for tone := 0; tone < 8; tone++ {
				bi := bi0 + tone
				if bi < 0 || bi >= len(row) {
					continue
				}
				mag := cmplx.Abs(row[bi])
				if tone == Costas[s] {
					signal += mag
				} else {
					noise += mag
				}
			}
		}
	}
	if noise == 0 {
		return 1.0
	}
	return signal / noise
}

// Coarse performs the frequency/time grid search: for every frequency
// bin in [biMin,biMax) and symbol offset in [si0,si1), compute
// oneCoarseStrength, then keep the top cfg.NCoarse peaks per frequency
// column, each separated from the column's best by at least
// cfg.NCoarseBlocks blocks in time.
func Coarse(bins [][]complex128, biMin, biMax, si0, si1 int, binHz float64, block int, cfg Config) []Candidate {
	type hit struct {
		si, bi int
		s      float64
	}

	var out []Candidate
	for bi := biMin; bi < biMax; bi++ {
		hits := make([]hit, 0, si1-si0)
		for si := si0; si < si1; si++ {
			s := oneCoarseStrength(bins, bi, si)
			hits = append(hits, hit{si: si, bi: bi, s: s})
		}
		sort.Slice(hits, func(i, j int) bool { return hits[i].s > hits[j].s })

		if len(hits) == 0 {
			continue
		}
		best := hits[0]
		kept := []hit{best}
		for _, h := range hits[1:] {
			if len(kept) >= cfg.NCoarse {
				break
			}
			if abs(h.si-best.si) >= cfg.NCoarseBlocks {
				kept = append(kept, h)
			}
		}
		for _, h := range kept {
			out = append(out, Candidate{
				Hz:       float64(h.bi) * binHz,
				Offset:   h.si * block,
				Strength: h.s,
			})
		}
	}
	return out
}

// CoarseRefined repeats Coarse over cfg.CoarseHzFracs sub-bin frequency
// shifts and cfg.CoarseOffFracs sub-block offset shifts of the input,
// merging every candidate found across all refinements, to hit fractional
// bins/offsets the base grid alone would miss.
func CoarseRefined(cache *PlanCache, samples []float64, rate int, biMin, biMax int, si0, si1 int, cfg Config) []Candidate {
	block := BlockSize(rate)
	binHz := BinHz(rate, block)

	var merged []Candidate
	hzFracs := maxInt(cfg.CoarseHzFracs, 1)
	offFracs := maxInt(cfg.CoarseOffFracs, 1)

	for hf := 0; hf < hzFracs; hf++ {
		hzShift := binHz * float64(hf) / float64(hzFracs)
		shifted := samples
		if hzShift != 0 {
			shifted = FFTShift(cache, samples, rate, -hzShift)
		}
		for of := 0; of < offFracs; of++ {
			offShift := block * of / offFracs
			start := offShift
			if start >= len(shifted) {
				continue
			}
			bins := BlockFFTs(cache, shifted[start:], block)
			cands := Coarse(bins, biMin, biMax, si0, si1, binHz, block, cfg)
			for i := range cands {
				cands[i].Hz += hzShift
				cands[i].Offset += offShift
			}
			merged = append(merged, cands...)
		}
	}
	return merged
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
