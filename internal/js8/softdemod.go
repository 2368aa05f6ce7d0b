package js8

import (
	"math"
	"math/cmplx"
	"sort"
)

// dataSymbolPositions lists, for each of the 58 data symbols in encoding
// order, the i79 symbol index it occupies in the 79-symbol transmission
// (the non-Costas positions), matching the order ExtractBits/Recode walk.
var dataSymbolPositions = buildDataSymbolPositions()

func buildDataSymbolPositions() [NDataSymbols]int {
	var out [NDataSymbols]int
	ds := 0
	for i79 := 0; i79 < NSymbols; i79++ {
		if _, isCostas := costasSymbolIndices(i79); isCostas {
			continue
		}
		out[ds] = i79
		ds++
	}
	return out
}

// defaultApriori174 is a flat (non-informative) 174-entry a-priori table.
// Message-structure priors (e.g. weighting toward valid callsign/grid
// encodings) would be measured from on-air traffic; until then UseApriori
// toggles between this table and the plain 0.5/0.5 priors without
// changing behavior.
var defaultApriori174 [NCodewordBits]float64

// Extract builds the 79x8 complex tone grid: a length-32 FFT at stride 32
// starting at sample off, keeping bins 4..11 (the eight FSK tones).
func Extract(cache *PlanCache, samples200 []float64, off int) [NSymbols][8]complex128 {
	var c79 [NSymbols][8]complex128
	for si := 0; si < NSymbols; si++ {
		start := off + si*32
		if start < 0 || start+32 > len(samples200) {
			continue
		}
		coeffs := cache.ForwardReal(samples200[start : start+32])
		for t := 0; t < 8; t++ {
			bi := 4 + t
			if bi < len(coeffs) {
				c79[si][t] = coeffs[bi]
			}
		}
	}
	return c79
}

// Magnitudes converts a complex tone grid to a real magnitude grid.
func Magnitudes(c79 [NSymbols][8]complex128) [NSymbols][8]float64 {
	var m79 [NSymbols][8]float64
	for si := range c79 {
		for t := range c79[si] {
			m79[si][t] = cmplx.Abs(c79[si][t])
		}
	}
	return m79
}

// noiseScalar reduces one symbol's 8 tone magnitudes to a single noise
// estimate per the SNRHow selector.
func noiseScalar(tones [8]float64, how int) float64 {
	sorted := append([]float64(nil), tones[:]...)
	sort.Float64s(sorted)
	switch how {
	case 0: // median of 8
		return (sorted[3] + sorted[4]) / 2
	case 1: // mean
		var sum float64
		for _, v := range sorted {
			sum += v
		}
		return sum / 8
	case 2: // mean of weakest 7 (excluding the strongest)
		var sum float64
		for _, v := range sorted[:7] {
			sum += v
		}
		return sum / 7
	case 3: // weakest
		return sorted[0]
	case 4: // strongest
		return sorted[7]
	case 5: // second-strongest
		return sorted[6]
	default:
		return (sorted[3] + sorted[4]) / 2
	}
}

// ConvertToSNR normalizes each symbol's tone magnitudes by a windowed
// average of the neighboring +/-SNRWin symbols' noise scalars. The window
// shape follows cfg.Window (Blackman by default).
func ConvertToSNR(m79 [NSymbols][8]float64, cfg Config) [NSymbols][8]float64 {
	var scalars [NSymbols]float64
	for si := range m79 {
		scalars[si] = noiseScalar(m79[si], cfg.SNRHow)
	}

	wf := WindowByName(cfg.Window)
	win := cfg.SNRWin
	wlen := 2*win + 1
	var out [NSymbols][8]float64
	for si := range m79 {
		var weighted, weight float64
		for d := -win; d <= win; d++ {
			// Clamp to the edge symbol so the first and last symbols are
			// normalized with the same total window weight as the rest.
			j := si + d
			if j < 0 {
				j = 0
			} else if j >= NSymbols {
				j = NSymbols - 1
			}
			w := wf(d+win, wlen)
			weighted += w * scalars[j]
			weight += w
		}
		avg := 1.0
		if weight > 0 {
			avg = weighted / weight
		}
		if avg <= 0 {
			avg = 1e-9
		}
		for t := 0; t < 8; t++ {
			out[si][t] = m79[si][t] / avg
		}
	}
	return out
}

// softStats accumulates one time slice's bests/noises samples.
type softStats struct {
	bests  []float64
	noises []float64
}

// MakeStats partitions the 79 symbols into cfg.SoftRanges time slices and
// accumulates, for each slice, a bests distribution (Costas-expected tone
// magnitudes, and each data symbol's strongest tone) and a noises
// distribution (Costas non-expected tones, and each data symbol's weakest
// seven tones). When cfg.BestInNoise is set, the bests samples are also
// folded into noises.
func MakeStats(snr79 [NSymbols][8]float64, cfg Config) []softStats {
	nRanges := cfg.SoftRanges
	if nRanges < 1 {
		nRanges = 1
	}
	sliceLen := (NSymbols + nRanges - 1) / nRanges
	stats := make([]softStats, nRanges)

	sliceOf := func(i79 int) int {
		r := i79 / sliceLen
		if r >= nRanges {
			r = nRanges - 1
		}
		return r
	}

	for i79 := 0; i79 < NSymbols; i79++ {
		r := sliceOf(i79)
		tones := snr79[i79]
		if ci, isCostas := costasSymbolIndices(i79); isCostas {
			expected := Costas[ci]
			stats[r].bests = append(stats[r].bests, tones[expected])
			for t := 0; t < 8; t++ {
				if t != expected {
					stats[r].noises = append(stats[r].noises, tones[t])
				}
			}
			continue
		}
		sorted := append([]float64(nil), tones[:]...)
		sort.Float64s(sorted)
		stats[r].bests = append(stats[r].bests, sorted[7])
		stats[r].noises = append(stats[r].noises, sorted[:7]...)
	}

	if cfg.BestInNoise {
		for r := range stats {
			stats[r].noises = append(stats[r].noises, stats[r].bests...)
		}
	}
	return stats
}

// sliceForSymbol returns the stats slice index covering i79, mirroring
// MakeStats' own partitioning so PrepareSoft picks the matching
// distribution.
func sliceForSymbol(i79, nRanges int) int {
	if nRanges < 1 {
		nRanges = 1
	}
	sliceLen := (NSymbols + nRanges - 1) / nRanges
	r := i79 / sliceLen
	if r >= nRanges {
		r = nRanges - 1
	}
	return r
}

// bitOfTone reports bit j (0=MSB..2=LSB) of the 3-bit tone value t.
func bitOfTone(t, j int) int {
	return (t >> uint(2-j)) & 1
}

// PrepareSoft computes the 174 clamped log-likelihood ratios: for each
// bit, the Bayes combination of the best-tone and noise-tone
// distributions built from the windowed-SNR magnitude grid.
func PrepareSoft(snr79 [NSymbols][8]float64, cfg Config) [NCodewordBits]float64 {
	stats := MakeStats(snr79, cfg)
	nRanges := cfg.SoftRanges
	if nRanges < 1 {
		nRanges = 1
	}

	dists := make([]struct {
		bests, noises Distribution
	}, len(stats))
	for r, s := range stats {
		dists[r].bests = NewDistribution(s.bests, cfg.LogRate, cfg.LogTail)
		dists[r].noises = NewDistribution(s.noises, cfg.LogRate, cfg.LogTail)
	}

	var ll174 [NCodewordBits]float64
	for ds := 0; ds < NDataSymbols; ds++ {
		i79 := dataSymbolPositions[ds]
		r := sliceForSymbol(i79, nRanges)
		tones := snr79[i79]

		for j := 0; j < 3; j++ {
			i174 := ds*3 + j
			bestZero, bestOne := -math.MaxFloat64, -math.MaxFloat64
			for t := 0; t < 8; t++ {
				if bitOfTone(t, j) == 0 {
					if tones[t] > bestZero {
						bestZero = tones[t]
					}
				} else if tones[t] > bestOne {
					bestOne = tones[t]
				}
			}

			p0, p1 := 0.5, 0.5
			if cfg.UseApriori {
				logit := defaultApriori174[i174]
				p1 = 1 / (1 + math.Exp(-logit))
				p0 = 1 - p1
			}

			fb := dists[r].bests
			fn := dists[r].noises
			a := p0 * fb.CDF(bestZero, cfg.ProbltHow) * (1 - fn.CDF(bestOne, cfg.ProbltHow))
			b := p1 * fb.CDF(bestOne, cfg.ProbltHow) * (1 - fn.CDF(bestZero, cfg.ProbltHow))

			p := 0.5
			if a+b != 0 {
				p = a / (a + b)
			}
			ll174[i174] = clampLLR(math.Log(p / (1 - p)))
		}
	}
	return ll174
}
