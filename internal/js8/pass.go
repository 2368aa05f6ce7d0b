package js8

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// SubBand is a half-open frequency range assigned to one worker.
type SubBand struct {
	Lo, Hi float64
}

// Partition splits [minHz,maxHz] into cfg.NThreads equal sub-bands, each
// non-edge boundary widened by cfg.Overlap Hz so a signal near a boundary
// isn't missed by either neighboring worker.
func Partition(minHz, maxHz float64, cfg Config) []SubBand {
	n := cfg.NThreads
	if n < 1 {
		n = 1
	}
	width := (maxHz - minHz) / float64(n)
	bands := make([]SubBand, n)
	for i := 0; i < n; i++ {
		lo := minHz + float64(i)*width
		hi := lo + width
		if i > 0 {
			lo -= cfg.Overlap
		}
		if i < n-1 {
			hi += cfg.Overlap
		}
		bands[i] = SubBand{Lo: lo, Hi: hi}
	}
	return bands
}

// padWithNoise extends samples with Gaussian noise scaled to the buffer's
// own RMS, so a short window still has enough trailing samples for the
// coarse search's symbol grid.
func padWithNoise(samples []float64, need int, rng *rand.Rand) []float64 {
	if len(samples) >= need {
		return samples
	}
	var sumSq float64
	for _, s := range samples {
		sumSq += s * s
	}
	rms := 0.01
	if len(samples) > 0 {
		rms = math.Sqrt(sumSq / float64(len(samples)))
		if rms == 0 {
			rms = 0.01
		}
	}
	out := make([]float64, need)
	copy(out, samples)
	for i := len(samples); i < need; i++ {
		out[i] = rng.NormFloat64() * rms
	}
	return out
}

// prepareSubBand readies one worker's buffer: trim to the nearest nice
// FFT size, optionally reduce rate to fit the sub-band, then pad with
// noise if still short of the span the coarse search's symbol grid needs
// (start + tplus*rate + 80 blocks). It returns the working buffer, the
// internal rate it runs at, the Hz the band was shifted down by, and the
// start index rescaled to the internal rate.
func (d *Decoder) prepareSubBand(samples []float64, rate int, start float64, band SubBand) ([]float64, int, float64, int) {
	cfg := d.Config

	trimmed := samples
	if nice := TrimToNiceSize(len(samples)); nice <= len(samples) {
		trimmed = samples[:nice]
	}

	rate2 := ChooseRate(band.Lo, band.Hi, cfg.Nyquist)
	deltaHz := 0.0
	reduced := trimmed
	if rate2 < rate {
		reduced, deltaHz = ReduceRate(d.Cache, trimmed, band.Lo, band.Hi, rate, rate2, cfg)
	} else {
		rate2 = rate
	}

	startRate2 := int(start * float64(rate2) / float64(rate))
	block := BlockSize(rate2)
	need := startRate2 + int(cfg.TPlus*float64(rate2)) + 80*block
	rng := rand.New(rand.NewSource(int64(rate2) ^ int64(len(reduced))))
	reduced = padWithNoise(reduced, need, rng)

	return reduced, rate2, deltaHz, startRate2
}

// candWork is a coarse candidate along with the sub-band's resampling
// context, carried through fine search/demod/decode.
type candWork struct {
	Candidate
	rate2   int
	deltaHz float64
}

// decodeCandidate pipes one coarse candidate through fine search, soft
// demodulation, LDPC decoding and the CRC check, returning the
// accepted payload bits, the refined frequency/offset, the reconstructed
// symbol sequence needed for subtraction, and the magnitude grid the SNR
// estimate is computed from. ok is false if the candidate did not produce
// a valid decode. offSec is seconds from the start of the working buffer
// (symbol 0's refined position in the 200 sps down-conversion).
func (d *Decoder) decodeCandidate(samples []float64, cw candWork) (bits87 [NMessageBits]int, hz0 float64, offSec float64, re79 [NSymbols]int, m79 [NSymbols][8]float64, ok bool) {
	cfg := d.Config

	band200, _ := ReduceRate(d.Cache, samples, cw.Hz-100, cw.Hz+100, cw.rate2, 200, cfg)
	samples200 := Shift200(d.Cache, band200, 50)

	off0 := int(float64(cw.Offset) * 200 / float64(cw.rate2))
	fine := SearchBoth(d.Cache, samples200, off0, cfg)
	_, driftAdjusted := SearchDrift(d.Cache, samples200, fine, cfg)

	// Re-center the refined frequency on 25 Hz so the tone grid reads the
	// eight FSK bins exactly.
	centered := Shift200(d.Cache, driftAdjusted, fine.Hz)

	c79 := Extract(d.Cache, centered, fine.Off)
	m79 = Magnitudes(c79)
	snr79 := ConvertToSNR(m79, cfg)
	ll174 := PrepareSoft(snr79, cfg)

	bits174, satisfied := Decode(ll174, cfg.LDPCIters)
	if satisfied != NMessageBits {
		return bits87, 0, 0, re79, m79, false
	}
	if !CheckCRC(bits174) {
		return bits87, 0, 0, re79, m79, false
	}

	copy(bits87[:], bits174[87:174])

	re79 = Recode(bits174)
	tight := SearchBothKnown(d.Cache, centered, fine.Off, re79, cfg)

	trueHz := cw.Hz + cw.deltaHz + (fine.Hz - 25) + (tight.Hz - 25)
	offSec = float64(tight.Off) / 200.0

	return bits87, trueHz, offSec, re79, m79, true
}

// estimateSNR computes the callback-reported SNR estimate: Costas-expected
// tones plus each data symbol's strongest tone against the Costas-opposite
// tone and the middle three data tones, the (s+n)/n ratio turned into s/n,
// rescaled from the 2.7 Hz tone bandwidth to a 2500 Hz reference bandwidth,
// and mapped onto a dB-like scale.
func estimateSNR(m79 [NSymbols][8]float64) float64 {
	var signal, noise float64
	for i79 := 0; i79 < NSymbols; i79++ {
		tones := m79[i79]
		if ci, isCostas := costasSymbolIndices(i79); isCostas {
			expected := Costas[ci]
			signal += tones[expected]
			noise += tones[(expected+4)%8]
			continue
		}
		sorted := append([]float64(nil), tones[:]...)
		sort.Float64s(sorted)
		signal += sorted[7]
		noise += (sorted[2] + sorted[3] + sorted[4]) / 3
	}
	noise /= NSymbols
	signal /= NSymbols
	if noise == 0 {
		noise = 1e-9
	}
	raw := (signal / noise) * (signal / noise)
	raw -= 1 // (s+n)/n -> s/n
	if raw < 0.1 {
		raw = 0.1
	}
	raw /= 2500.0 / 2.7
	return 1.4 * (10*math.Log10(raw) + 5)
}

// alreadyBucket maps hz to a duplicate-suppression bucket index: the same
// bucket is decoded at most once per pass.
func alreadyBucket(hz, bucketHz float64) int {
	return int(math.Floor(hz / bucketHz))
}

// Decode runs the full multi-pass pipeline over one window: partition
// [minHz,maxHz] into cfg.NThreads sub-bands, run one worker goroutine per
// sub-band, and join them before returning. samples is the window's
// immutable input at rate sps; start is the sample index of the window's
// nominal 0.5s mark. dups is the duplicate-text set shared by every
// sub-band and pass of the window, owned and cleared by the caller at
// window boundaries.
func (d *Decoder) Decode(ctx context.Context, samples []float64, rate int, start float64, minHz, maxHz float64, hints1, hints2 []uint32, dups *DupSet, cb Callback) {
	cfg := d.Config
	nyquist := float64(rate) / 2
	if minHz < 0 {
		minHz = 0
	}
	if maxHz+50 > nyquist {
		maxHz = nyquist - 50
	}
	if maxHz <= minHz {
		return
	}
	if start < 0 {
		start = 0
	}
	if limit := float64(len(samples)); start > limit {
		start = limit
	}

	budget := time.Duration(cfg.Budget * float64(time.Second))
	finalDeadline := time.Duration(cfg.FinalDeadline * float64(time.Second))
	windowDeadline := time.Now().Add(budget)
	hardDeadline := time.Now().Add(finalDeadline)

	bands := Partition(minHz, maxHz, cfg)

	var wg sync.WaitGroup
	for _, band := range bands {
		band := band
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.runSubBand(ctx, samples, rate, start, band, hints1, hints2, dups, windowDeadline, hardDeadline, cb)
		}()
	}
	wg.Wait()
}

// runSubBand is one worker's full pipeline: prepare the sub-band buffer,
// then run cfg.NPasses coarse->fine->demod->decode passes, subtracting
// every accepted new decode from the pass's working buffer before the
// next pass runs.
func (d *Decoder) runSubBand(ctx context.Context, fullSamples []float64, rate int, start float64, band SubBand, hints1, hints2 []uint32, dups *DupSet, windowDeadline, hardDeadline time.Time, cb Callback) {
	cfg := d.Config

	reduced, rate2, deltaHz, startRate2 := d.prepareSubBand(fullSamples, rate, start, band)
	d.debugf("sub-band %.0f-%.0f Hz: rate %d, %d samples", band.Lo, band.Hi, rate2, len(reduced))

	nsamples := make([]float64, len(reduced))
	copy(nsamples, reduced)

	npasses := cfg.NPasses
	if npasses < 1 {
		npasses = 1
	}
	subtractor := ChooseSubtractor(cfg)

	for passIdx := 0; passIdx < npasses; passIdx++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		samplesThisPass := make([]float64, len(nsamples))
		copy(samplesThisPass, nsamples)

		remaining := time.Until(windowDeadline)
		passBudget := remaining / time.Duration(npasses-passIdx)
		if passIdx == 0 {
			passBudget = time.Duration(float64(passBudget) * cfg.Pass0Frac)
		}
		passDeadline := time.Now().Add(passBudget)
		isLastPass := passIdx == npasses-1

		block := BlockSize(rate2)
		binHz := BinHz(rate2, block)
		// The working buffer was translated down by deltaHz during rate
		// reduction, so the sub-band's edges move down with it.
		biMin := int((band.Lo - deltaHz) / binHz)
		biMax := int((band.Hi - deltaHz) / binHz)
		if biMin < 0 {
			biMin = 0
		}
		si0 := (startRate2 - int(cfg.TMinus*float64(rate2))) / block
		si1 := (startRate2 + int(cfg.TPlus*float64(rate2))) / block
		if si0 < 0 {
			si0 = 0
		}

		candidates := CoarseRefined(d.Cache, samplesThisPass, rate2, biMin, biMax, si0, si1, cfg)
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Strength > candidates[j].Strength })
		d.debugf("sub-band %.0f-%.0f Hz pass %d: %d candidates", band.Lo, band.Hi, passIdx, len(candidates))

		already := make(map[int]bool)
		decodesThisPass := 0

		for ii, cand := range candidates {
			if abortPass(ii, time.Now(), passDeadline, windowDeadline, hardDeadline, decodesThisPass, isLastPass) {
				break
			}

			bucket := alreadyBucket(cand.Hz, cfg.AlreadyHz)
			if already[bucket] {
				continue
			}

			cw := candWork{Candidate: cand, rate2: rate2, deltaHz: deltaHz}
			bits87, hz0, offSec, re79, m79, ok := d.decodeCandidate(samplesThisPass, cw)
			if !ok && cfg.UseHints {
				bits87, hz0, offSec, re79, m79, ok = d.decodeWithHints(samplesThisPass, cw, hints1, hints2)
			}
			if !ok {
				continue
			}

			already[bucket] = true

			if dups.CheckAndAdd(bitsKey(bits87)) {
				continue
			}

			snr := estimateSNR(m79)

			d.debugf("decode at %.1f Hz, off %.2fs, snr %.0f", hz0, offSec, snr)
			ret := d.invokeCallback(cb, bits87, hz0, hz0, offSec, "", snr)
			if ret != CBNewSubtract {
				continue
			}

			decodesThisPass++
			nsamples = subtractor.Subtract(d.Cache, nsamples, rate2, re79, hz0-deltaHz, hz0-deltaHz, offSec, cfg)
		}
	}
}

// abortPass reports whether the candidate loop should stop before
// attempting candidate ii. The strongest candidate (ii == 0) is always
// attempted, even when every deadline has already passed, so a tight
// budget still yields the one most likely decode. After that, the pass
// ends once its own deadline expires, unless it has produced nothing and
// the whole window still has time (grace), or it is the last pass and the
// hard deadline has not hit (lastChance).
func abortPass(ii int, now time.Time, passDeadline, windowDeadline, hardDeadline time.Time, decodes int, lastPass bool) bool {
	if ii == 0 || now.Before(passDeadline) {
		return false
	}
	grace := decodes == 0 && now.Before(windowDeadline)
	lastChance := lastPass && now.Before(hardDeadline)
	return !grace && !lastChance
}

// decodeWithHints retries decodeCandidate's soft-demod/LDPC stage with 28
// bits of ll174 pinned to +-MaxLLR from a hint codeword. hints1/hints2 are
// zero-terminated arrays of 28-bit partial codewords.
func (d *Decoder) decodeWithHints(samples []float64, cw candWork, hints1, hints2 []uint32) (bits87 [NMessageBits]int, hz0, offSec float64, re79 [NSymbols]int, m79 [NSymbols][8]float64, ok bool) {
	cfg := d.Config
	for _, hints := range [2][]uint32{hints1, hints2} {
		for _, hint := range hints {
			if hint == 0 {
				break
			}

			band200, _ := ReduceRate(d.Cache, samples, cw.Hz-100, cw.Hz+100, cw.rate2, 200, cfg)
			samples200 := Shift200(d.Cache, band200, 50)
			off0 := int(float64(cw.Offset) * 200 / float64(cw.rate2))
			fine := SearchBoth(d.Cache, samples200, off0, cfg)

			c79 := Extract(d.Cache, Shift200(d.Cache, samples200, fine.Hz), fine.Off)
			m79 = Magnitudes(c79)
			snr79 := ConvertToSNR(m79, cfg)
			ll174 := PrepareSoft(snr79, cfg)
			pinHintBits(&ll174, hint)

			bits174, satisfied := Decode(ll174, cfg.LDPCIters)
			if satisfied != NMessageBits || !CheckCRC(bits174) {
				continue
			}

			copy(bits87[:], bits174[87:174])
			re79 = Recode(bits174)
			hz0 = cw.Hz + cw.deltaHz + (fine.Hz - 25)
			offSec = float64(fine.Off) / 200.0
			return bits87, hz0, offSec, re79, m79, true
		}
	}
	return bits87, 0, 0, re79, m79, false
}

// pinHintBits forces the 28 low-order bits of hint onto the trailing 28
// entries of ll174 at +-MaxLLR, so belief propagation treats those bits as
// known.
func pinHintBits(ll174 *[NCodewordBits]float64, hint uint32) {
	const nHintBits = 28
	base := NCodewordBits - nHintBits
	for i := 0; i < nHintBits; i++ {
		bit := (hint >> uint(nHintBits-1-i)) & 1
		if bit == 0 {
			ll174[base+i] = MaxLLR
		} else {
			ll174[base+i] = -MaxLLR
		}
	}
}

// bitsKey turns a payload+CRC bit array into a stable map key, standing
// in for the decoded text string: unpacking 87 bits into human-readable
// text is the caller's job, but two decodes with identical bits always
// produce identical text, so the bits themselves are a faithful
// duplicate-suppression key.
func bitsKey(bits87 [NMessageBits]int) string {
	var buf [NMessageBits]byte
	for i, b := range bits87 {
		if b != 0 {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf[:])
}
