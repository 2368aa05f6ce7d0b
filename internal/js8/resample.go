package js8

import (
	"math"
)

// niceSizes is a hand-tuned table of FFT-friendly lengths a window is
// trimmed toward when within 5% of one, trading exact length for faster
// planning.
var niceSizes = []int{
	48000, 60000, 72000, 90000, 96000, 120000,
	150000, 180000, 192000, 240000, 288000, 360000,
}

// TrimToNiceSize returns n adjusted to the nearest entry of niceSizes if
// that entry is within 5% of n, else n unchanged.
func TrimToNiceSize(n int) int {
	best := n
	bestDelta := math.MaxFloat64
	for _, s := range niceSizes {
		delta := math.Abs(float64(s-n)) / float64(n)
		if delta <= 0.05 && delta < bestDelta {
			best = s
			bestDelta = delta
		}
	}
	return best
}

// Rates is the ordered set of candidate internal sample rates rate
// reduction may choose between.
var Rates = []int{1000, 1500, 2000, 3000, 4000, 6000}

// ChooseRate picks the smallest rate from Rates such that the band
// [hz0,hz1] (plus 50 Hz guard) fits under nyquist*rate/2, matching
// reduce_rate's rate-selection rule.
func ChooseRate(hz0, hz1, nyquist float64) int {
	for _, r := range Rates {
		if (hz1-hz0+50) < nyquist*float64(r)/2 {
			return r
		}
	}
	return Rates[len(Rates)-1]
}

// reduceShoulderTaper returns the trapezoidal band-pass gain at frequency
// hz. The flat passband is [lo,hi] widened by cfg.ReduceExtra on each
// side; the gain falls linearly to 0 over cfg.ReduceShoulder Hz beyond
// each edge. A non-positive shoulder falls back to midpoint-symmetric
// outer edges at mid +- brate*cfg.ReduceFactor, clamped so they never
// fall inside the passband.
func reduceShoulderTaper(hz, lo, hi float64, brate int, cfg Config) float64 {
	lo = math.Max(0, lo-cfg.ReduceExtra)
	hi += cfg.ReduceExtra

	var outerLo, outerHi float64
	if cfg.ReduceShoulder > 0 {
		outerLo = lo - cfg.ReduceShoulder
		outerHi = hi + cfg.ReduceShoulder
	} else {
		mid := (lo + hi) / 2
		outerLo = math.Min(mid-float64(brate)*cfg.ReduceFactor, lo)
		outerHi = math.Max(mid+float64(brate)*cfg.ReduceFactor, hi)
	}

	switch {
	case hz <= outerLo, hz >= outerHi:
		return 0
	case hz < lo:
		return (hz - outerLo) / (lo - outerLo)
	case hz > hi:
		return (outerHi - hz) / (outerHi - hi)
	default:
		return 1
	}
}

// ReduceRate resamples a to brate in the frequency domain: forward-FFT
// the buffer, apply a trapezoidal band-pass taper between hz0 and hz1
// with ReduceShoulder/ReduceFactor/ReduceExtra controlling the taper,
// translate the passband down so its midpoint lands at brate/4, and
// inverse-FFT to the shorter buffer. It returns the resampled buffer and
// the Hz delta the band was shifted by (to be added back to any reported
// frequency).
func ReduceRate(cache *PlanCache, a []float64, hz0, hz1 float64, arate, brate int, cfg Config) ([]float64, float64) {
	n := len(a)
	coeffs := cache.ForwardReal(a)
	binHz := float64(arate) / float64(n)

	mid := (hz0 + hz1) / 2
	targetMid := float64(brate) / 4
	deltaHz := mid - targetMid

	outLen := int(math.Round(float64(n) * float64(brate) / float64(arate)))
	outBins := outLen/2 + 1
	shifted := make([]complex128, outBins)

	shiftBins := int(math.Round(deltaHz / binHz))
	for srcBin, c := range coeffs {
		hz := float64(srcBin) * binHz
		gain := reduceShoulderTaper(hz, hz0, hz1, brate, cfg)
		if gain == 0 {
			continue
		}
		dstBin := srcBin - shiftBins
		if dstBin < 0 || dstBin >= outBins {
			continue
		}
		shifted[dstBin] += c * complex(gain, 0)
	}

	out := cache.InverseReal(outLen, shifted)
	norm := 1 / float64(n)
	for i := range out {
		out[i] *= norm * float64(outLen)
	}
	return out, deltaHz
}

// FFTShift translates the spectrum of samples up by hz (negative hz
// shifts down). The caller-supplied plan cache means repeated shifts of
// same-length buffers reuse a warm plan.
//
// Bins shifted past Nyquist are dropped; nothing downstream depends on
// wrap-around behavior.
func FFTShift(cache *PlanCache, samples []float64, rate int, hz float64) []float64 {
	n := len(samples)
	coeffs := cache.ForwardReal(samples)
	binHz := float64(rate) / float64(n)
	shiftBins := int(math.Round(hz / binHz))

	out := make([]complex128, len(coeffs))
	for srcBin, c := range coeffs {
		dstBin := srcBin + shiftBins
		if dstBin < 0 || dstBin >= len(coeffs) {
			continue
		}
		out[dstBin] = c
	}
	return cache.InverseReal(n, out)
}

// Shift200 moves a signal sitting at hz down onto bin 4 (25 Hz at 200
// sps), returning the input unchanged when it is already centered there
// to within 0.001 Hz.
func Shift200(cache *PlanCache, samples200 []float64, hz float64) []float64 {
	const rate = 200
	const targetHz = 25
	if math.Abs(hz-targetHz) < 0.001 {
		return samples200
	}
	return FFTShift(cache, samples200, rate, targetHz-hz)
}
