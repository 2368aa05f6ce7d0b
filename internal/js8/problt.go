package js8

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is a value-typed statistics kernel over a fixed sample set,
// matching the five CDF modes the soft demodulator selects between via
// Config.ProbltHow. Building one does O(n log n) sorting once; CDF queries
// are then O(log n) or O(1).
type Distribution struct {
	sorted  []float64
	mean    float64
	stddev  float64
	logRate float64
	logTail float64
}

// NewDistribution builds a Distribution over samples, pre-sorting them and
// computing mean/stddev once so every CDF mode is cheap to query
// afterward. logRate/logTail parameterize the logistic-tails mode.
func NewDistribution(samples []float64, logRate, logTail float64) Distribution {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	var stddev float64
	if len(sorted) > 1 {
		stddev = stat.StdDev(sorted, nil)
	}
	return Distribution{
		sorted:  sorted,
		mean:    mean,
		stddev:  stddev,
		logRate: logRate,
		logTail: logTail,
	}
}

// Empty reports whether the distribution has no samples, in which case
// every CDF query degenerates to 0.5.
func (d Distribution) Empty() bool { return len(d.sorted) == 0 }

// CDF dispatches to one of the five estimation modes by `how`.
func (d Distribution) CDF(x float64, how int) float64 {
	if d.Empty() {
		return 0.5
	}
	switch how {
	case 0:
		return d.CDFGaussian(x)
	case 1:
		return d.CDFEmpirical(x)
	case 2:
		return d.CDFLogisticTails(x)
	case 3:
		return d.CDFGaussianTails(x)
	case 4:
		return d.CDFGaussianOutside(x)
	default:
		return d.CDFGaussian(x)
	}
}

// CDFGaussian evaluates the normal CDF parameterized by the sample
// mean/stddev. With zero stddev it is a step at the mean, taking the
// value 0.5 exactly at the mean like every normal CDF does.
func (d Distribution) CDFGaussian(x float64) float64 {
	if d.stddev == 0 {
		switch {
		case x < d.mean:
			return 0
		case x > d.mean:
			return 1
		default:
			return 0.5
		}
	}
	n := distuv.Normal{Mu: d.mean, Sigma: d.stddev}
	return n.CDF(x)
}

// rank returns the empirical rank of x in [0,1]: the fraction of samples
// strictly less than x (sorted-lower-bound / n).
func (d Distribution) rank(x float64) float64 {
	n := len(d.sorted)
	i := sort.SearchFloat64s(d.sorted, x)
	return float64(i) / float64(n)
}

// CDFEmpirical is the sorted-lower-bound-over-n empirical rank: the
// fraction of samples strictly less than x.
func (d Distribution) CDFEmpirical(x float64) float64 {
	return d.rank(x)
}

// logistic is the standard logistic CDF scaled by rate, centered at mu.
func logistic(x, mu, rate float64) float64 {
	return 1 / (1 + math.Exp(-rate*(x-mu)))
}

// CDFLogisticTails uses the empirical rank in the middle of the
// distribution and a logistic curve in the tails (below the logTail
// quantile, above the 1-logTail quantile), matched to the empirical value
// at the boundary so the curve is continuous.
func (d Distribution) CDFLogisticTails(x float64) float64 {
	n := len(d.sorted)
	loIdx := int(d.logTail * float64(n))
	hiIdx := int((1 - d.logTail) * float64(n))
	if loIdx < 0 {
		loIdx = 0
	}
	if hiIdx >= n {
		hiIdx = n - 1
	}
	lo := d.sorted[loIdx]
	hi := d.sorted[hiIdx]

	switch {
	case x < lo:
		boundary := float64(loIdx) / float64(n)
		return logistic(x, lo, d.logRate) * boundary / 0.5
	case x > hi:
		boundary := float64(hiIdx) / float64(n)
		remain := 1 - boundary
		return boundary + (logistic(x, hi, d.logRate)-0.5)*remain/0.5
	default:
		return d.rank(x)
	}
}

// CDFGaussianTails mirrors CDFLogisticTails but uses a normal CDF in the
// tails instead of a logistic curve.
func (d Distribution) CDFGaussianTails(x float64) float64 {
	n := len(d.sorted)
	loIdx := int(d.logTail * float64(n))
	hiIdx := int((1 - d.logTail) * float64(n))
	if loIdx < 0 {
		loIdx = 0
	}
	if hiIdx >= n {
		hiIdx = n - 1
	}
	lo := d.sorted[loIdx]
	hi := d.sorted[hiIdx]

	switch {
	case x < lo:
		denom := d.CDFGaussian(lo + 1e-9)
		if denom == 0 {
			return 0
		}
		return d.CDFGaussian(x) * (float64(loIdx) / float64(n)) / denom
	case x > hi:
		boundary := float64(hiIdx) / float64(n)
		denom := 1 - d.CDFGaussian(hi)
		if denom == 0 {
			return boundary
		}
		return boundary + (1-boundary)*(d.CDFGaussian(x)-d.CDFGaussian(hi))/denom
	default:
		return d.rank(x)
	}
}

// CDFGaussianOutside uses the empirical rank when x falls within
// [min,max] of the samples, and the normal CDF outside that range
// entirely.
func (d Distribution) CDFGaussianOutside(x float64) float64 {
	if len(d.sorted) == 0 {
		return 0.5
	}
	min, max := d.sorted[0], d.sorted[len(d.sorted)-1]
	if x < min || x > max {
		return d.CDFGaussian(x)
	}
	return d.rank(x)
}

// Mean and StdDev expose the sample moments; CDFGaussian above reads the
// fields directly, and within this package only tests call these.
func (d Distribution) Mean() float64   { return d.mean }
func (d Distribution) StdDev() float64 { return d.stddev }
