package js8

import (
	"math"
	"math/rand"
	"testing"
)

func TestDistributionMeanStdDev(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5}
	d := NewDistribution(samples, 1, 0.05)
	if math.Abs(d.Mean()-3) > 1e-9 {
		t.Fatalf("Mean = %v, want 3", d.Mean())
	}
	if d.StdDev() <= 0 {
		t.Fatalf("StdDev = %v, want > 0", d.StdDev())
	}
}

func TestDistributionEmpty(t *testing.T) {
	d := NewDistribution(nil, 1, 0.05)
	if !d.Empty() {
		t.Fatal("Empty() = false for a distribution built with no samples")
	}
	if got := d.CDF(0, 0); got != 0.5 {
		t.Fatalf("CDF on an empty distribution = %v, want 0.5", got)
	}
}

func TestCDFIsMonotonicAcrossModes(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	samples := make([]float64, 500)
	for i := range samples {
		samples[i] = rng.NormFloat64()
	}
	d := NewDistribution(samples, 2, 0.05)

	for how := 0; how <= 4; how++ {
		prev := -1.0
		for x := -4.0; x <= 4.0; x += 0.25 {
			v := d.CDF(x, how)
			if v < prev-1e-9 {
				t.Fatalf("mode %d: CDF not monotonic at x=%v (%v < %v)", how, x, v, prev)
			}
			if v < -1e-9 || v > 1+1e-9 {
				t.Fatalf("mode %d: CDF(%v) = %v out of [0,1]", how, x, v)
			}
			prev = v
		}
	}
}

func TestCDFGaussianAtMeanIsHalf(t *testing.T) {
	samples := []float64{-1, 0, 1}
	d := NewDistribution(samples, 1, 0.05)
	if got := d.CDFGaussian(d.Mean()); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("CDFGaussian(mean) = %v, want 0.5", got)
	}
}

func TestCDFEmpiricalOrdering(t *testing.T) {
	samples := []float64{10, 20, 30, 40}
	d := NewDistribution(samples, 1, 0.1)
	lo := d.CDFEmpirical(5)
	hi := d.CDFEmpirical(45)
	if lo != 0 {
		t.Fatalf("CDFEmpirical below all samples = %v, want 0", lo)
	}
	if hi != 1 {
		t.Fatalf("CDFEmpirical above all samples = %v, want 1", hi)
	}
}

func TestUnknownCDFModeDefaultsToGaussian(t *testing.T) {
	samples := []float64{1, 2, 3}
	d := NewDistribution(samples, 1, 0.05)
	if d.CDF(1.5, 99) != d.CDFGaussian(1.5) {
		t.Fatal("unrecognized how should fall back to CDFGaussian")
	}
}
