package js8

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// PlanCache holds lazily-built FFT plans keyed by transform length, shared
// across the coarse search, fine search, soft demodulator and subtractor so
// a given (real or complex) transform size is only planned once per
// process regardless of how many sub-bands or candidates use it.
//
// Construction is serialized by mu; once a plan exists, gonum's FFT/CmplxFFT
// types are safe for concurrent read-only use (Coefficients/Sequence do not
// mutate the plan), so execution takes no lock.
type PlanCache struct {
	mu    sync.Mutex
	real  map[int]*fourier.FFT
	cmplx map[int]*fourier.CmplxFFT
}

// NewPlanCache returns an empty cache ready for use.
func NewPlanCache() *PlanCache {
	return &PlanCache{
		real:  make(map[int]*fourier.FFT),
		cmplx: make(map[int]*fourier.CmplxFFT),
	}
}

// Real returns the real-to-complex FFT plan for transform length n,
// building and caching it on first use.
func (c *PlanCache) Real(n int) *fourier.FFT {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.real[n]
	if !ok {
		p = fourier.NewFFT(n)
		c.real[n] = p
	}
	return p
}

// Cmplx returns the complex-to-complex FFT plan for transform length n,
// building and caching it on first use.
func (c *PlanCache) Cmplx(n int) *fourier.CmplxFFT {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.cmplx[n]
	if !ok {
		p = fourier.NewCmplxFFT(n)
		c.cmplx[n] = p
	}
	return p
}

// ForwardReal computes the real-input FFT of samples, reusing a cached plan.
func (c *PlanCache) ForwardReal(samples []float64) []complex128 {
	return c.Real(len(samples)).Coefficients(nil, samples)
}

// InverseReal computes the inverse real FFT, producing n real samples from
// n/2+1 complex coefficients. gonum's Sequence is unnormalized (a forward
// then inverse transform scales the input by n), so the result is divided
// by n here: InverseReal(n, ForwardReal(x)) reproduces x.
func (c *PlanCache) InverseReal(n int, coeffs []complex128) []float64 {
	out := c.Real(n).Sequence(nil, coeffs)
	norm := 1 / float64(n)
	for i := range out {
		out[i] *= norm
	}
	return out
}

// ForwardCmplx computes the complex-to-complex forward FFT.
func (c *PlanCache) ForwardCmplx(samples []complex128) []complex128 {
	return c.Cmplx(len(samples)).Coefficients(nil, samples)
}

// InverseCmplx computes the complex-to-complex inverse FFT, normalized the
// same way as InverseReal.
func (c *PlanCache) InverseCmplx(coeffs []complex128) []complex128 {
	out := c.Cmplx(len(coeffs)).Sequence(nil, coeffs)
	norm := complex(1/float64(len(coeffs)), 0)
	for i := range out {
		out[i] *= norm
	}
	return out
}
