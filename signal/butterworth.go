// Package signal smooths motion capture recordings with zero-phase low-pass filters.
package signal

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// IIRFilter is a digital filter given by its transfer function coefficients, normalized so that
// A[0] == 1.
type IIRFilter struct {
	Order        int
	CutoffHz     float64
	SampleRateHz float64
	B            []float64
	A            []float64
}

// Butterworth designs a low-pass digital Butterworth filter of the given order. The analog
// prototype is prewarped to the cutoff and mapped with the bilinear transform, which gives the same
// coefficients as the usual butter(order, cutoff/(fs/2)) design.
func Butterworth(order int, cutoffHz, sampleRateHz float64) (*IIRFilter, error) {
	if order < 1 {
		return nil, errors.Errorf("filter order must be at least 1, got %d", order)
	}
	if !(sampleRateHz > 0) || math.IsInf(sampleRateHz, 0) {
		return nil, errors.Errorf("sampling rate must be positive and finite, got %g", sampleRateHz)
	}
	nyquist := sampleRateHz / 2
	if !(cutoffHz > 0) || cutoffHz >= nyquist {
		return nil, &InvalidCutoffError{Cutoff: cutoffHz, Nyquist: nyquist}
	}

	// bilinear transform with a sampling rate of 2 in normalized frequency units
	const fs2 = 4.0
	wn := cutoffHz / nyquist
	warped := fs2 * math.Tan(math.Pi*wn/2)

	poles := make([]complex128, 0, order)
	gain := complex(math.Pow(warped, float64(order)), 0)
	for m := -order + 1; m < order; m += 2 {
		p := -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order))) * complex(warped, 0)
		poles = append(poles, (fs2+p)/(fs2-p))
		gain /= fs2 - p
	}

	zeros := make([]complex128, order)
	for i := range zeros {
		zeros[i] = -1
	}

	b := realPoly(zeros)
	for i := range b {
		b[i] *= real(gain)
	}
	return &IIRFilter{
		Order:        order,
		CutoffHz:     cutoffHz,
		SampleRateHz: sampleRateHz,
		B:            b,
		A:            realPoly(poles),
	}, nil
}

// realPoly returns the real parts of the coefficients of the monic polynomial with the given
// roots, highest power first. Roots come in conjugate pairs so the imaginary parts cancel.
func realPoly(roots []complex128) []float64 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		copy(next, coeffs)
		for j := 1; j < len(next); j++ {
			next[j] -= r * coeffs[j-1]
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}

// SteadyStateInitial returns the filter state that corresponds to a unit step having been applied
// forever. Scaling it by the first sample of a signal starts the filter without a transient.
func (f *IIRFilter) SteadyStateInitial() ([]float64, error) {
	n := len(f.A) - 1
	if n == 0 {
		return nil, nil
	}
	// Solve (I - Cᵀ)·zi = b[1:] - a[1:]·b[0], with C the companion matrix of a.
	iMinusCT := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		iMinusCT.Set(i, i, 1)
		iMinusCT.Set(i, 0, iMinusCT.At(i, 0)+f.A[i+1])
		if i+1 < n {
			iMinusCT.Set(i, i+1, iMinusCT.At(i, i+1)-1)
		}
	}
	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, f.B[i+1]-f.A[i+1]*f.B[0])
	}
	var zi mat.VecDense
	if err := zi.SolveVec(iMinusCT, rhs); err != nil {
		return nil, errors.Wrap(err, "solving for steady state filter initial conditions")
	}
	return zi.RawVector().Data, nil
}

// Gain returns the magnitude of the frequency response at freqHz.
func (f *IIRFilter) Gain(freqHz float64) float64 {
	z := cmplx.Exp(complex(0, -2*math.Pi*freqHz/f.SampleRateHz))
	var num, den complex128
	zk := complex(1, 0)
	for i := range f.B {
		num += complex(f.B[i], 0) * zk
		den += complex(f.A[i], 0) * zk
		zk *= z
	}
	return cmplx.Abs(num / den)
}
