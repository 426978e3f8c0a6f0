package signal

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

type filter interface {
	Reset(state []float64) error
	Next(x float64) float64
}

// directForm runs an IIRFilter one sample at a time in transposed direct form II.
type directForm struct {
	b, a []float64
	z    []float64
}

func newDirectForm(f *IIRFilter) *directForm {
	return &directForm{b: f.B, a: f.A, z: make([]float64, len(f.A)-1)}
}

func (d *directForm) Reset(state []float64) error {
	if state == nil {
		for i := range d.z {
			d.z[i] = 0
		}
		return nil
	}
	if len(state) != len(d.z) {
		return errors.Errorf("filter state has %d values, want %d", len(state), len(d.z))
	}
	copy(d.z, state)
	return nil
}

func (d *directForm) Next(x float64) float64 {
	y := d.b[0]*x + d.first()
	n := len(d.z)
	for j := 0; j < n-1; j++ {
		d.z[j] = d.b[j+1]*x + d.z[j+1] - d.a[j+1]*y
	}
	if n > 0 {
		d.z[n-1] = d.b[n]*x - d.a[n]*y
	}
	return y
}

func (d *directForm) first() float64 {
	if len(d.z) == 0 {
		return 0
	}
	return d.z[0]
}

// PadLength is the number of samples FiltFilt mirrors onto each end of a signal. A signal must be
// strictly longer than this to be filtered.
func (f *IIRFilter) PadLength() int {
	n := len(f.A)
	if len(f.B) > n {
		n = len(f.B)
	}
	return 3 * n
}

// FiltFilt applies the filter forwards and then backwards, which cancels its phase response. The
// signal is extended at both ends by odd reflection and each pass starts from the steady state for
// its first sample, which keeps edge transients small. The whole signal must be available: this
// cannot be computed incrementally.
func (f *IIRFilter) FiltFilt(x []float64) ([]float64, error) {
	padLen := f.PadLength()
	if len(x) <= padLen {
		return nil, &InsufficientDataError{Length: len(x), Required: padLen + 1}
	}
	zi, err := f.SteadyStateInitial()
	if err != nil {
		return nil, err
	}

	ext := oddExtend(x, padLen)
	flt := newDirectForm(f)

	state := make([]float64, len(zi))
	if err := run(flt, ext, floats.ScaleTo(state, ext[0], zi)); err != nil {
		return nil, err
	}
	floats.Reverse(ext)
	if err := run(flt, ext, floats.ScaleTo(state, ext[0], zi)); err != nil {
		return nil, err
	}
	floats.Reverse(ext)

	out := make([]float64, len(x))
	copy(out, ext[padLen:padLen+len(x)])
	return out, nil
}

// run filters x in place starting from the given state.
func run(flt filter, x, state []float64) error {
	if err := flt.Reset(state); err != nil {
		return err
	}
	for i, v := range x {
		x[i] = flt.Next(v)
	}
	return nil
}

// oddExtend mirrors n samples around each endpoint: x[0] - (x[k] - x[0]) on the left and the same
// around the last sample on the right.
func oddExtend(x []float64, n int) []float64 {
	last := len(x) - 1
	ext := make([]float64, 0, len(x)+2*n)
	for k := n; k >= 1; k-- {
		ext = append(ext, 2*x[0]-x[k])
	}
	ext = append(ext, x...)
	for k := 1; k <= n; k++ {
		ext = append(ext, 2*x[last]-x[last-k])
	}
	return ext
}
