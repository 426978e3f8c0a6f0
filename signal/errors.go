package signal

import "fmt"

// InvalidCutoffError is returned when a low-pass cutoff is not strictly between zero and the Nyquist
// frequency.
type InvalidCutoffError struct {
	Cutoff  float64
	Nyquist float64
}

func (e *InvalidCutoffError) Error() string {
	return fmt.Sprintf("cutoff frequency %g Hz must be in (0, %g) Hz, the Nyquist frequency", e.Cutoff, e.Nyquist)
}

// InsufficientDataError is returned when a signal is too short to be filtered with zero phase at
// the requested order.
type InsufficientDataError struct {
	Length   int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("signal has %d samples but zero-phase filtering needs more than %d", e.Length, e.Required-1)
}
