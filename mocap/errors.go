package mocap

import (
	"errors"
	"fmt"
)

var (
	// ErrTooFewFrames is returned when a sequence has fewer frames than an operation needs.
	ErrTooFewFrames = errors.New("too few frames in sequence")

	// ErrCannotInferSampleRate is returned when the time column does not yield a positive median step.
	ErrCannotInferSampleRate = errors.New("cannot infer sampling rate from timestamps")
)

// ValidationError describes an input record or field that cannot be used.
type ValidationError struct {
	// Line is the 1-based line in the source file, or 0 when the record did not come from a file.
	Line   int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid input at line %d, field %q: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input field %q: %s", e.Field, e.Reason)
}
