package spatialmath

import "fmt"

// quaternionNormEpsilon is the smallest quaternion norm that is still normalized. Anything below it
// carries no orientation information.
const quaternionNormEpsilon = 1e-12

// DegenerateInputError is returned when a quaternion cannot be turned into a rotation, typically
// because all of its components are zero.
type DegenerateInputError struct {
	Norm float64
	// FrameIndex is the recording frame the quaternion came from, or -1 when unknown.
	FrameIndex int
}

func (e *DegenerateInputError) Error() string {
	if e.FrameIndex < 0 {
		return fmt.Sprintf("degenerate quaternion with norm %g", e.Norm)
	}
	return fmt.Sprintf("degenerate quaternion with norm %g at frame %d", e.Norm, e.FrameIndex)
}

// NewDegenerateInputError returns a DegenerateInputError for the given norm and frame.
func NewDegenerateInputError(norm float64, frameIndex int) error {
	return &DegenerateInputError{Norm: norm, FrameIndex: frameIndex}
}
