package referenceframe

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrBasisExists is returned when saving a basis would replace one that is already on disk.
	ErrBasisExists = errors.New("canonical basis already exists")
	// ErrTooFewPoints is returned when a strategy is given fewer samples than PCA needs.
	ErrTooFewPoints = errors.New("too few samples to derive a frame")
	// ErrDegeneratePlane is returned when the samples have no spread to take an axis from.
	ErrDegeneratePlane = errors.New("samples have no variance in the projection plane")
)

// DegenerateBasisError is returned when a candidate basis is not a proper rotation.
type DegenerateBasisError struct {
	Det    float64
	Reason string
}

func (e *DegenerateBasisError) Error() string {
	return fmt.Sprintf("degenerate basis (det %.6f): %s", e.Det, e.Reason)
}

// AmbiguousSignError is returned when the correlation used to orient an axis is too weak to decide
// its sign.
type AmbiguousSignError struct {
	Correlation float64
	Threshold   float64
}

func (e *AmbiguousSignError) Error() string {
	return fmt.Sprintf("axis sign is ambiguous: correlation %.4f is below %.4f in magnitude", e.Correlation, e.Threshold)
}
