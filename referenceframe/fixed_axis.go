package referenceframe

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// planeVarianceEpsilon is the smallest in-plane variance, in mm², a principal direction is taken
// from.
const planeVarianceEpsilon = 1e-12

// FixedAxisStrategy fixes canonical Z to a known capture direction, typically the vertical axis of
// the capture volume. Canonical Y is the principal direction of jaw motion in the plane
// perpendicular to Z, oriented so that it rises with the jaw's Z projection, and X completes a
// right handed set.
type FixedAxisStrategy struct {
	Axis               r3.Vector
	MinSignCorrelation float64
}

// NewFixedAxisStrategy returns the strategy with the capture Y axis as canonical Z.
func NewFixedAxisStrategy() *FixedAxisStrategy {
	return &FixedAxisStrategy{Axis: r3.Vector{Y: 1}, MinSignCorrelation: DefaultMinSignCorrelation}
}

// Kind returns FixedAxisKind.
func (s *FixedAxisStrategy) Kind() StrategyKind {
	return FixedAxisKind
}

// Derive computes the basis from the jaw positions of the reference recording.
func (s *FixedAxisStrategy) Derive(ctx context.Context, ref Reference) (*CanonicalBasis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref.Sequence == nil {
		return nil, errors.Wrap(ErrTooFewPoints, "no reference sequence")
	}
	norm := s.Axis.Norm()
	if !(norm > 0) || math.IsInf(norm, 0) {
		return nil, errors.Errorf("fixed axis %v has no direction", s.Axis)
	}
	z := s.Axis.Mul(1 / norm)

	positions := ref.Sequence.JawPositions()
	projected := make([]r3.Vector, len(positions))
	for i, p := range positions {
		projected[i] = p.Sub(z.Mul(p.Dot(z)))
	}
	axes, vars, err := principalAxes(projected)
	if err != nil {
		return nil, err
	}
	if vars[0] < planeVarianceEpsilon {
		return nil, ErrDegeneratePlane
	}

	// the projection keeps the component in the plane, but re-orthogonalize against rounding
	y := axes[0].Sub(z.Mul(axes[0].Dot(z)))
	if y.Norm() < 1e-9 {
		return nil, ErrDegeneratePlane
	}
	y = y.Normalize()

	y, _, err = ResolveSign(y, z, positions, s.MinSignCorrelation)
	if err != nil {
		return nil, err
	}
	return NewCanonicalBasis(y.Cross(z), y, z)
}
