package referenceframe

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/chewlab/jawframe/pose"
	"github.com/chewlab/jawframe/spatialmath"
)

// AxisAssignment picks the principal component, numbered from 1 in order of decreasing variance,
// that becomes one canonical axis, optionally negated.
type AxisAssignment struct {
	Component int  `json:"component"`
	Flip      bool `json:"flip,omitempty"`
}

// DefaultRemap maps X = -PC3, Y = +PC2 and Z = -PC1.
func DefaultRemap() [3]AxisAssignment {
	return [3]AxisAssignment{
		{Component: 3, Flip: true},
		{Component: 2},
		{Component: 1, Flip: true},
	}
}

// FullPCAStrategy takes all three canonical axes from the principal components of the jaw
// translations relative to the head. The first two components are given a deterministic sign, and
// the sign of the third is chosen so the remapped basis is right handed.
type FullPCAStrategy struct {
	Remap [3]AxisAssignment
}

// NewFullPCAStrategy returns the strategy with the default remap.
func NewFullPCAStrategy() *FullPCAStrategy {
	return &FullPCAStrategy{Remap: DefaultRemap()}
}

// Kind returns FullPCAKind.
func (s *FullPCAStrategy) Kind() StrategyKind {
	return FullPCAKind
}

// ValidateRemap checks that every component is used exactly once.
func ValidateRemap(remap [3]AxisAssignment) error {
	var errs error
	seen := map[int]bool{}
	for i, a := range remap {
		if a.Component < 1 || a.Component > 3 {
			errs = multierr.Append(errs, errors.Errorf("axis %d: component %d is not in [1, 3]", i, a.Component))
			continue
		}
		if seen[a.Component] {
			errs = multierr.Append(errs, errors.Errorf("axis %d: component %d is used twice", i, a.Component))
		}
		seen[a.Component] = true
	}
	return errs
}

// Derive computes the basis from the relative pose translations of the reference recording.
func (s *FullPCAStrategy) Derive(ctx context.Context, ref Reference) (*CanonicalBasis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateRemap(s.Remap); err != nil {
		return nil, err
	}
	axes, vars, err := principalAxes(pose.Translations(ref.Poses))
	if err != nil {
		return nil, err
	}
	if vars[0] < planeVarianceEpsilon {
		return nil, ErrDegeneratePlane
	}

	var pcs [3]r3.Vector
	pcs[0] = deterministicSign(axes[0])
	pcs[1] = deterministicSign(axes[1])
	pcs[2] = pcs[0].Cross(pcs[1])

	rm := s.remap(pcs)
	if rm.Det() < 0 {
		pcs[2] = pcs[2].Mul(-1)
		rm = s.remap(pcs)
	}
	b, err := NewCanonicalBasisFromMatrix(rm)
	if err != nil {
		return nil, errors.Wrapf(err, "principal variances %v", vars)
	}
	return b, nil
}

func (s *FullPCAStrategy) remap(pcs [3]r3.Vector) *spatialmath.RotationMatrix {
	var cols [3]r3.Vector
	for i, a := range s.Remap {
		cols[i] = pcs[a.Component-1]
		if a.Flip {
			cols[i] = cols[i].Mul(-1)
		}
	}
	return spatialmath.NewRotationMatrixFromColumns(cols[0], cols[1], cols[2])
}
