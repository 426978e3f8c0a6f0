// Package referenceframe derives the canonical frame chewing trajectories are expressed in, and
// stores it between runs.
//
// A CanonicalBasis is derived once per rig from a reference recording. Two strategies are
// available: FixedAxisStrategy fixes one axis to a known capture direction and takes the others
// from the principal direction of jaw motion in the remaining plane, FullPCAStrategy takes all
// three axes from the principal components of the jaw translations.
package referenceframe

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chewlab/jawframe/spatialmath"
)

// BasisTolerance bounds both |det - 1| and the orthonormality error of a valid basis.
const BasisTolerance = 1e-3

// CanonicalBasis is a proper rotation whose columns are the canonical X, Y and Z axes in capture
// coordinates. It is immutable once built.
type CanonicalBasis struct {
	rm *spatialmath.RotationMatrix
}

// NewCanonicalBasis builds a basis from its three axes, which must form a right handed orthonormal
// set.
func NewCanonicalBasis(x, y, z r3.Vector) (*CanonicalBasis, error) {
	return NewCanonicalBasisFromMatrix(spatialmath.NewRotationMatrixFromColumns(x, y, z))
}

// NewCanonicalBasisFromMatrix validates rm and wraps a copy of it.
func NewCanonicalBasisFromMatrix(rm *spatialmath.RotationMatrix) (*CanonicalBasis, error) {
	det := rm.Det()
	for _, v := range rm.Slice() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &DegenerateBasisError{Det: det, Reason: "non-finite entry"}
		}
	}
	if orth := rm.OrthonormalityError(); orth > BasisTolerance {
		return nil, &DegenerateBasisError{Det: det, Reason: fmt.Sprintf("columns are not orthonormal (error %.2g)", orth)}
	}
	if math.Abs(det-1) > BasisTolerance {
		return nil, &DegenerateBasisError{Det: det, Reason: "not right handed"}
	}
	cp, err := spatialmath.NewRotationMatrix(rm.Slice())
	if err != nil {
		return nil, err
	}
	return &CanonicalBasis{rm: cp}, nil
}

// IdentityBasis is the basis equal to capture coordinates.
func IdentityBasis() *CanonicalBasis {
	return &CanonicalBasis{rm: spatialmath.IdentityRotationMatrix()}
}

// X returns the canonical X axis in capture coordinates.
func (b *CanonicalBasis) X() r3.Vector { return b.rm.Col(0) }

// Y returns the canonical Y axis in capture coordinates.
func (b *CanonicalBasis) Y() r3.Vector { return b.rm.Col(1) }

// Z returns the canonical Z axis in capture coordinates.
func (b *CanonicalBasis) Z() r3.Vector { return b.rm.Col(2) }

// Matrix returns a copy of the basis as a rotation matrix.
func (b *CanonicalBasis) Matrix() *spatialmath.RotationMatrix {
	cp, _ := spatialmath.NewRotationMatrix(b.rm.Slice())
	return cp
}

// Det returns the determinant of the basis.
func (b *CanonicalBasis) Det() float64 {
	return b.rm.Det()
}

// ToCanonical expresses a capture-frame vector in canonical coordinates, Bᵀ·v.
func (b *CanonicalBasis) ToCanonical(v r3.Vector) r3.Vector {
	return b.rm.Transpose().Mul(v)
}

// RotationToCanonical returns Bᵀ·rm.
func (b *CanonicalBasis) RotationToCanonical(rm *spatialmath.RotationMatrix) *spatialmath.RotationMatrix {
	return b.rm.Transpose().MatMul(rm)
}

// AlmostEqual reports whether both bases agree entrywise within tol.
func (b *CanonicalBasis) AlmostEqual(other *CanonicalBasis, tol float64) bool {
	return spatialmath.RotationMatrixAlmostEqual(b.rm, other.rm, tol)
}

// String prints a table of the three axes with their capture-frame components.
func (b *CanonicalBasis) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Axis", "Capture X", "Capture Y", "Capture Z"})
	for i, name := range []string{"X", "Y", "Z"} {
		col := b.rm.Col(i)
		t.AppendRow(table.Row{
			name,
			fmt.Sprintf("%.6f", col.X),
			fmt.Sprintf("%.6f", col.Y),
			fmt.Sprintf("%.6f", col.Z),
		})
	}
	t.AppendFooter(table.Row{"det", fmt.Sprintf("%.6f", b.Det()), "", ""})
	return t.Render()
}
