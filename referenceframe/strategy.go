package referenceframe

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/chewlab/jawframe/mocap"
	"github.com/chewlab/jawframe/pose"
)

// StrategyKind names a frame derivation strategy in configuration.
type StrategyKind string

// The available strategies.
const (
	FixedAxisKind StrategyKind = "fixed_axis"
	FullPCAKind   StrategyKind = "full_pca"
)

// DefaultMinSignCorrelation is the weakest correlation trusted to orient an axis.
const DefaultMinSignCorrelation = 0.05

// Reference is the conditioned reference recording a basis is derived from.
type Reference struct {
	Sequence *mocap.Sequence
	Poses    []pose.RelativePose
}

// A Strategy derives a canonical basis from a reference recording.
type Strategy interface {
	Kind() StrategyKind
	Derive(ctx context.Context, ref Reference) (*CanonicalBasis, error)
}

// principalAxes runs PCA on points and returns the component directions, ordered by decreasing
// variance, together with their variances.
func principalAxes(points []r3.Vector) ([3]r3.Vector, [3]float64, error) {
	var axes [3]r3.Vector
	var vars [3]float64
	if len(points) < 3 {
		return axes, vars, errors.Wrapf(ErrTooFewPoints, "have %d, need at least 3", len(points))
	}
	data := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		data.SetRow(i, []float64{p.X, p.Y, p.Z})
	}
	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return axes, vars, errors.New("principal component analysis failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	v := pc.VarsTo(nil)
	for i := range axes {
		axes[i] = r3.Vector{X: vecs.At(0, i), Y: vecs.At(1, i), Z: vecs.At(2, i)}
		vars[i] = v[i]
	}
	return axes, vars, nil
}

// ResolveSign orients the candidate axis y so that the projections of positions onto y and onto z
// are positively correlated. It returns the oriented axis and the Pearson correlation measured for
// the candidate as given. Flipping the candidate yields the same axis. When |r| is below minCorr,
// or undefined because a projection is constant, the sign cannot be decided and an
// *AmbiguousSignError is returned.
func ResolveSign(y, z r3.Vector, positions []r3.Vector, minCorr float64) (r3.Vector, float64, error) {
	yProj := make([]float64, len(positions))
	zProj := make([]float64, len(positions))
	for i, p := range positions {
		yProj[i] = p.Dot(y)
		zProj[i] = p.Dot(z)
	}
	r := stat.Correlation(zProj, yProj, nil)
	if math.IsNaN(r) || math.Abs(r) < minCorr {
		return r3.Vector{}, r, &AmbiguousSignError{Correlation: r, Threshold: minCorr}
	}
	if r < 0 {
		return y.Mul(-1), r, nil
	}
	return y, r, nil
}

// deterministicSign flips v so that its entry of largest magnitude is positive.
func deterministicSign(v r3.Vector) r3.Vector {
	largest := v.X
	for _, c := range []float64{v.Y, v.Z} {
		if math.Abs(c) > math.Abs(largest) {
			largest = c
		}
	}
	if largest < 0 {
		return v.Mul(-1)
	}
	return v
}
