package referenceframe

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/chewlab/jawframe/mocap"
	"github.com/chewlab/jawframe/pose"
)

// jawSequence places the jaw, with an unrotated head at the origin, at each of positions.
func jawSequence(positions []r3.Vector) *mocap.Sequence {
	frames := make([]mocap.Frame, len(positions))
	for i, p := range positions {
		frames[i] = mocap.NewFrame(i, float64(i)/100, quat.Number{Real: 1}, r3.Vector{}, quat.Number{Real: 1}, p)
	}
	return mocap.NewSequence(frames)
}

func reference(t *testing.T, positions []r3.Vector) Reference {
	t.Helper()
	seq := jawSequence(positions)
	poses, err := pose.Relatives(context.Background(), seq)
	test.That(t, err, test.ShouldBeNil)
	return Reference{Sequence: seq, Poses: poses}
}

// chewingPositions moves the jaw back and forth along u in the horizontal plane while it rises by
// lift for every millimetre travelled.
func chewingPositions(u r3.Vector, lift float64) []r3.Vector {
	out := make([]r3.Vector, 200)
	for i := range out {
		s := 10 * math.Sin(float64(i)*0.1)
		out[i] = r3.Vector{X: 5, Y: 100, Z: -30}.Add(u.Mul(s)).Add(r3.Vector{Y: lift * s})
	}
	return out
}

func TestFixedAxisStrategy(t *testing.T) {
	a := 0.4
	u := r3.Vector{X: math.Cos(a), Z: math.Sin(a)}
	s := NewFixedAxisStrategy()
	test.That(t, s.Kind(), test.ShouldEqual, FixedAxisKind)

	b, err := s.Derive(context.Background(), reference(t, chewingPositions(u, 0.5)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Matrix().IsRotation(1e-9), test.ShouldBeTrue)
	test.That(t, b.Z().Sub(r3.Vector{Y: 1}).Norm(), test.ShouldBeLessThan, 1e-12)
	test.That(t, b.Y().Sub(u).Norm(), test.ShouldBeLessThan, 1e-9)
	test.That(t, b.X().Sub(b.Y().Cross(b.Z())).Norm(), test.ShouldBeLessThan, 1e-12)
	test.That(t, b.X().Sub(r3.Vector{X: -math.Sin(a), Z: math.Cos(a)}).Norm(), test.ShouldBeLessThan, 1e-9)

	// a jaw that drops while moving along u gives the opposite Y
	b, err = s.Derive(context.Background(), reference(t, chewingPositions(u, -0.5)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Y().Add(u).Norm(), test.ShouldBeLessThan, 1e-9)
	test.That(t, b.Matrix().IsRotation(1e-9), test.ShouldBeTrue)

	// an unnormalized axis is accepted
	s.Axis = r3.Vector{Y: 3}
	b, err = s.Derive(context.Background(), reference(t, chewingPositions(u, 0.5)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Y().Sub(u).Norm(), test.ShouldBeLessThan, 1e-9)
}

func TestFixedAxisStrategyFailures(t *testing.T) {
	s := NewFixedAxisStrategy()
	ctx := context.Background()
	u := r3.Vector{X: 1}

	t.Run("flat motion has no sign", func(t *testing.T) {
		_, err := s.Derive(ctx, reference(t, chewingPositions(u, 0)))
		var ambiguous *AmbiguousSignError
		test.That(t, errors.As(err, &ambiguous), test.ShouldBeTrue)
		test.That(t, math.IsNaN(ambiguous.Correlation), test.ShouldBeTrue)
	})

	t.Run("no motion", func(t *testing.T) {
		positions := make([]r3.Vector, 20)
		for i := range positions {
			positions[i] = r3.Vector{X: 1, Y: 2, Z: 3}
		}
		_, err := s.Derive(ctx, reference(t, positions))
		test.That(t, errors.Is(err, ErrDegeneratePlane), test.ShouldBeTrue)
	})

	t.Run("vertical motion only", func(t *testing.T) {
		_, err := s.Derive(ctx, reference(t, chewingPositions(r3.Vector{}, 1)))
		test.That(t, errors.Is(err, ErrDegeneratePlane), test.ShouldBeTrue)
	})

	t.Run("too few frames", func(t *testing.T) {
		_, err := s.Derive(ctx, reference(t, chewingPositions(u, 1)[:2]))
		test.That(t, errors.Is(err, ErrTooFewPoints), test.ShouldBeTrue)
	})

	t.Run("zero axis", func(t *testing.T) {
		zero := &FixedAxisStrategy{MinSignCorrelation: DefaultMinSignCorrelation}
		_, err := zero.Derive(ctx, reference(t, chewingPositions(u, 1)))
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Derive(canceled, reference(t, chewingPositions(u, 1)))
		test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	})
}

func TestResolveSign(t *testing.T) {
	z := r3.Vector{Y: 1}
	y := r3.Vector{X: 1}
	positions := chewingPositions(y, 0.3)

	got, r, err := ResolveSign(y, z, positions, DefaultMinSignCorrelation)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, got, test.ShouldResemble, y)

	flipped, r, err := ResolveSign(y.Mul(-1), z, positions, DefaultMinSignCorrelation)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldAlmostEqual, -1, 1e-9)
	test.That(t, flipped, test.ShouldResemble, got)

	// y and z projections that are exactly uncorrelated
	square := []r3.Vector{{X: 1, Y: 1}, {X: -1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: -1}}
	_, r, err = ResolveSign(y, z, square, DefaultMinSignCorrelation)
	var ambiguous *AmbiguousSignError
	test.That(t, errors.As(err, &ambiguous), test.ShouldBeTrue)
	test.That(t, r, test.ShouldAlmostEqual, 0)
	test.That(t, ambiguous.Threshold, test.ShouldEqual, DefaultMinSignCorrelation)
}

// axisPositions spreads samples along the capture axes with decreasing variance: 10 mm along x,
// 3 mm along y and 1 mm along z.
func axisPositions() []r3.Vector {
	return []r3.Vector{
		{X: 10}, {X: -10},
		{Y: 3}, {Y: -3},
		{Z: 1}, {Z: -1},
	}
}

func TestFullPCAStrategy(t *testing.T) {
	s := NewFullPCAStrategy()
	test.That(t, s.Kind(), test.ShouldEqual, FullPCAKind)

	b, err := s.Derive(context.Background(), reference(t, axisPositions()))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Matrix().IsRotation(1e-9), test.ShouldBeTrue)
	// Z = -PC1, Y = +PC2 and X completes the right handed set
	test.That(t, b.Z().Sub(r3.Vector{X: -1}).Norm(), test.ShouldBeLessThan, 1e-9)
	test.That(t, b.Y().Sub(r3.Vector{Y: 1}).Norm(), test.ShouldBeLessThan, 1e-9)
	test.That(t, b.X().Sub(r3.Vector{Z: 1}).Norm(), test.ShouldBeLessThan, 1e-9)

	// the result does not depend on the sign PCA happens to return
	mirrored := axisPositions()
	for i := range mirrored {
		mirrored[i] = mirrored[i].Mul(-1)
	}
	b2, err := s.Derive(context.Background(), reference(t, mirrored))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b2.AlmostEqual(b, 1e-9), test.ShouldBeTrue)

	// any permutation yields a right handed basis
	s.Remap = [3]AxisAssignment{{Component: 1}, {Component: 2}, {Component: 3}}
	b, err = s.Derive(context.Background(), reference(t, axisPositions()))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Det(), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, b.X().Sub(r3.Vector{X: 1}).Norm(), test.ShouldBeLessThan, 1e-9)
}

func TestFullPCAStrategyFailures(t *testing.T) {
	s := &FullPCAStrategy{Remap: [3]AxisAssignment{{Component: 1}, {Component: 1}, {Component: 4}}}
	_, err := s.Derive(context.Background(), reference(t, axisPositions()))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "used twice")
	test.That(t, err.Error(), test.ShouldContainSubstring, "not in [1, 3]")

	_, err = NewFullPCAStrategy().Derive(context.Background(), reference(t, axisPositions()[:2]))
	test.That(t, errors.Is(err, ErrTooFewPoints), test.ShouldBeTrue)
}
