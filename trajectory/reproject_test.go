package trajectory

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/chewlab/jawframe/mocap"
	"github.com/chewlab/jawframe/pose"
	"github.com/chewlab/jawframe/referenceframe"
	"github.com/chewlab/jawframe/spatialmath"
)

// turnedBasis has canonical X along capture Y and keeps capture Z as canonical Z.
func turnedBasis(t *testing.T) *referenceframe.CanonicalBasis {
	t.Helper()
	b, err := referenceframe.NewCanonicalBasis(r3.Vector{Y: 1}, r3.Vector{X: -1}, r3.Vector{Z: 1})
	test.That(t, err, test.ShouldBeNil)
	return b
}

func TestReprojectThreeFrames(t *testing.T) {
	frames := make([]mocap.Frame, 3)
	for i := range frames {
		frac := float64(i) / 2
		frames[i] = mocap.NewFrame(i, frac, quat.Number{Real: 1}, r3.Vector{}, quat.Number{Real: 1}, r3.Vector{Z: -10 * frac})
	}
	poses, err := pose.Relatives(context.Background(), mocap.NewSequence(frames))
	test.That(t, err, test.ShouldBeNil)
	for i, p := range poses {
		test.That(t, p.Translation, test.ShouldResemble, r3.Vector{Z: -10 * float64(i) / 2})
	}

	r := &Reprojector{Basis: turnedBasis(t)}
	traj, err := r.Reproject(context.Background(), poses)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(traj), test.ShouldEqual, 3)
	for i, p := range traj {
		test.That(t, p.FrameIndex, test.ShouldEqual, i)
		test.That(t, p.X, test.ShouldAlmostEqual, 0)
		test.That(t, p.Y, test.ShouldAlmostEqual, 0)
		test.That(t, p.Roll, test.ShouldAlmostEqual, 0)
		test.That(t, p.Pitch, test.ShouldAlmostEqual, 0)
		if i > 0 {
			test.That(t, p.Z, test.ShouldBeLessThan, traj[i-1].Z)
		}
	}
	test.That(t, traj[2].Z, test.ShouldAlmostEqual, -10)
	// the head-to-jaw rotation is the identity, so in the turned basis it reads as -90 degrees yaw
	test.That(t, traj[0].Yaw, test.ShouldAlmostEqual, -math.Pi/2)
}

func TestReprojectRotation(t *testing.T) {
	b := turnedBasis(t)
	rel := pose.RelativePose{
		FrameIndex:  7,
		Time:        1.5,
		Rotation:    b.Matrix(),
		Translation: r3.Vector{X: 1, Y: 2, Z: 3},
	}
	traj, err := (&Reprojector{Basis: b, Recenter: RecenterNone}).Reproject(context.Background(), []pose.RelativePose{rel})
	test.That(t, err, test.ShouldBeNil)
	p := traj[0]
	test.That(t, p.FrameIndex, test.ShouldEqual, 7)
	test.That(t, p.Time, test.ShouldEqual, 1.5)
	test.That(t, p.X, test.ShouldAlmostEqual, 2)
	test.That(t, p.Y, test.ShouldAlmostEqual, -1)
	test.That(t, p.Z, test.ShouldAlmostEqual, 3)
	test.That(t, p.Roll, test.ShouldAlmostEqual, 0)
	test.That(t, p.Pitch, test.ShouldAlmostEqual, 0)
	test.That(t, p.Yaw, test.ShouldAlmostEqual, 0)
}

func TestReprojectAnglesWrapped(t *testing.T) {
	ea := &spatialmath.EulerAngles{Roll: 0.3, Pitch: -0.2, Yaw: math.Pi}
	rel := pose.RelativePose{Rotation: ea.RotationMatrix()}
	traj, err := (&Reprojector{Basis: referenceframe.IdentityBasis()}).Reproject(context.Background(), []pose.RelativePose{rel})
	test.That(t, err, test.ShouldBeNil)
	for _, a := range []float64{traj[0].Roll, traj[0].Pitch, traj[0].Yaw} {
		test.That(t, a, test.ShouldBeGreaterThanOrEqualTo, -math.Pi)
		test.That(t, a, test.ShouldBeLessThan, math.Pi)
	}
	test.That(t, traj[0].Roll, test.ShouldAlmostEqual, 0.3)
	test.That(t, traj[0].Pitch, test.ShouldAlmostEqual, -0.2)
	test.That(t, math.Abs(traj[0].Yaw), test.ShouldAlmostEqual, math.Pi)
}

func TestReprojectRecenter(t *testing.T) {
	identity := spatialmath.IdentityRotationMatrix()
	poses := []pose.RelativePose{
		{FrameIndex: 0, Rotation: identity, Translation: r3.Vector{X: 1, Y: 10}},
		{FrameIndex: 1, Rotation: identity, Translation: r3.Vector{X: 3, Y: 10}},
	}
	r := &Reprojector{Basis: referenceframe.IdentityBasis(), Recenter: RecenterGlobalMean}
	traj, err := r.Reproject(context.Background(), poses)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj[0].X, test.ShouldAlmostEqual, -1)
	test.That(t, traj[1].X, test.ShouldAlmostEqual, 1)
	test.That(t, traj[0].Y, test.ShouldAlmostEqual, 0)

	r.Recenter = RecenterNone
	traj, err = r.Reproject(context.Background(), poses)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj[1].Y, test.ShouldAlmostEqual, 10)
}

func TestReprojectOriginWindow(t *testing.T) {
	identity := spatialmath.IdentityRotationMatrix()
	var poses []pose.RelativePose
	for i := 0; i < 10; i++ {
		z := 20.0
		if i >= 6 {
			z = 5
		}
		poses = append(poses, pose.RelativePose{FrameIndex: i, Time: float64(i) / 4, Rotation: identity, Translation: r3.Vector{Z: z}})
	}
	r := &Reprojector{Basis: referenceframe.IdentityBasis(), OriginWindow: 0.75}
	traj, err := r.Reproject(context.Background(), poses)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj[0].Z, test.ShouldAlmostEqual, 15)
	test.That(t, traj[9].Z, test.ShouldAlmostEqual, 0)
}

func TestReprojectorValidate(t *testing.T) {
	_, err := (&Reprojector{}).Reproject(context.Background(), nil)
	test.That(t, err, test.ShouldNotBeNil)

	r := &Reprojector{Basis: referenceframe.IdentityBasis(), Recenter: "centroid"}
	test.That(t, r.Validate(), test.ShouldNotBeNil)

	r = &Reprojector{Basis: referenceframe.IdentityBasis(), OriginWindow: -1}
	test.That(t, r.Validate(), test.ShouldNotBeNil)

	traj, err := (&Reprojector{Basis: referenceframe.IdentityBasis()}).Reproject(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj, test.ShouldBeEmpty)
}

func TestReprojectMissingRotation(t *testing.T) {
	poses := []pose.RelativePose{
		{FrameIndex: 0, Rotation: spatialmath.IdentityRotationMatrix()},
		{FrameIndex: 1, Time: 0.01, Translation: r3.Vector{X: 1}},
	}
	traj, err := (&Reprojector{Basis: turnedBasis(t)}).Reproject(context.Background(), poses)
	test.That(t, traj, test.ShouldBeNil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "frame 1")
}
