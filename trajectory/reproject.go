package trajectory

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/chewlab/jawframe/pose"
	"github.com/chewlab/jawframe/referenceframe"
	"github.com/chewlab/jawframe/spatialmath"
	"github.com/chewlab/jawframe/utils"
)

// RecenterMode selects what is subtracted from relative translations before they are rotated into
// the canonical basis.
type RecenterMode string

const (
	// RecenterNone rotates translations as they are.
	RecenterNone RecenterMode = "none"
	// RecenterGlobalMean subtracts the mean translation of the stream being reprojected.
	RecenterGlobalMean RecenterMode = "global_mean"
)

// Reprojector rotates relative poses into a canonical basis.
type Reprojector struct {
	Basis    *referenceframe.CanonicalBasis
	Recenter RecenterMode
	// OriginWindow, when positive, is the trailing duration in seconds whose median pose becomes the
	// origin of the output. See ApplyOriginCorrection.
	OriginWindow float64
}

// Validate checks the reprojector can run.
func (r *Reprojector) Validate() error {
	if r.Basis == nil {
		return errors.New("reprojector has no basis")
	}
	switch r.Recenter {
	case RecenterNone, RecenterGlobalMean, "":
	default:
		return errors.Errorf("unknown recenter mode %q", r.Recenter)
	}
	if r.OriginWindow < 0 {
		return errors.Errorf("origin window must not be negative, got %g", r.OriginWindow)
	}
	return nil
}

// Reproject expresses every pose in the basis:
//
//	R_canon = Bᵀ · R_rel
//	p_canon = Bᵀ · (p_rel - μ)
//
// where μ is zero or the mean translation depending on Recenter. Angles are ZYX Euler angles
// wrapped to [-π, π). The output has one pose per input pose, in the same order.
func (r *Reprojector) Reproject(ctx context.Context, poses []pose.RelativePose) (Trajectory, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var mu r3.Vector
	if r.Recenter == RecenterGlobalMean {
		mu = meanTranslation(poses)
	}

	traj, err := utils.ParallelMap(ctx, len(poses), func(i int) (Pose, error) {
		rel := poses[i]
		if rel.Rotation == nil {
			return Pose{}, errors.Errorf("frame %d has no rotation", rel.FrameIndex)
		}
		p := r.Basis.ToCanonical(rel.Translation.Sub(mu))
		ea := spatialmath.MatrixToEulerZYX(r.Basis.RotationToCanonical(rel.Rotation)).Wrapped()
		return Pose{
			FrameIndex: rel.FrameIndex,
			Time:       rel.Time,
			X:          p.X,
			Y:          p.Y,
			Z:          p.Z,
			Roll:       ea.Roll,
			Pitch:      ea.Pitch,
			Yaw:        ea.Yaw,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if r.OriginWindow > 0 {
		return ApplyOriginCorrection(traj, r.OriginWindow)
	}
	return traj, nil
}

func meanTranslation(poses []pose.RelativePose) r3.Vector {
	var sum r3.Vector
	if len(poses) == 0 {
		return sum
	}
	for _, p := range poses {
		sum = sum.Add(p.Translation)
	}
	return sum.Mul(1 / float64(len(poses)))
}
