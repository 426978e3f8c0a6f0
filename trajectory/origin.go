package trajectory

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/chewlab/jawframe/spatialmath"
)

// OriginOffset returns the component-wise median pose over the last window seconds of traj.
func OriginOffset(traj Trajectory, window float64) (Pose, error) {
	if len(traj) == 0 {
		return Pose{}, errors.Wrap(ErrEmptyWindow, "empty trajectory")
	}
	if !(window > 0) {
		return Pose{}, errors.Errorf("origin window must be positive, got %g", window)
	}
	start := traj[len(traj)-1].Time - window
	var columns [6]stats.Float64Data
	for _, p := range traj {
		if p.Time < start {
			continue
		}
		for i, v := range p.values() {
			columns[i] = append(columns[i], v)
		}
	}
	if len(columns[0]) == 0 {
		return Pose{}, errors.Wrapf(ErrEmptyWindow, "last %g s", window)
	}
	var medians [6]float64
	for i, col := range columns {
		m, err := stats.Median(col)
		if err != nil {
			return Pose{}, errors.Wrap(err, "computing origin median")
		}
		medians[i] = m
	}
	return Pose{
		X: medians[0], Y: medians[1], Z: medians[2],
		Roll: medians[3], Pitch: medians[4], Yaw: medians[5],
	}, nil
}

// ApplyOriginCorrection subtracts the median pose of the last window seconds from every pose, so a
// recording that ends at rest ends at the origin. Angles are wrapped back into [-π, π). The input is
// not modified.
func ApplyOriginCorrection(traj Trajectory, window float64) (Trajectory, error) {
	offset, err := OriginOffset(traj, window)
	if err != nil {
		return nil, err
	}
	out := make(Trajectory, len(traj))
	for i, p := range traj {
		out[i] = Pose{
			FrameIndex: p.FrameIndex,
			Time:       p.Time,
			X:          p.X - offset.X,
			Y:          p.Y - offset.Y,
			Z:          p.Z - offset.Z,
			Roll:       spatialmath.WrapAngle(p.Roll - offset.Roll),
			Pitch:      spatialmath.WrapAngle(p.Pitch - offset.Pitch),
			Yaw:        spatialmath.WrapAngle(p.Yaw - offset.Yaw),
		}
	}
	return out, nil
}
