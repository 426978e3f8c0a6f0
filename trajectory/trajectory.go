// Package trajectory expresses relative jaw poses in a canonical basis and writes the resulting
// trajectories in the layout the chewing robot consumes.
package trajectory

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/chewlab/jawframe/spatialmath"
)

// ErrEmptyWindow is returned when a time window selects no frames.
var ErrEmptyWindow = errors.New("time window selects no frames")

// Pose is one frame of a canonical trajectory. Positions are in millimetres and angles in radians
// within [-π, π).
type Pose struct {
	FrameIndex int
	Time       float64
	X          float64
	Y          float64
	Z          float64
	Roll       float64
	Pitch      float64
	Yaw        float64
}

// Position returns the translation of p.
func (p Pose) Position() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Orientation returns the rotation of p.
func (p Pose) Orientation() *spatialmath.EulerAngles {
	return &spatialmath.EulerAngles{Roll: p.Roll, Pitch: p.Pitch, Yaw: p.Yaw}
}

func (p Pose) values() [6]float64 {
	return [6]float64{p.X, p.Y, p.Z, p.Roll, p.Pitch, p.Yaw}
}

// Trajectory is a time ordered series of poses.
type Trajectory []Pose

// Duration returns the time between the first and last pose.
func (t Trajectory) Duration() float64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Time - t[0].Time
}

// Extract returns the poses with start <= Time <= end, such as a single chewing cycle.
func Extract(traj Trajectory, start, end float64) (Trajectory, error) {
	if end < start {
		return nil, errors.Errorf("window end %g is before its start %g", end, start)
	}
	var out Trajectory
	for _, p := range traj {
		if p.Time >= start && p.Time <= end {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(ErrEmptyWindow, "[%g, %g]", start, end)
	}
	return out, nil
}
