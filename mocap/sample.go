// Package mocap defines the rigid-body samples and recordings produced by an optical motion
// capture export, along with validation and a reader for the export's CSV layout.
package mocap

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RigidBodySample is one tracked body at one instant.
type RigidBodySample struct {
	// Quaternion is the orientation of the body in capture coordinates. It is expected to be near
	// unit length but is not required to be.
	Quaternion quat.Number
	// Position is the body origin in capture coordinates, in millimetres.
	Position   r3.Vector
	FrameIndex int
	// Time is in seconds.
	Time float64
}

// Frame is one recording row: the head and jaw samples that share a frame index and timestamp.
type Frame struct {
	Index int
	Time  float64
	Head  RigidBodySample
	Jaw   RigidBodySample
}

// NewFrame pairs a head and jaw pose captured at the same instant.
func NewFrame(index int, t float64, headQ quat.Number, headP r3.Vector, jawQ quat.Number, jawP r3.Vector) Frame {
	return Frame{
		Index: index,
		Time:  t,
		Head:  RigidBodySample{Quaternion: headQ, Position: headP, FrameIndex: index, Time: t},
		Jaw:   RigidBodySample{Quaternion: jawQ, Position: jawP, FrameIndex: index, Time: t},
	}
}

func (s RigidBodySample) finite() bool {
	for _, v := range []float64{
		s.Quaternion.Real, s.Quaternion.Imag, s.Quaternion.Jmag, s.Quaternion.Kmag,
		s.Position.X, s.Position.Y, s.Position.Z, s.Time,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
