package spatialmath

import "math"

// gimbalLockThreshold is the value of hypot(R00, R10) below which pitch is treated as ±90 degrees.
const gimbalLockThreshold = 1e-6

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D Euclidean space.
// They follow the intrinsic Z-Y-X convention: the rotation is Rz(Yaw)·Ry(Pitch)·Rx(Roll).
type EulerAngles struct {
	Roll  float64 `json:"roll"`  // phi, about x
	Pitch float64 `json:"pitch"` // theta, about y
	Yaw   float64 `json:"yaw"`   // psi, about z
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{Roll: 0, Pitch: 0, Yaw: 0}
}

// RotationMatrix returns Rz(yaw)·Ry(pitch)·Rx(roll).
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	cr, sr := math.Cos(ea.Roll), math.Sin(ea.Roll)
	cp, sp := math.Cos(ea.Pitch), math.Sin(ea.Pitch)
	cy, sy := math.Cos(ea.Yaw), math.Sin(ea.Yaw)
	return &RotationMatrix{mat: [9]float64{
		cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr,
		sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr,
		-sp, cp * sr, cp * cr,
	}}
}

// Wrapped returns a copy with every angle mapped into [-π, π).
func (ea *EulerAngles) Wrapped() *EulerAngles {
	return &EulerAngles{Roll: WrapAngle(ea.Roll), Pitch: WrapAngle(ea.Pitch), Yaw: WrapAngle(ea.Yaw)}
}

// MatrixToEulerZYX extracts roll, pitch and yaw following the intrinsic Z-Y-X convention.
//
// Near gimbal lock (hypot(R00, R10) < 1e-6, pitch at ±90 degrees) roll and yaw are not separable.
// In that case yaw is forced to zero and the whole remaining rotation is reported as roll. The
// result is deterministic but lossy: a caller that needs yaw near the singularity cannot recover it
// from these angles.
func MatrixToEulerZYX(rm *RotationMatrix) *EulerAngles {
	sy := math.Hypot(rm.At(0, 0), rm.At(1, 0))
	if sy < gimbalLockThreshold {
		return &EulerAngles{
			Roll:  math.Atan2(-rm.At(1, 2), rm.At(1, 1)),
			Pitch: math.Atan2(-rm.At(2, 0), sy),
			Yaw:   0,
		}
	}
	return &EulerAngles{
		Roll:  math.Atan2(rm.At(2, 1), rm.At(2, 2)),
		Pitch: math.Atan2(-rm.At(2, 0), sy),
		Yaw:   math.Atan2(rm.At(1, 0), rm.At(0, 0)),
	}
}

// IsGimbalLocked reports whether MatrixToEulerZYX takes its degenerate branch for rm.
func IsGimbalLocked(rm *RotationMatrix) bool {
	return math.Hypot(rm.At(0, 0), rm.At(1, 0)) < gimbalLockThreshold
}
