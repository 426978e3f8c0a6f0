package spatialmath

import "math"

const twoPi = 2 * math.Pi

// WrapAngle maps any angle in radians into [-π, π). Both π and -π map to -π.
func WrapAngle(a float64) float64 {
	r := math.Mod(a+math.Pi, twoPi)
	if r < 0 {
		r += twoPi
	}
	// r can round up to exactly 2π when it was a tiny negative number.
	if r >= twoPi {
		r -= twoPi
	}
	return r - math.Pi
}

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}
