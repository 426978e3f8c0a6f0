package trajectory

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chewlab/jawframe/spatialmath"
)

// Range is an inclusive [min, max] interval.
type Range [2]float64

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r[0] && v <= r[1]
}

// Envelope is the workspace of the chewing robot. Positions are in millimetres and angles in
// degrees.
type Envelope struct {
	X     Range `json:"x_mm"`
	Y     Range `json:"y_mm"`
	Z     Range `json:"z_mm"`
	Roll  Range `json:"roll_deg"`
	Pitch Range `json:"pitch_deg"`
	Yaw   Range `json:"yaw_deg"`
}

// DefaultEnvelope returns the actuator limits of the reference rig.
func DefaultEnvelope() Envelope {
	return Envelope{
		X:     Range{-20, 20},
		Y:     Range{-20, 20},
		Z:     Range{0, 60},
		Roll:  Range{-5, 35},
		Pitch: Range{-20, 20},
		Yaw:   Range{-10, 10},
	}
}

// AxisReport summarizes one degree of freedom of a trajectory against its limit, in the limit's
// units.
type AxisReport struct {
	Name    string
	Limit   Range
	Min     float64
	Max     float64
	Outside int
}

// EnvelopeReport is the result of CheckEnvelope.
type EnvelopeReport struct {
	Frames        int
	FramesOutside int
	Axes          []AxisReport
}

// Within reports whether every frame is inside the envelope.
func (r EnvelopeReport) Within() bool {
	return r.FramesOutside == 0
}

// String prints a table of the observed range of each axis next to its limit.
func (r EnvelopeReport) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Axis", "Min", "Max", "Limit", "Outside"})
	for _, a := range r.Axes {
		t.AppendRow(table.Row{
			a.Name,
			fmt.Sprintf("%.2f", a.Min),
			fmt.Sprintf("%.2f", a.Max),
			fmt.Sprintf("[%g, %g]", a.Limit[0], a.Limit[1]),
			a.Outside,
		})
	}
	t.AppendFooter(table.Row{"frames", r.Frames, "", "outside", r.FramesOutside})
	return t.Render()
}

// CheckEnvelope counts the frames of traj that fall outside env on any axis.
func CheckEnvelope(traj Trajectory, env Envelope) EnvelopeReport {
	axes := []struct {
		name  string
		limit Range
		value func(p Pose) float64
	}{
		{"x_mm", env.X, func(p Pose) float64 { return p.X }},
		{"y_mm", env.Y, func(p Pose) float64 { return p.Y }},
		{"z_mm", env.Z, func(p Pose) float64 { return p.Z }},
		{"roll_deg", env.Roll, func(p Pose) float64 { return spatialmath.RadToDeg(p.Roll) }},
		{"pitch_deg", env.Pitch, func(p Pose) float64 { return spatialmath.RadToDeg(p.Pitch) }},
		{"yaw_deg", env.Yaw, func(p Pose) float64 { return spatialmath.RadToDeg(p.Yaw) }},
	}
	report := EnvelopeReport{Frames: len(traj), Axes: make([]AxisReport, len(axes))}
	for i, a := range axes {
		report.Axes[i] = AxisReport{Name: a.name, Limit: a.limit, Min: math.Inf(1), Max: math.Inf(-1)}
	}
	for _, p := range traj {
		outside := false
		for i, a := range axes {
			v := a.value(p)
			ar := &report.Axes[i]
			ar.Min = math.Min(ar.Min, v)
			ar.Max = math.Max(ar.Max, v)
			if !a.limit.Contains(v) {
				ar.Outside++
				outside = true
			}
		}
		if outside {
			report.FramesOutside++
		}
	}
	return report
}
