package mocap

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/chewlab/jawframe/spatialmath"
)

// quaternionNormEpsilon matches the threshold below which spatialmath refuses to normalize.
const quaternionNormEpsilon = 1e-12

// Sequence is an ordered, time-indexed recording of paired head and jaw samples. Sequences are
// treated as values: operations return new sequences and never modify their receiver.
type Sequence struct {
	Frames []Frame
}

// NewSequence wraps frames in a Sequence. The slice is not copied.
func NewSequence(frames []Frame) *Sequence {
	return &Sequence{Frames: frames}
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	return len(s.Frames)
}

// Clone returns a deep copy of the sequence.
func (s *Sequence) Clone() *Sequence {
	frames := make([]Frame, len(s.Frames))
	copy(frames, s.Frames)
	return &Sequence{Frames: frames}
}

// Validate checks that the sequence is usable by the pipeline: it is non-empty, timestamps never
// decrease, every value is finite and no quaternion is zero. A zero quaternion is reported as a
// *spatialmath.DegenerateInputError carrying the frame index.
func (s *Sequence) Validate() error {
	if len(s.Frames) == 0 {
		return errors.Wrap(ErrTooFewFrames, "empty sequence")
	}
	for i, f := range s.Frames {
		if !f.Head.finite() || !f.Jaw.finite() || math.IsNaN(f.Time) || math.IsInf(f.Time, 0) {
			return &ValidationError{Field: "frame", Reason: fmt.Sprintf("non-finite value at frame %d", f.Index)}
		}
		if i > 0 && f.Time < s.Frames[i-1].Time {
			return &ValidationError{
				Field:  "Time",
				Reason: fmt.Sprintf("timestamp decreases from %g to %g at frame %d", s.Frames[i-1].Time, f.Time, f.Index),
			}
		}
		for _, q := range []quat.Number{f.Head.Quaternion, f.Jaw.Quaternion} {
			if norm := quat.Abs(q); norm < quaternionNormEpsilon {
				return spatialmath.NewDegenerateInputError(norm, f.Index)
			}
		}
	}
	return nil
}

// Times returns the timestamps of every frame.
func (s *Sequence) Times() []float64 {
	out := make([]float64, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = f.Time
	}
	return out
}

// SampleRate infers the sampling rate in Hz as the inverse of the median time step.
func (s *Sequence) SampleRate() (float64, error) {
	if len(s.Frames) < 2 {
		return 0, errors.Wrapf(ErrTooFewFrames, "need at least 2 frames to infer a sampling rate, have %d", len(s.Frames))
	}
	steps := make([]float64, len(s.Frames)-1)
	for i := 1; i < len(s.Frames); i++ {
		steps[i-1] = s.Frames[i].Time - s.Frames[i-1].Time
	}
	dt, err := stats.Median(steps)
	if err != nil {
		return 0, errors.Wrap(err, "median time step")
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return 0, errors.Wrapf(ErrCannotInferSampleRate, "median time step is %g", dt)
	}
	return 1 / dt, nil
}

// Duration returns the time between the first and the last frame.
func (s *Sequence) Duration() float64 {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[len(s.Frames)-1].Time - s.Frames[0].Time
}

// CropStart drops every frame recorded less than d seconds after the first one.
func (s *Sequence) CropStart(d float64) *Sequence {
	if len(s.Frames) == 0 || d <= 0 {
		return s.Clone()
	}
	return s.Window(s.Frames[0].Time+d, math.Inf(1))
}

// Window keeps the frames whose timestamp lies within [start, end].
func (s *Sequence) Window(start, end float64) *Sequence {
	frames := make([]Frame, 0, len(s.Frames))
	for _, f := range s.Frames {
		if f.Time >= start && f.Time <= end {
			frames = append(frames, f)
		}
	}
	return &Sequence{Frames: frames}
}

// HeadPositions returns the head position of every frame.
func (s *Sequence) HeadPositions() []r3.Vector {
	out := make([]r3.Vector, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = f.Head.Position
	}
	return out
}

// JawPositions returns the jaw position of every frame.
func (s *Sequence) JawPositions() []r3.Vector {
	out := make([]r3.Vector, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = f.Jaw.Position
	}
	return out
}
