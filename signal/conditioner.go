package signal

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/chewlab/jawframe/mocap"
	"github.com/chewlab/jawframe/spatialmath"
)

// Defaults for smoothing chewing recordings.
const (
	DefaultCutoffHz = 6.0
	DefaultOrder    = 4
)

// Config holds the low-pass parameters applied to every channel of a recording.
type Config struct {
	CutoffHz float64 `json:"cutoff_hz"`
	Order    int     `json:"order"`
	// SampleRateHz is inferred from the timestamps when zero.
	SampleRateHz float64 `json:"sample_rate_hz"`
	// QuaternionContinuity negates quaternions that jump to the opposite hemisphere of their
	// predecessor before filtering. It never changes the rotation a sample describes.
	QuaternionContinuity bool `json:"quaternion_continuity"`
}

// DefaultConfig returns a 4th order 6 Hz filter with an inferred sampling rate.
func DefaultConfig() Config {
	return Config{
		CutoffHz:             DefaultCutoffHz,
		Order:                DefaultOrder,
		QuaternionContinuity: true,
	}
}

// SampleRate returns the configured sampling rate, or the rate inferred from seq when none is set.
func (cfg Config) SampleRate(seq *mocap.Sequence) (float64, error) {
	if cfg.SampleRateHz > 0 {
		return cfg.SampleRateHz, nil
	}
	return seq.SampleRate()
}

// channel addresses one scalar of a frame.
type channel func(f *mocap.Frame) *float64

func positionChannels(body func(f *mocap.Frame) *mocap.RigidBodySample) []channel {
	return []channel{
		func(f *mocap.Frame) *float64 { return &body(f).Position.X },
		func(f *mocap.Frame) *float64 { return &body(f).Position.Y },
		func(f *mocap.Frame) *float64 { return &body(f).Position.Z },
	}
}

func quaternionChannels(body func(f *mocap.Frame) *mocap.RigidBodySample) []channel {
	return []channel{
		func(f *mocap.Frame) *float64 { return &body(f).Quaternion.Imag },
		func(f *mocap.Frame) *float64 { return &body(f).Quaternion.Jmag },
		func(f *mocap.Frame) *float64 { return &body(f).Quaternion.Kmag },
		func(f *mocap.Frame) *float64 { return &body(f).Quaternion.Real },
	}
}

func head(f *mocap.Frame) *mocap.RigidBodySample { return &f.Head }
func jaw(f *mocap.Frame) *mocap.RigidBodySample  { return &f.Jaw }

// Condition returns a copy of seq with head and jaw positions and quaternions smoothed by a
// zero-phase Butterworth low-pass filter. Each of the 14 channels is filtered independently, then
// every quaternion is renormalized since filtering does not preserve unit length. The input is
// left untouched.
func Condition(seq *mocap.Sequence, cfg Config) (*mocap.Sequence, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	fs, err := cfg.SampleRate(seq)
	if err != nil {
		return nil, err
	}
	flt, err := Butterworth(cfg.Order, cfg.CutoffHz, fs)
	if err != nil {
		return nil, err
	}
	if seq.Len() <= flt.PadLength() {
		return nil, &InsufficientDataError{Length: seq.Len(), Required: flt.PadLength() + 1}
	}

	out := seq.Clone()
	if cfg.QuaternionContinuity {
		alignHemispheres(out, head)
		alignHemispheres(out, jaw)
	}

	var channels []channel
	for _, body := range []func(f *mocap.Frame) *mocap.RigidBodySample{head, jaw} {
		channels = append(channels, positionChannels(body)...)
		channels = append(channels, quaternionChannels(body)...)
	}

	values := make([]float64, out.Len())
	for _, ch := range channels {
		for i := range out.Frames {
			values[i] = *ch(&out.Frames[i])
		}
		filtered, err := flt.FiltFilt(values)
		if err != nil {
			return nil, err
		}
		for i := range out.Frames {
			*ch(&out.Frames[i]) = filtered[i]
		}
	}

	for i := range out.Frames {
		f := &out.Frames[i]
		for _, body := range []*mocap.RigidBodySample{&f.Head, &f.Jaw} {
			q, err := spatialmath.Normalize(body.Quaternion)
			if err != nil {
				return nil, errors.Wrap(spatialmath.NewDegenerateInputError(quat.Abs(body.Quaternion), f.Index), "after filtering")
			}
			body.Quaternion = q
		}
	}
	return out, nil
}

// alignHemispheres flips the sign of any quaternion whose dot product with the previous one is
// negative.
func alignHemispheres(seq *mocap.Sequence, body func(f *mocap.Frame) *mocap.RigidBodySample) {
	for i := 1; i < seq.Len(); i++ {
		prev := body(&seq.Frames[i-1]).Quaternion
		cur := body(&seq.Frames[i])
		if spatialmath.QuatDot(prev, cur.Quaternion) < 0 {
			cur.Quaternion = quat.Scale(-1, cur.Quaternion)
		}
	}
}
