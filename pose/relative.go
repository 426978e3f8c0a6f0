// Package pose computes the pose of the jaw relative to the head, frame by frame.
package pose

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/chewlab/jawframe/mocap"
	"github.com/chewlab/jawframe/spatialmath"
	"github.com/chewlab/jawframe/utils"
)

// RelativePose is the jaw expressed in the head's frame at one instant.
type RelativePose struct {
	FrameIndex int
	Time       float64
	// Rotation takes jaw coordinates to head coordinates.
	Rotation *spatialmath.RotationMatrix
	// Translation is the jaw origin in head coordinates, in millimetres.
	Translation r3.Vector
}

// Relative returns the pose of jaw in head's frame:
//
//	R_rel = R_headᵀ · R_jaw
//	p_rel = R_headᵀ · (p_jaw - p_head)
//
// It is pure and depends only on its two arguments.
func Relative(head, jaw mocap.RigidBodySample) (RelativePose, error) {
	rHead, err := spatialmath.QuaternionToMatrix(head.Quaternion)
	if err != nil {
		return RelativePose{}, withFrame(err, head.FrameIndex, "head")
	}
	rJaw, err := spatialmath.QuaternionToMatrix(jaw.Quaternion)
	if err != nil {
		return RelativePose{}, withFrame(err, jaw.FrameIndex, "jaw")
	}
	headT := rHead.Transpose()
	return RelativePose{
		FrameIndex:  jaw.FrameIndex,
		Time:        jaw.Time,
		Rotation:    headT.MatMul(rJaw),
		Translation: headT.Mul(jaw.Position.Sub(head.Position)),
	}, nil
}

// Relatives computes the relative pose of every frame of seq. Frames are independent and are
// spread over a bounded group of workers; the output is in frame order regardless.
func Relatives(ctx context.Context, seq *mocap.Sequence) ([]RelativePose, error) {
	return utils.ParallelMap(ctx, seq.Len(), func(i int) (RelativePose, error) {
		f := seq.Frames[i]
		return Relative(f.Head, f.Jaw)
	})
}

// Translations returns the translation of every pose.
func Translations(poses []RelativePose) []r3.Vector {
	out := make([]r3.Vector, len(poses))
	for i, p := range poses {
		out[i] = p.Translation
	}
	return out
}

func withFrame(err error, frameIndex int, body string) error {
	var degenerate *spatialmath.DegenerateInputError
	if errors.As(err, &degenerate) {
		err = spatialmath.NewDegenerateInputError(degenerate.Norm, frameIndex)
	}
	return errors.Wrapf(err, "%s orientation", body)
}
