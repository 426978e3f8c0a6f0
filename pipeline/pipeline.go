// Package pipeline ties the stages together: it reads a configuration, derives or loads the
// canonical basis of a rig, and turns raw recordings into canonical trajectories.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chewlab/jawframe/logging"
	"github.com/chewlab/jawframe/mocap"
	"github.com/chewlab/jawframe/pose"
	"github.com/chewlab/jawframe/referenceframe"
	"github.com/chewlab/jawframe/signal"
	"github.com/chewlab/jawframe/trajectory"
	"github.com/chewlab/jawframe/utils"
)

// Pipeline runs the normalization stages with one configuration.
type Pipeline struct {
	cfg      Config
	strategy referenceframe.Strategy
	logger   logging.Logger
}

// NewPipeline validates cfg and returns a pipeline that logs to logger.
func NewPipeline(cfg Config, logger logging.Logger) (*Pipeline, error) {
	if err := cfg.Validate("pipeline"); err != nil {
		return nil, err
	}
	strategy, err := cfg.Strategy.Build()
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, strategy: strategy, logger: logger}, nil
}

// Config returns the configuration the pipeline runs with.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// runLogger returns a sublogger tagging every line with a fresh run id.
func (p *Pipeline) runLogger(stage string) (logging.Logger, string) {
	run := uuid.NewString()
	return p.logger.Sublogger(stage), run
}

func (p *Pipeline) condition(ctx context.Context, logger logging.Logger, run string, raw *mocap.Sequence) (*mocap.Sequence, []pose.RelativePose, error) {
	fs, err := p.cfg.Filter.SampleRate(raw)
	if err != nil {
		return nil, nil, err
	}
	logger.Debugw("conditioning", "run", run, "frames", raw.Len(), "sample_rate_hz", fs,
		"cutoff_hz", p.cfg.Filter.CutoffHz, "order", p.cfg.Filter.Order)
	filterCfg := p.cfg.Filter
	filterCfg.SampleRateHz = fs
	conditioned, err := signal.Condition(raw, filterCfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "conditioning")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	poses, err := pose.Relatives(ctx, conditioned)
	if err != nil {
		return nil, nil, errors.Wrap(err, "computing relative poses")
	}
	return conditioned, poses, nil
}

// DeriveBasis crops the start of a reference recording, conditions it and derives the canonical
// basis with the configured strategy.
func (p *Pipeline) DeriveBasis(ctx context.Context, raw *mocap.Sequence) (*referenceframe.CanonicalBasis, error) {
	logger, run := p.runLogger("derive")
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	cropped := raw.CropStart(p.cfg.CropStartSec)
	logger.Debugw("cropped reference", "run", run, "dropped_frames", raw.Len()-cropped.Len(), "crop_start_sec", p.cfg.CropStartSec)
	if cropped.Len() == 0 {
		return nil, errors.Wrapf(mocap.ErrTooFewFrames, "nothing left after cropping %g s", p.cfg.CropStartSec)
	}

	conditioned, poses, err := p.condition(ctx, logger, run, cropped)
	if err != nil {
		return nil, err
	}
	basis, err := p.strategy.Derive(ctx, referenceframe.Reference{Sequence: conditioned, Poses: poses})
	if err != nil {
		return nil, errors.Wrapf(err, "deriving basis with %s strategy", p.strategy.Kind())
	}
	logger.Infow("derived basis", "run", run, "strategy", p.strategy.Kind(), "det", basis.Det())
	logger.Debugf("basis:\n%s", basis)
	return basis, nil
}

// DeriveOrLoadBasis returns the basis stored at path when there is one, and otherwise derives it
// from raw and stores it there. A stored basis is never recomputed.
func (p *Pipeline) DeriveOrLoadBasis(ctx context.Context, raw *mocap.Sequence, path string) (*referenceframe.CanonicalBasis, error) {
	exists, err := utils.FileExists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		p.logger.Infow("loading existing basis", "path", path)
		return referenceframe.LoadBasis(path)
	}
	basis, err := p.DeriveBasis(ctx, raw)
	if err != nil {
		return nil, err
	}
	err = referenceframe.SaveBasis(path, basis)
	if errors.Is(err, referenceframe.ErrBasisExists) {
		// another run stored a basis first; theirs wins
		p.logger.Warnw("basis appeared while deriving, using the stored one", "path", path)
		return referenceframe.LoadBasis(path)
	}
	if err != nil {
		return nil, err
	}
	p.logger.Infow("saved basis", "path", path)
	return basis, nil
}

// Transform conditions a recording and expresses it in basis. When an origin window is
// configured, the median pose of that trailing window becomes the origin. The result is checked
// against the workspace envelope and a warning is logged for frames outside it.
func (p *Pipeline) Transform(ctx context.Context, raw *mocap.Sequence, basis *referenceframe.CanonicalBasis) (trajectory.Trajectory, error) {
	logger, run := p.runLogger("transform")
	_, poses, err := p.condition(ctx, logger, run, raw)
	if err != nil {
		return nil, err
	}
	reprojector := &trajectory.Reprojector{
		Basis:        basis,
		Recenter:     p.cfg.Strategy.RecenterMode(),
		OriginWindow: p.cfg.OriginWindowSec,
	}
	traj, err := reprojector.Reproject(ctx, poses)
	if err != nil {
		return nil, errors.Wrap(err, "reprojecting")
	}

	report := trajectory.CheckEnvelope(traj, p.cfg.Envelope)
	if report.Within() {
		logger.Infow("transformed trajectory", "run", run, "frames", len(traj), "duration_sec", traj.Duration())
	} else {
		logger.Warnw("trajectory leaves the workspace envelope", "run", run,
			"frames", report.Frames, "frames_outside", report.FramesOutside)
		logger.Debugf("envelope:\n%s", report)
	}
	return traj, nil
}
