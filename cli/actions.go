package cli

import (
	"fmt"
	"io"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/chewlab/jawframe/logging"
	"github.com/chewlab/jawframe/mocap"
	"github.com/chewlab/jawframe/pipeline"
	"github.com/chewlab/jawframe/referenceframe"
	"github.com/chewlab/jawframe/trajectory"
	"github.com/chewlab/jawframe/utils"
)

// runner carries the state set up by the global flags to the command actions.
type runner struct {
	logger  logging.Logger
	logFile io.Closer
	cfg     pipeline.Config
}

func (r *runner) before(c *cli.Context) error {
	level, err := logging.LevelFromString(c.String(flagLogLevel))
	if err != nil {
		return err
	}
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	r.logger = logging.NewBlankLogger("jawframe")
	r.logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	r.logger.SetLevel(level)
	if path := c.String(flagLogFile); path != "" {
		appender, closer := logging.NewFileAppender(logging.FileAppenderConfig{
			Path:       path,
			MaxSizeMB:  10,
			MaxBackups: 3,
		})
		r.logger.AddAppender(appender)
		r.logFile = closer
	}

	r.cfg = pipeline.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		if r.cfg, err = pipeline.LoadConfig(path); err != nil {
			return err
		}
		r.logger.Debugw("loaded configuration", "path", path)
	}
	return nil
}

func (r *runner) after(c *cli.Context) error {
	if r.logger == nil {
		return nil
	}
	err := r.logger.Sync()
	if r.logFile != nil {
		err = multierr.Combine(err, r.logFile.Close())
	}
	return err
}

// config returns the loaded configuration with every flag set on the command line applied over it.
func (r *runner) config(c *cli.Context) (pipeline.Config, error) {
	cfg := r.cfg
	if c.IsSet(flagCutoff) {
		cfg.Filter.CutoffHz = c.Float64(flagCutoff)
	}
	if c.IsSet(flagOrder) {
		cfg.Filter.Order = c.Int(flagOrder)
	}
	if c.IsSet(flagSampleRate) {
		cfg.Filter.SampleRateHz = c.Float64(flagSampleRate)
	}
	if c.IsSet(flagCrop) {
		cfg.CropStartSec = c.Float64(flagCrop)
	}
	if c.IsSet(flagOriginWindow) {
		cfg.OriginWindowSec = c.Float64(flagOriginWindow)
	}
	if c.IsSet(flagStrategy) {
		cfg.Strategy.Type = referenceframe.StrategyKind(c.String(flagStrategy))
	}
	if c.IsSet(flagRecenter) {
		cfg.Strategy.Recenter = trajectory.RecenterMode(c.String(flagRecenter))
	}
	if c.IsSet(flagAxis) {
		cfg.Strategy.FixedAxis = c.Float64Slice(flagAxis)
	}
	if err := cfg.Validate("flags"); err != nil {
		return pipeline.Config{}, err
	}
	return cfg, nil
}

func (r *runner) pipeline(c *cli.Context) (*pipeline.Pipeline, error) {
	cfg, err := r.config(c)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(cfg, r.logger)
}

func singleArg(c *cli.Context, what string) (string, error) {
	switch c.Args().Len() {
	case 0:
		return "", errors.Errorf("no %s given, use --help for more information", what)
	case 1:
		return c.Args().First(), nil
	default:
		return "", errors.Errorf("expected a single %s, got %d arguments. "+
			"make sure to specify flags before the positional argument", what, c.Args().Len())
	}
}

func (r *runner) deriveAction(c *cli.Context) error {
	recording, err := singleArg(c, "recording")
	if err != nil {
		return err
	}
	p, err := r.pipeline(c)
	if err != nil {
		return err
	}
	raw, err := mocap.ReadSequenceFile(recording, p.Config().Schema)
	if err != nil {
		return err
	}
	basis, err := p.DeriveOrLoadBasis(c.Context, raw, c.String(flagBasis))
	if err != nil {
		return err
	}
	printBasis(c.App.Writer, c.String(flagBasis), basis)
	return nil
}

// transformBasis loads the basis file, or derives and stores it from the reference recording when
// the file does not exist and a reference was given.
func (r *runner) transformBasis(c *cli.Context, p *pipeline.Pipeline) (*referenceframe.CanonicalBasis, error) {
	path := c.String(flagBasis)
	stored, err := utils.FileExists(path)
	if err != nil {
		return nil, err
	}
	// A basis file holds only the matrix, so the recentering of a stored basis comes from the
	// current configuration rather than from the strategy that derived it.
	if strategy := p.Config().Strategy; stored && strategy.Recenter == "" {
		r.logger.Warnw("stored basis does not record its strategy, recentering follows the configured one",
			"path", path, "strategy", strategy.Type, "recenter", strategy.RecenterMode())
	}
	reference := c.String(flagReference)
	if reference == "" {
		return referenceframe.LoadBasis(path)
	}
	raw, err := mocap.ReadSequenceFile(reference, p.Config().Schema)
	if err != nil {
		return nil, err
	}
	return p.DeriveOrLoadBasis(c.Context, raw, path)
}

func (r *runner) transformAction(c *cli.Context) error {
	recording, err := singleArg(c, "recording")
	if err != nil {
		return err
	}
	p, err := r.pipeline(c)
	if err != nil {
		return err
	}
	basis, err := r.transformBasis(c, p)
	if err != nil {
		return err
	}
	raw, err := mocap.ReadSequenceFile(recording, p.Config().Schema)
	if err != nil {
		return err
	}
	traj, err := p.Transform(c.Context, raw, basis)
	if err != nil {
		return err
	}
	output := c.String(flagOutput)
	if err := trajectory.WriteFile(output, traj, trajectory.WriteCSV); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %d frames (%.3f s) to %s\n", len(traj), traj.Duration(), output)
	return nil
}

func (r *runner) extractAction(c *cli.Context) error {
	input, err := singleArg(c, "trajectory")
	if err != nil {
		return err
	}
	traj, err := trajectory.ReadFile(input)
	if err != nil {
		return err
	}
	cycle, err := trajectory.Extract(traj, c.Float64(flagStart), c.Float64(flagEnd))
	if err != nil {
		return err
	}
	output := c.String(flagOutput)
	if err := trajectory.WriteFile(output, cycle, trajectory.WriteCycleCSV); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %d frames to %s\n", len(cycle), output)
	return nil
}

func (r *runner) inspectAction(c *cli.Context) error {
	basisPath := c.String(flagBasis)
	trajectories := c.StringSlice(flagTrajectory)
	if basisPath == "" && len(trajectories) == 0 {
		return errors.Errorf("nothing to inspect, pass --%s or --%s", flagBasis, flagTrajectory)
	}
	if basisPath != "" {
		basis, err := referenceframe.LoadBasis(basisPath)
		if err != nil {
			return err
		}
		printBasis(c.App.Writer, basisPath, basis)
	}

	cfg, err := r.config(c)
	if err != nil {
		return err
	}
	var outside []string
	for _, path := range lo.Uniq(trajectories) {
		traj, err := trajectory.ReadFile(path)
		if err != nil {
			return err
		}
		report := trajectory.CheckEnvelope(traj, cfg.Envelope)
		fmt.Fprintf(c.App.Writer, "%s: %d frames, %.3f s\n%s\n", path, len(traj), traj.Duration(), report)
		if !report.Within() {
			outside = append(outside, path)
		}
	}
	if len(outside) > 0 {
		r.logger.Warnw("trajectories leave the workspace envelope", "paths", outside)
	}
	return nil
}

func printBasis(w io.Writer, path string, basis *referenceframe.CanonicalBasis) {
	fmt.Fprintf(w, "%s\n%s\n", path, basis)
	fmt.Fprintf(w, "canonical Y in capture coordinates: %s\n", formatVector(basis.Y()))
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
