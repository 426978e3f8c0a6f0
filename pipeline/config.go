package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/chewlab/jawframe/mocap"
	"github.com/chewlab/jawframe/referenceframe"
	"github.com/chewlab/jawframe/signal"
	"github.com/chewlab/jawframe/trajectory"
)

// Defaults shared by the configuration and the command line.
const (
	DefaultCropStartSec    = 1.0
	DefaultOriginWindowSec = 1.0
)

// StrategyConfig selects and parameterizes the frame derivation strategy.
type StrategyConfig struct {
	Type               referenceframe.StrategyKind     `json:"type"`
	FixedAxis          []float64                       `json:"fixed_axis"`
	MinSignCorrelation float64                         `json:"min_sign_correlation"`
	Remap              []referenceframe.AxisAssignment `json:"remap"`
	// Recenter defaults to global_mean for full_pca and none for fixed_axis.
	Recenter trajectory.RecenterMode `json:"recenter"`
}

// Config is the complete configuration of a pipeline run.
type Config struct {
	Filter signal.Config `json:"filter"`
	// CropStartSec is dropped from the start of a reference recording before a basis is derived,
	// where the subject is still settling.
	CropStartSec float64 `json:"crop_start_sec"`
	// OriginWindowSec is the trailing window whose median pose becomes the trajectory origin. Zero
	// disables origin correction.
	OriginWindowSec float64             `json:"origin_window_sec"`
	Strategy        StrategyConfig      `json:"strategy"`
	Schema          mocap.Schema        `json:"schema"`
	Envelope        trajectory.Envelope `json:"envelope"`
}

// DefaultConfig returns a fixed-axis configuration for a standard two-body export.
func DefaultConfig() Config {
	remap := referenceframe.DefaultRemap()
	return Config{
		Filter:          signal.DefaultConfig(),
		CropStartSec:    DefaultCropStartSec,
		OriginWindowSec: DefaultOriginWindowSec,
		Strategy: StrategyConfig{
			Type:               referenceframe.FixedAxisKind,
			FixedAxis:          []float64{0, 1, 0},
			MinSignCorrelation: referenceframe.DefaultMinSignCorrelation,
			Remap:              remap[:],
		},
		Schema:   mocap.DefaultSchema(),
		Envelope: trajectory.DefaultEnvelope(),
	}
}

// LoadConfig reads a JSON configuration file. Keys that are absent keep their default value and
// unknown keys are rejected. The result is validated.
func LoadConfig(path string) (Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %q", path)
	}
	var attributes map[string]interface{}
	if err := json.Unmarshal(data, &attributes); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %q", path)
	}
	cfg, err := DecodeConfig(attributes)
	if err != nil {
		return Config{}, errors.Wrapf(err, "decoding config %q", path)
	}
	if err := cfg.Validate(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeConfig decodes attributes over the defaults.
func DecodeConfig(attributes map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &cfg,
		Metadata:   &md,
		ZeroFields: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return Config{}, err
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return Config{}, errors.Errorf("unknown config keys %v", md.Unused)
	}
	return cfg, nil
}

// Validate ensures all parts of the config are valid. Every problem is reported, not only the
// first.
func (cfg *Config) Validate(path string) error {
	var errs error
	add := func(field string, err error) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, field), err))
	}

	if cfg.Filter.Order < 1 {
		add("filter.order", errors.Errorf("must be at least 1, got %d", cfg.Filter.Order))
	}
	if !(cfg.Filter.CutoffHz > 0) {
		add("filter.cutoff_hz", errors.Errorf("must be positive, got %g", cfg.Filter.CutoffHz))
	}
	if cfg.Filter.SampleRateHz < 0 || math.IsNaN(cfg.Filter.SampleRateHz) {
		add("filter.sample_rate_hz", errors.Errorf("must be positive, or zero to infer it, got %g", cfg.Filter.SampleRateHz))
	}
	if cfg.Filter.SampleRateHz > 0 && cfg.Filter.CutoffHz >= cfg.Filter.SampleRateHz/2 {
		add("filter.cutoff_hz", &signal.InvalidCutoffError{Cutoff: cfg.Filter.CutoffHz, Nyquist: cfg.Filter.SampleRateHz / 2})
	}
	if cfg.CropStartSec < 0 {
		add("crop_start_sec", errors.Errorf("must not be negative, got %g", cfg.CropStartSec))
	}
	if cfg.OriginWindowSec < 0 {
		add("origin_window_sec", errors.Errorf("must not be negative, got %g", cfg.OriginWindowSec))
	}

	if err := cfg.Strategy.validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			add("strategy", e)
		}
	}
	if err := cfg.Schema.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			add("schema", e)
		}
	}
	for name, r := range map[string]trajectory.Range{
		"x_mm": cfg.Envelope.X, "y_mm": cfg.Envelope.Y, "z_mm": cfg.Envelope.Z,
		"roll_deg": cfg.Envelope.Roll, "pitch_deg": cfg.Envelope.Pitch, "yaw_deg": cfg.Envelope.Yaw,
	} {
		if r[0] > r[1] {
			add("envelope."+name, errors.Errorf("minimum %g is above maximum %g", r[0], r[1]))
		}
	}
	return errs
}

func (s *StrategyConfig) validate() error {
	var errs error
	switch s.Type {
	case "":
		return goutils.NewConfigValidationFieldRequiredError("strategy", "type")
	case referenceframe.FixedAxisKind:
		if _, err := s.axis(); err != nil {
			errs = multierr.Append(errs, err)
		}
		if s.MinSignCorrelation < 0 || s.MinSignCorrelation >= 1 {
			errs = multierr.Append(errs, errors.Errorf("min_sign_correlation must be in [0, 1), got %g", s.MinSignCorrelation))
		}
	case referenceframe.FullPCAKind:
		if _, err := s.remap(); err != nil {
			errs = multierr.Append(errs, err)
		}
	default:
		errs = multierr.Append(errs, errors.Errorf("unknown strategy type %q", s.Type))
	}
	switch s.Recenter {
	case "", trajectory.RecenterNone, trajectory.RecenterGlobalMean:
	default:
		errs = multierr.Append(errs, errors.Errorf("unknown recenter mode %q", s.Recenter))
	}
	return errs
}

func (s *StrategyConfig) axis() (r3.Vector, error) {
	if len(s.FixedAxis) != 3 {
		return r3.Vector{}, errors.Errorf("fixed_axis must have 3 components, got %d", len(s.FixedAxis))
	}
	axis := r3.Vector{X: s.FixedAxis[0], Y: s.FixedAxis[1], Z: s.FixedAxis[2]}
	if n := axis.Norm(); !(n > 0) || math.IsInf(n, 0) {
		return r3.Vector{}, errors.Errorf("fixed_axis %v has no direction", s.FixedAxis)
	}
	return axis, nil
}

func (s *StrategyConfig) remap() ([3]referenceframe.AxisAssignment, error) {
	var remap [3]referenceframe.AxisAssignment
	if len(s.Remap) != 3 {
		return remap, errors.Errorf("remap must have 3 entries, got %d", len(s.Remap))
	}
	copy(remap[:], s.Remap)
	return remap, referenceframe.ValidateRemap(remap)
}

// Build returns the configured strategy.
func (s *StrategyConfig) Build() (referenceframe.Strategy, error) {
	switch s.Type {
	case referenceframe.FixedAxisKind:
		axis, err := s.axis()
		if err != nil {
			return nil, err
		}
		return &referenceframe.FixedAxisStrategy{Axis: axis, MinSignCorrelation: s.MinSignCorrelation}, nil
	case referenceframe.FullPCAKind:
		remap, err := s.remap()
		if err != nil {
			return nil, err
		}
		return &referenceframe.FullPCAStrategy{Remap: remap}, nil
	default:
		return nil, errors.Errorf("unknown strategy type %q", s.Type)
	}
}

// RecenterMode resolves the recenter mode, applying the per-strategy default.
func (s *StrategyConfig) RecenterMode() trajectory.RecenterMode {
	if s.Recenter != "" {
		return s.Recenter
	}
	if s.Type == referenceframe.FullPCAKind {
		return trajectory.RecenterGlobalMean
	}
	return trajectory.RecenterNone
}
