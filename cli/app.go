// Package cli contains the jawframe command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"github.com/chewlab/jawframe/referenceframe"
	"github.com/chewlab/jawframe/trajectory"
)

const (
	// Global flags.
	flagConfig   = "config"
	flagDebug    = "debug"
	flagLogLevel = "log-level"
	flagLogFile  = "log-file"

	// Pipeline overrides.
	flagCutoff       = "cutoff"
	flagOrder        = "order"
	flagSampleRate   = "fs"
	flagCrop         = "crop"
	flagStrategy     = "strategy"
	flagAxis         = "axis"
	flagRecenter     = "recenter"
	flagOriginWindow = "origin-window"

	// Files.
	flagBasis      = "basis"
	flagReference  = "reference"
	flagOutput     = "output"
	flagTrajectory = "trajectory"

	// Extraction window.
	flagStart = "start"
	flagEnd   = "end"
)

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:  flagCutoff,
			Usage: "low-pass cutoff in `HZ`",
		},
		&cli.IntFlag{
			Name:  flagOrder,
			Usage: "Butterworth filter order",
		},
		&cli.Float64Flag{
			Name:  flagSampleRate,
			Usage: "sampling rate in `HZ`, inferred from the timestamps when unset",
		},
	}
}

func strategyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:  flagCrop,
			Usage: "`SECONDS` dropped from the start of the reference recording",
		},
		&cli.StringFlag{
			Name:  flagStrategy,
			Usage: "frame derivation strategy: " + string(referenceframe.FixedAxisKind) + " or " + string(referenceframe.FullPCAKind),
		},
		&cli.Float64SliceFlag{
			Name:  flagAxis,
			Usage: "fixed capture axis that becomes canonical Z, as three comma separated components",
		},
	}
}

func newApp() *cli.App {
	r := &runner{}
	return &cli.App{
		Name:  "jawframe",
		Usage: "express jaw motion capture recordings in a robot-aligned frame",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load pipeline configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "minimum log level: debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to a rotating `FILE`",
			},
		},
		Before: r.before,
		After:  r.after,
		Commands: []*cli.Command{
			{
				Name:      "derive",
				Usage:     "derive the canonical basis from a reference recording",
				ArgsUsage: "<recording.csv>",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:     flagBasis,
						Usage:    "basis `FILE`, loaded instead of derived when it already exists",
						Required: true,
					},
				}, filterFlags()...), strategyFlags()...),
				Action: r.deriveAction,
			},
			{
				Name:      "transform",
				Usage:     "express a recording in a stored canonical basis",
				ArgsUsage: "<recording.csv>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     flagBasis,
						Usage:    "basis `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagReference,
						Usage: "reference recording `FILE` to derive the basis from when the basis file does not exist",
					},
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Usage:    "trajectory `FILE` to write",
						Required: true,
					},
					&cli.StringFlag{
						Name: flagRecenter,
						Usage: "position recentering: " + string(trajectory.RecenterNone) + " or " + string(trajectory.RecenterGlobalMean) +
							", defaults by strategy",
					},
					&cli.Float64Flag{
						Name:  flagOriginWindow,
						Usage: "trailing `SECONDS` whose median pose becomes the origin, 0 to disable",
					},
				}, append(filterFlags(), strategyFlags()...)...),
				Action: r.transformAction,
			},
			{
				Name:      "extract",
				Usage:     "cut a single chewing cycle out of a trajectory",
				ArgsUsage: "<trajectory.csv>",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:     flagStart,
						Usage:    "window start in `SECONDS`",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     flagEnd,
						Usage:    "window end in `SECONDS`",
						Required: true,
					},
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Usage:    "cycle `FILE` to write",
						Required: true,
					},
				},
				Action: r.extractAction,
			},
			{
				Name:  "inspect",
				Usage: "print a stored basis or the workspace envelope report of trajectories",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagBasis,
						Usage: "basis `FILE` to print",
					},
					&cli.StringSliceFlag{
						Name:  flagTrajectory,
						Usage: "trajectory `FILE` to check against the workspace envelope, may be repeated",
					},
				},
				Action: r.inspectAction,
			},
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
