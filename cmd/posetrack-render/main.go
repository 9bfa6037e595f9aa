// Package main renders the depth a camera would see of a scene's bodies.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/posetrack/logging"
)

const (
	// Flags.
	flagScene     = "scene"
	flagOut       = "out"
	flagRaw       = "raw"
	flagPCD       = "pcd"
	flagPCDBinary = "pcd-binary"
	flagLogFile   = "log-file"
	flagDebug     = "debug"
	flagSteps     = "steps"
	flagDT        = "dt"
	flagWorkers   = "workers"
)

func main() {
	var logger logging.Logger

	app := &cli.App{
		Name:  "posetrack-render",
		Usage: "predict depth images of rigid bodies from a scene file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagScene,
				Aliases:  []string{"c"},
				Usage:    "load the scene from `FILE` (.json, .yaml or .yml)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to a size rotated `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			logger = newCLILogger(c.Bool(flagDebug), c.String(flagLogFile))
			logging.ReplaceGlobal(logger)
			return nil
		},
		After: func(c *cli.Context) error {
			if logger == nil {
				return nil
			}
			//nolint:errcheck
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "render",
				Usage: "render the scene's bodies at their configured poses",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagOut,
						Usage: "write the depth image as a 16-bit PNG (mm) to `FILE`",
					},
					&cli.StringFlag{
						Name:  flagRaw,
						Usage: "write the depth image in the raw depth map format to `FILE` (gzipped for .gz)",
					},
					&cli.StringFlag{
						Name:  flagPCD,
						Usage: "write the hits as a point cloud labeled by body to `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagPCDBinary,
						Usage: "write the point cloud in binary PCD format",
					},
				},
				Action: func(c *cli.Context) error {
					return renderAction(c, logger)
				},
			},
			{
				Name:  "sweep",
				Usage: "advance the scene at constant velocity and render every step in parallel",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagSteps,
						Value: 10,
						Usage: "number of steps to render",
					},
					&cli.Float64Flag{
						Name:  flagDT,
						Value: 0.1,
						Usage: "seconds between steps",
					},
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "number of render workers, 0 for one per available core",
					},
				},
				Action: func(c *cli.Context) error {
					return sweepAction(c, logger)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if logger == nil {
			logger = logging.NewLogger("posetrack-render")
		}
		logger.Error(err)
		os.Exit(1)
	}
}

func newCLILogger(debug bool, logFile string) logging.Logger {
	logger := logging.NewLogger("posetrack-render")
	if debug {
		logger = logging.NewDebugLogger("posetrack-render")
	}
	if logFile != "" {
		logger.AddAppender(logging.NewFileAppender(logging.DefaultFileConfig(logFile)))
	}
	return logger
}
