package main

import (
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/embedprep/internal/logger"
	"github.com/samcharles93/embedprep/internal/pipeline"
)

var (
	dataDir   string
	splits    []string
	radius    int
	workers   int
	vocabPath string
	logLevel  string
	logFormat string
	noColor   bool
	debug     bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "disable colors in pretty logs",
			Destination: &noColor,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func datasetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data",
			Aliases:     []string{"d"},
			Usage:       "dataset root containing <split>/<label>/<id>_<rating>.txt (defaults to $" + envDataDir + ")",
			Destination: &dataDir,
		},
		&cli.StringSliceFlag{
			Name:        "split",
			Usage:       "dataset split to read (repeatable)",
			Value:       []string{"train", "test"},
			Destination: &splits,
		},
		&cli.IntFlag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "parallel document readers and generator workers (0 = GOMAXPROCS)",
			Destination: &workers,
		},
	}
}

func windowFlag() cli.Flag {
	return &cli.IntFlag{
		Name:        "window",
		Aliases:     []string{"w", "radius"},
		Usage:       "context tokens on each side of a center",
		Value:       pipeline.DefaultRadius,
		Destination: &radius,
	}
}

func vocabFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:        "vocab",
		Usage:       usage,
		Destination: &vocabPath,
	}
}

// setupLogger builds the process logger from the logging flags.
func setupLogger(w io.Writer) (logger.Logger, error) {
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return nil, err
	}
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	opts := logger.Options{Level: level, Format: format, NoColor: noColor}
	if debug {
		opts.Level = slog.LevelDebug
		opts.Source = true
	}
	return logger.Setup(w, opts), nil
}
