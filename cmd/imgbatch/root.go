package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/imgbatch/internal/config"
	"github.com/phrazzld/imgbatch/internal/platform/logger"
	"github.com/spf13/cobra"
)

// streams are the terminal the commands talk to.
type streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func defaultStreams() streams {
	return streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// cli holds what the root command resolves before any subcommand runs.
type cli struct {
	streams streams

	configPath  string
	metricsAddr string
	logLevel    string
	workers     int

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(s streams) *cobra.Command {
	c := &cli{streams: s}

	root := &cobra.Command{
		Use:   "imgbatch",
		Short: "Save and transform batches of images in the background",
		Long: `imgbatch runs image batches as background jobs. When an image fails,
the batch pauses and asks whether to retry, skip, overwrite or cancel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.initialize(cmd)
		},
	}
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "Path to a config file (default ./imgbatch.yaml or $HOME/.config/imgbatch/imgbatch.yaml)")
	flags.StringVar(&c.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. localhost:9090")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.IntVar(&c.workers, "workers", 0, "Number of background workers")

	root.AddCommand(
		newSaveCmd(c),
		newTransformCmd(c),
		newUndoCmd(c),
	)
	return root
}

// initialize loads configuration, applies flag overrides and sets up logging.
func (c *cli) initialize(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFromFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = c.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flags.Changed("workers") {
		cfg.Jobs.WorkerCount = c.workers
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// stdout carries the batch summary
	log, err := logger.SetupWithWriter(cfg.Log, c.streams.Err)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Debug("configuration loaded",
		"workers", cfg.Jobs.WorkerCount,
		"progress_threshold", cfg.Jobs.ProgressThreshold,
		"success_close_delay", cfg.UI.SuccessCloseDelay,
		"metrics_addr", cfg.Metrics.Addr)

	c.cfg = cfg
	c.logger = log
	return nil
}
