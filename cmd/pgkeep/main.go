package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/pgkeep/pgkeep/internal/capture"
	"github.com/pgkeep/pgkeep/internal/config"
	"github.com/pgkeep/pgkeep/internal/dump"
	"github.com/pgkeep/pgkeep/internal/logging"
	"github.com/pgkeep/pgkeep/internal/retention"
	"github.com/pgkeep/pgkeep/internal/scheduler"
)

const usage = `usage: pgkeep <command> [-config path]

commands:
  capture   run one backup capture; exits non-zero on failure
  retain    run one retention pass; exits zero even when nothing is deleted
  run       schedule both engines with the configured cron expressions
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	command := args[0]
	fset := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fset.String("config", "config.yaml", "path to config file")
	_ = fset.Parse(args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pgkeep: %v\n", err)
		return 1
	}

	logger, closeLogs, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		ErrorFile: cfg.Logging.ErrorFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pgkeep: %v\n", err)
		return 1
	}
	defer func() { _ = closeLogs() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "capture":
		engine := capture.New(cfg, newRunner(logger), nil, logger)
		if _, err := engine.Run(ctx); err != nil {
			return 1
		}
		return 0

	case "retain":
		engine := retention.New(cfg.Retention, cfg.Destination.Root, nil, logger)
		if _, err := engine.Run(ctx); err != nil {
			return 1
		}
		return 0

	case "run":
		return runDaemon(ctx, cfg, *configPath, logger)

	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func newRunner(logger zerolog.Logger) *dump.PGDump {
	return &dump.PGDump{Stderr: &dump.LogWriter{Log: logger}}
}

func buildJobs(cfg *config.Config, logger zerolog.Logger) (scheduler.Job, scheduler.Job) {
	captureJob := func(ctx context.Context) {
		engine := capture.New(cfg, newRunner(logger), nil, logger)
		_, _ = engine.Run(ctx) // outcome already logged by the engine
	}
	retainJob := func(ctx context.Context) {
		engine := retention.New(cfg.Retention, cfg.Destination.Root, nil, logger)
		_, _ = engine.Run(ctx)
	}
	return captureJob, retainJob
}

func runDaemon(ctx context.Context, cfg *config.Config, configPath string, logger zerolog.Logger) int {
	sched := scheduler.New(logger)
	sched.SetJobs(buildJobs(cfg, logger))

	// Hot reload on SIGHUP. Cron expressions are fixed for the process
	// lifetime; everything else takes effect on the next run.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				newCfg, err := config.Load(configPath)
				if err != nil {
					logger.Error().Err(err).Msg("config reload failed, keeping previous config")
					continue
				}
				sched.SetJobs(buildJobs(newCfg, logger))
				logger.Info().Msg("config reloaded")
			}
		}
	}()

	if err := sched.Run(ctx, cfg.Schedule.Capture, cfg.Schedule.Retention); err != nil {
		logger.Error().Err(err).Msg("scheduler failed")
		return 1
	}
	logger.Info().Msg("shutdown complete")
	return 0
}
