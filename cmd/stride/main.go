package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/adapter/cli/block"
	"github.com/felixgeelhaar/stride/adapter/cli/constraints"
	"github.com/felixgeelhaar/stride/adapter/cli/goal"
	"github.com/felixgeelhaar/stride/adapter/cli/schedule"
	"github.com/felixgeelhaar/stride/internal/app"
	"github.com/felixgeelhaar/stride/pkg/config"
	"github.com/felixgeelhaar/stride/pkg/observability"
)

func main() {
	logger := observability.NewLogger(observability.LogConfig{Level: "info", ServiceName: "stride"})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = observability.NewLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      observability.LogFormat(cfg.LogFormat),
		ServiceName: "stride",
	})
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands that need storage report it themselves; help and
		// version still work.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(cli.NewApp(container))
	}

	cli.AddCommand(schedule.Cmd)
	cli.AddCommand(block.Cmd)
	cli.AddCommand(goal.Cmd)
	cli.AddCommand(constraints.Cmd)

	cli.Execute(ctx)
}
