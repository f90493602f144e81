package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/app"
	mcpinternal "github.com/felixgeelhaar/stride/internal/mcp"
	"github.com/felixgeelhaar/stride/pkg/config"
	"github.com/felixgeelhaar/stride/pkg/observability"
	"github.com/google/uuid"
)

func main() {
	logger := observability.NewLogger(observability.LogConfig{Level: "info", ServiceName: "stride-mcp", Output: os.Stderr})

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
		ServiceName: "stride-mcp",
		Output:      os.Stderr,
	})

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	cliApp := cli.NewApp(container)
	if cfg.MCPUserID != "" {
		userID, err := uuid.Parse(cfg.MCPUserID)
		if err != nil {
			logger.Error("invalid MCP_USER_ID", "error", err)
			os.Exit(1)
		}
		cliApp.SetCurrentUserID(userID)
	}

	if err := mcpinternal.Serve(ctx, cfg, cliApp, cli.Version, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		container.Close()
		os.Exit(1)
	}
}
