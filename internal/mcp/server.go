// Package mcp runs the MCP server over the tools in adapter/mcp.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/stride/adapter/cli"
	mcplocal "github.com/felixgeelhaar/stride/adapter/mcp"
	"github.com/felixgeelhaar/stride/pkg/config"
)

// Serve starts an MCP server and blocks until ctx is canceled.
func Serve(ctx context.Context, cfg *config.Config, app *cli.App, version string, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if app == nil {
		return errors.New("app is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    "stride-mcp",
		Version: version,
		Capabilities: mcpgo.Capabilities{
			Tools: true,
		},
	})
	if err := mcplocal.RegisterTools(srv, mcplocal.ToolDependencies{App: app}); err != nil {
		return err
	}

	adapter := mcpLogger{logger: logger}
	stack := middleware.DefaultStack(adapter)
	if cfg.MCPAuthToken != "" {
		authenticator := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
			cfg.MCPAuthToken: {ID: app.CurrentUserID.String(), Name: "stride"},
		}))
		stack = append([]middleware.Middleware{middleware.Auth(authenticator, middleware.WithAuthLogger(adapter))}, stack...)
	} else {
		logger.Warn("MCP_AUTH_TOKEN not set; requests are unauthenticated")
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "user_id", app.CurrentUserID)
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil, mcpgo.WithMiddleware(stack...))
}

type mcpLogger struct {
	logger *slog.Logger
}

func (l mcpLogger) Info(msg string, fields ...middleware.Field) {
	l.logger.Info(msg, fieldsToArgs(fields)...)
}

func (l mcpLogger) Error(msg string, fields ...middleware.Field) {
	l.logger.Error(msg, fieldsToArgs(fields)...)
}

func (l mcpLogger) Debug(msg string, fields ...middleware.Field) {
	l.logger.Debug(msg, fieldsToArgs(fields)...)
}

func (l mcpLogger) Warn(msg string, fields ...middleware.Field) {
	l.logger.Warn(msg, fieldsToArgs(fields)...)
}

func fieldsToArgs(fields []middleware.Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		args = append(args, field.Key, field.Value)
	}
	return args
}
