// Package mcp exposes the calendar and goal operations as MCP tools for
// assistants.
package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/stride/adapter/cli"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

// RegisterTools registers the tools that mirror the CLI.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	if err := registerScheduleTools(srv, deps); err != nil {
		return err
	}
	if err := registerBlockTools(srv, deps); err != nil {
		return err
	}
	return registerGoalTools(srv, deps)
}

var errNoStorage = errors.New("tool requires a database connection")

func requireApp(deps ToolDependencies) (*cli.App, error) {
	if deps.App == nil || deps.App.Container == nil {
		return nil, errNoStorage
	}
	return deps.App, nil
}
