package mcp

import (
	"context"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
)

type blockCompleteInput struct {
	BlockID string `json:"block_id" jsonschema:"required"`
	Skipped bool   `json:"skipped,omitempty"`
	Notes   string `json:"notes,omitempty"`

	// Same formats as block.move; empty means now.
	CompletedAt string `json:"completed_at,omitempty"`
}

type blockMoveInput struct {
	BlockID string `json:"block_id" jsonschema:"required"`
	Start   string `json:"start" jsonschema:"required"`
	Force   bool   `json:"force,omitempty"`
}

func registerBlockTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("block.complete").
		Description("Mark a block completed, or skipped to free its time").
		Handler(func(ctx context.Context, input blockCompleteInput) (*queries.BlockDTO, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			blockID, err := app.ResolveBlockID(ctx, input.BlockID)
			if err != nil {
				return nil, err
			}

			var at time.Time
			if input.CompletedAt != "" {
				at, err = cli.ParseStart(input.CompletedAt, app.Location(ctx))
				if err != nil {
					return nil, err
				}
			}

			var block *domain.ScheduleBlock
			if !input.Skipped && input.Notes == "" {
				block, err = app.CompleteBlockHandler.Handle(ctx, commands.CompleteBlockCommand{
					UserID:      app.CurrentUserID,
					BlockID:     blockID,
					CompletedAt: at,
				})
			} else {
				status := domain.BlockStatusCompleted
				if input.Skipped {
					status = domain.BlockStatusSkipped
				}
				update := commands.UpdateBlockCommand{
					UserID:      app.CurrentUserID,
					BlockID:     blockID,
					Status:      &status,
					CompletedAt: at,
				}
				if input.Notes != "" {
					update.Notes = &input.Notes
				}
				block, err = app.UpdateBlockHandler.Handle(ctx, update)
			}
			if err != nil {
				return nil, err
			}
			app.FlushEvents(ctx)
			dto := queries.ToBlockDTO(block)
			return &dto, nil
		})

	srv.Tool("block.move").
		Description("Move a block to a new start (YYYY-MM-DD HH:MM in the user's timezone, or RFC3339)").
		Handler(func(ctx context.Context, input blockMoveInput) (*queries.BlockDTO, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			blockID, err := app.ResolveBlockID(ctx, input.BlockID)
			if err != nil {
				return nil, err
			}
			start, err := cli.ParseStart(input.Start, app.Location(ctx))
			if err != nil {
				return nil, err
			}
			block, err := app.MoveBlockHandler.Handle(ctx, commands.MoveBlockCommand{
				UserID:  app.CurrentUserID,
				BlockID: blockID,
				Start:   start,
				Force:   input.Force,
			})
			if err != nil {
				return nil, err
			}
			app.FlushEvents(ctx)
			dto := queries.ToBlockDTO(block)
			return &dto, nil
		})

	return nil
}
