package block

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:   "move <block-id> <start>",
	Short: "Move a block to a new start",
	Long: `Move a block, keeping its duration.

Examples:
  stride block move 9c1d2e3f "2026-10-21 07:30"
  stride block move 9c1d2e3f 2026-10-21T07:30:00+02:00 --force`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		blockID, err := app.ResolveBlockID(ctx, args[0])
		if err != nil {
			return err
		}
		start, err := cli.ParseStart(args[1], app.Location(ctx))
		if err != nil {
			return err
		}

		block, err := app.MoveBlockHandler.Handle(ctx, commands.MoveBlockCommand{
			UserID:  app.CurrentUserID,
			BlockID: blockID,
			Start:   start,
			Force:   force,
		})
		if err != nil {
			return conflictHint(fmt.Errorf("failed to move block: %w", err))
		}
		return printBlock(cmd, app, "Moved", block)
	},
}
