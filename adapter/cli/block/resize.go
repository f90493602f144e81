package block

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var resizeCmd = &cobra.Command{
	Use:   "resize <block-id> <minutes>",
	Short: "Change a block's duration",
	Long: `Change how long a block lasts. The start stays put.

Examples:
  stride block resize 9c1d2e3f 45`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		minutes, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid minutes %q", args[1])
		}
		blockID, err := app.ResolveBlockID(ctx, args[0])
		if err != nil {
			return err
		}

		block, err := app.ResizeBlockHandler.Handle(ctx, commands.ResizeBlockCommand{
			UserID:          app.CurrentUserID,
			BlockID:         blockID,
			DurationMinutes: minutes,
			Force:           force,
		})
		if err != nil {
			return conflictHint(fmt.Errorf("failed to resize block: %w", err))
		}
		return printBlock(cmd, app, "Resized", block)
	},
}
