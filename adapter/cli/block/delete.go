package block

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <block-id>",
	Short:   "Remove a block from the calendar",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
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
		if err := app.DeleteBlockHandler.Handle(ctx, commands.DeleteBlockCommand{
			UserID:  app.CurrentUserID,
			BlockID: blockID,
		}); err != nil {
			return fmt.Errorf("failed to delete block: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), map[string]any{"deleted": blockID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", cli.ShortID(blockID))
		return nil
	},
}
