package goal

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/planning/application/commands"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <goal-id>",
	Short: "Archive a goal and drop its future sessions",
	Long: `Archive a goal. Planned sessions that have not started are removed
from the calendar; completed ones stay in the history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		goalID, err := app.ResolveGoalID(ctx, args[0])
		if err != nil {
			return err
		}
		result, err := app.ArchiveGoalHandler.Handle(ctx, commands.ArchiveGoalCommand{
			UserID: app.CurrentUserID,
			GoalID: goalID,
		})
		if err != nil {
			return fmt.Errorf("failed to archive goal: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, map[string]any{
				"goal":              queries.ToGoalDTO(result.Goal),
				"removed_block_ids": result.RemovedBlocks,
			})
		}
		fmt.Fprintf(out, "Archived %s (%s), removed %d planned sessions.\n",
			result.Goal.Name(), cli.ShortID(result.Goal.ID()), len(result.RemovedBlocks))
		return nil
	},
}
