package goal

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

const barWidth = 20

var progressCmd = &cobra.Command{
	Use:   "progress <goal-id>",
	Short: "Show how far a goal has come",
	Args:  cobra.ExactArgs(1),
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
		progress, err := app.GetProgressHandler.Handle(ctx, queries.GetProgressQuery{
			UserID: app.CurrentUserID,
			GoalID: goalID,
		})
		if err != nil {
			return fmt.Errorf("failed to get progress: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, progress)
		}
		filled := min(int(progress.PercentComplete/100*barWidth), barWidth)
		fmt.Fprintf(out, "[%s%s] %.0f%% (%d/%d steps)\n",
			strings.Repeat("#", filled),
			strings.Repeat(".", barWidth-filled),
			progress.PercentComplete,
			progress.CompletedMicroGoals,
			progress.TotalMicroGoals,
		)
		if progress.NextMicroGoal != "" {
			fmt.Fprintf(out, "Next: %s\n", progress.NextMicroGoal)
		}
		return nil
	},
}
