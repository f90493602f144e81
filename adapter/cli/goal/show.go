package goal

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <goal-id>",
	Short: "Show a goal with its plan and steps",
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
		goal, err := app.GetGoalHandler.Handle(ctx, queries.GetGoalQuery{UserID: app.CurrentUserID, GoalID: goalID})
		if err != nil {
			return fmt.Errorf("failed to get goal: %w", err)
		}
		return printGoal(cmd.OutOrStdout(), *goal)
	},
}
