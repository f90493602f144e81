package goal

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/planning/application/commands"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{
	Use:   "step <goal-id> <step>",
	Short: "Mark a step (micro-goal) as reached",
	Long: `Mark a micro-goal as completed. Steps are addressed by their
position (1, 2, ...) or id. Milestone steps are only completed this way.

Examples:
  stride goal step 3f2a 1`,
	Args: cobra.ExactArgs(2),
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
		current, err := app.GetGoalHandler.Handle(ctx, queries.GetGoalQuery{UserID: app.CurrentUserID, GoalID: goalID})
		if err != nil {
			return fmt.Errorf("failed to get goal: %w", err)
		}
		step, err := resolveMicroGoal(current, args[1])
		if err != nil {
			return err
		}

		goal, err := app.CompleteMicroGoalHandler.Handle(ctx, commands.CompleteMicroGoalCommand{
			UserID:      app.CurrentUserID,
			GoalID:      goalID,
			MicroGoalID: step.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to complete step: %w", err)
		}
		return printGoal(cmd.OutOrStdout(), queries.ToGoalDTO(goal))
	},
}
