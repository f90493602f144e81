package goal

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/planning/application/commands"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <goal-id> <active|paused|completed>",
	Short: "Pause, resume or complete a goal",
	Long: `Change a goal's status. Paused and completed goals get no new
sessions; sessions already on the calendar stay.

Examples:
  stride goal status 3f2a paused
  stride goal status 3f2a active`,
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
		goal, err := app.SetGoalStatusHandler.Handle(ctx, commands.SetGoalStatusCommand{
			UserID: app.CurrentUserID,
			GoalID: goalID,
			Status: domain.GoalStatus(args[1]),
		})
		if err != nil {
			return fmt.Errorf("failed to set status: %w", err)
		}
		return printGoal(cmd.OutOrStdout(), queries.ToGoalDTO(goal))
	},
}
