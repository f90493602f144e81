package goal

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/planning/application/commands"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/spf13/cobra"
)

var (
	planWeeklyHours    float64
	planSessionMinutes int
)

var planCmd = &cobra.Command{
	Use:   "plan <goal-id>",
	Short: "Replace a goal's plan",
	Long: `Ask the plan provider for a fresh plan, or set the weekly hours
yourself, keeping the step names. Steps are recreated, so their
completion starts over. Planned sessions of the goal are taken off the
calendar and the goal is allocated again.

Examples:
  stride goal plan 3f2a
  stride goal plan 3f2a --weekly-hours 3 --session 45`,
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
		command := commands.SetGoalPlanCommand{UserID: app.CurrentUserID, GoalID: goalID}
		if cmd.Flags().Changed("weekly-hours") {
			current, err := app.GetGoalHandler.Handle(ctx, queries.GetGoalQuery{UserID: app.CurrentUserID, GoalID: goalID})
			if err != nil {
				return fmt.Errorf("failed to get goal: %w", err)
			}
			plan := domain.Plan{}
			if current.Plan != nil {
				plan = *current.Plan
			}
			plan.WeeklyHours = planWeeklyHours
			if planSessionMinutes > 0 {
				plan.SessionMinutes = planSessionMinutes
			}
			command.Plan = &plan
			for _, m := range current.MicroGoals {
				command.MicroGoals = append(command.MicroGoals, domain.MicroGoalSpec{Name: m.Name, Criteria: m.Criteria})
			}
		}

		goal, err := app.SetGoalPlanHandler.Handle(ctx, command)
		if err != nil {
			return fmt.Errorf("failed to set plan: %w", err)
		}
		return printGoal(cmd.OutOrStdout(), queries.ToGoalDTO(goal))
	},
}

func init() {
	planCmd.Flags().Float64Var(&planWeeklyHours, "weekly-hours", 0, "hours per week instead of a generated plan")
	planCmd.Flags().IntVar(&planSessionMinutes, "session", 0, "preferred session length in minutes")
}
