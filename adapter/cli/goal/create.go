package goal

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/planning/application/commands"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/spf13/cobra"
)

var (
	createCategory       string
	createDescription    string
	createTarget         string
	createWeeklyHours    float64
	createSessionMinutes int
	createSteps          []string
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a goal",
	Long: `Create a goal. Without --weekly-hours the plan provider drafts the
plan and the steps; with it, the plan is taken as given.

Examples:
  stride goal create "Learn Spanish" --description "hold a conversation by summer"
  stride goal create "Run a marathon" --target 2027-04-18 --weekly-hours 5 --session 60 \
    --step "10k without stopping" --step "half marathon"`,
	Aliases: []string{"add", "new"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		command := commands.CreateGoalCommand{
			UserID:      app.CurrentUserID,
			Name:        args[0],
			Category:    createCategory,
			Description: createDescription,
		}
		if createTarget != "" {
			target, err := cli.ParseDate(createTarget, time.UTC)
			if err != nil {
				return err
			}
			command.TargetDate = &target
		}
		if cmd.Flags().Changed("weekly-hours") {
			command.Plan = &domain.Plan{
				WeeklyHours:    createWeeklyHours,
				SessionMinutes: createSessionMinutes,
				StartDate:      time.Now().UTC().Truncate(24 * time.Hour),
			}
		}
		if len(createSteps) > 0 && command.Plan == nil {
			return fmt.Errorf("--step needs --weekly-hours; without a plan the provider drafts the steps")
		}
		for _, name := range createSteps {
			command.MicroGoals = append(command.MicroGoals, domain.MicroGoalSpec{Name: name})
		}

		goal, err := app.CreateGoalHandler.Handle(ctx, command)
		if err != nil {
			return fmt.Errorf("failed to create goal: %w", err)
		}
		return printGoal(cmd.OutOrStdout(), queries.ToGoalDTO(goal))
	},
}

func init() {
	createCmd.Flags().StringVar(&createCategory, "category", "", "free-form category")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "what the goal means to you")
	createCmd.Flags().StringVar(&createTarget, "target", "", "target date (YYYY-MM-DD)")
	createCmd.Flags().Float64Var(&createWeeklyHours, "weekly-hours", 0, "hours per week, skips the plan provider")
	createCmd.Flags().IntVar(&createSessionMinutes, "session", 0, "preferred session length in minutes")
	createCmd.Flags().StringArrayVar(&createSteps, "step", nil, "micro-goal, in order (repeatable)")
}
