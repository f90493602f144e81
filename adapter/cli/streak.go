package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var streakDate string

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show consecutive days with a completed session",
	Long: `Count the days, ending today (or --date), on which at least one goal
session was completed.

Examples:
  stride streak
  stride streak --date 2026-10-18`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		asOf := time.Now()
		if streakDate != "" {
			day, err := ParseDate(streakDate, app.Location(ctx))
			if err != nil {
				return err
			}
			asOf = day.Add(24*time.Hour - time.Second)
		}

		streak, err := app.GetStreakHandler.Handle(ctx, queries.GetStreakQuery{
			UserID: app.CurrentUserID,
			AsOf:   asOf,
		})
		if err != nil {
			return fmt.Errorf("failed to get streak: %w", err)
		}

		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), streak)
		}
		unit := "days"
		if streak.Days == 1 {
			unit = "day"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Streak: %d %s\n", streak.Days, unit)
		return nil
	},
}

func init() {
	streakCmd.Flags().StringVar(&streakDate, "date", "", "last day of the streak (YYYY-MM-DD)")
	rootCmd.AddCommand(streakCmd)
}
