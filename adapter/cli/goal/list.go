package goal

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	listStatus   string
	listCategory string
	listSort     string
	listAll      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals",
	Long: `List goals. Archived goals are hidden unless --all is given.

Examples:
  stride goal list
  stride goal list --status paused
  stride goal list --sort progress`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		goals, err := app.ListGoalsHandler.Handle(cmd.Context(), queries.ListGoalsQuery{
			UserID:          app.CurrentUserID,
			Status:          listStatus,
			IncludeArchived: listAll,
			Category:        listCategory,
			SortBy:          listSort,
		})
		if err != nil {
			return fmt.Errorf("failed to list goals: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, goals)
		}
		if len(goals) == 0 {
			fmt.Fprintln(out, "No goals. Create one with 'stride goal create'.")
			return nil
		}

		tw := cli.NewTable(out)
		tw.AppendHeader(table.Row{"ID", "Name", "Category", "Status", "h/week", "Progress"})
		for _, g := range goals {
			hours := "-"
			if g.Plan != nil {
				hours = fmt.Sprintf("%.1f", g.Plan.WeeklyHours)
			}
			tw.AppendRow(table.Row{
				cli.ShortID(g.ID),
				g.Name,
				g.Category,
				g.Status,
				hours,
				fmt.Sprintf("%.0f%%", g.Progress.PercentComplete),
			})
		}
		tw.Render()
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by status (active, paused, completed, archived)")
	listCmd.Flags().StringVar(&listCategory, "category", "", "filter by category")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort by created_at, name, progress or target_date")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include archived goals")
}
