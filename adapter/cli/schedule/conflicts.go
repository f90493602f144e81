package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	conflictsDate string
	conflictsDays int
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List overlapping blocks",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		loc := app.Location(ctx)

		start, err := cli.ParseDate(conflictsDate, loc)
		if err != nil {
			return err
		}
		conflicts, err := app.GetConflictsHandler.Handle(ctx, queries.GetConflictsQuery{
			UserID: app.CurrentUserID,
			Start:  start,
			End:    start.AddDate(0, 0, conflictsDays),
		})
		if err != nil {
			return fmt.Errorf("failed to get conflicts: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, conflicts)
		}
		if len(conflicts) == 0 {
			fmt.Fprintln(out, "No conflicts.")
			return nil
		}
		tw := cli.NewTable(out)
		tw.AppendHeader(table.Row{"Block", "Block", "Overlap", "Forced"})
		for _, c := range conflicts {
			tw.AppendRow(table.Row{cli.ShortID(c.A), cli.ShortID(c.B), cli.Span(c.Start, c.End, loc), c.Acknowledged})
		}
		tw.Render()
		return nil
	},
}

func init() {
	conflictsCmd.Flags().StringVarP(&conflictsDate, "date", "d", "", "first day (YYYY-MM-DD, default today)")
	conflictsCmd.Flags().IntVar(&conflictsDays, "days", 7, "number of days to check")
}
