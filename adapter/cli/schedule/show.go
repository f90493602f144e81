package schedule

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	showDate string
	showDays int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the calendar",
	Long: `Display the blocks of the coming days.

Examples:
  stride schedule show
  stride schedule show --date 2026-10-19 --days 1`,
	Aliases: []string{"view"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		if showDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		ctx := cmd.Context()
		loc := app.Location(ctx)

		start, err := cli.ParseDate(showDate, loc)
		if err != nil {
			return err
		}
		schedule, err := app.GetScheduleHandler.Handle(ctx, queries.GetScheduleQuery{
			UserID: app.CurrentUserID,
			Start:  start,
			End:    start.AddDate(0, 0, showDays),
		})
		if err != nil {
			return fmt.Errorf("failed to get schedule: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, schedule)
		}
		if len(schedule.Blocks) == 0 {
			fmt.Fprintln(out, "No blocks scheduled.")
			fmt.Fprintln(out, "Use 'stride schedule allocate' to place goal sessions.")
			return nil
		}

		tw := cli.NewTable(out)
		tw.AppendHeader(table.Row{"ID", "When", "Type", "Title", "Status", ""})
		for _, b := range schedule.Blocks {
			flag := ""
			if b.Conflicted {
				flag = "conflict"
			}
			tw.AppendRow(table.Row{cli.ShortID(b.ID), cli.Span(b.Start, b.End, loc), b.Type, b.Title, b.Status, flag})
		}
		tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%s planned", time.Duration(schedule.PlannedMinutes)*time.Minute), fmt.Sprintf("%d done", schedule.CompletedCount), ""})
		tw.Render()
		return nil
	},
}

func init() {
	showCmd.Flags().StringVarP(&showDate, "date", "d", "", "first day (YYYY-MM-DD, default today)")
	showCmd.Flags().IntVar(&showDays, "days", 7, "number of days to show")
}
