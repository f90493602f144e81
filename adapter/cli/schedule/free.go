package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var freeDate string

var freeCmd = &cobra.Command{
	Use:   "free",
	Short: "Show free time on a day",
	Long: `List the intervals of a day left free by sleep, work, commute and
fixed commitments. Blocks already on the calendar are not subtracted.

Examples:
  stride schedule free
  stride schedule free --date 2026-10-19`,
	Aliases: []string{"availability"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		loc := app.Location(ctx)

		date, err := cli.ParseDate(freeDate, loc)
		if err != nil {
			return err
		}
		availability, err := app.FreeIntervalsHandler.Handle(ctx, queries.FreeIntervalsQuery{
			UserID: app.CurrentUserID,
			Date:   date,
		})
		if err != nil {
			return fmt.Errorf("failed to get free time: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, availability)
		}
		if availability.Invalid != "" {
			fmt.Fprintf(out, "%s has invalid constraints: %s\n", availability.Date, availability.Invalid)
			return nil
		}

		tw := cli.NewTable(out)
		tw.SetTitle(fmt.Sprintf("%s (%s)", availability.Date, availability.Timezone))
		tw.AppendHeader(table.Row{"Free", "Minutes"})
		for _, iv := range availability.Free {
			tw.AppendRow(table.Row{cli.Span(iv.Start, iv.End, loc), int(iv.End.Sub(iv.Start).Minutes())})
		}
		tw.AppendFooter(table.Row{"Total", availability.FreeMinutes})
		tw.Render()
		return nil
	},
}

func init() {
	freeCmd.Flags().StringVarP(&freeDate, "date", "d", "", "day (YYYY-MM-DD, default today)")
}
