package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type allocateOutput struct {
	Placed      []queries.BlockDTO   `json:"placed"`
	Fixed       []queries.BlockDTO   `json:"fixed"`
	Shortfalls  []services.Shortfall `json:"shortfalls"`
	SkippedDays map[string]string    `json:"skipped_days,omitempty"`
}

func toDTOs(blocks []*domain.ScheduleBlock) []queries.BlockDTO {
	out := make([]queries.BlockDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, queries.ToBlockDTO(b))
	}
	return out
}

var (
	allocateWeeks int
	allocateStart string
)

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Place goal sessions into free time",
	Long: `Fill the free time of the coming weeks with sessions for your active
goals. Blocks already on the calendar are kept; running it twice places
nothing new.

Examples:
  stride schedule allocate
  stride schedule allocate --weeks 4
  stride schedule allocate --start 2026-10-19`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		loc := app.Location(ctx)

		weeks := allocateWeeks
		if weeks == 0 {
			weeks = app.Config.DefaultHorizonWeeks
		}
		if weeks < 1 || weeks > app.Config.MaxHorizonWeeks {
			return fmt.Errorf("--weeks must be within 1..%d", app.Config.MaxHorizonWeeks)
		}
		start := time.Now()
		if allocateStart != "" {
			start, err = cli.ParseDate(allocateStart, loc)
			if err != nil {
				return err
			}
		}

		result, err := app.AllocateScheduleHandler.Handle(ctx, commands.AllocateScheduleCommand{
			UserID:       app.CurrentUserID,
			HorizonStart: start,
			HorizonWeeks: weeks,
		})
		if err != nil {
			return fmt.Errorf("failed to allocate: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, allocateOutput{
				Placed:      toDTOs(result.Placed),
				Fixed:       toDTOs(result.Fixed),
				Shortfalls:  result.Shortfalls,
				SkippedDays: result.SkippedDays,
			})
		}

		fmt.Fprintf(out, "Placed %d sessions, added %d fixed blocks.\n", len(result.Placed), len(result.Fixed))
		if len(result.Placed) > 0 {
			tw := cli.NewTable(out)
			tw.AppendHeader(table.Row{"ID", "When", "Title"})
			for _, b := range result.Placed {
				tw.AppendRow(table.Row{cli.ShortID(b.ID()), cli.Span(b.Start(), b.End(), loc), b.Title()})
			}
			tw.Render()
		}
		for _, s := range result.Shortfalls {
			fmt.Fprintf(out, "Goal %s is short %d minutes over the horizon.\n", cli.ShortID(s.GoalID), s.Minutes)
		}
		if len(result.SkippedDays) > 0 {
			days := make([]string, 0, len(result.SkippedDays))
			for day := range result.SkippedDays {
				days = append(days, day)
			}
			sort.Strings(days)
			for _, day := range days {
				fmt.Fprintf(out, "Skipped %s: %s\n", day, result.SkippedDays[day])
			}
		}
		return nil
	},
}

func init() {
	allocateCmd.Flags().IntVarP(&allocateWeeks, "weeks", "w", 0, "horizon in weeks (default from config)")
	allocateCmd.Flags().StringVar(&allocateStart, "start", "", "first day of the horizon (YYYY-MM-DD, default now)")
}
