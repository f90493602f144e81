// Package goal holds the goal commands.
package goal

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// Cmd is the parent command for goal operations.
var Cmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage long-term goals",
	Long: `Create goals, follow their progress and retire them.

A new goal gets a plan from the plan provider: weekly hours, a session
length and a list of micro-goals. Active goals with a plan get sessions
on the calendar with 'stride schedule allocate'.`,
	Aliases: []string{"goals"},
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(archiveCmd)
	Cmd.AddCommand(planCmd)
	Cmd.AddCommand(progressCmd)
	Cmd.AddCommand(stepCmd)
}

func printGoal(out io.Writer, g queries.GoalDTO) error {
	if cli.JSONOutput() {
		return cli.PrintJSON(out, g)
	}
	fmt.Fprintf(out, "%s  %s [%s]\n", cli.ShortID(g.ID), g.Name, g.Status)
	if g.Description != "" {
		fmt.Fprintf(out, "  %s\n", g.Description)
	}
	if g.TargetDate != nil {
		fmt.Fprintf(out, "  Target: %s\n", g.TargetDate.Format("2006-01-02"))
	}
	if g.Plan != nil {
		fmt.Fprintf(out, "  Plan: %.1f h/week", g.Plan.WeeklyHours)
		if g.Plan.SessionMinutes > 0 {
			fmt.Fprintf(out, " in %d min sessions", g.Plan.SessionMinutes)
		}
		fmt.Fprintln(out)
	} else {
		fmt.Fprintln(out, "  No plan yet; run 'stride goal plan' to request one.")
	}
	fmt.Fprintf(out, "  Progress: %.0f%% (%d/%d)\n", g.Progress.PercentComplete, g.Progress.CompletedMicroGoals, g.Progress.TotalMicroGoals)

	if len(g.MicroGoals) > 0 {
		tw := cli.NewTable(out)
		tw.AppendHeader(table.Row{"#", "ID", "Step", "Done"})
		for _, m := range g.MicroGoals {
			done := ""
			if m.CompletedAt != nil {
				done = m.CompletedAt.Format("2006-01-02")
			}
			tw.AppendRow(table.Row{m.OrderIndex + 1, cli.ShortID(m.ID), m.Name, done})
		}
		tw.Render()
	}
	return nil
}

// resolveMicroGoal matches a step by id prefix or 1-based position.
func resolveMicroGoal(g *queries.GoalDTO, ref string) (queries.MicroGoalDTO, error) {
	if pos, err := strconv.Atoi(ref); err == nil {
		for _, m := range g.MicroGoals {
			if m.OrderIndex+1 == pos {
				return m, nil
			}
		}
	}
	ref = strings.ToLower(ref)
	if len(ref) >= 4 {
		for _, m := range g.MicroGoals {
			if strings.HasPrefix(m.ID.String(), ref) {
				return m, nil
			}
		}
	}
	return queries.MicroGoalDTO{}, fmt.Errorf("goal %s has no step %q", cli.ShortID(g.ID), ref)
}
