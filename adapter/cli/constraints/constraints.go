// Package constraints holds the commands for a user's fixed-time settings.
package constraints

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// Cmd is the parent command for constraint operations.
var Cmd = &cobra.Command{
	Use:   "constraints",
	Short: "Show, import or export wake, work and commitment times",
	Long: `Constraints are the times goal sessions must avoid: sleep, work,
commute and weekly fixed commitments. Blocks already on the calendar
are kept when they change; the next allocation uses the new times.`,
	Aliases: []string{"settings"},
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(importCmd)
	Cmd.AddCommand(exportCmd)
}

func printConstraints(out io.Writer, c *domain.UserConstraints) error {
	if cli.JSONOutput() {
		return cli.PrintJSON(out, c)
	}
	tz := c.Timezone
	if tz == "" {
		tz = "UTC"
	}
	fmt.Fprintf(out, "Timezone: %s\n", tz)
	fmt.Fprintf(out, "Awake:    %s - %s\n", c.Wake, c.Sleep)
	if c.CommuteMinutes > 0 {
		fmt.Fprintf(out, "Commute:  %d min each way on work days\n", c.CommuteMinutes)
	}

	if len(c.Work) > 0 || len(c.Commitments) > 0 {
		tw := cli.NewTable(out)
		tw.AppendHeader(table.Row{"Day", "From", "To", "What"})
		for _, w := range c.Work {
			tw.AppendRow(table.Row{w.Day, w.Start, w.End, "work"})
		}
		for _, fc := range c.Commitments {
			tw.AppendRow(table.Row{fc.Day, fc.Start, fc.End, fc.Name})
		}
		tw.Render()
	}
	return nil
}
