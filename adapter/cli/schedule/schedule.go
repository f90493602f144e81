// Package schedule holds the calendar commands.
package schedule

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for schedule operations.
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "View and allocate the calendar",
	Long: `View the calendar, free time and conflicts, and allocate goal
sessions into the coming weeks.`,
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(allocateCmd)
	Cmd.AddCommand(freeCmd)
	Cmd.AddCommand(conflictsCmd)
}
