package block

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var (
	addType     string
	addStart    string
	addDuration int
	addNotes    string
	addGoal     string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a block by hand",
	Long: `Put a block on the calendar.

Examples:
  stride block add "Dentist" --type fixed_commitment --start "2026-10-20 08:00" --minutes 45
  stride block add "Spanish" --start "2026-10-20 18:00" --minutes 30 --goal 3f2a`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		start, err := cli.ParseStart(addStart, app.Location(ctx))
		if err != nil {
			return err
		}
		command := commands.InsertBlockCommand{
			UserID:          app.CurrentUserID,
			Type:            domain.BlockType(addType),
			Title:           args[0],
			Start:           start,
			DurationMinutes: addDuration,
			Notes:           addNotes,
			Force:           force,
		}
		if addGoal != "" {
			goalID, err := app.ResolveGoalID(ctx, addGoal)
			if err != nil {
				return err
			}
			command.GoalID = goalID
		}

		block, err := app.InsertBlockHandler.Handle(ctx, command)
		if err != nil {
			return conflictHint(fmt.Errorf("failed to add block: %w", err))
		}
		return printBlock(cmd, app, "Added", block)
	},
}

func init() {
	addCmd.Flags().StringVarP(&addType, "type", "t", string(domain.BlockTypeGoalSession), "block type")
	addCmd.Flags().StringVarP(&addStart, "start", "s", "", "start (\"YYYY-MM-DD HH:MM\" or RFC 3339)")
	addCmd.Flags().IntVarP(&addDuration, "minutes", "m", 60, "duration in minutes")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "free-form notes")
	addCmd.Flags().StringVarP(&addGoal, "goal", "g", "", "goal the session serves")
	_ = addCmd.MarkFlagRequired("start")
}
