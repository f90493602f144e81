package block

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var (
	completeSkipped bool
	completeNotes   string
	completeAt      string
)

var completeCmd = &cobra.Command{
	Use:   "complete <block-id>",
	Short: "Mark a block as done",
	Long: `Mark a block as completed. Completing a goal session counts toward
the goal's progress and your streak. With --skipped the block is marked
as skipped instead and frees its time.

Examples:
  stride block complete 9c1d2e3f
  stride block complete 9c1d2e3f --notes "chapter 3"
  stride block complete 9c1d2e3f --at "2026-10-19 20:15"
  stride block complete 9c1d2e3f --skipped`,
	Aliases: []string{"done"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		blockID, err := app.ResolveBlockID(ctx, args[0])
		if err != nil {
			return err
		}

		var at time.Time
		if completeAt != "" {
			at, err = cli.ParseStart(completeAt, app.Location(ctx))
			if err != nil {
				return err
			}
		}

		if !completeSkipped && completeNotes == "" {
			block, err := app.CompleteBlockHandler.Handle(ctx, commands.CompleteBlockCommand{
				UserID:      app.CurrentUserID,
				BlockID:     blockID,
				CompletedAt: at,
			})
			if err != nil {
				return fmt.Errorf("failed to complete block: %w", err)
			}
			return printBlock(cmd, app, "Completed", block)
		}

		status := domain.BlockStatusCompleted
		verb := "Completed"
		if completeSkipped {
			status = domain.BlockStatusSkipped
			verb = "Skipped"
		}
		update := commands.UpdateBlockCommand{
			UserID:      app.CurrentUserID,
			BlockID:     blockID,
			Status:      &status,
			CompletedAt: at,
			Force:       force,
		}
		if completeNotes != "" {
			update.Notes = &completeNotes
		}
		block, err := app.UpdateBlockHandler.Handle(ctx, update)
		if err != nil {
			return fmt.Errorf("failed to update block: %w", err)
		}
		return printBlock(cmd, app, verb, block)
	},
}

func init() {
	completeCmd.Flags().BoolVar(&completeSkipped, "skipped", false, "mark as skipped instead of completed")
	completeCmd.Flags().StringVar(&completeNotes, "notes", "", "notes to store with the block")
	completeCmd.Flags().StringVar(&completeAt, "at", "", "when it was done (YYYY-MM-DD HH:MM or RFC3339, default now)")
}
