// Package block holds the commands that edit single calendar blocks.
package block

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var force bool

// Cmd is the parent command for block operations.
var Cmd = &cobra.Command{
	Use:   "block",
	Short: "Add, move, resize, complete or delete a block",
	Long: `Edit single blocks. Blocks are addressed by id or by the short id
shown in 'stride schedule show'.

A change that would overlap another block is refused unless --force is
given, in which case both blocks are marked as conflicted.`,
}

func init() {
	Cmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "keep the change even if it overlaps another block")

	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(moveCmd)
	Cmd.AddCommand(resizeCmd)
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(deleteCmd)
}

func printBlock(cmd *cobra.Command, app *cli.App, verb string, b *domain.ScheduleBlock) error {
	out := cmd.OutOrStdout()
	if cli.JSONOutput() {
		return cli.PrintJSON(out, queries.ToBlockDTO(b))
	}
	loc := app.Location(cmd.Context())
	line := fmt.Sprintf("%s %s %s [%s]", verb, cli.ShortID(b.ID()), cli.Span(b.Start(), b.End(), loc), b.Type())
	if b.Title() != "" {
		line += " " + b.Title()
	}
	if b.IsConflicted() {
		line += " (conflicted)"
	}
	fmt.Fprintln(out, line)
	return nil
}

// conflictHint adds advice to an overlap refusal.
func conflictHint(err error) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Errorf("%w; use --force to keep both blocks", err)
	}
	return err
}
