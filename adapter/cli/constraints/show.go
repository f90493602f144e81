package constraints

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved constraints",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		c, err := app.GetConstraintsHandler.Handle(cmd.Context(), queries.GetConstraintsQuery{UserID: app.CurrentUserID})
		if errors.Is(err, domain.ErrConstraintsNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No constraints saved. Import them with 'stride constraints import <file.yaml>'.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get constraints: %w", err)
		}
		return printConstraints(cmd.OutOrStdout(), c)
	},
}
