package constraints

import (
	"fmt"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the constraints as YAML for editing and re-import",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		c, err := app.GetConstraintsHandler.Handle(cmd.Context(), queries.GetConstraintsQuery{UserID: app.CurrentUserID})
		if err != nil {
			return fmt.Errorf("failed to get constraints: %w", err)
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(c)
	},
}
