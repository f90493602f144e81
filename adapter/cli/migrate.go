package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Create or upgrade the tables Stride needs. SQLite databases are
migrated when opened; PostgreSQL needs this command once per release.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		if err := app.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s).\n", app.DBDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
