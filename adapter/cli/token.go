package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/adapter/api"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for the current user",
	Long: `Sign a bearer token for the HTTP API with JWT_SECRET.

Examples:
  stride token
  stride token --user 2b1c... --ttl 720h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		token, err := api.IssueToken(api.AuthConfig{
			JWTSecret: app.Config.JWTSecret,
			Issuer:    app.Config.JWTIssuer,
		}, app.CurrentUserID, tokenTTL)
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	rootCmd.AddCommand(tokenCmd)
}
