package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/stride/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	logger  *slog.Logger
)

type commandContext struct {
	correlationID string
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stride",
	Short: "Stride - goal sessions on your calendar",
	Long: `Stride turns long-term goals into weekly hours and places the
sessions in the free time your work, commute and commitments leave.

Every command acts for one user, chosen with --user or STRIDE_USER.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = observability.WithCorrelationID(ctx, "")
		info := commandContext{
			correlationID: observability.CorrelationIDFromContext(ctx),
			startedAt:     time.Now(),
		}
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.DebugContext(ctx, "command start", "command", cmd.CommandPath())

		if app := GetApp(); app != nil {
			userID, err := resolveUserID()
			if err != nil {
				return err
			}
			app.SetCurrentUserID(userID)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		if app := GetApp(); app != nil {
			app.FlushEvents(cmd.Context())
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.DebugContext(cmd.Context(), "command end",
			"command", cmd.CommandPath(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute runs the root command with ctx. Errors are printed and exit the
// process with status 1.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringP("user", "u", "", "user id to act for (env STRIDE_USER)")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of tables")

	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read config %s: %v\n", cfgFile, err)
		}
	}
	viper.SetEnvPrefix("STRIDE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// DefaultUserID is the user a single-person install acts for.
var DefaultUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func resolveUserID() (uuid.UUID, error) {
	raw := strings.TrimSpace(viper.GetString("user"))
	if raw == "" {
		return DefaultUserID, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// RootCommand exposes the root command for tests.
func RootCommand() *cobra.Command {
	return rootCmd
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
