package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/stride/adapter/api"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the HTTP API until interrupted.

Without a RabbitMQ broker the server also drains the outbox, so goal
changes reallocate sessions without a separate worker.

Examples:
  stride serve
  stride serve --addr :9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		cfg := api.DefaultServerConfig()
		cfg.Addr = app.Config.HTTPAddr
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		cfg.Auth = api.AuthConfig{JWTSecret: app.Config.JWTSecret, Issuer: app.Config.JWTIssuer}
		server := api.NewServer(cfg, app.Container, app.Logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			app.Logger.Info("API server listening", "addr", cfg.Addr)
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		})
		if app.DeliversLocally() {
			processor := app.NewOutboxProcessor()
			g.Go(func() error {
				return processor.Run(gctx)
			})
		}
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
			defer cancel()
			app.Logger.Info("shutting down API server")
			return server.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
