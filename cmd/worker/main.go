package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/stride/internal/app"
	"github.com/felixgeelhaar/stride/pkg/config"
	"github.com/felixgeelhaar/stride/pkg/observability"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := observability.NewLogger(observability.LogConfig{Level: "info", ServiceName: "stride-worker"})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = observability.NewLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      observability.LogFormat(cfg.LogFormat),
		ServiceName: "stride-worker",
	})
	logger.Info("starting stride worker")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if container.DeliversLocally() {
		logger.Warn("no RabbitMQ configured, events are delivered to in-process subscribers only")
	}

	processor := container.NewOutboxProcessor()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return processor.Run(gctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.OutboxStatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				stats := processor.Stats()
				logger.Info("outbox stats",
					"published", stats.Published,
					"failed", stats.Failed,
					"dead", stats.Dead,
					"purged", stats.Purged,
					"last_processed_at", stats.LastProcessedAt,
					"last_error", stats.LastError,
				)
			}
		}
	})

	if cfg.WorkerHealthAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			stats := processor.Stats()
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":            "ok",
				"published":         stats.Published,
				"failed":            stats.Failed,
				"dead":              stats.Dead,
				"last_processed_at": stats.LastProcessedAt,
				"last_error":        stats.LastError,
			})
		})
		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			w.Header().Set("Content-Type", "application/json")
			if err := container.DBConn.Ping(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]any{"status": "not_ready", "error": err.Error()})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
		})

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return healthSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", "error", err)
		container.Close()
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
