// Package api provides the HTTP API of Stride.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/stride/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	server   *http.Server
	logger   *slog.Logger
	auth     AuthConfig
	schedule *ScheduleHandler
	goals    *GoalHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Auth         AuthConfig
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates an API server over the container's handlers.
func NewServer(cfg ServerConfig, container *app.Container, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		auth:     cfg.Auth,
		schedule: NewScheduleHandler(container, logger),
		goals:    NewGoalHandler(container, logger),
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(newAuthMiddleware(s.auth))

		// Calendar
		r.Get("/schedule", s.schedule.GetSchedule)
		r.Post("/schedule/allocate", s.schedule.Allocate)
		r.Get("/availability", s.schedule.GetAvailability)
		r.Get("/conflicts", s.schedule.GetConflicts)
		r.Post("/blocks", s.schedule.InsertBlock)
		r.Patch("/blocks/{blockID}", s.schedule.UpdateBlock)
		r.Delete("/blocks/{blockID}", s.schedule.DeleteBlock)
		r.Get("/streak", s.schedule.GetStreak)
		r.Get("/constraints", s.schedule.GetConstraints)
		r.Put("/constraints", s.schedule.PutConstraints)

		// Goals
		r.Get("/goals", s.goals.ListGoals)
		r.Post("/goals", s.goals.CreateGoal)
		r.Get("/goals/{goalID}", s.goals.GetGoal)
		r.Post("/goals/{goalID}/status", s.goals.SetStatus)
		r.Post("/goals/{goalID}/archive", s.goals.Archive)
		r.Post("/goals/{goalID}/plan", s.goals.SetPlan)
		r.Get("/goals/{goalID}/progress", s.goals.GetProgress)
		r.Post("/goals/{goalID}/micro-goals/{microGoalID}/complete", s.goals.CompleteMicroGoal)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}
