package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Database. An empty DatabaseURL selects the embedded SQLite store.
	DatabaseURL      string
	SQLitePath       string
	DatabaseMaxConns int

	// Redis backs the per-user write lock when set.
	RedisURL string
	LockTTL  time.Duration

	// RabbitMQ receives outbox events when set.
	RabbitMQURL      string
	RabbitMQExchange string

	// Outbox
	OutboxPollInterval    time.Duration
	OutboxBatchSize       int
	OutboxMaxRetries      int
	OutboxRetentionDays   int
	OutboxCleanupInterval time.Duration
	OutboxStatsInterval   time.Duration
	WorkerHealthAddr      string

	// HTTP
	HTTPAddr        string
	JWTSecret       string
	JWTIssuer       string
	ShutdownTimeout time.Duration

	// MCP
	MCPAddr      string
	MCPAuthToken string
	MCPUserID    string

	// Plan provider
	PlanProviderURL     string
	PlanProviderAPIKey  string
	PlanProviderTimeout time.Duration

	// Scheduling engine
	PersistenceTimeout    time.Duration
	DefaultHorizonWeeks   int
	MaxHorizonWeeks       int
	MinSessionMinutes     int
	DefaultSessionMinutes int
}

// Load loads configuration from the environment, reading a .env file first
// when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", ""),
		DatabaseMaxConns: getIntEnv("DATABASE_MAX_CONNS", 10),

		RedisURL: getEnv("REDIS_URL", ""),
		LockTTL:  getDurationEnv("LOCK_TTL", 10*time.Second),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "stride.events"),

		OutboxPollInterval:    getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:       getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:      getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:   getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval: getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxStatsInterval:   getDurationEnv("OUTBOX_STATS_INTERVAL", time.Minute),
		WorkerHealthAddr:      getEnv("WORKER_HEALTH_ADDR", ""),

		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTIssuer:       getEnv("JWT_ISSUER", ""),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),

		MCPAddr:      getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
		MCPUserID:    getEnv("MCP_USER_ID", ""),

		PlanProviderURL:     getEnv("PLAN_PROVIDER_URL", ""),
		PlanProviderAPIKey:  getEnv("PLAN_PROVIDER_API_KEY", ""),
		PlanProviderTimeout: getDurationEnv("PLAN_PROVIDER_TIMEOUT", 30*time.Second),

		PersistenceTimeout:    getDurationEnv("PERSISTENCE_TIMEOUT", 5*time.Second),
		DefaultHorizonWeeks:   getIntEnv("DEFAULT_HORIZON_WEEKS", 3),
		MaxHorizonWeeks:       getIntEnv("MAX_HORIZON_WEEKS", 12),
		MinSessionMinutes:     getIntEnv("MIN_SESSION_MINUTES", 30),
		DefaultSessionMinutes: getIntEnv("DEFAULT_SESSION_MINUTES", 60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MinSessionMinutes <= 0 {
		errs = append(errs, fmt.Errorf("MIN_SESSION_MINUTES must be positive, got %d", c.MinSessionMinutes))
	}
	if c.DefaultSessionMinutes < c.MinSessionMinutes {
		errs = append(errs, fmt.Errorf("DEFAULT_SESSION_MINUTES (%d) must be >= MIN_SESSION_MINUTES (%d)",
			c.DefaultSessionMinutes, c.MinSessionMinutes))
	}
	if c.DefaultHorizonWeeks <= 0 || c.DefaultHorizonWeeks > c.MaxHorizonWeeks {
		errs = append(errs, fmt.Errorf("DEFAULT_HORIZON_WEEKS must be within 1..%d, got %d",
			c.MaxHorizonWeeks, c.DefaultHorizonWeeks))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
