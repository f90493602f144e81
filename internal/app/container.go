package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/application/commands"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	planningPersistence "github.com/felixgeelhaar/stride/internal/planning/infrastructure/persistence"
	"github.com/felixgeelhaar/stride/internal/planning/infrastructure/planprovider"
	scheduleCommands "github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	scheduleQueries "github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/subscribers"
	schedulePersistence "github.com/felixgeelhaar/stride/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/stride/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/stride/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/stride/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	BlockRepo       *schedulePersistence.BlockRepository
	ConstraintsRepo *schedulePersistence.ConstraintsRepository
	GoalRepo        *planningPersistence.GoalRepository
	OutboxRepo      outbox.Repository

	// Unit of Work and per-user lock
	UnitOfWork sharedApplication.UnitOfWork
	Locker     lock.Locker

	// Publishers. LocalBus delivers to in-process subscribers; EventPublisher
	// is what the outbox processor publishes to.
	LocalBus       *eventbus.InProcessBus
	EventPublisher eventbus.Publisher

	// Engine services
	Availability *services.AvailabilityModel
	Resolver     *services.ConflictResolver
	Planner      *services.AllocationPlanner
	Progress     *services.ProgressAggregator
	Mutator      *scheduleCommands.Mutator
	PlanProvider planningDomain.PlanProvider

	// Schedule Command Handlers
	InsertBlockHandler      *scheduleCommands.InsertBlockHandler
	MoveBlockHandler        *scheduleCommands.MoveBlockHandler
	ResizeBlockHandler      *scheduleCommands.ResizeBlockHandler
	CompleteBlockHandler    *scheduleCommands.CompleteBlockHandler
	DeleteBlockHandler      *scheduleCommands.DeleteBlockHandler
	UpdateBlockHandler      *scheduleCommands.UpdateBlockHandler
	AllocateScheduleHandler *scheduleCommands.AllocateScheduleHandler
	SaveConstraintsHandler  *scheduleCommands.SaveConstraintsHandler

	// Schedule Query Handlers
	GetScheduleHandler    *scheduleQueries.GetScheduleHandler
	FreeIntervalsHandler  *scheduleQueries.FreeIntervalsHandler
	GetConflictsHandler   *scheduleQueries.GetConflictsHandler
	GetConstraintsHandler *scheduleQueries.GetConstraintsHandler
	GetProgressHandler    *scheduleQueries.GetProgressHandler
	GetStreakHandler      *scheduleQueries.GetStreakHandler

	// Goal Command Handlers
	CreateGoalHandler        *commands.CreateGoalHandler
	SetGoalPlanHandler       *commands.SetGoalPlanHandler
	SetGoalStatusHandler     *commands.SetGoalStatusHandler
	ArchiveGoalHandler       *commands.ArchiveGoalHandler
	CompleteMicroGoalHandler *commands.CompleteMicroGoalHandler

	// Goal Query Handlers
	GetGoalHandler   *queries.GetGoalHandler
	ListGoalsHandler *queries.ListGoalsHandler

	// Subscribers
	AllocationSubscriber *subscribers.AllocationSubscriber
}

// NewContainer creates a new dependency container. An empty DatabaseURL
// selects the SQLite store, which is migrated on open.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if err := c.openDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.connectRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.connectPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	// Create repositories
	c.BlockRepo = schedulePersistence.NewBlockRepository(c.DBConn)
	c.ConstraintsRepo = schedulePersistence.NewConstraintsRepository(c.DBConn)
	c.GoalRepo = planningPersistence.NewGoalRepository(c.DBConn)
	c.OutboxRepo = outbox.NewSQLRepository(c.DBConn)
	c.UnitOfWork = database.NewUnitOfWork(c.DBConn)

	c.PlanProvider = newPlanProvider(cfg, logger)

	// Engine services
	c.Availability = services.NewAvailabilityModel()
	c.Resolver = services.NewConflictResolver(logger)
	c.Planner = services.NewAllocationPlanner(c.Availability, services.PlannerConfig{
		DefaultSessionMinutes: cfg.DefaultSessionMinutes,
		MinSessionMinutes:     cfg.MinSessionMinutes,
	}, logger)
	c.Progress = services.NewProgressAggregator(c.BlockRepo, c.GoalRepo, c.ConstraintsRepo, logger)
	c.Mutator = scheduleCommands.NewMutator(scheduleCommands.Deps{
		Blocks:       c.BlockRepo,
		Constraints:  c.ConstraintsRepo,
		Goals:        c.GoalRepo,
		Outbox:       c.OutboxRepo,
		UnitOfWork:   c.UnitOfWork,
		Locker:       c.Locker,
		Resolver:     c.Resolver,
		Availability: c.Availability,
		Progress:     c.Progress,
		Timeout:      cfg.PersistenceTimeout,
		Logger:       logger,
	})

	// Create schedule command handlers
	c.InsertBlockHandler = scheduleCommands.NewInsertBlockHandler(c.Mutator)
	c.MoveBlockHandler = scheduleCommands.NewMoveBlockHandler(c.Mutator)
	c.ResizeBlockHandler = scheduleCommands.NewResizeBlockHandler(c.Mutator)
	c.CompleteBlockHandler = scheduleCommands.NewCompleteBlockHandler(c.Mutator)
	c.DeleteBlockHandler = scheduleCommands.NewDeleteBlockHandler(c.Mutator)
	c.UpdateBlockHandler = scheduleCommands.NewUpdateBlockHandler(c.Mutator)
	c.AllocateScheduleHandler = scheduleCommands.NewAllocateScheduleHandler(c.Mutator, c.Planner)
	c.SaveConstraintsHandler = scheduleCommands.NewSaveConstraintsHandler(c.Mutator)

	// Create schedule query handlers
	c.GetScheduleHandler = scheduleQueries.NewGetScheduleHandler(c.BlockRepo)
	c.FreeIntervalsHandler = scheduleQueries.NewFreeIntervalsHandler(c.ConstraintsRepo, c.Availability)
	c.GetConflictsHandler = scheduleQueries.NewGetConflictsHandler(c.BlockRepo, c.Resolver)
	c.GetConstraintsHandler = scheduleQueries.NewGetConstraintsHandler(c.ConstraintsRepo)
	c.GetProgressHandler = scheduleQueries.NewGetProgressHandler(c.GoalRepo, c.Progress)
	c.GetStreakHandler = scheduleQueries.NewGetStreakHandler(c.Progress)

	// Create goal command handlers
	c.CreateGoalHandler = commands.NewCreateGoalHandler(c.GoalRepo, c.OutboxRepo, c.UnitOfWork, c.PlanProvider, logger)
	c.ArchiveGoalHandler = commands.NewArchiveGoalHandler(
		c.GoalRepo, c.BlockRepo, c.OutboxRepo, c.UnitOfWork, c.Locker, cfg.PersistenceTimeout, logger,
	)
	c.SetGoalPlanHandler = commands.NewSetGoalPlanHandler(
		c.GoalRepo, c.BlockRepo, c.OutboxRepo, c.UnitOfWork, c.PlanProvider, c.Locker, cfg.PersistenceTimeout, logger,
	)
	c.SetGoalStatusHandler = commands.NewSetGoalStatusHandler(c.GoalRepo, c.OutboxRepo, c.UnitOfWork, c.ArchiveGoalHandler)
	c.CompleteMicroGoalHandler = commands.NewCompleteMicroGoalHandler(c.GoalRepo, c.OutboxRepo, c.UnitOfWork)

	// Create goal query handlers
	c.GetGoalHandler = queries.NewGetGoalHandler(c.GoalRepo)
	c.ListGoalsHandler = queries.NewListGoalsHandler(c.GoalRepo)

	// Re-plan calendars when goals get plans or constraints change
	c.AllocationSubscriber = subscribers.NewAllocationSubscriber(c.AllocateScheduleHandler, cfg.DefaultHorizonWeeks, logger)
	c.LocalBus.RegisterConsumer(c.AllocationSubscriber)

	return c, nil
}

func (c *Container) openDatabase(ctx context.Context) error {
	cfg := c.Config
	dbCfg := database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DatabaseMaxConns,
		Timeout:    cfg.PersistenceTimeout,
	}
	c.DBDriver = database.DetectDriver(cfg.DatabaseURL)
	if c.DBDriver == database.DriverSQLite && dbCfg.SQLitePath == "" && cfg.DatabaseURL == "" {
		dbCfg.SQLitePath = database.DefaultSQLitePath()
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.Logger.Info("connected to database", "driver", c.DBDriver)

	// PostgreSQL schemas are applied with the migrate command.
	if c.DBDriver == database.DriverSQLite {
		if err := migrations.Run(ctx, conn, c.Logger); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return nil
}

// connectRedis picks the lock backend. Without Redis the lock only covers
// this process.
func (c *Container) connectRedis(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" {
		c.Locker = lock.NewLocalLocker()
		return nil
	}

	client, err := lock.Connect(ctx, cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using process-local lock", "error", err)
		c.Locker = lock.NewLocalLocker()
		return nil
	}
	c.RedisClient = client
	c.Locker = lock.NewRedisLocker(client, cfg.LockTTL, c.Logger)
	c.Logger.Info("connected to Redis")
	return nil
}

// connectPublisher picks where outbox events go: RabbitMQ when configured,
// otherwise the in-process bus.
func (c *Container) connectPublisher() error {
	cfg := c.Config
	c.LocalBus = eventbus.NewInProcessBus(c.Logger)
	if cfg.RabbitMQURL == "" {
		c.EventPublisher = c.LocalBus
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, c.Logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, delivering events in process", "error", err)
		c.EventPublisher = c.LocalBus
		return nil
	}
	c.EventPublisher = publisher
	return nil
}

func newPlanProvider(cfg *config.Config, logger *slog.Logger) planningDomain.PlanProvider {
	if cfg.PlanProviderURL == "" {
		return planprovider.NewStaticProvider(0, cfg.DefaultSessionMinutes)
	}
	return planprovider.NewHTTPProvider(planprovider.HTTPConfig{
		BaseURL: cfg.PlanProviderURL,
		APIKey:  cfg.PlanProviderAPIKey,
		Timeout: cfg.PlanProviderTimeout,
	}, logger)
}

// NewOutboxProcessor creates a processor that drains the outbox into the
// configured publisher.
func (c *Container) NewOutboxProcessor() *outbox.Processor {
	cfg := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		cfg.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		cfg.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		cfg.MaxRetries = c.Config.OutboxMaxRetries
	}
	if c.Config.OutboxRetentionDays > 0 {
		cfg.Retention = time.Duration(c.Config.OutboxRetentionDays) * 24 * time.Hour
	}
	if c.Config.OutboxCleanupInterval > 0 {
		cfg.CleanupInterval = c.Config.OutboxCleanupInterval
	}
	return outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, cfg, c.Logger)
}

// DeliversLocally reports whether outbox events go to the in-process bus
// instead of a broker. Processes that write events must then drain the
// outbox themselves.
func (c *Container) DeliversLocally() bool {
	bus, ok := c.EventPublisher.(*eventbus.InProcessBus)
	return ok && bus == c.LocalBus
}

// Migrate applies the schema to the configured database.
func (c *Container) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, c.DBConn, c.Logger)
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
