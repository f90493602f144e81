package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/eventbus"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	Retention        time.Duration
	CleanupInterval  time.Duration
}

// DefaultProcessorConfig returns the settings used when nothing is configured.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     500 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        14 * 24 * time.Hour,
		CleanupInterval:  24 * time.Hour,
	}
}

// Stats are counters exposed by the worker's status log.
type Stats struct {
	Published       uint64
	Failed          uint64
	Dead            uint64
	Purged          int64
	LastError       string
	LastProcessedAt time.Time
}

// Processor polls the outbox and publishes pending events.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	stats Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Run polls until ctx is cancelled. Old published messages are purged on
// the cleanup interval.
func (p *Processor) Run(ctx context.Context) error {
	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()

	cleanupEvery := p.config.CleanupInterval
	if cleanupEvery <= 0 {
		cleanupEvery = 24 * time.Hour
	}
	cleanup := time.NewTicker(cleanupEvery)
	defer cleanup.Stop()

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopped")
			return nil
		case <-poll.C:
			if err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		case <-cleanup.C:
			p.purge(ctx)
		}
	}
}

// ProcessOnce publishes one batch synchronously.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.record(func(s *Stats) { s.LastError = err.Error() })
		return err
	}

	for _, msg := range messages {
		if err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload); err != nil {
			p.handleFailure(ctx, msg, err)
			continue
		}

		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			p.logger.Error("failed to mark message as published", "id", msg.ID, "event_id", msg.EventID, "error", err)
			continue
		}
		p.record(func(s *Stats) { s.Published++ })
	}

	p.record(func(s *Stats) { s.LastProcessedAt = p.now() })
	return nil
}

func (p *Processor) handleFailure(ctx context.Context, msg *Message, cause error) {
	meta := decodeMetadata(msg)
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"correlation_id", meta.CorrelationID,
		"user_id", meta.UserID,
		"retry_count", msg.RetryCount,
		"error", cause,
	)

	reason := cause.Error()
	if p.exhausted(msg) {
		p.record(func(s *Stats) { s.Dead++; s.LastError = reason })
		if err := p.repo.MarkDead(ctx, msg.ID, reason); err != nil {
			p.logger.Error("failed to dead-letter message", "id", msg.ID, "error", err)
		}
		return
	}

	p.record(func(s *Stats) { s.Failed++; s.LastError = reason })
	next := p.now().Add(p.backoff(msg.RetryCount + 1))
	if err := p.repo.MarkFailed(ctx, msg.ID, reason, next); err != nil {
		p.logger.Error("failed to mark message as failed", "id", msg.ID, "error", err)
	}
}

func (p *Processor) purge(ctx context.Context) {
	retention := p.config.Retention
	if retention <= 0 {
		return
	}
	n, err := p.repo.DeleteOld(ctx, retention)
	if err != nil {
		p.logger.Error("failed to purge outbox", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("purged published outbox messages", "count", n)
	}
	p.record(func(s *Stats) { s.Purged += n })
}

func (p *Processor) exhausted(msg *Message) bool {
	if p.config.MaxRetries <= 0 {
		return true
	}
	return msg.RetryCount+1 >= p.config.MaxRetries
}

// backoff doubles from RetryBackoffBase per attempt, capped at RetryBackoffMax.
func (p *Processor) backoff(attempt int) time.Duration {
	base := p.config.RetryBackoffBase
	if base <= 0 {
		base = time.Second
	}
	ceiling := p.config.RetryBackoffMax
	if ceiling <= 0 {
		ceiling = time.Minute
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	return d
}

// Stats returns a snapshot of the processor counters.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Processor) record(fn func(*Stats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.stats)
}

func decodeMetadata(msg *Message) domain.EventMetadata {
	var meta domain.EventMetadata
	if len(msg.Metadata) > 0 {
		_ = json.Unmarshal(msg.Metadata, &meta)
	}
	return meta
}
