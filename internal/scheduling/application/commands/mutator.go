package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// neighbourhood is how far around an edited block neighbours are loaded.
const neighbourhood = 24 * time.Hour

// Deps are the collaborators shared by the schedule write handlers.
type Deps struct {
	Blocks       domain.BlockRepository
	Constraints  domain.ConstraintsRepository
	Goals        planningDomain.GoalRepository
	Outbox       outbox.Repository
	UnitOfWork   sharedApplication.UnitOfWork
	Locker       lock.Locker
	Resolver     *services.ConflictResolver
	Availability *services.AvailabilityModel
	Progress     *services.ProgressAggregator
	// Timeout bounds every write, lock wait included.
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

// Mutator applies single-block edits: lock the user, open a transaction,
// load, propose, resolve, persist the block, its patched neighbours and
// the outbox events, commit. A rejected edit writes nothing.
type Mutator struct {
	blocks       domain.BlockRepository
	constraints  domain.ConstraintsRepository
	goals        planningDomain.GoalRepository
	outboxRepo   outbox.Repository
	uow          sharedApplication.UnitOfWork
	locker       lock.Locker
	resolver     *services.ConflictResolver
	availability *services.AvailabilityModel
	progress     *services.ProgressAggregator
	timeout      time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewMutator creates a Mutator. Missing helpers get defaults.
func NewMutator(d Deps) *Mutator {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Locker == nil {
		d.Locker = lock.NewLocalLocker()
	}
	if d.Resolver == nil {
		d.Resolver = services.NewConflictResolver(d.Logger)
	}
	if d.Availability == nil {
		d.Availability = services.NewAvailabilityModel()
	}
	if d.Progress == nil {
		d.Progress = services.NewProgressAggregator(d.Blocks, d.Goals, d.Constraints, d.Logger)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Mutator{
		blocks:       d.Blocks,
		constraints:  d.Constraints,
		goals:        d.Goals,
		outboxRepo:   d.Outbox,
		uow:          d.UnitOfWork,
		locker:       d.Locker,
		resolver:     d.Resolver,
		availability: d.Availability,
		progress:     d.Progress,
		timeout:      d.Timeout,
		logger:       d.Logger,
		now:          d.Now,
	}
}

// guarded runs fn under the persistence deadline and the user's lock.
func (m *Mutator) guarded(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error {
	return sharedApplication.WithDeadline(ctx, m.timeout, func(ctx context.Context) error {
		release, err := m.locker.Acquire(ctx, lock.CalendarKey(userID))
		if err != nil {
			return err
		}
		defer release()

		return fn(ctx)
	})
}

// locked runs fn in a unit of work under the user's lock.
func (m *Mutator) locked(ctx context.Context, userID uuid.UUID, fn sharedApplication.UnitOfWorkFunc) error {
	return m.guarded(ctx, userID, func(ctx context.Context) error {
		return sharedApplication.WithUnitOfWork(ctx, m.uow, fn)
	})
}

// publish stores events in the outbox with the command's metadata.
func (m *Mutator) publish(ctx context.Context, userID uuid.UUID, events []sharedDomain.DomainEvent) error {
	return publishEvents(ctx, m.outboxRepo, userID, events)
}

func publishEvents(ctx context.Context, repo outbox.Repository, userID uuid.UUID, events []sharedDomain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, userID))
	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}

func domainEvents(events ...sharedDomain.DomainEvent) []sharedDomain.DomainEvent {
	return events
}

// loadOwned returns the user's block or ErrBlockNotFound. Blocks of other
// users are reported as missing.
func (m *Mutator) loadOwned(ctx context.Context, userID, blockID uuid.UUID) (*domain.ScheduleBlock, error) {
	block, err := m.blocks.FindByID(ctx, blockID)
	if err != nil {
		return nil, fmt.Errorf("load block %s: %w", blockID, err)
	}
	if block == nil || block.UserID() != userID {
		return nil, domain.ErrBlockNotFound
	}
	return block, nil
}

// surroundings loads the blocks and constraint intervals around the given
// ranges.
func (m *Mutator) surroundings(ctx context.Context, userID uuid.UUID, ranges ...domain.TimeRange) ([]*domain.ScheduleBlock, []services.LabelledRange, error) {
	window := ranges[0]
	for _, r := range ranges[1:] {
		if r.Start.Before(window.Start) {
			window.Start = r.Start
		}
		if r.End.After(window.End) {
			window.End = r.End
		}
	}
	window = domain.TimeRange{Start: window.Start.Add(-neighbourhood), End: window.End.Add(neighbourhood)}

	current, err := m.blocks.FindInRange(ctx, userID, window.Start, window.End)
	if err != nil {
		return nil, nil, fmt.Errorf("load neighbours: %w", err)
	}

	c, err := m.constraints.FindByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load constraints: %w", err)
	}
	if c == nil {
		return current, nil, nil
	}
	fixed, invalid := m.availability.OccupiedInWindow(window, c)
	for date, err := range invalid {
		m.logger.Warn("constraints invalid near edit", "user_id", userID, "date", date, "error", err)
	}
	return current, fixed, nil
}

// change is one edit of a stored block.
type change struct {
	userID  uuid.UUID
	blockID uuid.UUID
	force   bool
	apply   func(b *domain.ScheduleBlock) error
}

// edit runs the load, propose, resolve and persist cycle for a stored
// block.
func (m *Mutator) edit(ctx context.Context, op string, c change) (*domain.ScheduleBlock, error) {
	var result *domain.ScheduleBlock

	err := m.locked(ctx, c.userID, func(txCtx context.Context) error {
		stored, err := m.loadOwned(txCtx, c.userID, c.blockID)
		if err != nil {
			return err
		}

		proposed := stored.Clone()
		if err := c.apply(proposed); err != nil {
			return err
		}

		current, fixed, err := m.surroundings(txCtx, c.userID, stored.Range(), proposed.Range())
		if err != nil {
			return err
		}
		res, err := m.resolver.Resolve(withStored(current, stored), services.Edit{
			Block: proposed,
			Force: c.force,
			Fixed: fixed,
		})
		if err != nil {
			return err
		}

		events, err := m.persist(txCtx, res)
		if err != nil {
			return err
		}

		if res.Block.Status() == domain.BlockStatusCompleted && stored.Status() != domain.BlockStatusCompleted {
			goalEvents, err := m.recordCompletion(txCtx, c.userID, res.Block)
			if err != nil {
				return err
			}
			events = append(events, goalEvents...)
		}

		if err := m.publish(txCtx, c.userID, events); err != nil {
			return err
		}
		result = res.Block
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("block "+op,
		"user_id", c.userID,
		"block_id", result.ID(),
		"start", result.Start(),
		"duration_minutes", result.DurationMinutes(),
		"status", result.Status(),
		"conflicted", result.IsConflicted(),
	)
	return result, nil
}

// persist saves the resolved block and patched neighbours and collects
// their events.
func (m *Mutator) persist(ctx context.Context, res *services.Resolution) ([]sharedDomain.DomainEvent, error) {
	if err := m.blocks.Save(ctx, res.Block); err != nil {
		return nil, fmt.Errorf("save block %s: %w", res.Block.ID(), err)
	}
	events := res.Block.DrainEvents()

	if len(res.Updated) > 0 {
		if err := m.blocks.SaveAll(ctx, res.Updated); err != nil {
			return nil, fmt.Errorf("save neighbours: %w", err)
		}
		for _, b := range res.Updated {
			events = append(events, b.DrainEvents()...)
		}
	}
	return events, nil
}

// recordCompletion marks the linked micro-goal complete when the completed
// sessions cover its criteria and refreshes the goal's progress snapshot.
func (m *Mutator) recordCompletion(ctx context.Context, userID uuid.UUID, block *domain.ScheduleBlock) ([]sharedDomain.DomainEvent, error) {
	if block.GoalID() == uuid.Nil {
		return nil, nil
	}
	goal, err := m.goals.FindByID(ctx, block.GoalID())
	if err != nil {
		return nil, fmt.Errorf("load goal %s: %w", block.GoalID(), err)
	}
	if goal == nil || goal.UserID() != userID {
		m.logger.Warn("completed block links a missing goal", "block_id", block.ID(), "goal_id", block.GoalID())
		return nil, nil
	}
	if goal.Status() == planningDomain.GoalStatusArchived {
		return nil, nil
	}

	changed := false
	if mg := goal.MicroGoal(block.MicroGoalID()); mg != nil && !mg.IsCompleted() {
		history, err := m.blocks.FindByGoal(ctx, goal.ID())
		if err != nil {
			return nil, fmt.Errorf("load goal sessions: %w", err)
		}
		if m.progress.MicroGoalCovered(mg, withStored(history, block)) {
			at := m.now()
			if block.CompletedAt() != nil {
				at = *block.CompletedAt()
			}
			if changed, err = goal.CompleteMicroGoal(mg.ID(), at); err != nil {
				return nil, err
			}
		}
	}
	if goal.RefreshProgress() {
		changed = true
	}
	if !changed {
		return nil, nil
	}

	if err := m.goals.Save(ctx, goal); err != nil {
		return nil, fmt.Errorf("save goal %s: %w", goal.ID(), err)
	}
	return goal.DrainEvents(), nil
}

func (m *Mutator) completionTime(at time.Time) time.Time {
	if at.IsZero() {
		return m.now()
	}
	return at
}

// withStored replaces or adds b in blocks by ID.
func withStored(blocks []*domain.ScheduleBlock, b *domain.ScheduleBlock) []*domain.ScheduleBlock {
	out := make([]*domain.ScheduleBlock, 0, len(blocks)+1)
	found := false
	for _, x := range blocks {
		if x.ID() == b.ID() {
			out = append(out, b)
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, b)
	}
	return out
}
