package services

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/google/uuid"
)

// ConflictPair is two occupying blocks that overlap.
type ConflictPair struct {
	A            uuid.UUID        `json:"a"`
	B            uuid.UUID        `json:"b"`
	Overlap      domain.TimeRange `json:"overlap"`
	Acknowledged bool             `json:"acknowledged"`
}

// Edit is a proposed change to one block. Block holds the proposed state;
// the stored state, if any, is found in the current set by ID.
type Edit struct {
	Block  *domain.ScheduleBlock
	Remove bool
	Force  bool
	// Fixed are the constraint-derived intervals goal sessions may not
	// overlap.
	Fixed []LabelledRange
}

// Resolution is an accepted edit: the block in its final state and the
// neighbours whose conflict flag changed.
type Resolution struct {
	Block   *domain.ScheduleBlock
	Updated []*domain.ScheduleBlock
}

// ConflictResolver checks edits against the no-overlap invariant. It never
// moves other blocks.
type ConflictResolver struct {
	logger *slog.Logger
}

// NewConflictResolver creates a new conflict resolver.
func NewConflictResolver(logger *slog.Logger) *ConflictResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictResolver{logger: logger}
}

// Validate lists every pair of occupying blocks overlapping inside window.
func (r *ConflictResolver) Validate(blocks []*domain.ScheduleBlock, window domain.TimeRange) []ConflictPair {
	occupying := make([]*domain.ScheduleBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Occupies() && b.Range().Overlaps(window) {
			occupying = append(occupying, b)
		}
	}
	sort.SliceStable(occupying, func(i, j int) bool {
		return occupying[i].Start().Before(occupying[j].Start())
	})

	var pairs []ConflictPair
	for i, a := range occupying {
		for _, b := range occupying[i+1:] {
			if !b.Start().Before(a.End()) {
				break
			}
			overlap, ok := a.Range().Intersect(b.Range())
			if !ok {
				continue
			}
			if clipped, ok := overlap.Intersect(window); ok {
				pairs = append(pairs, ConflictPair{
					A:            a.ID(),
					B:            b.ID(),
					Overlap:      clipped,
					Acknowledged: a.IsConflicted() && b.IsConflicted(),
				})
			}
		}
	}
	return pairs
}

// Resolve checks one edit against the current blocks. Without force a
// collision returns *domain.ConflictError and nothing is changed. With
// force the block and every colliding block are flagged. An edit that
// leaves an occupying block where it was (status, notes) is never
// rejected; its collisions are flagged as if forced. Flags are then
// cleared on affected blocks that no longer overlap anything. Blocks in
// current are never modified; changed neighbours are returned as clones.
func (r *ConflictResolver) Resolve(current []*domain.ScheduleBlock, edit Edit) (*Resolution, error) {
	block := edit.Block
	var previous *domain.ScheduleBlock
	others := make([]*domain.ScheduleBlock, 0, len(current))
	for _, b := range current {
		if b.ID() == block.ID() {
			previous = b
			continue
		}
		others = append(others, b)
	}

	var (
		colliding []*domain.ScheduleBlock
		labels    []string
	)
	if !edit.Remove && block.Occupies() {
		colliding = collidingBlocks(block, others)
		labels = collidingLabels(block, edit.Fixed)
	}

	inPlace := previous != nil && previous.Occupies() && previous.Range().Equal(block.Range())
	if len(colliding)+len(labels) > 0 && !edit.Force && !inPlace {
		ids := make([]uuid.UUID, 0, len(colliding))
		for _, b := range colliding {
			ids = append(ids, b.ID())
		}
		r.logger.Debug("edit rejected",
			"block_id", block.ID(),
			"colliding", len(ids),
			"constraints", labels,
		)
		return nil, &domain.ConflictError{BlockID: block.ID(), Colliding: ids, Constraints: labels}
	}

	clones := make(map[uuid.UUID]*domain.ScheduleBlock)
	clone := func(b *domain.ScheduleBlock) *domain.ScheduleBlock {
		if c, ok := clones[b.ID()]; ok {
			return c
		}
		c := b.Clone()
		clones[b.ID()] = c
		return c
	}
	changed := make(map[uuid.UUID]bool)

	if len(colliding)+len(labels) > 0 {
		block.FlagConflict()
		for _, b := range colliding {
			if clone(b).FlagConflict() {
				changed[b.ID()] = true
			}
		}
		r.logger.Info("conflict forced",
			"block_id", block.ID(),
			"colliding", len(colliding),
			"constraints", labels,
		)
	}

	// The final set, with neighbours in their possibly flagged state.
	final := make([]*domain.ScheduleBlock, 0, len(others)+1)
	for _, b := range others {
		if c, ok := clones[b.ID()]; ok {
			final = append(final, c)
			continue
		}
		final = append(final, b)
	}
	if !edit.Remove {
		final = append(final, block)
	}

	// Only the edited block and the neighbours it used to overlap can have
	// lost their last overlap.
	candidates := make([]*domain.ScheduleBlock, 0)
	if !edit.Remove {
		candidates = append(candidates, block)
	}
	if previous != nil && previous.Occupies() {
		for _, b := range others {
			if b.Occupies() && b.OverlapsWith(previous) {
				candidates = append(candidates, b)
			}
		}
	}
	for _, b := range candidates {
		if !b.IsConflicted() {
			continue
		}
		target := b
		if b != block {
			target = clone(b)
		}
		if target.Occupies() && (len(collidingBlocks(target, final)) > 0 || len(collidingLabels(target, edit.Fixed)) > 0) {
			continue
		}
		if target.ClearConflict() && target != block {
			changed[b.ID()] = true
		}
	}

	res := &Resolution{Block: block}
	for _, b := range others {
		if changed[b.ID()] {
			res.Updated = append(res.Updated, clones[b.ID()])
		}
	}
	return res, nil
}

// BatchResolution is the outcome of several edits applied in order.
type BatchResolution struct {
	Blocks  []*domain.ScheduleBlock
	Updated []*domain.ScheduleBlock
}

// ResolveBatch applies edits in order, each against the result of the
// previous ones. The first rejected edit aborts the batch. Removals are
// not batched.
func (r *ConflictResolver) ResolveBatch(current []*domain.ScheduleBlock, edits []Edit) (*BatchResolution, error) {
	for _, edit := range edits {
		if edit.Remove {
			return nil, fmt.Errorf("%w: removal in batch for block %s", sharedDomain.ErrInvariantViolation, edit.Block.ID())
		}
	}

	working := make([]*domain.ScheduleBlock, len(current))
	copy(working, current)
	index := make(map[uuid.UUID]int, len(working))
	for i, b := range working {
		index[b.ID()] = i
	}
	edited := make(map[uuid.UUID]bool)
	updated := make(map[uuid.UUID]bool)

	out := &BatchResolution{}
	for _, edit := range edits {
		res, err := r.Resolve(working, edit)
		if err != nil {
			return nil, err
		}
		for _, u := range res.Updated {
			working[index[u.ID()]] = u
			if !edited[u.ID()] {
				updated[u.ID()] = true
			}
		}
		if i, ok := index[res.Block.ID()]; ok {
			working[i] = res.Block
		} else {
			index[res.Block.ID()] = len(working)
			working = append(working, res.Block)
		}
		edited[res.Block.ID()] = true
		delete(updated, res.Block.ID())
		out.Blocks = append(out.Blocks, res.Block)
	}

	for _, b := range working {
		if updated[b.ID()] {
			out.Updated = append(out.Updated, b)
		}
	}
	// Edited blocks that were flagged later by another edit need their
	// latest state.
	for i, b := range out.Blocks {
		out.Blocks[i] = working[index[b.ID()]]
	}
	return out, nil
}

func collidingBlocks(block *domain.ScheduleBlock, others []*domain.ScheduleBlock) []*domain.ScheduleBlock {
	var out []*domain.ScheduleBlock
	for _, b := range others {
		if b.ID() == block.ID() || !b.Occupies() {
			continue
		}
		if block.OverlapsWith(b) {
			out = append(out, b)
		}
	}
	return out
}

func collidingLabels(block *domain.ScheduleBlock, fixed []LabelledRange) []string {
	if !block.IsGoalSession() {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, lr := range fixed {
		if block.Range().Overlaps(lr.Range) && !seen[lr.Label] {
			seen[lr.Label] = true
			out = append(out, lr.Label)
		}
	}
	return out
}
