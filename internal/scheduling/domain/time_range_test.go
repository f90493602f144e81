package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func rng(h1, m1, h2, m2 int) domain.TimeRange {
	return domain.TimeRange{Start: at(h1, m1), End: at(h2, m2)}
}

func TestTimeRange_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.TimeRange
		want bool
	}{
		{"disjoint", rng(9, 0, 10, 0), rng(11, 0, 12, 0), false},
		{"touching", rng(9, 0, 10, 0), rng(10, 0, 11, 0), false},
		{"partial", rng(9, 0, 10, 30), rng(10, 0, 11, 0), true},
		{"contained", rng(9, 0, 12, 0), rng(10, 0, 11, 0), true},
		{"identical", rng(9, 0, 10, 0), rng(9, 0, 10, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestTimeRange_Intersect(t *testing.T) {
	r, ok := rng(9, 0, 11, 0).Intersect(rng(10, 0, 12, 0))
	assert.True(t, ok)
	assert.Equal(t, rng(10, 0, 11, 0), r)

	_, ok = rng(9, 0, 10, 0).Intersect(rng(10, 0, 12, 0))
	assert.False(t, ok)
}

func TestMergeRanges(t *testing.T) {
	merged := domain.MergeRanges([]domain.TimeRange{
		rng(14, 0, 15, 0),
		rng(9, 0, 10, 0),
		rng(9, 30, 11, 0),
		rng(11, 0, 11, 30),
		rng(16, 0, 16, 0),
	})

	assert.Equal(t, []domain.TimeRange{rng(9, 0, 11, 30), rng(14, 0, 15, 0)}, merged)
}

func TestSubtractRange(t *testing.T) {
	free := []domain.TimeRange{rng(7, 0, 23, 0)}

	t.Run("split in two", func(t *testing.T) {
		out := domain.SubtractRange(free, rng(9, 0, 17, 0))
		assert.Equal(t, []domain.TimeRange{rng(7, 0, 9, 0), rng(17, 0, 23, 0)}, out)
	})

	t.Run("trim start", func(t *testing.T) {
		out := domain.SubtractRange(free, rng(6, 0, 8, 0))
		assert.Equal(t, []domain.TimeRange{rng(8, 0, 23, 0)}, out)
	})

	t.Run("remove entirely", func(t *testing.T) {
		out := domain.SubtractRange(free, rng(6, 0, 23, 30))
		assert.Empty(t, out)
	})

	t.Run("no overlap", func(t *testing.T) {
		out := domain.SubtractRange(free, rng(23, 0, 23, 30))
		assert.Equal(t, free, out)
	})
}

func TestSubtractRanges_TotalMinutes(t *testing.T) {
	free := domain.SubtractRanges([]domain.TimeRange{rng(7, 0, 23, 0)}, []domain.TimeRange{
		rng(18, 0, 19, 0),
		rng(9, 0, 17, 0),
		rng(18, 30, 19, 30),
	})

	assert.Equal(t, []domain.TimeRange{rng(7, 0, 9, 0), rng(17, 0, 18, 0), rng(19, 30, 23, 0)}, free)
	assert.Equal(t, 120+60+210, domain.TotalMinutes(free))
}
