package domain

import (
	"sort"
	"time"
)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeRange builds a range from a start and a length in minutes.
func NewTimeRange(start time.Time, minutes int) TimeRange {
	return TimeRange{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

// Overlaps reports whether two ranges share any instant. Touching ranges
// do not overlap.
func (t TimeRange) Overlaps(other TimeRange) bool {
	return t.Start.Before(other.End) && other.Start.Before(t.End)
}

// Contains reports whether other lies fully inside t.
func (t TimeRange) Contains(other TimeRange) bool {
	return !other.Start.Before(t.Start) && !other.End.After(t.End)
}

// Duration returns the length of the range.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Minutes returns the length of the range in whole minutes.
func (t TimeRange) Minutes() int {
	return int(t.Duration() / time.Minute)
}

// Equal reports whether both ranges cover the same instants.
func (t TimeRange) Equal(other TimeRange) bool {
	return t.Start.Equal(other.Start) && t.End.Equal(other.End)
}

// IsEmpty reports zero-length and inverted ranges.
func (t TimeRange) IsEmpty() bool {
	return !t.End.After(t.Start)
}

// Intersect returns the overlap of two ranges and whether it is non-empty.
func (t TimeRange) Intersect(other TimeRange) (TimeRange, bool) {
	r := TimeRange{Start: latest(t.Start, other.Start), End: earliest(t.End, other.End)}
	return r, !r.IsEmpty()
}

// MergeRanges sorts ranges and unions the overlapping or touching ones.
// Empty ranges are dropped. The input is not modified.
func MergeRanges(ranges []TimeRange) []TimeRange {
	sorted := make([]TimeRange, 0, len(ranges))
	for _, r := range ranges {
		if !r.IsEmpty() {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]TimeRange, 0, len(sorted))
	for _, r := range sorted {
		if n := len(merged); n > 0 && !r.Start.After(merged[n-1].End) {
			merged[n-1].End = latest(merged[n-1].End, r.End)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// SubtractRange removes cut from every range in free. Each range is split
// into zero, one or two pieces; order is preserved.
func SubtractRange(free []TimeRange, cut TimeRange) []TimeRange {
	if cut.IsEmpty() {
		return free
	}

	out := make([]TimeRange, 0, len(free)+1)
	for _, r := range free {
		if !r.Overlaps(cut) {
			out = append(out, r)
			continue
		}
		if r.Start.Before(cut.Start) {
			out = append(out, TimeRange{Start: r.Start, End: cut.Start})
		}
		if cut.End.Before(r.End) {
			out = append(out, TimeRange{Start: cut.End, End: r.End})
		}
	}
	return out
}

// SubtractRanges removes every cut from free.
func SubtractRanges(free []TimeRange, cuts []TimeRange) []TimeRange {
	for _, cut := range MergeRanges(cuts) {
		free = SubtractRange(free, cut)
	}
	return free
}

// TotalMinutes sums the length of the ranges.
func TotalMinutes(ranges []TimeRange) int {
	total := 0
	for _, r := range ranges {
		total += r.Minutes()
	}
	return total
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
