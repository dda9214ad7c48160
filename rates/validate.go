package rates

import (
	"sort"

	"github.com/latepay/arrears/interest"
)

// =============================================================================
// SCHEDULE VALIDATION
// =============================================================================

// Validate checks that a set of rate intervals forms a usable schedule:
// every interval runs forward, no two intervals share a date, and each
// interval starts on the day after the previous one ends (an end on
// Monday followed by a start on Tuesday is correct adjacency; a start
// on Wednesday leaves Tuesday uncovered and is a gap).
//
// The input is sorted by start date into a copy first, so validation is
// independent of caller order and never mutates the argument. The first
// violation found is returned.
func Validate(intervals []interest.RateInterval) error {
	sorted := sortedByStart(intervals)

	for i, ri := range sorted {
		if ri.Start.After(ri.End) {
			return &ReversedRangeError{Index: i, Interval: ri}
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if !ri.Start.After(prev.End) {
			return &OverlapError{Index: i, Previous: prev, Current: ri}
		}
		if ri.Start.After(prev.End.AddDays(1)) {
			return &GapError{
				Index:    i,
				Previous: prev,
				Current:  ri,
				Days:     interest.DaysBetween(prev.End, ri.Start) - 2,
			}
		}
	}
	return nil
}

func sortedByStart(intervals []interest.RateInterval) []interest.RateInterval {
	sorted := make([]interest.RateInterval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}
