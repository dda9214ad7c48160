/*
Package rates owns the statutory interest-rate schedule.

PURPOSE:
  Holds the piecewise-constant rate table the accrual engine reads: an
  ordered set of closed date ranges, each with one fixed annual
  percentage. The package validates the schedule, guards concurrent
  edits, and hands the engine an immutable snapshot.

KEY CONCEPTS:
  - Validate:  Sort-then-walk pairwise check (reversed / overlap / gap)
  - Table:     The process-wide mutable schedule. Every mutation is
               validated against a candidate copy first; a rejected edit
               leaves the table at its last-valid state.
  - Snapshot:  EffectiveIntervals() returns a validated, sorted,
               normalized copy, so an in-flight computation never sees a
               concurrent edit.

NORMALIZATION:
  Stored rates greater than 20 are divided by 100 before use. This is a
  defensive heuristic against confusingly entered data (750 meaning
  7.50%); the threshold is literally 20.

USAGE:
  table := rates.NewDefaultTable()
  schedule, err := table.EffectiveIntervals()
  if err != nil { ... }
  items := interest.Compute(principal, due, payments, cutoff, schedule)

SEE ALSO:
  - default.go: The statutory seed schedule
  - file.go:    YAML schedule loading
*/
package rates

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/latepay/arrears/interest"
)

// normalizationCutoff separates percentages from confusingly scaled
// entries: anything above it is divided by 100 before use.
var normalizationCutoff = decimal.NewFromInt(20)

// =============================================================================
// TABLE - Mutable schedule with validated mutations
// =============================================================================

// Table is a mutable rate schedule safe for concurrent use. The zero
// value is not usable; construct with New or NewDefaultTable.
type Table struct {
	mu        sync.RWMutex
	intervals []interest.RateInterval // always sorted by start, always valid
}

// New builds a table from the given intervals, rejecting an invalid
// schedule outright.
func New(intervals []interest.RateInterval) (*Table, error) {
	if err := Validate(intervals); err != nil {
		return nil, err
	}
	return &Table{intervals: sortedByStart(intervals)}, nil
}

// NewDefaultTable builds a table seeded with the statutory schedule.
func NewDefaultTable() *Table {
	t, err := New(DefaultSchedule())
	if err != nil {
		// The seed schedule is package data; it cannot fail validation.
		panic(err)
	}
	return t
}

// Len returns the number of intervals.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.intervals)
}

// Intervals returns a sorted copy of the table as stored, without
// normalization. Intended for display and editing UIs.
func (t *Table) Intervals() []interest.RateInterval {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]interest.RateInterval, len(t.intervals))
	copy(out, t.intervals)
	return out
}

// EffectiveIntervals validates the table and returns the snapshot the
// accrual engine consumes: sorted by start date, rates normalized.
// Validation before every read is deliberate; a computation must never
// run on a schedule that would no longer pass.
func (t *Table) EffectiveIntervals() ([]interest.RateInterval, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := Validate(t.intervals); err != nil {
		return nil, err
	}

	out := make([]interest.RateInterval, len(t.intervals))
	copy(out, t.intervals)
	for i := range out {
		out[i].Rate = normalizeRate(out[i].Rate)
	}
	return out, nil
}

// =============================================================================
// MUTATIONS - Validate the candidate, then swap
// =============================================================================

// Add inserts an interval. The whole candidate schedule is re-validated
// first; on failure the table is unchanged and the error is returned.
func (t *Table) Add(ri interest.RateInterval) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	candidate := append(t.copyIntervals(), ri)
	if err := Validate(candidate); err != nil {
		return err
	}
	t.intervals = sortedByStart(candidate)
	return nil
}

// Edit replaces the interval at index (in start-date order).
func (t *Table) Edit(index int, ri interest.RateInterval) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.intervals) {
		return ErrIndexOutOfRange
	}
	candidate := t.copyIntervals()
	candidate[index] = ri
	if err := Validate(candidate); err != nil {
		return err
	}
	t.intervals = sortedByStart(candidate)
	return nil
}

// Remove deletes the interval at index (in start-date order). Removal
// can fail too: deleting a middle interval leaves a gap.
func (t *Table) Remove(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.intervals) {
		return ErrIndexOutOfRange
	}
	candidate := append(t.copyIntervals()[:index], t.intervals[index+1:]...)
	if err := Validate(candidate); err != nil {
		return err
	}
	t.intervals = candidate
	return nil
}

// Replace swaps the whole schedule after validating it.
func (t *Table) Replace(intervals []interest.RateInterval) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := Validate(intervals); err != nil {
		return err
	}
	t.intervals = sortedByStart(intervals)
	return nil
}

func (t *Table) copyIntervals() []interest.RateInterval {
	out := make([]interest.RateInterval, len(t.intervals))
	copy(out, t.intervals)
	return out
}

func normalizeRate(r decimal.Decimal) decimal.Decimal {
	if r.GreaterThan(normalizationCutoff) {
		return r.Div(decimal.NewFromInt(100))
	}
	return r
}
