/*
errors.go - Rate-schedule validation errors

PURPOSE:
  All validation failures a rate table can produce, in one place.
  Structured errors carry the interval index and offending dates so a
  human can fix the schedule without reading code; each unwraps to a
  sentinel for errors.Is checks.

SEE ALSO:
  - validate.go: Produces these errors
  - table.go:    Rejects mutations that produce them
*/
package rates

import (
	"errors"
	"fmt"

	"github.com/latepay/arrears/interest"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrReversedRange is returned when an interval's start postdates its end.
	ErrReversedRange = errors.New("rate interval start after end")

	// ErrOverlap is returned when two intervals share at least one date.
	ErrOverlap = errors.New("rate intervals overlap")

	// ErrGap is returned when consecutive intervals leave more than one
	// calendar day uncovered.
	ErrGap = errors.New("gap between rate intervals")

	// ErrIndexOutOfRange is returned when an edit or removal references
	// an interval index the table does not have.
	ErrIndexOutOfRange = errors.New("rate interval index out of range")
)

// =============================================================================
// STRUCTURED ERRORS - Carry interval context
// =============================================================================

// Indexes in these errors refer to positions in the start-date-sorted
// schedule, not the caller's input order.

// ReversedRangeError reports a single interval whose start is after its end.
type ReversedRangeError struct {
	Index    int
	Interval interest.RateInterval
}

func (e *ReversedRangeError) Error() string {
	return fmt.Sprintf("rate interval %d is reversed: start %s after end %s",
		e.Index, e.Interval.Start, e.Interval.End)
}

func (e *ReversedRangeError) Unwrap() error { return ErrReversedRange }

// OverlapError reports an interval starting on or before the previous
// interval's end.
type OverlapError struct {
	Index    int // the later interval
	Previous interest.RateInterval
	Current  interest.RateInterval
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("rate intervals %d and %d overlap: [%s, %s] and [%s, %s]",
		e.Index-1, e.Index,
		e.Previous.Start, e.Previous.End,
		e.Current.Start, e.Current.End)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// GapError reports consecutive intervals more than one day apart.
type GapError struct {
	Index    int // the later interval
	Previous interest.RateInterval
	Current  interest.RateInterval
	Days     int // uncovered days between the two
}

func (e *GapError) Error() string {
	return fmt.Sprintf("gap of %d day(s) between rate intervals %d and %d: %s to %s",
		e.Days, e.Index-1, e.Index, e.Previous.End, e.Current.Start)
}

func (e *GapError) Unwrap() error { return ErrGap }

// IsValidationError reports whether the error is one of the schedule
// validation failures (as opposed to an index or I/O problem).
func IsValidationError(err error) bool {
	return errors.Is(err, ErrReversedRange) ||
		errors.Is(err, ErrOverlap) ||
		errors.Is(err, ErrGap)
}
