package interest

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date
// =============================================================================

// Date is a calendar day in UTC. Interest accrual works in whole days:
// both segment boundaries and rate boundaries are inclusive dates, so
// anything finer than a day would only invite off-by-one bugs.
type Date struct {
	t time.Time
}

// ISODate is the canonical date layout used across the system.
const ISODate = "2006-01-02"

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.t.AddDate(0, 0, n)) }

// Min returns the earlier of two dates.
func (d Date) Min(other Date) Date {
	if d.Before(other) {
		return d
	}
	return other
}

// Max returns the later of two dates.
func (d Date) Max(other Date) Date {
	if d.After(other) {
		return d
	}
	return other
}

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) String() string { return d.t.Format(ISODate) }

// DaysBetween returns the number of calendar days from one date to another
// with both endpoints counted. DaysBetween(Jan 1, Jan 31) is 31: this is the
// statutory convention where interest runs from the due date inclusive to the
// payment date inclusive.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours()/24) + 1
}
