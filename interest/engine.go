/*
engine.go - Segment-by-segment interest accrual

PURPOSE:
  Implements the core computation: partition the timeline between due
  date and cutoff into payment-bounded segments, split each segment at
  rate-table boundaries, and emit one line item per (segment, rate)
  overlap.

DAY-COUNT CONVENTION:
  Interest runs from the due date INCLUSIVE to the payment date
  INCLUSIVE. A payment reduces principal from the following day. Every
  line item uses the simple/linear convention: no compounding, always
  divided by 365 regardless of leap years.

ROUNDING:
  Each line item is rounded to 2 decimal places on its own. The total is
  the sum of the rounded items; it is never re-rounded. Refactoring this
  to round the final sum changes multi-segment results at the cent
  level.

SEE ALSO:
  - types.go: Payment, Invoice, RateInterval, LineItem
  - rates:    Schedule validation; pass rates.Table.EffectiveIntervals()
              output as the schedule argument
*/
package interest

import (
	"sort"

	"github.com/shopspring/decimal"
)

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// =============================================================================
// COMPUTE - The accrual walk
// =============================================================================

// Compute returns the chronological interest breakdown for a principal
// due on dueDate, given the payments made against it, up to and
// including cutoff. The schedule must be validated and sorted by start
// date ascending (see the rates package); Compute takes it as an
// immutable snapshot and reads it without further checks.
//
// Compute never mutates its arguments and keeps no state between calls.
func Compute(principal decimal.Decimal, dueDate Date, payments []Payment, cutoff Date, schedule []RateInterval) []LineItem {
	if principal.IsZero() {
		return nil
	}

	sorted := make([]Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	// A full payoff on or before the due date never enters arrears:
	// without this check the payment day itself would accrue one day of
	// interest on the full principal.
	if len(sorted) > 0 &&
		sorted[0].Date.BeforeOrEqual(dueDate) &&
		sorted[0].Amount.GreaterThanOrEqual(principal) {
		return nil
	}

	// Synthetic terminal payment: closes the last open segment at the
	// cutoff date. Zero amount, tagged so it can never leak into output
	// as a real payment.
	sorted = append(sorted, Payment{Date: cutoff, Kind: PaymentTerminal})

	var items []LineItem
	outstanding := principal
	segmentStart := dueDate
	rateIdx := 0

	for _, pay := range sorted {
		segmentEnd := pay.Date.Min(cutoff)

		// A payment dated before the current segment start (a payment
		// before the due date, or a second payment on the same day)
		// yields a zero-day segment: no interest accrues for it. The
		// payment still reduces principal below.
		if segmentStart.BeforeOrEqual(segmentEnd) {
			for rateIdx < len(schedule) && schedule[rateIdx].End.Before(segmentStart) {
				rateIdx++
			}
			for j := rateIdx; j < len(schedule); j++ {
				ri := schedule[j]
				if ri.Start.After(segmentEnd) {
					break
				}
				periodFrom := segmentStart.Max(ri.Start)
				periodTo := segmentEnd.Min(ri.End)
				if periodTo.Before(periodFrom) || !outstanding.IsPositive() {
					continue
				}
				days := DaysBetween(periodFrom, periodTo)
				items = append(items, LineItem{
					PeriodFrom: periodFrom,
					PeriodTo:   periodTo,
					Rate:       ri.Rate,
					Days:       days,
					Principal:  outstanding,
					Interest:   interestFor(outstanding, ri.Rate, days),
				})
			}
		}

		// Principal shrinks from the day after the payment, never below
		// zero (overpayments clear the balance, they do not flip sign).
		outstanding = decimal.Max(outstanding.Sub(pay.Amount), decimal.Zero)
		segmentStart = pay.Date.AddDays(1)
		if segmentStart.After(cutoff) {
			break
		}
	}

	return items
}

// interestFor applies the simple day-count formula and rounds the
// result to 2 decimals: principal * rate% * days / 365.
func interestFor(principal, ratePercent decimal.Decimal, days int) decimal.Decimal {
	return principal.
		Mul(ratePercent).
		Mul(decimal.NewFromInt(int64(days))).
		Div(hundred).
		Div(daysPerYear).
		Round(2)
}

// =============================================================================
// AGGREGATION
// =============================================================================

// TotalInterest computes the interest owed on an invoice as of a date:
// the sum of the breakdown's line items, or zero when there are none.
// A zero-amount invoice short-circuits without running the segment walk.
func TotalInterest(inv Invoice, schedule []RateInterval, asOf Date) decimal.Decimal {
	if inv.Amount.IsZero() {
		return decimal.Zero
	}
	return SumInterest(Compute(inv.Amount, inv.DueDate, inv.Payments, asOf, schedule))
}
