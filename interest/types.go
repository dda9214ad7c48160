/*
Package interest computes statutory late-payment interest on overdue
invoices under a piecewise-constant annual-rate schedule.

PURPOSE:
  Given an invoice principal, its due date, the partial payments made
  against it and a cutoff date, produce a day-exact, segment-by-segment
  breakdown of the interest owed. The timeline is partitioned twice:
  first into payment-bounded segments (principal is constant inside a
  segment), then each segment is split wherever the rate table changes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date:         A calendar day (see date.go)
  - Payment:      A principal reduction effective the day AFTER its date
  - Invoice:      Principal, due date and the payments made against it
  - RateInterval: A closed date range with one fixed annual percentage
  - LineItem:     One row of the accrual breakdown

DESIGN PRINCIPLES:
  1. Purity: Compute is a function of its inputs, holds no state between
     calls, and never mutates the Invoice it is given.
  2. Precision: Money and rates are decimal.Decimal, never float64.
  3. Exactness: Each line item is rounded to 2 decimals independently;
     the reported total is the sum of rounded line items.

USAGE:
  items := interest.Compute(principal, dueDate, inv.Payments, asOf, schedule)
  total := interest.TotalInterest(inv, schedule, asOf)

SEE ALSO:
  - engine.go: The segment/rate-overlap walk
  - rates:     Schedule validation and the statutory default table
*/
package interest

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE INTERVAL - One step of the piecewise rate schedule
// =============================================================================

// RateInterval applies a fixed annual percentage rate over the closed
// date range [Start, End]. Rate is a percentage: 7 means 7% per annum.
type RateInterval struct {
	Start Date
	End   Date
	Rate  decimal.Decimal
}

// Contains reports whether the date falls inside the interval.
func (ri RateInterval) Contains(d Date) bool {
	return d.AfterOrEqual(ri.Start) && d.BeforeOrEqual(ri.End)
}

// =============================================================================
// PAYMENT - Principal reduction
// =============================================================================

type PaymentKind string

const (
	// PaymentReal is a payment actually made by the debtor.
	PaymentReal PaymentKind = "real"

	// PaymentTerminal is the synthetic zero-amount payment the engine
	// appends at the cutoff date to close the final open segment. It is
	// never produced by callers and never reduces principal.
	PaymentTerminal PaymentKind = "terminal"
)

// Payment reduces outstanding principal effective the day after Date.
// Interest still accrues on the full pre-payment principal for the
// payment day itself.
type Payment struct {
	Date   Date
	Amount decimal.Decimal
	Kind   PaymentKind
}

// NewPayment creates a real payment.
func NewPayment(date Date, amount decimal.Decimal) Payment {
	return Payment{Date: date, Amount: amount, Kind: PaymentReal}
}

// =============================================================================
// INVOICE - Caller-owned entity the engine reads but never writes
// =============================================================================

// Invoice is an overdue receivable. Amount is the original principal,
// not a running balance: the outstanding balance during a computation is
// local to the engine and never written back.
type Invoice struct {
	ID       int64
	DueDate  Date
	Amount   decimal.Decimal
	Payments []Payment
}

// PaidTotal sums the real payments recorded on the invoice.
func (inv Invoice) PaidTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range inv.Payments {
		if p.Kind == PaymentTerminal {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total
}

// =============================================================================
// LINE ITEM - One row of the accrual breakdown
// =============================================================================

// LineItem is the interest accrued over [PeriodFrom, PeriodTo] on a
// constant principal at a constant rate. Days counts both endpoints.
// Line items are ephemeral: produced fresh per computation, never stored.
type LineItem struct {
	PeriodFrom Date
	PeriodTo   Date
	Rate       decimal.Decimal
	Days       int
	Principal  decimal.Decimal
	Interest   decimal.Decimal
}

// SumInterest adds up the per-item interest. The sum of the rounded line
// items IS the reported total; the total is never re-rounded.
func SumInterest(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Interest)
	}
	return total
}
