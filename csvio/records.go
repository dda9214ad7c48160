/*
Package csvio reads and writes the flat CSV exchange format for
invoices, payments and interest breakdowns.

PURPOSE:
  The application's state travels as semicolon-delimited text: one row
  per invoice, one row per payment, tied together by invoice id. This
  package parses that format leniently (two accepted date layouts,
  decimal comma tolerated) and emits it strictly (ISO dates, decimal
  point).

RECORD FORMAT (state files):
  type;invoice_id;due_date;amount;payment_date;payment_amount
  invoice;1;2024-01-10;1450.00;;
  payment;1;;;2024-02-01;500.00

ERROR MODEL:
  Rows are independent. A malformed row is reported as a RowError and
  skipped; the remaining rows still import. Only an unreadable stream
  fails the whole import.

SEE ALSO:
  - import.go: State and plain-invoice importers
  - export.go: State and breakdown exporters
*/
package csvio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/latepay/arrears/interest"
)

// Delimiter used by every file this package reads or writes.
const Delimiter = ';'

// Record types in state files.
const (
	RecordInvoice = "invoice"
	RecordPayment = "payment"
)

var stateHeader = []string{"type", "invoice_id", "due_date", "amount", "payment_date", "payment_amount"}

// breakdownHeader matches the engine output interface: one row per line
// item, chronological.
var breakdownHeader = []string{"period_from", "period_to", "rate_percent", "days", "principal", "interest"}

// =============================================================================
// ROW-LEVEL ERRORS
// =============================================================================

// ErrMalformedDate is returned when a date string matches neither
// accepted import format.
var ErrMalformedDate = errors.New("malformed date")

// MalformedDateError reports the offending value.
type MalformedDateError struct {
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q (want YYYY-MM-DD or DD.MM.YYYY)", e.Value)
}

func (e *MalformedDateError) Unwrap() error { return ErrMalformedDate }

// RowError ties a parse failure to its 1-based line number so the
// caller can point a human at the exact row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// =============================================================================
// FIELD PARSING
// =============================================================================

const dottedDate = "02.01.2006"

func timeParse(layout, s string) (interest.Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return interest.Date{}, err
	}
	return interest.DateOf(t), nil
}

// parseDate accepts the two import layouts. Export always emits ISO.
func parseDate(s string) (interest.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := interest.ParseDate(s); err == nil {
		return d, nil
	}
	if t, err := timeParse(dottedDate, s); err == nil {
		return t, nil
	}
	return interest.Date{}, &MalformedDateError{Value: s}
}

// parseAmount tolerates a decimal comma ("105,44").
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed amount %q", s)
	}
	return amount, nil
}
