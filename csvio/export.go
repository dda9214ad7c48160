package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/latepay/arrears/interest"
)

// =============================================================================
// STATE EXPORT
// =============================================================================

// ExportState writes invoices and their payments in the flat record
// format, header first. Dates are always emitted as YYYY-MM-DD
// regardless of how they were imported. Terminal payments never exist
// on an Invoice, but skip them anyway if a caller hands us engine
// internals.
func ExportState(w io.Writer, invoices []interest.Invoice) error {
	writer := newWriter(w)

	if err := writer.Write(stateHeader); err != nil {
		return err
	}
	for _, inv := range invoices {
		id := strconv.FormatInt(inv.ID, 10)
		row := []string{RecordInvoice, id, inv.DueDate.String(), inv.Amount.String(), "", ""}
		if err := writer.Write(row); err != nil {
			return err
		}
		for _, p := range inv.Payments {
			if p.Kind == interest.PaymentTerminal {
				continue
			}
			row := []string{RecordPayment, id, "", "", p.Date.String(), p.Amount.String()}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// =============================================================================
// BREAKDOWN EXPORT
// =============================================================================

// ExportBreakdown writes an accrual breakdown as delimited text, one
// row per line item, in the order the engine produced them.
func ExportBreakdown(w io.Writer, items []interest.LineItem) error {
	writer := newWriter(w)

	if err := writer.Write(breakdownHeader); err != nil {
		return err
	}
	for _, it := range items {
		row := []string{
			it.PeriodFrom.String(),
			it.PeriodTo.String(),
			it.Rate.String(),
			strconv.Itoa(it.Days),
			it.Principal.String(),
			it.Interest.StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func newWriter(w io.Writer) *csv.Writer {
	writer := csv.NewWriter(w)
	writer.Comma = Delimiter
	return writer
}
