package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/latepay/arrears/interest"
)

// =============================================================================
// STATE IMPORT - invoice and payment records
// =============================================================================

// ImportState reads a full application state file. Invoices come back
// in file order with their payments attached. Malformed rows and
// payment rows referencing an unknown invoice are collected as
// RowErrors; the rest of the file still imports. The returned error is
// non-nil only when the stream itself cannot be read.
func ImportState(r io.Reader) ([]interest.Invoice, []RowError, error) {
	reader := newReader(r)

	var (
		invoices []interest.Invoice
		byID     = map[int64]int{} // invoice id -> index in invoices
		rowErrs  []RowError
		line     int
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if line == 1 && isStateHeader(record) {
			continue
		}
		if len(record) < len(stateHeader) {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("expected %d fields, got %d", len(stateHeader), len(record))})
			continue
		}

		id, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("malformed invoice_id %q", record[1])})
			continue
		}

		switch strings.ToLower(strings.TrimSpace(record[0])) {
		case RecordInvoice:
			due, err := parseDate(record[2])
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Err: err})
				continue
			}
			amount, err := parseAmount(record[3])
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Err: err})
				continue
			}
			byID[id] = len(invoices)
			invoices = append(invoices, interest.Invoice{ID: id, DueDate: due, Amount: amount})

		case RecordPayment:
			date, err := parseDate(record[4])
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Err: err})
				continue
			}
			amount, err := parseAmount(record[5])
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Err: err})
				continue
			}
			idx, ok := byID[id]
			if !ok {
				rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("payment references unknown invoice %d", id)})
				continue
			}
			invoices[idx].Payments = append(invoices[idx].Payments, interest.NewPayment(date, amount))

		default:
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("unknown record type %q", record[0])})
		}
	}

	return invoices, rowErrs, nil
}

// =============================================================================
// PLAIN INVOICE IMPORT - due_date;amount rows
// =============================================================================

// ImportInvoices reads the bare two-column format:
//
//	2024-01-10;1450.00
//	2024-02-10;1450.00
//
// A leading due_date;amount header row is tolerated and skipped.
// New invoices get sequential ids starting at nextID.
func ImportInvoices(r io.Reader, nextID int64) ([]interest.Invoice, []RowError, error) {
	reader := newReader(r)

	var (
		invoices []interest.Invoice
		rowErrs  []RowError
		line     int
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if line == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "due_date") {
			continue
		}
		if len(record) < 2 {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("expected 2 fields, got %d", len(record))})
			continue
		}

		due, err := parseDate(record[0])
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		amount, err := parseAmount(record[1])
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}

		invoices = append(invoices, interest.Invoice{ID: nextID, DueDate: due, Amount: amount})
		nextID++
	}

	return invoices, rowErrs, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1 // row length checked per record type
	reader.TrimLeadingSpace = true
	return reader
}

func isStateHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), stateHeader[0])
}
