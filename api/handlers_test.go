/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Invoice CRUD over HTTP
- Payment add/edit/remove by position
- Interest breakdown endpoint with as_of
- Rate schedule edits (rejection keeps last-valid table)
- Whole-state CSV import/export round trip
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latepay/arrears/rates"
	"github.com/latepay/arrears/store/sqlite"
)

func newTestRouter(t *testing.T) *chiMux {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	table := rates.NewDefaultTable()
	return &chiMux{router: NewRouter(NewHandler(store, table)), table: table}
}

// chiMux bundles the router with the table so tests can inspect
// schedule state after HTTP mutations.
type chiMux struct {
	router http.Handler
	table  *rates.Table
}

func (m *chiMux) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	m.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// =============================================================================
// INVOICE TESTS
// =============================================================================

func TestCreateAndGetInvoice(t *testing.T) {
	// GIVEN: A fresh service
	m := newTestRouter(t)

	// WHEN: Creating an invoice
	rec := m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"2024-01-10","amount":"1450.00"}`)

	// THEN: It is stored and echoed back with an id
	require.Equal(t, http.StatusCreated, rec.Code)
	var created InvoiceDTO
	decodeInto(t, rec, &created)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "2024-01-10", created.DueDate)
	assert.Equal(t, "1450.00", created.Amount)

	rec = m.do(t, http.MethodGet, "/api/invoices/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched InvoiceDTO
	decodeInto(t, rec, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "0.00", fetched.Paid)
}

func TestCreateInvoiceRejectsBadInput(t *testing.T) {
	m := newTestRouter(t)

	// Malformed date
	rec := m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"10.01.2024x","amount":"100"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Negative amount
	rec = m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"2024-01-10","amount":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetInvoiceNotFound(t *testing.T) {
	m := newTestRouter(t)

	rec := m.do(t, http.MethodGet, "/api/invoices/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndDeleteInvoice(t *testing.T) {
	// GIVEN: A stored invoice
	m := newTestRouter(t)
	rec := m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"2024-01-10","amount":"1450"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Updating it
	rec = m.do(t, http.MethodPut, "/api/invoices/1", `{"due_date":"2024-02-01","amount":"900"}`)

	// THEN: The change is visible
	require.Equal(t, http.StatusOK, rec.Code)
	var updated InvoiceDTO
	decodeInto(t, rec, &updated)
	assert.Equal(t, "2024-02-01", updated.DueDate)
	assert.Equal(t, "900.00", updated.Amount)

	// WHEN: Deleting it
	rec = m.do(t, http.MethodDelete, "/api/invoices/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = m.do(t, http.MethodGet, "/api/invoices/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = m.do(t, http.MethodDelete, "/api/invoices/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PAYMENT TESTS
// =============================================================================

func TestPaymentLifecycle(t *testing.T) {
	// GIVEN: An invoice
	m := newTestRouter(t)
	rec := m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"2024-01-10","amount":"1450"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Adding two payments
	rec = m.do(t, http.MethodPost, "/api/invoices/1/payments", `{"date":"2024-02-01","amount":"400"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = m.do(t, http.MethodPost, "/api/invoices/1/payments", `{"date":"2024-03-01","amount":"300"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var inv InvoiceDTO
	decodeInto(t, rec, &inv)
	require.Len(t, inv.Payments, 2)
	assert.Equal(t, "700.00", inv.Paid)

	// WHEN: Editing the second payment by position
	rec = m.do(t, http.MethodPut, "/api/invoices/1/payments/1", `{"date":"2024-03-05","amount":"350"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &inv)
	assert.Equal(t, "2024-03-05", inv.Payments[1].Date)
	assert.Equal(t, "750.00", inv.Paid)

	// WHEN: Removing the first payment
	rec = m.do(t, http.MethodDelete, "/api/invoices/1/payments/0", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = m.do(t, http.MethodGet, "/api/invoices/1", "")
	decodeInto(t, rec, &inv)
	require.Len(t, inv.Payments, 1)
	assert.Equal(t, "350.00", inv.Paid)

	// Out-of-range index is 404
	rec = m.do(t, http.MethodDelete, "/api/invoices/1/payments/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddPaymentRejectsNonPositiveAmount(t *testing.T) {
	m := newTestRouter(t)
	rec := m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"2024-01-10","amount":"1450"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = m.do(t, http.MethodPost, "/api/invoices/1/payments", `{"date":"2024-02-01","amount":"0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// INTEREST TESTS
// =============================================================================

func TestGetInterestBreakdown(t *testing.T) {
	// GIVEN: An invoice of 1000 due 2021-12-31, unpaid through January
	m := newTestRouter(t)
	rec := m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"2021-12-31","amount":"1000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Asking for the breakdown as of 2022-01-31
	rec = m.do(t, http.MethodGet, "/api/invoices/1/interest?as_of=2022-01-31", "")

	// THEN: The statutory schedule splits January at the Jan 5 rate change
	require.Equal(t, http.StatusOK, rec.Code)
	var out InterestDTO
	decodeInto(t, rec, &out)
	assert.Equal(t, "2022-01-31", out.AsOf)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "2021-12-31", out.Items[0].PeriodFrom)
	assert.Equal(t, "2022-01-04", out.Items[0].PeriodTo)
	assert.Equal(t, 5, out.Items[0].Days)
	assert.Equal(t, "2022-01-05", out.Items[1].PeriodFrom)
	assert.Equal(t, 27, out.Items[1].Days)

	// 1000 * 7.25% * 5/365 = 0.99, 1000 * 7.75% * 27/365 = 5.73
	assert.Equal(t, "0.99", out.Items[0].Interest)
	assert.Equal(t, "5.73", out.Items[1].Interest)
	assert.Equal(t, "6.72", out.Total)
}

func TestGetInterestRejectsBadAsOf(t *testing.T) {
	m := newTestRouter(t)
	rec := m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"2022-01-01","amount":"1000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = m.do(t, http.MethodGet, "/api/invoices/1/interest?as_of=31-01-2022", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportInterestCSV(t *testing.T) {
	m := newTestRouter(t)
	rec := m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"2021-12-31","amount":"1000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = m.do(t, http.MethodGet, "/api/invoices/1/interest/export?as_of=2022-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "period_from;period_to;rate_percent;days;principal;interest", lines[0])
	assert.Equal(t, "2021-12-31;2022-01-04;7.25;5;1000;0.99", lines[1])
}

// =============================================================================
// RATE TABLE TESTS
// =============================================================================

func TestListRates(t *testing.T) {
	m := newTestRouter(t)

	rec := m.do(t, http.MethodGet, "/api/rates", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []RateIntervalDTO
	decodeInto(t, rec, &out)
	require.Len(t, out, 18)
	assert.Equal(t, "2016-01-01", out[0].Start)
	assert.Equal(t, "7", out[0].Rate)
}

func TestAddRateRejectedKeepsTable(t *testing.T) {
	// GIVEN: The statutory schedule
	m := newTestRouter(t)
	before := m.table.Len()

	// WHEN: Adding an interval that overlaps the existing schedule
	rec := m.do(t, http.MethodPost, "/api/rates", `{"start":"2022-01-01","end":"2022-06-30","rate":"9"}`)

	// THEN: The edit is rejected and the table is untouched
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, before, m.table.Len())
}

func TestEditRateOutOfRange(t *testing.T) {
	m := newTestRouter(t)

	rec := m.do(t, http.MethodPut, "/api/rates/99", `{"start":"2100-01-02","end":"2100-12-31","rate":"9"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddAndResetRates(t *testing.T) {
	// GIVEN: The statutory schedule, which ends 2100-01-01
	m := newTestRouter(t)

	// WHEN: Appending an adjacent interval
	rec := m.do(t, http.MethodPost, "/api/rates", `{"start":"2100-01-02","end":"2100-12-31","rate":"9.5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 19, m.table.Len())

	// WHEN: Resetting
	rec = m.do(t, http.MethodPost, "/api/rates/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 18, m.table.Len())
}

// =============================================================================
// STATE IMPORT/EXPORT TESTS
// =============================================================================

func TestStateRoundTrip(t *testing.T) {
	// GIVEN: An invoice with a payment
	m := newTestRouter(t)
	rec := m.do(t, http.MethodPost, "/api/invoices", `{"due_date":"2024-01-10","amount":"1450"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = m.do(t, http.MethodPost, "/api/invoices/1/payments", `{"date":"2024-02-01","amount":"400"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Exporting the state
	rec = m.do(t, http.MethodGet, "/api/state/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.String()
	assert.Contains(t, exported, "invoice;1;2024-01-10;1450;;")
	assert.Contains(t, exported, "payment;1;;;2024-02-01;400")

	// WHEN: Importing it back after wiping through a fresh import
	rec = m.do(t, http.MethodPost, "/api/state/import", exported)
	require.Equal(t, http.StatusOK, rec.Code)

	var result ImportResultDTO
	decodeInto(t, rec, &result)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Errors)

	rec = m.do(t, http.MethodGet, "/api/invoices/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var inv InvoiceDTO
	decodeInto(t, rec, &inv)
	assert.Equal(t, "400.00", inv.Paid)
	require.Len(t, inv.Payments, 1)
}

func TestStateImportReportsBadRows(t *testing.T) {
	m := newTestRouter(t)

	csv := strings.Join([]string{
		"type;invoice_id;due_date;amount;payment_date;payment_amount",
		"invoice;1;2024-01-10;1450;;",
		"payment;1;;;bogus-date;400",
	}, "\n")

	rec := m.do(t, http.MethodPost, "/api/state/import", csv)
	require.Equal(t, http.StatusOK, rec.Code)

	var result ImportResultDTO
	decodeInto(t, rec, &result)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "line 3")
}

func TestImportInvoicesPlainCSV(t *testing.T) {
	m := newTestRouter(t)

	csv := "due_date;amount\n2024-01-10;1450,50\n15.02.2024;900\n"
	rec := m.do(t, http.MethodPost, "/api/invoices/import", csv)
	require.Equal(t, http.StatusOK, rec.Code)

	var result ImportResultDTO
	decodeInto(t, rec, &result)
	assert.Equal(t, 2, result.Imported)

	rec = m.do(t, http.MethodGet, "/api/invoices/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var inv InvoiceDTO
	decodeInto(t, rec, &inv)
	assert.Equal(t, "2024-02-15", inv.DueDate)
	assert.Equal(t, "900.00", inv.Amount)
}
