/*
handlers.go - HTTP API handlers for the arrears interest service

PURPOSE:
  Exposes invoice/payment management, the editable rate schedule and
  the interest breakdown over REST. Handlers parse and validate HTTP
  input, delegate to the store and the interest engine, and serialize
  responses.

ENDPOINTS:
  Invoices:
    GET    /api/invoices                      List with totals
    POST   /api/invoices                      Create
    POST   /api/invoices/import               Plain CSV import (due_date;amount)
    GET    /api/invoices/{id}                 Details with payments
    PUT    /api/invoices/{id}                 Update due date/amount
    DELETE /api/invoices/{id}                 Delete (payments cascade)

  Payments:
    POST   /api/invoices/{id}/payments          Add
    PUT    /api/invoices/{id}/payments/{index}  Edit by position
    DELETE /api/invoices/{id}/payments/{index}  Remove by position

  Interest:
    GET    /api/invoices/{id}/interest        Breakdown + total (?as_of=)
    GET    /api/invoices/{id}/interest/export CSV breakdown

  Rates:
    GET    /api/rates                          Stored schedule
    POST   /api/rates                          Add interval
    PUT    /api/rates/{index}                  Edit interval
    DELETE /api/rates/{index}                  Remove interval
    POST   /api/rates/reset                    Restore statutory seed

  State:
    GET    /api/state/export                  Full CSV state
    POST   /api/state/import                  Replace state from CSV

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, bad dates/amounts
  - 404: Unknown invoice / payment index / rate index
  - 422: Schedule edits that fail validation (table stays last-valid)
  - 500: Store failures, invalid persisted schedule

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/latepay/arrears/csvio"
	"github.com/latepay/arrears/interest"
	"github.com/latepay/arrears/rates"
	"github.com/latepay/arrears/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Rates *rates.Table
}

// NewHandler creates a handler over the given store and rate table.
func NewHandler(store *sqlite.Store, table *rates.Table) *Handler {
	return &Handler{Store: store, Rates: table}
}

// schedule snapshots the validated, normalized rate table for one
// computation. A failure here means the persisted schedule is broken,
// not that the request was bad.
func (h *Handler) schedule(w http.ResponseWriter) ([]interest.RateInterval, bool) {
	snapshot, err := h.Rates.EffectiveIntervals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Rate schedule is invalid", err)
		return nil, false
	}
	return snapshot, true
}

// =============================================================================
// INVOICE HANDLERS
// =============================================================================

// ListInvoices returns all invoices with paid and interest totals.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}
	schedule, ok := h.schedule(w)
	if !ok {
		return
	}

	invoices, err := h.Store.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invoices", err)
		return
	}

	dtos := make([]InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		dtos = append(dtos, toInvoiceDTO(inv, schedule, asOf))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateInvoice creates a new invoice.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dueDate, amount, err := parseInvoiceRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	created, err := h.Store.CreateInvoice(r.Context(), interest.Invoice{DueDate: dueDate, Amount: amount})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create invoice", err)
		return
	}

	schedule, ok := h.schedule(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceDTO(created, schedule, interest.Today()))
}

// GetInvoice returns one invoice with its payments.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.invoiceFromPath(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}
	schedule, ok := h.schedule(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(*inv, schedule, asOf))
}

// UpdateInvoice rewrites due date and amount.
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invoice id", err)
		return
	}

	var req InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	dueDate, amount, err := parseInvoiceRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	found, err := h.Store.UpdateInvoice(r.Context(), id, dueDate, amount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update invoice", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return
	}

	inv, err := h.Store.GetInvoice(r.Context(), id)
	if err != nil || inv == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload invoice", err)
		return
	}
	schedule, ok := h.schedule(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(*inv, schedule, interest.Today()))
}

// DeleteInvoice removes an invoice and its payments.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invoice id", err)
		return
	}

	found, err := h.Store.DeleteInvoice(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete invoice", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportInvoices bulk-creates invoices from the plain two-column CSV.
func (h *Handler) ImportInvoices(w http.ResponseWriter, r *http.Request) {
	imported, rowErrs, err := csvio.ImportInvoices(r.Body, 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable CSV", err)
		return
	}

	count := 0
	for _, inv := range imported {
		inv.ID = 0 // the store assigns ids
		if _, err := h.Store.CreateInvoice(r.Context(), inv); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store imported invoice", err)
			return
		}
		count++
	}
	writeJSON(w, http.StatusOK, ImportResultDTO{Imported: count, Errors: rowErrorStrings(rowErrs)})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// AddPayment records a payment against an invoice.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.invoiceFromPath(w, r)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	payment, err := parsePaymentRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.Store.AddPayment(r.Context(), inv.ID, payment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add payment", err)
		return
	}
	h.writeInvoice(w, r, inv.ID, http.StatusCreated)
}

// UpdatePayment edits a payment by its position on the invoice.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.invoiceFromPath(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment index", err)
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	payment, err := parsePaymentRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	found, err := h.Store.UpdatePayment(r.Context(), inv.ID, index, payment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update payment", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Payment not found", nil)
		return
	}
	h.writeInvoice(w, r, inv.ID, http.StatusOK)
}

// DeletePayment removes a payment by its position on the invoice.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.invoiceFromPath(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment index", err)
		return
	}

	found, err := h.Store.DeletePayment(r.Context(), inv.ID, index)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete payment", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Payment not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INTEREST HANDLERS
// =============================================================================

// GetInterest returns the full accrual breakdown for an invoice.
func (h *Handler) GetInterest(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.invoiceFromPath(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}
	schedule, ok := h.schedule(w)
	if !ok {
		return
	}

	items := interest.Compute(inv.Amount, inv.DueDate, inv.Payments, asOf, schedule)
	writeJSON(w, http.StatusOK, InterestDTO{
		InvoiceID: inv.ID,
		AsOf:      asOf.String(),
		Items:     toLineItemDTOs(items),
		Total:     interest.SumInterest(items).StringFixed(2),
	})
}

// ExportInterest streams the breakdown as CSV.
func (h *Handler) ExportInterest(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.invoiceFromPath(w, r)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}
	schedule, ok := h.schedule(w)
	if !ok {
		return
	}

	items := interest.Compute(inv.Amount, inv.DueDate, inv.Payments, asOf, schedule)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="interest_invoice_%d.csv"`, inv.ID))
	if err := csvio.ExportBreakdown(w, items); err != nil {
		// Headers are gone; nothing sensible left to send.
		return
	}
}

// =============================================================================
// RATE TABLE HANDLERS
// =============================================================================

// ListRates returns the schedule as stored, in start-date order.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	intervals := h.Rates.Intervals()
	dtos := make([]RateIntervalDTO, 0, len(intervals))
	for i, ri := range intervals {
		dtos = append(dtos, RateIntervalDTO{
			Index: i,
			Start: ri.Start.String(),
			End:   ri.End.String(),
			Rate:  ri.Rate.String(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddRate inserts a schedule entry.
func (h *Handler) AddRate(w http.ResponseWriter, r *http.Request) {
	ri, ok := h.decodeRateInterval(w, r)
	if !ok {
		return
	}
	if err := h.Rates.Add(ri); err != nil {
		writeRateError(w, err)
		return
	}
	h.persistRates(w, r)
}

// EditRate replaces the schedule entry at an index.
func (h *Handler) EditRate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate index", err)
		return
	}
	ri, ok := h.decodeRateInterval(w, r)
	if !ok {
		return
	}
	if err := h.Rates.Edit(index, ri); err != nil {
		writeRateError(w, err)
		return
	}
	h.persistRates(w, r)
}

// RemoveRate deletes the schedule entry at an index.
func (h *Handler) RemoveRate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate index", err)
		return
	}
	if err := h.Rates.Remove(index); err != nil {
		writeRateError(w, err)
		return
	}
	h.persistRates(w, r)
}

// ResetRates restores the statutory seed schedule.
func (h *Handler) ResetRates(w http.ResponseWriter, r *http.Request) {
	if err := h.Rates.Replace(rates.DefaultSchedule()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset rates", err)
		return
	}
	h.persistRates(w, r)
}

func (h *Handler) decodeRateInterval(w http.ResponseWriter, r *http.Request) (interest.RateInterval, bool) {
	var req RateIntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return interest.RateInterval{}, false
	}

	start, err := interest.ParseDate(strings.TrimSpace(req.Start))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return interest.RateInterval{}, false
	}
	end, err := interest.ParseDate(strings.TrimSpace(req.End))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return interest.RateInterval{}, false
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(req.Rate, ",", ".")))
	if err != nil || rate.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid rate (want a non-negative number)", err)
		return interest.RateInterval{}, false
	}

	return interest.RateInterval{Start: start, End: end, Rate: rate}, true
}

// persistRates saves the accepted schedule and echoes it back.
func (h *Handler) persistRates(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.SaveRateIntervals(r.Context(), h.Rates.Intervals()); err != nil {
		writeError(w, http.StatusInternalServerError, "Schedule accepted but not persisted", err)
		return
	}
	h.ListRates(w, r)
}

// writeRateError maps table mutation failures: a rejected edit is the
// client's schedule being unusable (422), a bad index is 404.
func writeRateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rates.ErrIndexOutOfRange):
		writeError(w, http.StatusNotFound, "Rate interval not found", err)
	case rates.IsValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, "Schedule rejected; table left unchanged", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to modify rate table", err)
	}
}

// =============================================================================
// STATE HANDLERS
// =============================================================================

// ExportState streams the full invoice/payment state as CSV.
func (h *Handler) ExportState(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load state", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices_payments.csv"`)
	if err := csvio.ExportState(w, invoices); err != nil {
		return
	}
}

// ImportState replaces the whole invoice/payment state from CSV.
// Malformed rows are reported but do not abort the import.
func (h *Handler) ImportState(w http.ResponseWriter, r *http.Request) {
	invoices, rowErrs, err := csvio.ImportState(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable CSV", err)
		return
	}

	if err := h.Store.ReplaceAll(r.Context(), invoices); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store imported state", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResultDTO{Imported: len(invoices), Errors: rowErrorStrings(rowErrs)})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) invoiceFromPath(w http.ResponseWriter, r *http.Request) (*interest.Invoice, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invoice id", err)
		return nil, false
	}
	inv, err := h.Store.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load invoice", err)
		return nil, false
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return nil, false
	}
	return inv, true
}

func (h *Handler) writeInvoice(w http.ResponseWriter, r *http.Request, id int64, status int) {
	inv, err := h.Store.GetInvoice(r.Context(), id)
	if err != nil || inv == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload invoice", err)
		return
	}
	schedule, ok := h.schedule(w)
	if !ok {
		return
	}
	writeJSON(w, status, toInvoiceDTO(*inv, schedule, interest.Today()))
}

func parseInvoiceRequest(req InvoiceRequest) (interest.Date, decimal.Decimal, error) {
	dueDate, err := interest.ParseDate(strings.TrimSpace(req.DueDate))
	if err != nil {
		return interest.Date{}, decimal.Zero, fmt.Errorf("invalid due_date (use YYYY-MM-DD)")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(req.Amount, ",", ".")))
	if err != nil {
		return interest.Date{}, decimal.Zero, fmt.Errorf("invalid amount")
	}
	if amount.IsNegative() {
		return interest.Date{}, decimal.Zero, fmt.Errorf("amount must not be negative")
	}
	return dueDate, amount, nil
}

func parsePaymentRequest(req PaymentRequest) (interest.Payment, error) {
	date, err := interest.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return interest.Payment{}, fmt.Errorf("invalid date (use YYYY-MM-DD)")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(req.Amount, ",", ".")))
	if err != nil {
		return interest.Payment{}, fmt.Errorf("invalid amount")
	}
	if !amount.IsPositive() {
		return interest.Payment{}, fmt.Errorf("amount must be positive")
	}
	return interest.NewPayment(date, amount), nil
}

func asOfParam(r *http.Request) (interest.Date, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return interest.Today(), nil
	}
	return interest.ParseDate(raw)
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func rowErrorStrings(rowErrs []csvio.RowError) []string {
	if len(rowErrs) == 0 {
		return nil
	}
	out := make([]string, len(rowErrs))
	for i := range rowErrs {
		out[i] = rowErrs[i].Error()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
