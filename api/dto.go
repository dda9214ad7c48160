/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  domain model from the wire contract. Money travels as strings ("1450.00"),
  never as JSON numbers; dates as YYYY-MM-DD.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/latepay/arrears/interest"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// InvoiceDTO represents an invoice in API responses.
type InvoiceDTO struct {
	ID       int64        `json:"id"`
	DueDate  string       `json:"due_date"`
	Amount   string       `json:"amount"`
	Paid     string       `json:"paid"`
	Interest string       `json:"interest"`
	AsOf     string       `json:"as_of"`
	Payments []PaymentDTO `json:"payments"`
}

// PaymentDTO represents one payment. Index is the position used by the
// edit and delete endpoints.
type PaymentDTO struct {
	Index  int    `json:"index"`
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

// InvoiceRequest creates or updates an invoice.
type InvoiceRequest struct {
	DueDate string `json:"due_date"`
	Amount  string `json:"amount"`
}

// PaymentRequest adds or updates a payment.
type PaymentRequest struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

// RateIntervalDTO represents one schedule entry as stored (without
// normalization). Index is the position used by edit and delete.
type RateIntervalDTO struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
	Rate  string `json:"rate"`
}

// RateIntervalRequest adds or updates a schedule entry.
type RateIntervalRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Rate  string `json:"rate"`
}

// LineItemDTO is one row of an accrual breakdown.
type LineItemDTO struct {
	PeriodFrom string `json:"period_from"`
	PeriodTo   string `json:"period_to"`
	Rate       string `json:"rate_percent"`
	Days       int    `json:"days"`
	Principal  string `json:"principal"`
	Interest   string `json:"interest"`
}

// InterestDTO is the full breakdown for one invoice as of one date.
type InterestDTO struct {
	InvoiceID int64         `json:"invoice_id"`
	AsOf      string        `json:"as_of"`
	Items     []LineItemDTO `json:"items"`
	Total     string        `json:"total"`
}

// ImportResultDTO reports a partial-success CSV import.
type ImportResultDTO struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPaymentDTOs(payments []interest.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, 0, len(payments))
	for i, p := range payments {
		dtos = append(dtos, PaymentDTO{
			Index:  i,
			Date:   p.Date.String(),
			Amount: p.Amount.StringFixed(2),
		})
	}
	return dtos
}

func toLineItemDTOs(items []interest.LineItem) []LineItemDTO {
	dtos := make([]LineItemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, LineItemDTO{
			PeriodFrom: it.PeriodFrom.String(),
			PeriodTo:   it.PeriodTo.String(),
			Rate:       it.Rate.String(),
			Days:       it.Days,
			Principal:  it.Principal.StringFixed(2),
			Interest:   it.Interest.StringFixed(2),
		})
	}
	return dtos
}

func toInvoiceDTO(inv interest.Invoice, schedule []interest.RateInterval, asOf interest.Date) InvoiceDTO {
	return InvoiceDTO{
		ID:       inv.ID,
		DueDate:  inv.DueDate.String(),
		Amount:   inv.Amount.StringFixed(2),
		Paid:     inv.PaidTotal().StringFixed(2),
		Interest: interest.TotalInterest(inv, schedule, asOf).StringFixed(2),
		AsOf:     asOf.String(),
		Payments: toPaymentDTOs(inv.Payments),
	}
}
