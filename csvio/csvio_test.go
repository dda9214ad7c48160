package csvio_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latepay/arrears/csvio"
	"github.com/latepay/arrears/interest"
)

// =============================================================================
// STATE IMPORT
// =============================================================================

func TestImportState_InvoicesWithPayments(t *testing.T) {
	input := strings.Join([]string{
		"type;invoice_id;due_date;amount;payment_date;payment_amount",
		"invoice;1;2024-01-10;1450.00;;",
		"payment;1;;;2024-02-01;500.00",
		"invoice;2;10.02.2024;1450,00;;",
	}, "\n")

	invoices, rowErrs, err := csvio.ImportState(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, invoices, 2)

	assert.Equal(t, int64(1), invoices[0].ID)
	assert.True(t, invoices[0].DueDate.Equal(interest.NewDate(2024, time.January, 10)))
	require.Len(t, invoices[0].Payments, 1)
	assert.Equal(t, "500", invoices[0].Payments[0].Amount.String())
	assert.Equal(t, interest.PaymentReal, invoices[0].Payments[0].Kind)

	// Second invoice used the dotted date layout and a decimal comma.
	assert.True(t, invoices[1].DueDate.Equal(interest.NewDate(2024, time.February, 10)))
	assert.Equal(t, "1450", invoices[1].Amount.String())
}

func TestImportState_BadRowsAreReportedNotFatal(t *testing.T) {
	input := strings.Join([]string{
		"invoice;1;2024-01-10;1000;;",
		"invoice;2;10/02/2024;1000;;", // bad date layout
		"payment;9;;;2024-02-01;100",  // unknown invoice
		"payment;1;;;2024-02-01;abc",  // bad amount
		"payment;1;;;2024-03-01;250",
	}, "\n")

	invoices, rowErrs, err := csvio.ImportState(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Len(t, invoices[0].Payments, 1)
	require.Len(t, rowErrs, 3)

	assert.Equal(t, 2, rowErrs[0].Line)
	assert.True(t, errors.Is(&rowErrs[0], csvio.ErrMalformedDate))

	var derr *csvio.MalformedDateError
	require.True(t, errors.As(&rowErrs[0], &derr))
	assert.Equal(t, "10/02/2024", derr.Value)

	assert.Equal(t, 3, rowErrs[1].Line)
	assert.Equal(t, 4, rowErrs[2].Line)
}

func TestImportInvoices_PlainFormat(t *testing.T) {
	input := "2017-09-10;1041.98\n2017-10-10;1041,98\nnot-a-date;50\n"

	invoices, rowErrs, err := csvio.ImportInvoices(strings.NewReader(input), 5)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	require.Len(t, rowErrs, 1)

	assert.Equal(t, int64(5), invoices[0].ID)
	assert.Equal(t, int64(6), invoices[1].ID)
	assert.Equal(t, 3, rowErrs[0].Line)
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExportState_RoundTrip(t *testing.T) {
	original := []interest.Invoice{
		{
			ID:      1,
			DueDate: interest.NewDate(2024, time.January, 10),
			Amount:  decimal.RequireFromString("1450.00"),
			Payments: []interest.Payment{
				interest.NewPayment(interest.NewDate(2024, time.February, 1), decimal.RequireFromString("500")),
			},
		},
		{
			ID:      2,
			DueDate: interest.NewDate(2024, time.February, 10),
			Amount:  decimal.RequireFromString("999.99"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, csvio.ExportState(&buf, original))

	// Export is always ISO-dated.
	assert.Contains(t, buf.String(), "invoice;1;2024-01-10;1450;;")

	imported, rowErrs, err := csvio.ImportState(&buf)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, imported, 2)
	require.Len(t, imported[0].Payments, 1)
	assert.True(t, imported[0].Payments[0].Date.Equal(interest.NewDate(2024, time.February, 1)))
	assert.Equal(t, "999.99", imported[1].Amount.String())
}

func TestExportBreakdown(t *testing.T) {
	items := []interest.LineItem{
		{
			PeriodFrom: interest.NewDate(2022, time.January, 1),
			PeriodTo:   interest.NewDate(2022, time.January, 15),
			Rate:       decimal.RequireFromString("7"),
			Days:       15,
			Principal:  decimal.RequireFromString("1000"),
			Interest:   decimal.RequireFromString("2.88"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, csvio.ExportBreakdown(&buf, items))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "period_from;period_to;rate_percent;days;principal;interest", lines[0])
	assert.Equal(t, "2022-01-01;2022-01-15;7;15;1000;2.88", lines[1])
}
