/*
Package sqlite provides SQLite-backed persistence for invoices,
payments and the rate schedule.

PURPOSE:
  Keeps the caller-owned records (invoices and their payments) and the
  edited rate table across sessions. The accrual engine itself never
  touches this package; it only sees already-loaded values.

KEY TABLES:
  invoices:       id, due_date, amount
  payments:       invoice_id, pay_date, amount (ordered by insertion)
  rate_intervals: the persisted schedule, replacing the built-in seed
                  once the table has been edited

MONEY AND DATES:
  Amounts are stored as TEXT holding decimal strings; dates as TEXT in
  YYYY-MM-DD. SQLite REAL would reintroduce the float rounding the
  decimal stack exists to avoid.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and opens the database in WAL
  mode. With a server database, database-level concurrency control
  would handle this instead.

USAGE:
  store, err := sqlite.New("./data/arrears.db")
  if err != nil { log.Fatal(err) }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). Use ":memory:" for tests.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/latepay/arrears/interest"
)

// Store persists invoices, payments and rate intervals.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store backed by the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		due_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		pay_date TEXT NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_invoice
		ON payments(invoice_id);

	CREATE TABLE IF NOT EXISTS rate_intervals (
		position INTEGER PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		rate TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// INVOICES
// =============================================================================

// CreateInvoice inserts an invoice (and any payments it carries) and
// returns it with the assigned id. An explicit non-zero id is kept,
// which is what the CSV importer needs.
func (s *Store) CreateInvoice(ctx context.Context, inv interest.Invoice) (interest.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return interest.Invoice{}, err
	}
	defer tx.Rollback()

	if inv.ID > 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO invoices (id, due_date, amount) VALUES (?, ?, ?)`,
			inv.ID, inv.DueDate.String(), inv.Amount.String())
		if err != nil {
			return interest.Invoice{}, err
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO invoices (due_date, amount) VALUES (?, ?)`,
			inv.DueDate.String(), inv.Amount.String())
		if err != nil {
			return interest.Invoice{}, err
		}
		inv.ID, err = res.LastInsertId()
		if err != nil {
			return interest.Invoice{}, err
		}
	}

	for _, p := range inv.Payments {
		if p.Kind == interest.PaymentTerminal {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (invoice_id, pay_date, amount) VALUES (?, ?, ?)`,
			inv.ID, p.Date.String(), p.Amount.String()); err != nil {
			return interest.Invoice{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return interest.Invoice{}, err
	}
	return inv, nil
}

// GetInvoice loads one invoice with its payments. Returns (nil, nil)
// when the id does not exist.
func (s *Store) GetInvoice(ctx context.Context, id int64) (*interest.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, due_date, amount FROM invoices WHERE id = ?`, id)

	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	inv.Payments, err = s.loadPayments(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvoices loads all invoices, payments attached, ordered by id.
func (s *Store) ListInvoices(ctx context.Context) ([]interest.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, due_date, amount FROM invoices ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []interest.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range invoices {
		invoices[i].Payments, err = s.loadPayments(ctx, invoices[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// UpdateInvoice rewrites an invoice's due date and amount. Payments
// are managed separately. Returns false when the id does not exist.
func (s *Store) UpdateInvoice(ctx context.Context, id int64, dueDate interest.Date, amount decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET due_date = ?, amount = ? WHERE id = ?`,
		dueDate.String(), amount.String(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteInvoice removes an invoice; its payments go with it.
func (s *Store) DeleteInvoice(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ReplaceAll swaps the entire invoice/payment state in one
// transaction. Used by the state importer.
func (s *Store) ReplaceAll(ctx context.Context, invoices []interest.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payments`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM invoices`); err != nil {
		return err
	}

	for _, inv := range invoices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO invoices (id, due_date, amount) VALUES (?, ?, ?)`,
			inv.ID, inv.DueDate.String(), inv.Amount.String()); err != nil {
			return err
		}
		for _, p := range inv.Payments {
			if p.Kind == interest.PaymentTerminal {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO payments (invoice_id, pay_date, amount) VALUES (?, ?, ?)`,
				inv.ID, p.Date.String(), p.Amount.String()); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// =============================================================================
// PAYMENTS
// =============================================================================

// AddPayment records a payment against an invoice.
func (s *Store) AddPayment(ctx context.Context, invoiceID int64, p interest.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (invoice_id, pay_date, amount) VALUES (?, ?, ?)`,
		invoiceID, p.Date.String(), p.Amount.String())
	return err
}

// UpdatePayment rewrites the payment at the given position (insertion
// order) on an invoice. Returns false when no such payment exists.
func (s *Store) UpdatePayment(ctx context.Context, invoiceID int64, index int, p interest.Payment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rowID, ok, err := s.paymentRowID(ctx, invoiceID, index)
	if err != nil || !ok {
		return false, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE payments SET pay_date = ?, amount = ? WHERE id = ?`,
		p.Date.String(), p.Amount.String(), rowID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeletePayment removes the payment at the given position on an
// invoice. Returns false when no such payment exists.
func (s *Store) DeletePayment(ctx context.Context, invoiceID int64, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rowID, ok, err := s.paymentRowID(ctx, invoiceID, index)
	if err != nil || !ok {
		return false, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, rowID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) paymentRowID(ctx context.Context, invoiceID int64, index int) (int64, bool, error) {
	if index < 0 {
		return 0, false, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id FROM payments WHERE invoice_id = ? ORDER BY id LIMIT 1 OFFSET ?`,
		invoiceID, index)

	var rowID int64
	err := row.Scan(&rowID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rowID, true, nil
}

func (s *Store) loadPayments(ctx context.Context, invoiceID int64) ([]interest.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pay_date, amount FROM payments WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []interest.Payment
	for rows.Next() {
		var dateStr, amountStr string
		if err := rows.Scan(&dateStr, &amountStr); err != nil {
			return nil, err
		}
		date, err := interest.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt payment date %q: %w", dateStr, err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt payment amount %q: %w", amountStr, err)
		}
		payments = append(payments, interest.NewPayment(date, amount))
	}
	return payments, rows.Err()
}

// =============================================================================
// RATE SCHEDULE
// =============================================================================

// SaveRateIntervals persists the current schedule, replacing whatever
// was stored before.
func (s *Store) SaveRateIntervals(ctx context.Context, intervals []interest.RateInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_intervals`); err != nil {
		return err
	}
	for i, ri := range intervals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rate_intervals (position, start_date, end_date, rate) VALUES (?, ?, ?, ?)`,
			i, ri.Start.String(), ri.End.String(), ri.Rate.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadRateIntervals returns the persisted schedule, or nil when none
// has been saved (callers fall back to the built-in seed).
func (s *Store) LoadRateIntervals(ctx context.Context) ([]interest.RateInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT start_date, end_date, rate FROM rate_intervals ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals []interest.RateInterval
	for rows.Next() {
		var startStr, endStr, rateStr string
		if err := rows.Scan(&startStr, &endStr, &rateStr); err != nil {
			return nil, err
		}
		start, err := interest.ParseDate(startStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt rate start %q: %w", startStr, err)
		}
		end, err := interest.ParseDate(endStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt rate end %q: %w", endStr, err)
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt rate %q: %w", rateStr, err)
		}
		intervals = append(intervals, interest.RateInterval{Start: start, End: end, Rate: rate})
	}
	return intervals, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row scanner) (interest.Invoice, error) {
	var (
		inv       interest.Invoice
		dueStr    string
		amountStr string
	)
	if err := row.Scan(&inv.ID, &dueStr, &amountStr); err != nil {
		return interest.Invoice{}, err
	}
	due, err := interest.ParseDate(dueStr)
	if err != nil {
		return interest.Invoice{}, fmt.Errorf("corrupt due date %q: %w", dueStr, err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return interest.Invoice{}, fmt.Errorf("corrupt amount %q: %w", amountStr, err)
	}
	inv.DueDate = due
	inv.Amount = amount
	return inv, nil
}
