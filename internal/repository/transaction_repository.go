package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// TransactionRepo implements ledger.TransactionRepo over the
// ledger_transactions table.  Rows are append-only: there is no update
// or delete statement in this file on purpose.
type TransactionRepo struct {
	q dbtx
}

// NewTransactionRepo returns a repo bound to a database or transaction.
func NewTransactionRepo(q dbtx) *TransactionRepo { return &TransactionRepo{q: q} }

// Append inserts one audit record.
func (r *TransactionRepo) Append(ctx context.Context, t *model.LedgerTransaction) error {
	const q = `INSERT INTO ledger_transactions
		(id, customer_id, amount_cents, category, payment_method, booking_id, description, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var expires interface{}
	if t.ExpiresAt != nil {
		expires = t.ExpiresAt.UTC()
	}
	_, err := r.q.ExecContext(ctx, q,
		t.ID, t.CustomerID, t.AmountCents, t.Category, t.PaymentMethod,
		t.BookingID, t.Description, expires, t.CreatedAt.UTC())
	return err
}

// ListByCustomer returns the customer's most recent entries, newest
// first.  limit <= 0 returns everything.
func (r *TransactionRepo) ListByCustomer(ctx context.Context, customerID uint64, limit int) ([]*model.LedgerTransaction, error) {
	q := `SELECT id, customer_id, amount_cents, category, payment_method, booking_id, description, expires_at, created_at
		FROM ledger_transactions WHERE customer_id = ? ORDER BY created_at DESC, id DESC`
	args := []interface{}{customerID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.LedgerTransaction, 0)
	for rows.Next() {
		var (
			t         model.LedgerTransaction
			bookingID sql.NullInt64
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.AmountCents, &t.Category, &t.PaymentMethod,
			&bookingID, &t.Description, &expiresAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			v := uint64(bookingID.Int64)
			t.BookingID = &v
		}
		if expiresAt.Valid {
			v := expiresAt.Time.UTC()
			t.ExpiresAt = &v
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
