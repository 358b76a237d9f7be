package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/coworking-booking/internal/ledger"
	"github.com/iliyamo/coworking-booking/internal/model"
)

// AccountRepo implements ledger.AccountRepo over the accounts table.
// One row per customer; the subscription lives in nullable columns on
// the same row so a Get/Update pair inside a transaction moves the
// whole financial state atomically.
type AccountRepo struct {
	q dbtx
}

// NewAccountRepo returns a repo bound to a database or transaction.
func NewAccountRepo(q dbtx) *AccountRepo { return &AccountRepo{q: q} }

// Get loads the account for a customer or ledger.ErrNotFound.
func (r *AccountRepo) Get(ctx context.Context, customerID uint64) (*model.Account, error) {
	const q = `SELECT customer_id, balance_cents, credit_limit_cents, pricing_mode, personal_discount_pct,
		sub_total_hours, sub_remaining_hours, sub_is_frozen, sub_formats, sub_expires_at, updated_at
		FROM accounts WHERE customer_id = ?`
	var (
		a          model.Account
		totalHrs   sql.NullFloat64
		remainHrs  sql.NullFloat64
		frozen     sql.NullBool
		formatsRaw sql.NullString
		expiresAt  sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, q, customerID).Scan(
		&a.CustomerID, &a.BalanceCents, &a.CreditLimitCents, &a.PricingMode, &a.PersonalDiscountPercent,
		&totalHrs, &remainHrs, &frozen, &formatsRaw, &expiresAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account for customer %d", ledger.ErrNotFound, customerID)
	}
	if err != nil {
		return nil, err
	}
	// a NULL total-hours column means no subscription at all
	if totalHrs.Valid {
		sub := &model.Subscription{
			TotalHours:     totalHrs.Float64,
			RemainingHours: remainHrs.Float64,
			IsFrozen:       frozen.Valid && frozen.Bool,
		}
		if formatsRaw.Valid && formatsRaw.String != "" {
			if err := json.Unmarshal([]byte(formatsRaw.String), &sub.IncludedFormats); err != nil {
				return nil, err
			}
		}
		if expiresAt.Valid {
			t := expiresAt.Time.UTC()
			sub.ExpiresAt = &t
		}
		a.Subscription = sub
	}
	return &a, nil
}

// Update writes the whole account row back.
func (r *AccountRepo) Update(ctx context.Context, a *model.Account) error {
	var (
		totalHrs, remainHrs interface{}
		frozen, formatsRaw  interface{}
		expiresAt           interface{}
	)
	if sub := a.Subscription; sub != nil {
		totalHrs = sub.TotalHours
		remainHrs = sub.RemainingHours
		frozen = sub.IsFrozen
		raw, err := json.Marshal(sub.IncludedFormats)
		if err != nil {
			return err
		}
		formatsRaw = string(raw)
		if sub.ExpiresAt != nil {
			expiresAt = sub.ExpiresAt.UTC()
		}
	}
	const q = `UPDATE accounts SET balance_cents = ?, credit_limit_cents = ?, pricing_mode = ?,
		personal_discount_pct = ?, sub_total_hours = ?, sub_remaining_hours = ?, sub_is_frozen = ?,
		sub_formats = ?, sub_expires_at = ?, updated_at = ?
		WHERE customer_id = ?`
	res, err := r.q.ExecContext(ctx, q,
		a.BalanceCents, a.CreditLimitCents, a.PricingMode,
		a.PersonalDiscountPercent, totalHrs, remainHrs, frozen,
		formatsRaw, expiresAt, a.UpdatedAt.UTC(),
		a.CustomerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.q.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE customer_id = ?`, a.CustomerID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: account for customer %d", ledger.ErrNotFound, a.CustomerID)
			}
			return err
		}
	}
	return nil
}
