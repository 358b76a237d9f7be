package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/coworking-booking/internal/ledger"
	"github.com/iliyamo/coworking-booking/internal/model"
)

// BookingRepo implements ledger.BookingRepo over the bookings table.
// Bookings are append-and-mutate: rows are inserted on confirmation
// and thereafter only their status, price and flag columns change.
// Rows are never deleted.  All timestamps are stored in UTC; dates as
// DATE columns, intra-day times as minutes since midnight.
type BookingRepo struct {
	q dbtx
}

// NewBookingRepo returns a repo bound to a database or transaction.
func NewBookingRepo(q dbtx) *BookingRepo { return &BookingRepo{q: q} }

const bookingColumns = `id, customer_id, resource_id, date, start_minute, duration_min,
	format, extras, payment_method, payment_source, hours_deducted,
	base_price_cents, extras_cents, discount_cents, discount_kind, final_price_cents,
	status, is_re_rent_listed, cancellation_reason, cancelled_by, replaces_id,
	created_at, updated_at`

// Create inserts a booking and populates its generated ID.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	extras, err := json.Marshal(b.Extras)
	if err != nil {
		return err
	}
	const q = `INSERT INTO bookings (customer_id, resource_id, date, start_minute, duration_min,
		format, extras, payment_method, payment_source, hours_deducted,
		base_price_cents, extras_cents, discount_cents, discount_kind, final_price_cents,
		status, is_re_rent_listed, cancellation_reason, cancelled_by, replaces_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, q,
		b.CustomerID, b.ResourceID, b.Date.UTC().Format("2006-01-02"), b.StartMinute, b.DurationMin,
		b.Format, string(extras), b.PaymentMethod, b.PaymentSource, b.HoursDeducted,
		b.BasePriceCents, b.ExtrasCents, b.DiscountCents, b.DiscountKind, b.FinalPriceCents,
		b.Status, b.IsReRentListed, b.CancellationReason, b.CancelledBy, b.ReplacesID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID loads a single booking or ledger.ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking %d", ledger.ErrNotFound, id)
	}
	return b, err
}

// Update persists the mutable columns of an existing booking.
func (r *BookingRepo) Update(ctx context.Context, b *model.Booking) error {
	const q = `UPDATE bookings SET status = ?, is_re_rent_listed = ?, final_price_cents = ?,
		discount_kind = ?, cancellation_reason = ?, cancelled_by = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.q.ExecContext(ctx, q,
		b.Status, b.IsReRentListed, b.FinalPriceCents,
		b.DiscountKind, b.CancellationReason, b.CancelledBy, b.UpdatedAt.UTC(),
		b.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 rows for no-op updates too; verify existence.
		var exists int
		if err := r.q.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, b.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: booking %d", ledger.ErrNotFound, b.ID)
			}
			return err
		}
	}
	return nil
}

// ListConfirmedOverlapping returns confirmed bookings on the resource
// and date whose half-open minute range intersects [startMin, endMin).
// Two bookings overlap iff max(start1, start2) < min(end1, end2).
func (r *BookingRepo) ListConfirmedOverlapping(ctx context.Context, resourceID uint64, date time.Time, startMin, endMin int) ([]*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE resource_id = ? AND date = ? AND status = ?
		AND start_minute < ? AND start_minute + duration_min > ?
		ORDER BY start_minute`
	rows, err := r.q.QueryContext(ctx, q,
		resourceID, date.UTC().Format("2006-01-02"), model.StatusConfirmed, endMin, startMin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListConfirmedByCustomerRange returns the customer's confirmed
// bookings with dates in [from, to), oldest first.
func (r *BookingRepo) ListConfirmedByCustomerRange(ctx context.Context, customerID uint64, from, to time.Time) ([]*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE customer_id = ? AND status = ? AND date >= ? AND date < ?
		ORDER BY date, start_minute`
	rows, err := r.q.QueryContext(ctx, q,
		customerID, model.StatusConfirmed,
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListByCustomer returns every booking of a customer, newest first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE customer_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.q.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListConfirmedEndingBefore returns confirmed bookings whose end
// instant falls before the cutoff, for the completion sweep.
func (r *BookingRepo) ListConfirmedEndingBefore(ctx context.Context, cutoff time.Time) ([]*model.Booking, error) {
	cutoff = cutoff.UTC()
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = ?
		AND TIMESTAMPADD(MINUTE, start_minute + duration_min, date) < ?`
	rows, err := r.q.QueryContext(ctx, q, model.StatusConfirmed, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListConfirmedByResourceDate returns confirmed bookings for one
// resource and day, for the availability grid.  Re-rent-listed rows
// are included; the caller renders them as takeable.
func (r *BookingRepo) ListConfirmedByResourceDate(ctx context.Context, resourceID uint64, date time.Time) ([]*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE resource_id = ? AND date = ? AND status = ?
		ORDER BY start_minute`
	rows, err := r.q.QueryContext(ctx, q, resourceID, date.UTC().Format("2006-01-02"), model.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b         model.Booking
		dateStr   string
		extrasRaw sql.NullString
		reason    sql.NullString
		cancelled sql.NullString
		replaces  sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.ResourceID, &dateStr, &b.StartMinute, &b.DurationMin,
		&b.Format, &extrasRaw, &b.PaymentMethod, &b.PaymentSource, &b.HoursDeducted,
		&b.BasePriceCents, &b.ExtrasCents, &b.DiscountCents, &b.DiscountKind, &b.FinalPriceCents,
		&b.Status, &b.IsReRentListed, &reason, &cancelled, &replaces,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// DATE columns scan as strings when parseTime only covers DATETIME
	if t, err2 := time.Parse("2006-01-02", dateStr); err2 == nil {
		b.Date = t.UTC()
	} else if t, err2 := time.Parse("2006-01-02 15:04:05", dateStr); err2 == nil {
		b.Date = t.UTC()
	} else {
		return nil, fmt.Errorf("bad booking date %q", dateStr)
	}
	if extrasRaw.Valid && extrasRaw.String != "" {
		if err := json.Unmarshal([]byte(extrasRaw.String), &b.Extras); err != nil {
			return nil, err
		}
	}
	if reason.Valid {
		v := reason.String
		b.CancellationReason = &v
	}
	if cancelled.Valid {
		v := cancelled.String
		b.CancelledBy = &v
	}
	if replaces.Valid {
		v := uint64(replaces.Int64)
		b.ReplacesID = &v
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]*model.Booking, error) {
	out := make([]*model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
