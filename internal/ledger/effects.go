package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// An effect is one atomic account/booking mutation.  Public operations
// compose effects and apply them inside a single store transaction, so
// partial application cannot occur.
type effect interface {
	apply(ctx context.Context, r Repos, now time.Time) error
}

// debitBalance charges a customer's cash balance and appends the
// matching payment transaction.  The funds projection against the
// credit limit happens before any effect runs, so the debit itself
// does not re-check it.
type debitBalance struct {
	customerID  uint64
	amountCents int64
	method      model.PaymentMethod
	bookingID   *uint64
	description string
}

func (e debitBalance) apply(ctx context.Context, r Repos, now time.Time) error {
	acc, err := r.Accounts.Get(ctx, e.customerID)
	if err != nil {
		return err
	}
	acc.BalanceCents -= e.amountCents
	acc.UpdatedAt = now
	if err := r.Accounts.Update(ctx, acc); err != nil {
		return err
	}
	return r.Transactions.Append(ctx, &model.LedgerTransaction{
		ID:            uuid.NewString(),
		CustomerID:    e.customerID,
		AmountCents:   -e.amountCents,
		Category:      model.TxnPayment,
		PaymentMethod: e.method,
		BookingID:     e.bookingID,
		Description:   e.description,
		CreatedAt:     now,
	})
}

// creditBalance credits a customer's cash balance (refunds, re-rent
// payouts, reconciliation bonuses, manual adjustments).  A negative
// amount is a charge, used by manual price increases.
type creditBalance struct {
	customerID  uint64
	amountCents int64
	category    model.TransactionCategory
	method      model.PaymentMethod
	bookingID   *uint64
	description string
	expiresAt   *time.Time
}

func (e creditBalance) apply(ctx context.Context, r Repos, now time.Time) error {
	acc, err := r.Accounts.Get(ctx, e.customerID)
	if err != nil {
		return err
	}
	acc.BalanceCents += e.amountCents
	acc.UpdatedAt = now
	if err := r.Accounts.Update(ctx, acc); err != nil {
		return err
	}
	return r.Transactions.Append(ctx, &model.LedgerTransaction{
		ID:            uuid.NewString(),
		CustomerID:    e.customerID,
		AmountCents:   e.amountCents,
		Category:      e.category,
		PaymentMethod: e.method,
		BookingID:     e.bookingID,
		Description:   e.description,
		ExpiresAt:     e.expiresAt,
		CreatedAt:     now,
	})
}

// deductHours spends subscription hours.  The pool clamps at zero; a
// deduction larger than the remainder empties the pool rather than
// failing.  Hour movements do not touch the cash balance, so no
// transaction row is appended.
type deductHours struct {
	customerID uint64
	hours      float64
}

func (e deductHours) apply(ctx context.Context, r Repos, now time.Time) error {
	acc, err := r.Accounts.Get(ctx, e.customerID)
	if err != nil {
		return err
	}
	if acc.Subscription == nil {
		return fmt.Errorf("%w: customer %d has no subscription", ErrValidation, e.customerID)
	}
	acc.Subscription.RemainingHours -= e.hours
	if acc.Subscription.RemainingHours < 0 {
		acc.Subscription.RemainingHours = 0
	}
	acc.UpdatedAt = now
	return r.Accounts.Update(ctx, acc)
}

// refundHours restores subscription hours, clamped at the pool's
// TotalHours.  The clamp pair (deduct at 0, refund at total) is not
// algebraically closed; the stored per-booking HoursDeducted keeps the
// drift from amplifying across cancel/reschedule chains.
type refundHours struct {
	customerID uint64
	hours      float64
}

func (e refundHours) apply(ctx context.Context, r Repos, now time.Time) error {
	acc, err := r.Accounts.Get(ctx, e.customerID)
	if err != nil {
		return err
	}
	if acc.Subscription == nil {
		return fmt.Errorf("%w: customer %d has no subscription", ErrValidation, e.customerID)
	}
	acc.Subscription.RemainingHours += e.hours
	if acc.Subscription.RemainingHours > acc.Subscription.TotalHours {
		acc.Subscription.RemainingHours = acc.Subscription.TotalHours
	}
	acc.UpdatedAt = now
	return r.Accounts.Update(ctx, acc)
}

// supersedeReRent flips a re-rent-listed booking to re_rented, clears
// its listing flag and pays its owner the configured share of what
// they originally paid.
type supersedeReRent struct {
	prior     *model.Booking
	payoutPct float64
}

func (e supersedeReRent) apply(ctx context.Context, r Repos, now time.Time) error {
	e.prior.Status = model.StatusReRented
	e.prior.IsReRentListed = false
	e.prior.UpdatedAt = now
	if err := r.Bookings.Update(ctx, e.prior); err != nil {
		return err
	}
	payout := percentCents(e.prior.FinalPriceCents, e.payoutPct)
	credit := creditBalance{
		customerID:  e.prior.CustomerID,
		amountCents: payout,
		category:    model.TxnRefund,
		method:      e.prior.PaymentMethod,
		bookingID:   &e.prior.ID,
		description: fmt.Sprintf("re-rent payout for booking %d", e.prior.ID),
	}
	return credit.apply(ctx, r, now)
}
