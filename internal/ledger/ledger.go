package ledger

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/pricing"
)

// Ledger is the booking state machine plus its account side effects.
// It never talks to storage directly; every mutating operation runs as
// one Store transaction composed of explicit effects.
type Ledger struct {
	store    Store
	policy   *pricing.Policy
	notifier CalendarNotifier
	now      func() time.Time
}

// NewLedger constructs the service.  notifier may be nil, which
// disables calendar notifications.
func NewLedger(store Store, policy *pricing.Policy, notifier CalendarNotifier) *Ledger {
	if store == nil || policy == nil {
		panic("nil store or policy passed to NewLedger")
	}
	return &Ledger{
		store:    store,
		policy:   policy,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the ledger's time source.  Tests use it to pin
// "now" for the 24-hour cancellation window and the hot-booking tier.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// ConfirmRequest is a priced cart ready to be booked.  Format and
// extras apply to the whole cart; items carry their own per-candidate
// price breakdown.
type ConfirmRequest struct {
	CustomerID    uint64
	PaymentMethod model.PaymentMethod
	Format        model.BookingFormat
	Extras        []string
	Items         []pricing.PricedBooking
}

// Confirm books a whole cart atomically.  The cart is validated and
// the funds projection checked before anything mutates; a conflict or
// funds failure on any item therefore leaves no trace.  Per item, an
// overlapping re-rent-listed booking by another customer is superseded
// (status re_rented, flag cleared, payout credited to its owner)
// before the new booking is created and charged.  Calendar
// notifications go out after commit, best-effort.
func (l *Ledger) Confirm(ctx context.Context, req ConfirmRequest) ([]*model.Booking, error) {
	if err := l.validateCart(req); err != nil {
		return nil, err
	}
	var created []*model.Booking
	err := l.store.ExecTx(ctx, func(r Repos) error {
		if err := l.checkFunds(ctx, r, req); err != nil {
			return err
		}
		var err error
		created, err = l.confirmItems(ctx, r, req, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.notifyBooked(created)
	return created, nil
}

// Cancel moves a confirmed booking to cancelled and refunds the
// customer exactly what was deducted: stored HoursDeducted back to the
// subscription pool (clamped at TotalHours) or the final price back to
// the balance.  Late cancellations (<24h) are gated by the role
// matrix in roles.go.
func (l *Ledger) Cancel(ctx context.Context, bookingID uint64, reason string, actor model.RoleName) error {
	return l.store.ExecTx(ctx, func(r Repos) error {
		b, err := r.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.StatusConfirmed {
			return fmt.Errorf("%w: booking %d is %s; only confirmed bookings can be cancelled", ErrValidation, b.ID, b.Status)
		}
		hoursUntil := b.StartTime().Sub(l.now()).Hours()
		if err := authorizeCancel(actor, hoursUntil, reason); err != nil {
			return err
		}
		if err := l.refundBooking(ctx, r, b); err != nil {
			return err
		}
		b.Status = model.StatusCancelled
		b.IsReRentListed = false
		if reason != "" {
			b.CancellationReason = &reason
		}
		by := string(actor)
		b.CancelledBy = &by
		b.UpdatedAt = l.now()
		return r.Bookings.Update(ctx, b)
	})
}

// Reschedule marks the old booking rescheduled (not cancelled),
// refunds it exactly as Cancel would, and books the new cart exactly
// as Confirm would — all in one transaction.  Only the first new item
// carries the audit link to the replaced booking; any further items
// are plain new bookings.
func (l *Ledger) Reschedule(ctx context.Context, oldBookingID uint64, req ConfirmRequest) ([]*model.Booking, error) {
	if err := l.validateCart(req); err != nil {
		return nil, err
	}
	var created []*model.Booking
	err := l.store.ExecTx(ctx, func(r Repos) error {
		old, err := r.Bookings.GetByID(ctx, oldBookingID)
		if err != nil {
			return err
		}
		if old.Status != model.StatusConfirmed {
			return fmt.Errorf("%w: booking %d is %s; only confirmed bookings can be rescheduled", ErrValidation, old.ID, old.Status)
		}
		if err := l.refundBooking(ctx, r, old); err != nil {
			return err
		}
		old.Status = model.StatusRescheduled
		old.IsReRentListed = false
		old.UpdatedAt = l.now()
		if err := r.Bookings.Update(ctx, old); err != nil {
			return err
		}
		if err := l.checkFunds(ctx, r, req); err != nil {
			return err
		}
		created, err = l.confirmItems(ctx, r, req, &oldBookingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.notifyBooked(created)
	return created, nil
}

// ListForReRent flags a confirmed booking as re-offered for rental.
// The slot stops blocking new bookings; whoever takes it triggers the
// payout in Confirm.  Timing policy (>24h before start) is enforced by
// the calling collaborator, not re-validated here.  customerID 0 skips
// the ownership check (staff console).
func (l *Ledger) ListForReRent(ctx context.Context, bookingID, customerID uint64) error {
	return l.store.ExecTx(ctx, func(r Repos) error {
		b, err := r.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if customerID != 0 && b.CustomerID != customerID {
			return fmt.Errorf("%w: booking %d belongs to another customer", ErrPermission, b.ID)
		}
		if b.Status != model.StatusConfirmed {
			return fmt.Errorf("%w: booking %d is %s; only confirmed bookings can be listed for re-rent", ErrValidation, b.ID, b.Status)
		}
		b.IsReRentListed = true
		b.UpdatedAt = l.now()
		return r.Bookings.Update(ctx, b)
	})
}

// SetManualPrice is the administrative price override: the difference
// between the old and new final price is settled against the owner's
// balance (positive diff refunds, negative charges) and the discount
// kind becomes manual_override.  Subscription hours are never touched,
// even for subscription-paid bookings.
func (l *Ledger) SetManualPrice(ctx context.Context, bookingID uint64, newPriceCents int64) error {
	if newPriceCents < 0 {
		return fmt.Errorf("%w: manual price must not be negative, got %d", ErrValidation, newPriceCents)
	}
	return l.store.ExecTx(ctx, func(r Repos) error {
		b, err := r.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		diff := b.FinalPriceCents - newPriceCents
		if diff != 0 {
			eff := creditBalance{
				customerID:  b.CustomerID,
				amountCents: diff,
				category:    model.TxnAdjustment,
				method:      b.PaymentMethod,
				bookingID:   &b.ID,
				description: fmt.Sprintf("manual price override for booking %d", b.ID),
			}
			if err := eff.apply(ctx, r, l.now()); err != nil {
				return err
			}
		}
		b.FinalPriceCents = newPriceCents
		b.DiscountKind = model.DiscountManualOverride
		b.UpdatedAt = l.now()
		return r.Bookings.Update(ctx, b)
	})
}

// MarkNoShow moves a confirmed booking to no_show.  Nothing is
// refunded.
func (l *Ledger) MarkNoShow(ctx context.Context, bookingID uint64) error {
	return l.store.ExecTx(ctx, func(r Repos) error {
		b, err := r.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.StatusConfirmed {
			return fmt.Errorf("%w: booking %d is %s; only confirmed bookings can be marked no-show", ErrValidation, b.ID, b.Status)
		}
		b.Status = model.StatusNoShow
		b.IsReRentListed = false
		b.UpdatedAt = l.now()
		return r.Bookings.Update(ctx, b)
	})
}

// CompleteExpired sweeps confirmed bookings whose end instant has
// passed and marks them completed, clearing any stale re-rent listing.
// Intended to run periodically.  Returns the number of bookings swept.
func (l *Ledger) CompleteExpired(ctx context.Context) (int, error) {
	count := 0
	err := l.store.ExecTx(ctx, func(r Repos) error {
		expired, err := r.Bookings.ListConfirmedEndingBefore(ctx, l.now())
		if err != nil {
			return err
		}
		for _, b := range expired {
			b.Status = model.StatusCompleted
			b.IsReRentListed = false
			b.UpdatedAt = l.now()
			if err := r.Bookings.Update(ctx, b); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ConfirmedWeekHours returns the customer's confirmed hours in the ISO
// week containing ref.  The selection UI feeds this into the pricing
// context as the accumulated weekly hours.
func (l *Ledger) ConfirmedWeekHours(ctx context.Context, customerID uint64, ref time.Time) (float64, error) {
	from, to := WeekBounds(ref)
	bookings, err := l.store.Repos().Bookings.ListConfirmedByCustomerRange(ctx, customerID, from, to)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, b := range bookings {
		total += b.Hours()
	}
	return total, nil
}

// validateCart rejects malformed carts before any transaction starts.
func (l *Ledger) validateCart(req ConfirmRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	switch req.PaymentMethod {
	case model.PayBySubscription, model.PayByBalance:
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}
	for _, it := range req.Items {
		d := it.Candidate.DurationMin
		if d <= 0 || d%pricing.SlotMinutes != 0 {
			return fmt.Errorf("%w: duration %d min must be a positive multiple of %d", ErrValidation, d, pricing.SlotMinutes)
		}
		if it.BaseCents < 0 || it.ExtrasCents < 0 || it.DiscountCents < 0 || it.FinalCents < 0 {
			return fmt.Errorf("%w: negative price on item for resource %d", ErrValidation, it.Candidate.ResourceID)
		}
	}
	return nil
}

// checkFunds projects the whole cart against the account before any
// mutation: subscription carts need a live, unfrozen subscription
// covering the cart's format; balance carts must not push the balance
// past the negative credit limit.
func (l *Ledger) checkFunds(ctx context.Context, r Repos, req ConfirmRequest) error {
	acc, err := r.Accounts.Get(ctx, req.CustomerID)
	if err != nil {
		return err
	}
	if req.PaymentMethod == model.PayBySubscription {
		sub := acc.Subscription
		if sub == nil {
			return fmt.Errorf("%w: customer %d has no subscription", ErrValidation, req.CustomerID)
		}
		if sub.IsFrozen {
			return fmt.Errorf("%w: subscription is frozen", ErrValidation)
		}
		if sub.ExpiresAt != nil && sub.ExpiresAt.Before(l.now()) {
			return fmt.Errorf("%w: subscription expired on %s", ErrValidation, sub.ExpiresAt.Format("2006-01-02"))
		}
		if !sub.Covers(req.Format) {
			return fmt.Errorf("%w: subscription does not cover %s bookings", ErrValidation, req.Format)
		}
		return nil
	}
	var totalCents int64
	for _, it := range req.Items {
		totalCents += it.FinalCents
	}
	projected := acc.BalanceCents - totalCents
	if projected < -acc.CreditLimitCents {
		return fmt.Errorf("%w: cart total %d cents would take balance to %d, below credit limit %d",
			ErrInsufficientFunds, totalCents, projected, -acc.CreditLimitCents)
	}
	return nil
}

// confirmItems creates and charges every cart item inside the current
// transaction.  Callers have already validated the cart and checked
// funds.
func (l *Ledger) confirmItems(ctx context.Context, r Repos, req ConfirmRequest, replaces *uint64) ([]*model.Booking, error) {
	acc, err := r.Accounts.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	source := model.SourceSubscription
	if req.PaymentMethod == model.PayByBalance {
		var totalCents int64
		for _, it := range req.Items {
			totalCents += it.FinalCents
		}
		// deposit when the pre-deduction balance covers the whole cart
		if acc.BalanceCents >= totalCents {
			source = model.SourceDeposit
		} else {
			source = model.SourceCredit
		}
	}

	now := l.now()
	created := make([]*model.Booking, 0, len(req.Items))
	for i, it := range req.Items {
		c := it.Candidate
		overlapping, err := r.Bookings.ListConfirmedOverlapping(ctx, c.ResourceID, c.Date, c.StartMinute, c.EndMinute())
		if err != nil {
			return nil, err
		}
		for _, o := range overlapping {
			if o.IsReRentListed && o.CustomerID != req.CustomerID {
				eff := supersedeReRent{prior: o, payoutPct: l.policy.ReRentPayoutPercent}
				if err := eff.apply(ctx, r, now); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("%w: resource %d is already booked on %s between %s and %s",
				ErrConflict, c.ResourceID, c.Date.Format("2006-01-02"),
				minuteClock(o.StartMinute), minuteClock(o.EndMinute()))
		}

		b := &model.Booking{
			CustomerID:      req.CustomerID,
			ResourceID:      c.ResourceID,
			Date:            c.Date,
			StartMinute:     c.StartMinute,
			DurationMin:     c.DurationMin,
			Format:          req.Format,
			Extras:          req.Extras,
			PaymentMethod:   req.PaymentMethod,
			PaymentSource:   source,
			BasePriceCents:  it.BaseCents,
			ExtrasCents:     it.ExtrasCents,
			DiscountCents:   it.DiscountCents,
			DiscountKind:    it.DiscountKind,
			FinalPriceCents: it.FinalCents,
			Status:          model.StatusConfirmed,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if req.PaymentMethod == model.PayBySubscription {
			b.HoursDeducted = c.Hours()
		}
		if replaces != nil && i == 0 {
			b.ReplacesID = replaces
		}
		if err := r.Bookings.Create(ctx, b); err != nil {
			return nil, err
		}

		if req.PaymentMethod == model.PayBySubscription {
			eff := deductHours{customerID: req.CustomerID, hours: b.HoursDeducted}
			if err := eff.apply(ctx, r, now); err != nil {
				return nil, err
			}
		} else {
			eff := debitBalance{
				customerID:  req.CustomerID,
				amountCents: it.FinalCents,
				method:      req.PaymentMethod,
				bookingID:   &b.ID,
				description: fmt.Sprintf("payment for booking %d", b.ID),
			}
			if err := eff.apply(ctx, r, now); err != nil {
				return nil, err
			}
		}
		created = append(created, b)
	}
	return created, nil
}

// refundBooking reverses exactly what a booking deducted at confirm
// time: stored hours for subscription payments, final price for
// balance payments.  Refunds are always 100%.
func (l *Ledger) refundBooking(ctx context.Context, r Repos, b *model.Booking) error {
	if b.PaymentMethod == model.PayBySubscription {
		hours := b.HoursDeducted
		if hours == 0 {
			hours = b.Hours()
		}
		eff := refundHours{customerID: b.CustomerID, hours: hours}
		return eff.apply(ctx, r, l.now())
	}
	eff := creditBalance{
		customerID:  b.CustomerID,
		amountCents: b.FinalPriceCents,
		category:    model.TxnRefund,
		method:      b.PaymentMethod,
		bookingID:   &b.ID,
		description: fmt.Sprintf("refund for booking %d", b.ID),
	}
	return eff.apply(ctx, r, l.now())
}

// notifyBooked emits calendar events for freshly confirmed bookings.
// Delivery is best-effort and decoupled from the request: failures are
// logged and never reach the caller.
func (l *Ledger) notifyBooked(bookings []*model.Booking) {
	if l.notifier == nil {
		return
	}
	for _, b := range bookings {
		ev := CalendarEvent{
			BookingID:  b.ID,
			ResourceID: b.ResourceID,
			Start:      b.StartTime(),
			End:        b.StartTime().Add(time.Duration(b.DurationMin) * time.Minute),
			Title:      fmt.Sprintf("Booking %d (resource %d)", b.ID, b.ResourceID),
		}
		go func(ev CalendarEvent) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.notifier.NotifyBooked(ctx, ev); err != nil {
				log.Printf("calendar notify failed for booking %d: %v", ev.BookingID, err)
			}
		}(ev)
	}
}

// percentCents returns pct% of amount, rounded half up.
func percentCents(amount int64, pct float64) int64 {
	return int64(math.Floor(float64(amount)*pct/100.0 + 0.5))
}

// minuteClock renders minutes-since-midnight as HH:MM for error text.
func minuteClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
