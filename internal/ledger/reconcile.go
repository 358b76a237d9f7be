package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// BonusResult reports a reconciliation payout.
type BonusResult struct {
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// WeekBounds returns [Monday 00:00, next Monday 00:00) UTC of the ISO
// week containing ref.
func WeekBounds(ref time.Time) (time.Time, time.Time) {
	ref = ref.UTC()
	wd := int(ref.Weekday())
	if wd == 0 {
		wd = 7 // Sunday belongs to the week it ends
	}
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(wd - 1))
	return start, start.AddDate(0, 0, 7)
}

// weeklyFigures sums hours, pre-discount price and paid price over a
// set of bookings.  Bookings persisted before base prices were stored
// fall back to their final price.
func weeklyFigures(bookings []*model.Booking) (hours float64, baseCents, paidCents int64) {
	for _, b := range bookings {
		hours += b.Hours()
		base := b.BasePriceCents
		if base == 0 {
			base = b.FinalPriceCents
		}
		baseCents += base
		paidCents += b.FinalPriceCents
	}
	return hours, baseCents, paidCents
}

// Reconcile retroactively settles the volume discount for the ISO week
// containing ref: it recomputes what the customer's confirmed bookings
// would have cost under the weekly tier their total hours finally
// qualified for, and credits the shortfall as an expiring bonus.  It
// returns nil when the paid total already matches or undercuts the
// ideal price — the service never debits a customer.
func (l *Ledger) Reconcile(ctx context.Context, customerID uint64, ref time.Time) (*BonusResult, error) {
	from, to := WeekBounds(ref)
	var res *BonusResult
	err := l.store.ExecTx(ctx, func(r Repos) error {
		bookings, err := r.Bookings.ListConfirmedByCustomerRange(ctx, customerID, from, to)
		if err != nil {
			return err
		}
		hours, baseCents, paidCents := weeklyFigures(bookings)
		pct := l.policy.WeeklyBands.PercentFor(hours)
		idealCents := baseCents - percentCents(baseCents, pct)
		delta := paidCents - idealCents
		if delta <= 1 { // sub-cent shortfalls are noise, and overpayment only
			return nil
		}
		expires := l.now().AddDate(0, 0, l.policy.BonusExpiryDays)
		eff := creditBalance{
			customerID:  customerID,
			amountCents: delta,
			category:    model.TxnBonus,
			method:      model.PayByBalance,
			description: fmt.Sprintf("weekly volume cashback for week of %s", from.Format("2006-01-02")),
			expiresAt:   &expires,
		}
		if err := eff.apply(ctx, r, l.now()); err != nil {
			return err
		}
		res = &BonusResult{AmountCents: delta, Currency: "EUR", ExpiresAt: expires}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
