package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-booking/internal/ledger"
	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/pricing"
	"github.com/iliyamo/coworking-booking/internal/store/memory"
)

// testNow is a Monday 09:00 UTC; test bookings default to Wednesday,
// comfortably outside the 24-hour cancellation window.
var (
	testNow     = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	bookingDate = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
)

func newTestLedger(t *testing.T) (*ledger.Ledger, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	l := ledger.NewLedger(st, pricing.DefaultPolicy(), nil)
	l.SetClock(func() time.Time { return testNow })
	return l, st
}

func seedBalance(st *memory.Store, id uint64, balanceCents, creditCents int64) {
	st.SeedAccount(&model.Account{
		CustomerID:       id,
		BalanceCents:     balanceCents,
		CreditLimitCents: creditCents,
		PricingMode:      model.PricingStandard,
	})
}

func seedSubscription(st *memory.Store, id uint64, total, remaining float64) {
	st.SeedAccount(&model.Account{
		CustomerID:  id,
		PricingMode: model.PricingStandard,
		Subscription: &model.Subscription{
			TotalHours:     total,
			RemainingHours: remaining,
		},
	})
}

func roomCandidate(resourceID uint64, date time.Time, startMin, durationMin int) pricing.BookingCandidate {
	return pricing.BookingCandidate{
		ResourceID:  resourceID,
		Category:    model.CategoryRoom,
		Date:        date,
		StartMinute: startMin,
		DurationMin: durationMin,
	}
}

// cartFor prices candidates the way the checkout pipeline does and
// wraps them in a confirm request.
func cartFor(customerID uint64, method model.PaymentMethod, cands ...pricing.BookingCandidate) ledger.ConfirmRequest {
	engine := pricing.NewEngine(pricing.DefaultPolicy())
	items, _ := engine.PriceCart(cands, pricing.Context{
		Format:        model.FormatIndividual,
		PaymentMethod: method,
		PricingMode:   model.PricingStandard,
		Now:           testNow,
	})
	return ledger.ConfirmRequest{
		CustomerID:    customerID,
		PaymentMethod: method,
		Format:        model.FormatIndividual,
		Items:         items,
	}
}

func getAccount(t *testing.T, st *memory.Store, id uint64) *model.Account {
	t.Helper()
	a, err := st.Repos().Accounts.Get(context.Background(), id)
	require.NoError(t, err)
	return a
}

func listTxns(t *testing.T, st *memory.Store, id uint64) []*model.LedgerTransaction {
	t.Helper()
	txns, err := st.Repos().Transactions.ListByCustomer(context.Background(), id, 0)
	require.NoError(t, err)
	return txns
}

func TestConfirmChargesBalance(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	// 2h room/individual: base 4000, duration tier 10% -> 3600.
	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120)))
	require.NoError(t, err)
	require.Len(t, created, 1)

	b := created[0]
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, model.SourceDeposit, b.PaymentSource)
	assert.Equal(t, int64(3600), b.FinalPriceCents)
	assert.Zero(t, b.HoursDeducted)

	assert.Equal(t, int64(96_400), getAccount(t, st, 1).BalanceCents)

	txns := listTxns(t, st, 1)
	require.Len(t, txns, 1)
	assert.Equal(t, model.TxnPayment, txns[0].Category)
	assert.Equal(t, int64(-3600), txns[0].AmountCents)
	require.NotNil(t, txns[0].BookingID)
	assert.Equal(t, b.ID, *txns[0].BookingID)
}

func TestConfirmCreditSourceWhenBalanceShort(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 2000, 10_000)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120)))
	require.NoError(t, err)

	assert.Equal(t, model.SourceCredit, created[0].PaymentSource)
	assert.Equal(t, int64(-1600), getAccount(t, st, 1).BalanceCents)
}

func TestConfirmRejectsBeyondCreditLimit(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 1000, 2000)

	_, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120))) // 3600 > 1000 + 2000
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Nothing mutated.
	assert.Equal(t, int64(1000), getAccount(t, st, 1).BalanceCents)
	assert.Empty(t, listTxns(t, st, 1))
}

func TestConfirmRejectsConflict(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)
	seedBalance(st, 2, 100_000, 0)

	_, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120)))
	require.NoError(t, err)

	_, err = l.Confirm(context.Background(), cartFor(2, model.PayByBalance,
		roomCandidate(1, bookingDate, 630, 60)))
	require.ErrorIs(t, err, ledger.ErrConflict)
	assert.Equal(t, int64(100_000), getAccount(t, st, 2).BalanceCents)
}

func TestConfirmBackToBackIsNotAConflict(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)
	seedBalance(st, 2, 100_000, 0)

	_, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 60)))
	require.NoError(t, err)

	// Half-open ranges: 11:00 start against an 11:00 end is fine.
	_, err = l.Confirm(context.Background(), cartFor(2, model.PayByBalance,
		roomCandidate(1, bookingDate, 660, 60)))
	require.NoError(t, err)
}

func TestConfirmCartIsAtomic(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)
	seedBalance(st, 2, 100_000, 0)

	_, err := l.Confirm(context.Background(), cartFor(2, model.PayByBalance,
		roomCandidate(2, bookingDate, 600, 60)))
	require.NoError(t, err)

	// Second item of the cart conflicts; the first must not survive.
	_, err = l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 60),
		roomCandidate(2, bookingDate, 600, 60)))
	require.ErrorIs(t, err, ledger.ErrConflict)

	mine, err := st.Repos().Bookings.ListByCustomer(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, mine)
	assert.Equal(t, int64(100_000), getAccount(t, st, 1).BalanceCents)
}

func TestConfirmSpendsSubscriptionHours(t *testing.T) {
	l, st := newTestLedger(t)
	seedSubscription(st, 1, 10, 10)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayBySubscription,
		roomCandidate(1, bookingDate, 600, 120)))
	require.NoError(t, err)

	b := created[0]
	assert.Equal(t, model.SourceSubscription, b.PaymentSource)
	assert.Equal(t, 2.0, b.HoursDeducted)
	assert.Zero(t, b.DiscountCents)

	acc := getAccount(t, st, 1)
	assert.Equal(t, 8.0, acc.Subscription.RemainingHours)
	assert.Zero(t, acc.BalanceCents)
	// Hour movements never appear on the cash ledger.
	assert.Empty(t, listTxns(t, st, 1))
}

func TestConfirmSubscriptionGuards(t *testing.T) {
	expired := testNow.AddDate(0, 0, -1)

	cases := []struct {
		name string
		acct *model.Account
	}{
		{"no subscription", &model.Account{CustomerID: 1, PricingMode: model.PricingStandard}},
		{"frozen", &model.Account{CustomerID: 1, PricingMode: model.PricingStandard,
			Subscription: &model.Subscription{TotalHours: 10, RemainingHours: 10, IsFrozen: true}}},
		{"expired", &model.Account{CustomerID: 1, PricingMode: model.PricingStandard,
			Subscription: &model.Subscription{TotalHours: 10, RemainingHours: 10, ExpiresAt: &expired}}},
		{"format not covered", &model.Account{CustomerID: 1, PricingMode: model.PricingStandard,
			Subscription: &model.Subscription{TotalHours: 10, RemainingHours: 10,
				IncludedFormats: []model.BookingFormat{model.FormatGroup}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, st := newTestLedger(t)
			st.SeedAccount(tc.acct)

			_, err := l.Confirm(context.Background(), cartFor(1, model.PayBySubscription,
				roomCandidate(1, bookingDate, 600, 60)))
			require.ErrorIs(t, err, ledger.ErrValidation)
		})
	}
}

func TestConfirmSupersedesReRentListing(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)
	seedBalance(st, 2, 100_000, 0)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120))) // paid 3600
	require.NoError(t, err)
	priorID := created[0].ID

	require.NoError(t, l.ListForReRent(context.Background(), priorID, 1))

	// Another customer takes the slot.
	taken, err := l.Confirm(context.Background(), cartFor(2, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120)))
	require.NoError(t, err)
	require.Len(t, taken, 1)
	assert.Equal(t, model.StatusConfirmed, taken[0].Status)

	prior, err := st.Repos().Bookings.GetByID(context.Background(), priorID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReRented, prior.Status)
	assert.False(t, prior.IsReRentListed)

	// Owner got 50% of what they paid.
	assert.Equal(t, int64(100_000-3600+1800), getAccount(t, st, 1).BalanceCents)
	txns := listTxns(t, st, 1)
	require.Len(t, txns, 2)
	assert.Equal(t, model.TxnRefund, txns[0].Category)
	assert.Equal(t, int64(1800), txns[0].AmountCents)
}

func TestConfirmOwnReRentedSlotStillConflicts(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 60)))
	require.NoError(t, err)
	require.NoError(t, l.ListForReRent(context.Background(), created[0].ID, 1))

	// The listing only opens the slot to other customers.
	_, err = l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 60)))
	require.ErrorIs(t, err, ledger.ErrConflict)
}

func TestCancelRefundsBalance(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120)))
	require.NoError(t, err)

	require.NoError(t, l.Cancel(context.Background(), created[0].ID, "", model.RoleUser))

	b, err := st.Repos().Bookings.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, b.Status)
	require.NotNil(t, b.CancelledBy)
	assert.Equal(t, "user", *b.CancelledBy)
	assert.Nil(t, b.CancellationReason)

	assert.Equal(t, int64(100_000), getAccount(t, st, 1).BalanceCents)
	txns := listTxns(t, st, 1)
	require.Len(t, txns, 2)
	assert.Equal(t, model.TxnRefund, txns[0].Category)
	assert.Equal(t, int64(3600), txns[0].AmountCents)
}

func TestCancelRefundsStoredHours(t *testing.T) {
	l, st := newTestLedger(t)
	seedSubscription(st, 1, 10, 10)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayBySubscription,
		roomCandidate(1, bookingDate, 600, 180)))
	require.NoError(t, err)
	assert.Equal(t, 7.0, getAccount(t, st, 1).Subscription.RemainingHours)

	require.NoError(t, l.Cancel(context.Background(), created[0].ID, "", model.RoleUser))
	assert.Equal(t, 10.0, getAccount(t, st, 1).Subscription.RemainingHours)
}

func TestCancelHourRefundClampsAtTotal(t *testing.T) {
	l, st := newTestLedger(t)
	// Pool nearly empty: a 2h deduction clamps to zero, yet the
	// booking records the full 2h it was granted.
	seedSubscription(st, 1, 10, 1)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayBySubscription,
		roomCandidate(1, bookingDate, 600, 120)))
	require.NoError(t, err)
	assert.Equal(t, 0.0, getAccount(t, st, 1).Subscription.RemainingHours)
	assert.Equal(t, 2.0, created[0].HoursDeducted)

	// The refund restores the stored 2h; the customer comes out one
	// hour ahead, which the clamp pair accepts by design of the pool.
	require.NoError(t, l.Cancel(context.Background(), created[0].ID, "", model.RoleUser))
	assert.Equal(t, 2.0, getAccount(t, st, 1).Subscription.RemainingHours)
}

func TestCancelLateRules(t *testing.T) {
	// Booking starts one hour from testNow.
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		role    model.RoleName
		reason  string
		wantErr bool
	}{
		{"user without reason", model.RoleUser, "", true},
		{"user with reason", model.RoleUser, "sick", false},
		{"admin even with reason", model.RoleAdmin, "emergency", true},
		{"senior admin with reason", model.RoleSeniorAdmin, "overbooked", false},
		{"senior admin without reason", model.RoleSeniorAdmin, "", true},
		{"owner with reason", model.RoleOwner, "maintenance", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, st := newTestLedger(t)
			seedBalance(st, 1, 100_000, 0)
			created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
				roomCandidate(1, today, 600, 60)))
			require.NoError(t, err)

			err = l.Cancel(context.Background(), created[0].ID, tc.reason, tc.role)
			if tc.wantErr {
				require.ErrorIs(t, err, ledger.ErrPermission)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCancelOnlyConfirmed(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 60)))
	require.NoError(t, err)
	require.NoError(t, l.Cancel(context.Background(), created[0].ID, "", model.RoleUser))

	err = l.Cancel(context.Background(), created[0].ID, "", model.RoleUser)
	require.ErrorIs(t, err, ledger.ErrValidation)
}

func TestRescheduleLinksReplacement(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120))) // 3600
	require.NoError(t, err)
	oldID := created[0].ID

	nextDay := bookingDate.AddDate(0, 0, 1)
	moved, err := l.Reschedule(context.Background(), oldID, cartFor(1, model.PayByBalance,
		roomCandidate(1, nextDay, 660, 120)))
	require.NoError(t, err)
	require.Len(t, moved, 1)

	old, err := st.Repos().Bookings.GetByID(context.Background(), oldID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRescheduled, old.Status)

	require.NotNil(t, moved[0].ReplacesID)
	assert.Equal(t, oldID, *moved[0].ReplacesID)

	// Full refund plus a fresh charge of the same amount.
	assert.Equal(t, int64(100_000-3600), getAccount(t, st, 1).BalanceCents)
	assert.Len(t, listTxns(t, st, 1), 3)
}

func TestRescheduleRollsBackOnFailure(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 4000, 0)
	seedBalance(st, 2, 100_000, 0)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120))) // balance now 400
	require.NoError(t, err)

	// Target slot is taken by someone else: the whole reschedule must
	// unwind, leaving the original booking confirmed and unrefunded.
	_, err = l.Confirm(context.Background(), cartFor(2, model.PayByBalance,
		roomCandidate(2, bookingDate, 600, 120)))
	require.NoError(t, err)

	_, err = l.Reschedule(context.Background(), created[0].ID, cartFor(1, model.PayByBalance,
		roomCandidate(2, bookingDate, 600, 120)))
	require.ErrorIs(t, err, ledger.ErrConflict)

	old, err := st.Repos().Bookings.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, old.Status)
	assert.Equal(t, int64(400), getAccount(t, st, 1).BalanceCents)
}

func TestListForReRentOwnership(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 60)))
	require.NoError(t, err)

	err = l.ListForReRent(context.Background(), created[0].ID, 2)
	require.ErrorIs(t, err, ledger.ErrPermission)

	// Customer 0 is the staff console and bypasses ownership.
	require.NoError(t, l.ListForReRent(context.Background(), created[0].ID, 0))

	b, err := st.Repos().Bookings.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.True(t, b.IsReRentListed)
}

func TestSetManualPriceSettlesDifference(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120))) // paid 3600
	require.NoError(t, err)

	require.NoError(t, l.SetManualPrice(context.Background(), created[0].ID, 3000))

	b, err := st.Repos().Bookings.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), b.FinalPriceCents)
	assert.Equal(t, model.DiscountManualOverride, b.DiscountKind)
	assert.Equal(t, int64(100_000-3000), getAccount(t, st, 1).BalanceCents)

	txns := listTxns(t, st, 1)
	require.Len(t, txns, 2)
	assert.Equal(t, model.TxnAdjustment, txns[0].Category)
	assert.Equal(t, int64(600), txns[0].AmountCents)

	// Raising the price charges the difference.
	require.NoError(t, l.SetManualPrice(context.Background(), created[0].ID, 5000))
	assert.Equal(t, int64(100_000-5000), getAccount(t, st, 1).BalanceCents)
}

func TestSetManualPriceNeverTouchesHours(t *testing.T) {
	l, st := newTestLedger(t)
	seedSubscription(st, 1, 10, 10)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayBySubscription,
		roomCandidate(1, bookingDate, 600, 120)))
	require.NoError(t, err)

	require.NoError(t, l.SetManualPrice(context.Background(), created[0].ID, 1000))

	acc := getAccount(t, st, 1)
	assert.Equal(t, 8.0, acc.Subscription.RemainingHours)
	// The cash difference still lands on the balance.
	assert.Equal(t, int64(3000), acc.BalanceCents)
}

func TestSetManualPriceRejectsNegative(t *testing.T) {
	l, _ := newTestLedger(t)
	err := l.SetManualPrice(context.Background(), 1, -100)
	require.ErrorIs(t, err, ledger.ErrValidation)
}

func TestMarkNoShowKeepsTheMoney(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120)))
	require.NoError(t, err)

	require.NoError(t, l.MarkNoShow(context.Background(), created[0].ID))

	b, err := st.Repos().Bookings.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoShow, b.Status)
	assert.Equal(t, int64(96_400), getAccount(t, st, 1).BalanceCents)
	assert.Len(t, listTxns(t, st, 1), 1)
}

func TestCompleteExpiredSweep(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	past := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	created, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, past, 600, 60),
		roomCandidate(2, bookingDate, 600, 60)))
	require.NoError(t, err)
	require.NoError(t, l.ListForReRent(context.Background(), created[0].ID, 1))

	n, err := l.CompleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	done, err := st.Repos().Bookings.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.False(t, done.IsReRentListed)

	future, err := st.Repos().Bookings.GetByID(context.Background(), created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, future.Status)
}

func TestConfirmedWeekHours(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	_, err := l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate, 600, 120),
		roomCandidate(2, bookingDate, 600, 90)))
	require.NoError(t, err)

	// A booking in the following week must not count.
	_, err = l.Confirm(context.Background(), cartFor(1, model.PayByBalance,
		roomCandidate(1, bookingDate.AddDate(0, 0, 7), 600, 60)))
	require.NoError(t, err)

	hours, err := l.ConfirmedWeekHours(context.Background(), 1, bookingDate)
	require.NoError(t, err)
	assert.Equal(t, 3.5, hours)
}

func TestValidateCartRejectsNonsense(t *testing.T) {
	l, st := newTestLedger(t)
	seedBalance(st, 1, 100_000, 0)

	_, err := l.Confirm(context.Background(), ledger.ConfirmRequest{
		CustomerID:    1,
		PaymentMethod: model.PayByBalance,
		Format:        model.FormatIndividual,
	})
	require.ErrorIs(t, err, ledger.ErrValidation)

	req := cartFor(1, model.PayByBalance, roomCandidate(1, bookingDate, 600, 60))
	req.PaymentMethod = "barter"
	_, err = l.Confirm(context.Background(), req)
	require.ErrorIs(t, err, ledger.ErrValidation)

	req = cartFor(1, model.PayByBalance, roomCandidate(1, bookingDate, 600, 60))
	req.Items[0].Candidate.DurationMin = 45
	_, err = l.Confirm(context.Background(), req)
	require.ErrorIs(t, err, ledger.ErrValidation)
}
