package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// farFromStart is a "now" more than the hot lead time before any test
// candidate, so the hot tier stays out of the way unless a test wants it.
var farFromStart = testDate.AddDate(0, 0, -3)

func cand(durationMin int) BookingCandidate {
	return BookingCandidate{
		ResourceID:  1,
		Category:    model.CategoryRoom,
		Date:        testDate,
		StartMinute: 600,
		DurationMin: durationMin,
	}
}

func balanceCtx() Context {
	return Context{
		Format:        model.FormatIndividual,
		PaymentMethod: model.PayByBalance,
		PricingMode:   model.PricingStandard,
		Now:           farFromStart,
	}
}

func TestBasePriceCountsHalfHours(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	// 90 min of room/individual at 20.00/h = 3 half-hours at 10.00.
	pb := e.Price(cand(90), balanceCtx())
	assert.Equal(t, int64(3000), pb.BaseCents)

	// Pricing the same span as three separate 30-minute candidates
	// yields the identical total.
	var slotSum int64
	for m := 600; m < 690; m += SlotMinutes {
		c := cand(30)
		c.StartMinute = m
		slotSum += e.Price(c, balanceCtx()).BaseCents
	}
	assert.Equal(t, pb.BaseCents, slotSum)
}

func TestDurationDiscountBands(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	cases := []struct {
		name     string
		duration int
		pct      float64
		kind     model.DiscountKind
	}{
		{"below first band", 90, 0, model.DiscountNone},
		{"two hours", 120, 10, model.DiscountDuration},
		{"three hours", 180, 15, model.DiscountDuration},
		{"four hours and up", 300, 20, model.DiscountDuration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pb := e.Price(cand(tc.duration), balanceCtx())
			assert.Equal(t, tc.pct, pb.DiscountPct)
			assert.Equal(t, tc.kind, pb.DiscountKind)
		})
	}
}

func TestWeeklyTierUsesAccumulatedHours(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	// 10h already this week + 1h candidate = 11h -> 25% weekly band.
	// The candidate alone is under every duration band.
	ctx := balanceCtx()
	ctx.WeeklyHours = 10
	pb := e.Price(cand(60), ctx)

	assert.Equal(t, 25.0, pb.DiscountPct)
	assert.Equal(t, model.DiscountWeekly, pb.DiscountKind)
	// base 2000, 25% off
	assert.Equal(t, int64(500), pb.DiscountCents)
	assert.Equal(t, int64(1500), pb.FinalCents)
}

func TestTierTieKeepsDuration(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	// 2h candidate: duration band gives 10%.  4h prior weekly hours
	// put the total at 6h, which is also the 10% weekly band.  The
	// earlier tier in the fixed order wins the tie.
	ctx := balanceCtx()
	ctx.WeeklyHours = 4
	pb := e.Price(cand(120), ctx)

	assert.Equal(t, 10.0, pb.DiscountPct)
	assert.Equal(t, model.DiscountDuration, pb.DiscountKind)
}

func TestHotBookingWindow(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	ctx := balanceCtx()
	ctx.Now = cand(60).StartTime().Add(-2 * time.Hour) // inside the 12h window
	pb := e.Price(cand(60), ctx)
	assert.Equal(t, 10.0, pb.DiscountPct)
	assert.Equal(t, model.DiscountHot, pb.DiscountKind)

	// A start already in the past never qualifies.
	ctx.Now = cand(60).StartTime().Add(30 * time.Minute)
	pb = e.Price(cand(60), ctx)
	assert.Equal(t, model.DiscountNone, pb.DiscountKind)
	assert.Zero(t, pb.DiscountCents)
}

func TestSubscriptionPaymentGetsNoDiscount(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	ctx := balanceCtx()
	ctx.PaymentMethod = model.PayBySubscription
	ctx.WeeklyHours = 20 // would be 50% on a balance cart
	pb := e.Price(cand(240), ctx)

	assert.Zero(t, pb.DiscountCents)
	assert.Equal(t, model.DiscountNone, pb.DiscountKind)
	assert.Equal(t, pb.BaseCents, pb.FinalCents)
}

func TestPersonalModeBypassesTiers(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	ctx := balanceCtx()
	ctx.PricingMode = model.PricingPersonal
	ctx.PersonalPercent = 30
	pb := e.Price(cand(240), ctx) // duration band would give 20%

	assert.Equal(t, 30.0, pb.DiscountPct)
	assert.Equal(t, model.DiscountPersonal, pb.DiscountKind)
	assert.Equal(t, int64(8000), pb.BaseCents)
	assert.Equal(t, int64(2400), pb.DiscountCents)
	assert.Equal(t, int64(5600), pb.FinalCents)
}

func TestFinalPriceClampsAtZero(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	ctx := balanceCtx()
	ctx.PricingMode = model.PricingPersonal
	ctx.PersonalPercent = 150
	pb := e.Price(cand(60), ctx)

	assert.Equal(t, int64(0), pb.FinalCents)
}

func TestPriceCartAttachesExtrasOnce(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	ctx := balanceCtx()
	ctx.Extras = []string{"projector", "flipchart"} // 10.00 + 5.00
	cands := []BookingCandidate{cand(60), {
		ResourceID:  2,
		Category:    model.CategoryCapsule,
		Date:        testDate,
		StartMinute: 600,
		DurationMin: 60,
	}}
	items, total := e.PriceCart(cands, ctx)

	require.Len(t, items, 2)
	assert.Equal(t, int64(1500), items[0].ExtrasCents)
	assert.Zero(t, items[1].ExtrasCents)
	assert.Equal(t, int64(1500), total.ExtrasCents)
	assert.Equal(t, int64(2000+1200), total.BaseCents)
	assert.Equal(t, total.BaseCents+total.ExtrasCents-total.DiscountCents, total.FinalCents)
}

func TestUnknownExtraCostsNothing(t *testing.T) {
	p := DefaultPolicy()
	assert.Zero(t, p.ExtraPriceCents("helipad"))
	assert.Equal(t, int64(500), p.ExtrasTotalCents([]string{"flipchart", "helipad"}))
}

func TestBandTablePercentFor(t *testing.T) {
	bt := BandTable{
		{MinHours: 2, MaxHours: 3, Percent: 10},
		{MinHours: 3, MaxHours: 0, Percent: 15},
	}
	assert.Zero(t, bt.PercentFor(1.5))
	assert.Equal(t, 10.0, bt.PercentFor(2))   // min inclusive
	assert.Equal(t, 15.0, bt.PercentFor(3))   // max exclusive
	assert.Equal(t, 15.0, bt.PercentFor(100)) // unbounded tail
}
