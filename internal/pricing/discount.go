package pricing

import (
	"math"
	"time"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// Context carries the per-checkout inputs the discount rules need.
// WeeklyHours counts hours already confirmed in the current ISO week,
// before this cart.
type Context struct {
	Format          model.BookingFormat
	PaymentMethod   model.PaymentMethod
	PricingMode     model.PricingMode
	PersonalPercent float64
	WeeklyHours     float64
	Extras          []string
	Now             time.Time
}

// discountRule is one link of the resolution chain.  Rules are probed
// in fixed priority order and exactly one rule wins per candidate;
// percents from different rules never stack.
type discountRule interface {
	// Applicable returns the percent and kind this rule would apply,
	// or ok=false when the rule does not claim the candidate.
	Applicable(c BookingCandidate, ctx Context) (percent float64, kind model.DiscountKind, ok bool)
}

// subscriptionRule claims every subscription-paid cart with a zero
// percent: subscription checkout spends hours, not money, so no cash
// discount ever applies on top.
type subscriptionRule struct{}

func (subscriptionRule) Applicable(_ BookingCandidate, ctx Context) (float64, model.DiscountKind, bool) {
	if ctx.PaymentMethod == model.PayBySubscription {
		return 0, model.DiscountNone, true
	}
	return 0, model.DiscountNone, false
}

// personalRule applies a fixed per-customer percent when the account
// is in personal pricing mode, bypassing all automatic tiers.
type personalRule struct{}

func (personalRule) Applicable(_ BookingCandidate, ctx Context) (float64, model.DiscountKind, bool) {
	if ctx.PricingMode == model.PricingPersonal && ctx.PersonalPercent > 0 {
		return ctx.PersonalPercent, model.DiscountPersonal, true
	}
	return 0, model.DiscountPersonal, false
}

// autoTierRule evaluates the three automatic tiers independently and
// keeps the single highest percent.  Ties break toward the earlier
// tier in the fixed order duration > weekly > hot.
type autoTierRule struct {
	duration BandTable
	weekly   BandTable
	hot      HotBookingPolicy
}

func (r autoTierRule) Applicable(c BookingCandidate, ctx Context) (float64, model.DiscountKind, bool) {
	best := 0.0
	kind := model.DiscountNone

	if p := r.duration.PercentFor(c.Hours()); p > best {
		best, kind = p, model.DiscountDuration
	}
	if p := r.weekly.PercentFor(ctx.WeeklyHours + c.Hours()); p > best {
		best, kind = p, model.DiscountWeekly
	}
	if p := r.hotPercent(c, ctx.Now); p > best {
		best, kind = p, model.DiscountHot
	}
	return best, kind, true
}

// hotPercent returns the hot-booking percent when the candidate starts
// within the configured lead-time window from now.  A start already in
// the past does not qualify.
func (r autoTierRule) hotPercent(c BookingCandidate, now time.Time) float64 {
	if r.hot.Percent <= 0 || r.hot.LeadTimeHours <= 0 {
		return 0
	}
	lead := c.StartTime().Sub(now)
	if lead < 0 {
		return 0
	}
	if lead.Hours() <= r.hot.LeadTimeHours {
		return r.hot.Percent
	}
	return 0
}

// percentOf returns pct% of amount in cents, rounded half up.
func percentOf(amount int64, pct float64) int64 {
	return int64(math.Floor(float64(amount)*pct/100.0 + 0.5))
}
