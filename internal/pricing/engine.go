package pricing

import "github.com/iliyamo/coworking-booking/internal/model"

// PricedBooking is a candidate plus the money amounts computed for it.
// FinalCents = max(0, BaseCents + ExtrasCents - DiscountCents); the
// engine clamps rather than erroring, so FinalCents is never negative.
type PricedBooking struct {
	Candidate     BookingCandidate
	BaseCents     int64
	ExtrasCents   int64
	DiscountCents int64
	DiscountPct   float64
	DiscountKind  model.DiscountKind
	FinalCents    int64
}

// CartTotal sums the per-item amounts of a priced cart.  Each money
// field sums independently; the discount kind stays per item and is
// never merged.
type CartTotal struct {
	BaseCents     int64
	ExtrasCents   int64
	DiscountCents int64
	FinalCents    int64
}

// Engine resolves prices for booking candidates using an externally
// supplied policy.  It is stateless and safe for concurrent use.
type Engine struct {
	policy *Policy
	rules  []discountRule
}

// NewEngine builds an engine with the rule chain in its fixed priority
// order: subscription payment, personal override, then the automatic
// tier group.
func NewEngine(policy *Policy) *Engine {
	return &Engine{
		policy: policy,
		rules: []discountRule{
			subscriptionRule{},
			personalRule{},
			autoTierRule{
				duration: policy.DurationBands,
				weekly:   policy.WeeklyBands,
				hot:      policy.Hot,
			},
		},
	}
}

// Policy exposes the engine's pricing policy for collaborators that
// need the raw tables (reconciliation, re-rent payout share).
func (e *Engine) Policy() *Policy { return e.policy }

// baseCents computes the pre-discount price of a candidate.  It counts
// half-hour units at half the hourly rate, so pricing a candidate by
// duration and pricing its tokens one by one yield identical totals.
func (e *Engine) baseCents(c BookingCandidate, format model.BookingFormat) int64 {
	hourly := e.policy.Rates.HourlyCents(c.Category, format)
	halfHours := int64(c.DurationMin / SlotMinutes)
	return halfHours * (hourly / 2)
}

// Price computes the full price breakdown for one candidate.  The
// extras in ctx are charged in full on this item; carts spread extras
// via PriceCart instead, which attaches them to the first item only.
func (e *Engine) Price(c BookingCandidate, ctx Context) PricedBooking {
	base := e.baseCents(c, ctx.Format)
	extras := e.policy.ExtrasTotalCents(ctx.Extras)

	pct := 0.0
	kind := model.DiscountNone
	for _, r := range e.rules {
		if p, k, ok := r.Applicable(c, ctx); ok {
			pct, kind = p, k
			break
		}
	}
	discount := percentOf(base, pct)
	if pct == 0 {
		kind = model.DiscountNone
	}

	final := base + extras - discount
	if final < 0 {
		final = 0
	}
	return PricedBooking{
		Candidate:     c,
		BaseCents:     base,
		ExtrasCents:   extras,
		DiscountCents: discount,
		DiscountPct:   pct,
		DiscountKind:  kind,
		FinalCents:    final,
	}
}

// PriceCart prices every candidate in a selection and reduces the cart
// total.  Extras are selected once per checkout, so their one-time
// price is attached to the first item and the remaining items are
// priced without extras.
func (e *Engine) PriceCart(cands []BookingCandidate, ctx Context) ([]PricedBooking, CartTotal) {
	items := make([]PricedBooking, 0, len(cands))
	var total CartTotal
	for i, c := range cands {
		itemCtx := ctx
		if i > 0 {
			itemCtx.Extras = nil
		}
		pb := e.Price(c, itemCtx)
		items = append(items, pb)
		total.BaseCents += pb.BaseCents
		total.ExtrasCents += pb.ExtrasCents
		total.DiscountCents += pb.DiscountCents
		total.FinalCents += pb.FinalCents
	}
	return items, total
}
