// Package pricing contains the pure computation core of the booking
// engine: slot aggregation, rate lookup and discount resolution.  All
// functions in this package are side-effect free; money is integer
// cents throughout.
package pricing

import (
	"github.com/iliyamo/coworking-booking/internal/model"
)

// RateKey identifies one cell of the rate table.
type RateKey struct {
	Category model.ResourceCategory
	Format   model.BookingFormat
}

// RateTable maps (category, format) to an hourly rate in cents.
type RateTable map[RateKey]int64

// HourlyCents returns the configured hourly rate, or 0 when the pair
// is not priced (callers treat that as a validation failure).
func (t RateTable) HourlyCents(cat model.ResourceCategory, f model.BookingFormat) int64 {
	return t[RateKey{Category: cat, Format: f}]
}

// Band is one row of an ascending discount table.  MinHours is
// inclusive, MaxHours exclusive; MaxHours <= 0 means unbounded.
type Band struct {
	MinHours float64 `json:"min_hours"`
	MaxHours float64 `json:"max_hours"`
	Percent  float64 `json:"percent"`
}

// BandTable is an ascending list of bands.  PercentFor scans for the
// band containing the given hour count and returns its percent, or 0
// when no band matches.
type BandTable []Band

// PercentFor returns the discount percent for the given hours.
func (bt BandTable) PercentFor(hours float64) float64 {
	for _, b := range bt {
		if hours < b.MinHours {
			continue
		}
		if b.MaxHours > 0 && hours >= b.MaxHours {
			continue
		}
		return b.Percent
	}
	return 0
}

// HotBookingPolicy configures the last-minute discount: a flat percent
// for bookings starting within LeadTimeHours from "now".  Start times
// already in the past never qualify.
type HotBookingPolicy struct {
	Percent       float64 `json:"percent"`
	LeadTimeHours float64 `json:"lead_time_hours"`
}

// Extra is a one-time flat add-on selected once per checkout, not
// scaled by duration.
type Extra struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// Policy bundles every externally configurable pricing input: hourly
// rates, the three automatic discount tiers, the extras catalogue, the
// re-rent payout share and the reconciliation bonus policy.  The
// engine never hardcodes any of these values.
type Policy struct {
	Rates               RateTable
	Extras              []Extra
	DurationBands       BandTable
	WeeklyBands         BandTable
	Hot                 HotBookingPolicy
	ReRentPayoutPercent float64
	BonusExpiryDays     int
}

// ExtraPriceCents returns the catalogue price of a named extra, or 0
// when the name is unknown.
func (p *Policy) ExtraPriceCents(name string) int64 {
	for _, e := range p.Extras {
		if e.Name == name {
			return e.PriceCents
		}
	}
	return 0
}

// ExtrasTotalCents sums the catalogue prices of the named extras.
func (p *Policy) ExtrasTotalCents(names []string) int64 {
	var total int64
	for _, n := range names {
		total += p.ExtraPriceCents(n)
	}
	return total
}

// DefaultPolicy returns the compiled-in pricing policy used when no
// external configuration file is supplied.
func DefaultPolicy() *Policy {
	return &Policy{
		Rates: RateTable{
			{model.CategoryRoom, model.FormatIndividual}:    2000, // 20.00/h
			{model.CategoryRoom, model.FormatGroup}:         3000,
			{model.CategoryCapsule, model.FormatIndividual}: 1200,
			{model.CategoryCapsule, model.FormatGroup}:      1200,
		},
		Extras: []Extra{
			{Name: "flipchart", PriceCents: 500},
			{Name: "projector", PriceCents: 1000},
			{Name: "coffee_set", PriceCents: 800},
		},
		DurationBands: BandTable{
			{MinHours: 2, MaxHours: 3, Percent: 10},
			{MinHours: 3, MaxHours: 4, Percent: 15},
			{MinHours: 4, MaxHours: 0, Percent: 20},
		},
		WeeklyBands: BandTable{
			{MinHours: 0, MaxHours: 5, Percent: 0},
			{MinHours: 5, MaxHours: 11, Percent: 10},
			{MinHours: 11, MaxHours: 16, Percent: 25},
			{MinHours: 16, MaxHours: 0, Percent: 50},
		},
		Hot:                 HotBookingPolicy{Percent: 10, LeadTimeHours: 12},
		ReRentPayoutPercent: 50,
		BonusExpiryDays:     30,
	}
}
