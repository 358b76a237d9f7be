package config

// This file loads the externally managed pricing policy: hourly rates
// per (category, format), the three automatic discount tiers, the
// extras catalogue, the re-rent payout share and the reconciliation
// bonus policy.  The engine itself hardcodes none of these values.
// When no file is configured (or it cannot be read), the compiled-in
// defaults are used and a warning is logged.

import (
	"encoding/json"
	"log"
	"os"

	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/pricing"
)

// pricingFile is the JSON shape of the policy file.  Rates are keyed
// "category/format" (e.g. "room/individual") in whole cents per hour.
type pricingFile struct {
	Rates               map[string]int64         `json:"rates"`
	Extras              []pricing.Extra          `json:"extras"`
	DurationBands       pricing.BandTable        `json:"duration_bands"`
	WeeklyBands         pricing.BandTable        `json:"weekly_bands"`
	Hot                 pricing.HotBookingPolicy `json:"hot_booking"`
	ReRentPayoutPercent float64                  `json:"re_rent_payout_percent"`
	BonusExpiryDays     int                      `json:"bonus_expiry_days"`
}

// LoadPricing reads the policy file at path.  An empty path returns
// the defaults silently; a broken file returns the defaults with a
// warning rather than refusing to start.
func LoadPricing(path string) *pricing.Policy {
	if path == "" {
		return pricing.DefaultPolicy()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("pricing config: cannot read %s: %v; using defaults", path, err)
		return pricing.DefaultPolicy()
	}
	var f pricingFile
	if err := json.Unmarshal(raw, &f); err != nil {
		log.Printf("pricing config: cannot parse %s: %v; using defaults", path, err)
		return pricing.DefaultPolicy()
	}
	p := pricing.DefaultPolicy()
	if len(f.Rates) > 0 {
		rates := make(pricing.RateTable, len(f.Rates))
		for key, cents := range f.Rates {
			if k, ok := parseRateKey(key); ok {
				rates[k] = cents
			} else {
				log.Printf("pricing config: skipping unknown rate key %q", key)
			}
		}
		p.Rates = rates
	}
	if len(f.Extras) > 0 {
		p.Extras = f.Extras
	}
	if len(f.DurationBands) > 0 {
		p.DurationBands = f.DurationBands
	}
	if len(f.WeeklyBands) > 0 {
		p.WeeklyBands = f.WeeklyBands
	}
	if f.Hot.Percent > 0 {
		p.Hot = f.Hot
	}
	if f.ReRentPayoutPercent > 0 {
		p.ReRentPayoutPercent = f.ReRentPayoutPercent
	}
	if f.BonusExpiryDays > 0 {
		p.BonusExpiryDays = f.BonusExpiryDays
	}
	return p
}

// parseRateKey splits "category/format" into a RateKey.
func parseRateKey(s string) (pricing.RateKey, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '/' {
			continue
		}
		cat := model.ResourceCategory(s[:i])
		f := model.BookingFormat(s[i+1:])
		catOK := cat == model.CategoryRoom || cat == model.CategoryCapsule
		fOK := f == model.FormatIndividual || f == model.FormatGroup
		if catOK && fOK {
			return pricing.RateKey{Category: cat, Format: f}, true
		}
		return pricing.RateKey{}, false
	}
	return pricing.RateKey{}, false
}
