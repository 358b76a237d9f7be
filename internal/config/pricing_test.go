package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/pricing"
)

func TestLoadPricingEmptyPathReturnsDefaults(t *testing.T) {
	p := LoadPricing("")
	def := pricing.DefaultPolicy()
	assert.Equal(t, def.Rates, p.Rates)
	assert.Equal(t, def.ReRentPayoutPercent, p.ReRentPayoutPercent)
}

func TestLoadPricingBrokenFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := LoadPricing(path)
	assert.Equal(t, pricing.DefaultPolicy().Rates, p.Rates)

	p = LoadPricing(filepath.Join(dir, "missing.json"))
	assert.Equal(t, pricing.DefaultPolicy().Rates, p.Rates)
}

func TestLoadPricingOverrides(t *testing.T) {
	raw := `{
		"rates": {"room/individual": 2500, "attic/individual": 999},
		"duration_bands": [{"min_hours": 1, "max_hours": 0, "percent": 5}],
		"re_rent_payout_percent": 60,
		"bonus_expiry_days": 14
	}`
	path := filepath.Join(t.TempDir(), "pricing.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	p := LoadPricing(path)

	assert.Equal(t, int64(2500), p.Rates.HourlyCents(model.CategoryRoom, model.FormatIndividual))
	// The unknown key is skipped, and the replaced table does not
	// inherit default rows.
	assert.Zero(t, p.Rates.HourlyCents(model.CategoryCapsule, model.FormatIndividual))
	assert.Equal(t, 5.0, p.DurationBands.PercentFor(2))
	assert.Equal(t, 60.0, p.ReRentPayoutPercent)
	assert.Equal(t, 14, p.BonusExpiryDays)
	// Untouched sections keep their defaults.
	assert.Equal(t, pricing.DefaultPolicy().WeeklyBands, p.WeeklyBands)
}

func TestParseRateKey(t *testing.T) {
	k, ok := parseRateKey("capsule/group")
	require.True(t, ok)
	assert.Equal(t, model.CategoryCapsule, k.Category)
	assert.Equal(t, model.FormatGroup, k.Format)

	_, ok = parseRateKey("capsule")
	assert.False(t, ok)
	_, ok = parseRateKey("room/hourly")
	assert.False(t, ok)
}
