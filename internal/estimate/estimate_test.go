package estimate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proppant-cli/internal/model"
)

var (
	q1 = model.Quarter{Year: 2024, Num: 1}
	q2 = model.Quarter{Year: 2024, Num: 2}
	q3 = model.Quarter{Year: 2024, Num: 3}
	q4 = model.Quarter{Year: 2024, Num: 4}
)

func pricing() Pricing {
	return Pricing{PricePerUnit: 60, ContractFraction: 0.8, SpotMultiplier: 1.0, MassPerPricingUnit: 2000}
}

func TestForward(t *testing.T) {
	f := pricing().Forward(2_000_000)
	assert.InDelta(t, 1000, f.Units, 1e-9)
	assert.InDelta(t, 800, f.ContractUnits, 1e-9)
	assert.InDelta(t, 200, f.SpotUnits, 1e-9)
	assert.InDelta(t, 48_000, f.ContractRevenue, 1e-6)
	assert.InDelta(t, 12_000, f.SpotRevenue, 1e-6)
	assert.InDelta(t, 60_000, f.TotalRevenue, 1e-6)
	assert.InDelta(t, 60, f.BlendedPrice, 1e-9)
}

func TestForward_SpotPremium(t *testing.T) {
	p := pricing()
	p.SpotMultiplier = 1.2
	f := p.Forward(2_000_000)
	assert.InDelta(t, 14_400, f.SpotRevenue, 1e-6)
	assert.InDelta(t, 62_400, f.TotalRevenue, 1e-6)
	assert.InDelta(t, 62.4, f.BlendedPrice, 1e-9)
}

func TestUnits_DefaultConversion(t *testing.T) {
	assert.InDelta(t, 3, Pricing{}.Units(6000), 1e-12)
}

func TestApply(t *testing.T) {
	rows := []model.QuarterlyAggregate{
		{Quarter: q1, TrackedEntityMass: 2_000_000},
		{Quarter: q2},
	}
	pricing().Apply(rows)
	require.NotNil(t, rows[0].Revenue)
	assert.InDelta(t, 60_000, rows[0].Revenue.TotalRevenue, 1e-6)
	require.NotNil(t, rows[1].Revenue)
	assert.Zero(t, rows[1].Revenue.TotalRevenue)
}

func TestPricingValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Pricing)
		wantErr bool
	}{
		{"defaults", func(*Pricing) {}, false},
		{"all contract", func(p *Pricing) { p.ContractFraction = 1 }, false},
		{"fraction above one", func(p *Pricing) { p.ContractFraction = 1.2 }, true},
		{"negative fraction", func(p *Pricing) { p.ContractFraction = -0.1 }, true},
		{"negative price", func(p *Pricing) { p.PricePerUnit = -1 }, true},
		{"negative multiplier", func(p *Pricing) { p.SpotMultiplier = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pricing()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, model.ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInverse(t *testing.T) {
	mass := map[model.Quarter]float64{q1: 2_000_000, q2: 4_000_000}
	revenue := map[model.Quarter]float64{q1: 60_000, q2: 130_000, q3: 1_000}

	got := pricing().Inverse(mass, revenue, 15)
	require.Len(t, got.Quarters, 2)
	assert.Equal(t, q1, got.Quarters[0].Quarter)
	assert.InDelta(t, 60, got.Quarters[0].Price, 1e-9)
	assert.InDelta(t, 65, got.Quarters[1].Price, 1e-9)
	assert.Equal(t, []model.Quarter{q3}, got.Skipped)

	assert.InDelta(t, 62.5, got.Mean, 1e-9)
	assert.InDelta(t, 3.5355339, got.StdDev, 1e-6)
	assert.Equal(t, 60.0, got.Min)
	assert.Equal(t, 65.0, got.Max)
	assert.InDelta(t, 5.656854, got.VolatilityPct, 1e-5)
	assert.False(t, got.Warning)
}

func TestInverse_VolatilityWarning(t *testing.T) {
	mass := map[model.Quarter]float64{q1: 2_000_000, q2: 2_000_000}
	revenue := map[model.Quarter]float64{q1: 50_000, q2: 80_000}

	got := pricing().Inverse(mass, revenue, 0)
	assert.InDelta(t, 65, got.Mean, 1e-9)
	assert.Greater(t, got.VolatilityPct, 15.0)
	assert.True(t, got.Warning)
}

func TestInverse_SingleQuarter(t *testing.T) {
	got := pricing().Inverse(map[model.Quarter]float64{q1: 2_000_000}, map[model.Quarter]float64{q1: 70_000}, 15)
	require.Len(t, got.Quarters, 1)
	assert.Zero(t, got.StdDev)
	assert.Zero(t, got.VolatilityPct)
	assert.False(t, got.Warning)
}

func TestInverse_NoOverlap(t *testing.T) {
	got := pricing().Inverse(nil, map[model.Quarter]float64{q1: 1}, 15)
	assert.Empty(t, got.Quarters)
	assert.Zero(t, got.Mean)
	assert.Len(t, got.Skipped, 1)
}

func TestValidate(t *testing.T) {
	mass := map[model.Quarter]float64{q1: 95, q2: 130, q3: 50}
	reported := map[model.Quarter]float64{q1: 100, q2: 100, q3: 0, q4: 100}

	got := Validate(mass, reported, DefaultBands())
	require.Len(t, got.Quarters, 2)
	assert.InDelta(t, -5, got.Quarters[0].ErrorPct, 1e-9)
	assert.InDelta(t, 5, got.Quarters[0].AbsErrorPct, 1e-9)
	assert.Equal(t, BandGood, got.Quarters[0].Band)
	assert.InDelta(t, 30, got.Quarters[1].ErrorMass, 1e-9)
	assert.Equal(t, BandPoor, got.Quarters[1].Band)
	assert.Len(t, got.Skipped, 2)
	assert.InDelta(t, 17.5, got.MeanAbsErrorPct, 1e-9)
	assert.Equal(t, BandModerate, got.Band)
}

func TestBands(t *testing.T) {
	b := Bands{GoodPct: 5, ModeratePct: 8}
	assert.Equal(t, BandGood, b.Classify(4.9))
	assert.Equal(t, BandModerate, b.Classify(5))
	assert.Equal(t, BandPoor, b.Classify(8))

	assert.NoError(t, DefaultBands().Validate())
	assert.Error(t, Bands{GoodPct: 20, ModeratePct: 10}.Validate())
}

func TestGrowthTrend(t *testing.T) {
	assert.InDelta(t, 100, GrowthTrend([]float64{1, 1, 1, 1, 2, 2, 2, 2}), 1e-9)
	assert.InDelta(t, -50, GrowthTrend([]float64{9, 4, 4, 4, 4, 2, 2, 2, 2}), 1e-9)
	assert.Zero(t, GrowthTrend([]float64{1, 2, 3, 4, 5, 6, 7}))
	assert.Zero(t, GrowthTrend([]float64{0, 0, 0, 0, 1, 1, 1, 1}))
}

func tracked(q model.Quarter, start time.Time, mass float64, include bool) model.ClassifiedRecord {
	return model.ClassifiedRecord{
		QuarterShare:          model.QuarterShare{JobID: "J", Quarter: q, AttributedMass: mass, VolumeFraction: 1},
		StartDate:             start,
		IncludeInEntitySubset: include,
	}
}

func TestEarlyQuarterPrediction(t *testing.T) {
	records := []model.ClassifiedRecord{
		tracked(q1, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 100, true),
		tracked(q1, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 50, true),
		tracked(q1, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 999, false),
		tracked(q2, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), 40, true),
	}

	got := EarlyQuarterPrediction(records, 0)
	require.Len(t, got.Quarters, 2)

	assert.InDelta(t, 100, got.Quarters[0].EarlyMass, 1e-9)
	assert.InDelta(t, 150, got.Quarters[0].FullMass, 1e-9)
	assert.InDelta(t, 150, got.Quarters[0].PredictedMass, 1e-9)
	assert.InDelta(t, 0, got.Quarters[0].ErrorPct, 1e-9)

	assert.Zero(t, got.Quarters[1].EarlyMass)
	assert.InDelta(t, 100, got.Quarters[1].ErrorPct, 1e-9)

	assert.InDelta(t, 50, got.MeanErrorPct, 1e-9)
	assert.Equal(t, "low", got.Power)

	assert.Equal(t, "none", EarlyQuarterPrediction(nil, 1.5).Power)
}

func TestFormatRevenue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1_500_000_000, "$1.5B"},
		{3_400_000, "$3.4M"},
		{5_000, "$5K"},
		{12, "$12"},
		{-2_500_000, "-$2.5M"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRevenue(tt.in))
		})
	}
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$1234.50", FormatUSD(1234.5))
	assert.Equal(t, "-$3.46", FormatUSD(-3.456))
	assert.Equal(t, "$0.00", FormatUSD(0))
	assert.Equal(t, 62.35, RoundCents(62.349999))
}
