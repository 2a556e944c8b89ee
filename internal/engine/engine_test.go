package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proppant-cli/internal/catalog"
	"github.com/sells-group/proppant-cli/internal/classify"
	"github.com/sells-group/proppant-cli/internal/model"
	"github.com/sells-group/proppant-cli/internal/quality"
)

func f(v float64) *float64 { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func row(job string, start, end time.Time, state, county, supplier, product, purpose string) model.JobRecord {
	return model.JobRecord{
		JobID:        job,
		StartDate:    start,
		EndDate:      end,
		State:        state,
		County:       county,
		SupplierName: supplier,
		ProductName:  product,
		Purpose:      purpose,
	}
}

func fixture() []model.JobRecord {
	j1s, j1e := day(2024, 1, 10), day(2024, 1, 20)
	j2s, j2e := day(2023, 12, 15), day(2024, 3, 15)

	a := row("J1", j1s, j1e, "Texas", "Midland", "Atlas Sand Company LLC", "100 MESH", "Proppant")
	a.PercentOfJobMass, a.TotalFluidVolume = f(6), f(1_000_000)
	b := row("J1", j1s, j1e, "Texas", "Midland", "US Silica", "40/70", "proppant")
	b.PercentOfJobMass, b.TotalFluidVolume = f(3.5), f(1_000_000)
	c := row("J1", j1s, j1e, "Texas", "Midland", "Acme Chemical", "FR-1", "Friction Reducer")
	c.PercentOfJobMass, c.TotalFluidVolume = f(0.1), f(1_000_000)

	d := row("J2", j2s, j2e, "Texas", "Webb", "ATLAS SAND CO", "40/70", "Proppant")
	d.DeclaredMass, d.TotalFluidVolume = f(10_000), f(920)

	e := row("J3", day(2024, 2, 1), day(2024, 2, 2), "Ohio", "Belmont", "Acme", "HCL", "Acid")
	e.TotalFluidVolume = f(500)

	g := row("J4", day(2024, 2, 10), day(2024, 2, 1), "Texas", "Midland", "Atlas Sand", "100 MESH", "Proppant")
	g.PercentOfJobMass, g.TotalFluidVolume = f(5), f(1000)

	orphan := row("", j1s, j1e, "Texas", "Midland", "", "", "Proppant")

	return []model.JobRecord{d, a, e, b, orphan, c, g}
}

func newEngine(t *testing.T, workers int) *Engine {
	t.Helper()
	p := DefaultParams()
	p.Workers = workers
	e, err := New(p, catalog.Default())
	require.NoError(t, err)
	return e
}

func TestRun_Diagnostics(t *testing.T) {
	res, err := newEngine(t, 2).Run(context.Background(), fixture())
	require.NoError(t, err)

	d := res.Diagnostics
	assert.Equal(t, 7, d.RowsSeen)
	assert.Equal(t, 4, d.JobsSeen)
	assert.Equal(t, 3, d.JobsApportioned)
	assert.Equal(t, 1, d.Count(model.CondMissingJobID))
	assert.Equal(t, 1, d.Count(model.CondInvalidDateRange))
	assert.Equal(t, 1, d.Count(model.CondNoProppantRows))
	assert.Equal(t, 2, d.ShortJobs)
	assert.Equal(t, 1, d.LongJobs)
	assert.Equal(t, 2, d.SourceCounts[model.MassSourceProxy])
	assert.Equal(t, 1, d.SourceCounts[model.MassSourceReported])
	assert.Equal(t, 1, d.SourceCounts[model.MassSourceNone])

	require.Len(t, res.Estimates, 4)
	require.Len(t, res.Summaries, 4)
	assert.Equal(t, []string{"J1", "J2", "J3", "J4"}, []string{res.Estimates[0].JobID, res.Estimates[1].JobID, res.Estimates[2].JobID, res.Estimates[3].JobID})
	assert.NotEmpty(t, res.RunID)
}

func TestRun_AttributedMassMatchesEstimate(t *testing.T) {
	res, err := newEngine(t, 3).Run(context.Background(), fixture())
	require.NoError(t, err)

	attributed := make(map[string]float64)
	for _, r := range res.Records {
		attributed[r.JobID] += r.AttributedMass
	}
	for _, est := range res.Estimates {
		if est.JobID == "J4" {
			assert.NotContains(t, attributed, "J4")
			continue
		}
		assert.InDelta(t, est.EstimatedMass, attributed[est.JobID], 1e-6, est.JobID)
	}
	assert.InDelta(t, 792_300, res.Estimates[0].EstimatedMass, 1e-6)
	assert.Equal(t, model.MassSourceReported, res.Estimates[1].MassSource)
}

func TestRun_Tables(t *testing.T) {
	res, err := newEngine(t, 4).Run(context.Background(), fixture())
	require.NoError(t, err)

	q := res.Tables[TableQuarterly]
	require.Len(t, q, 2)
	assert.Equal(t, model.Quarter{Year: 2023, Num: 4}, q[0].Quarter)
	assert.Equal(t, model.Quarter{Year: 2024, Num: 1}, q[1].Quarter)

	j2q1 := 10_000 * 75.0 / 92
	assert.InDelta(t, 10_000*17.0/92, q[0].TotalMass, 1e-6)
	assert.InDelta(t, 1.0, q[0].MarketShare, 1e-12)
	assert.InDelta(t, 792_300+j2q1, q[1].TotalMass, 1e-6)
	assert.InDelta(t, 500_400+j2q1, q[1].TrackedEntityMass, 1e-6)
	assert.Equal(t, 3, q[1].UniqueJobCount)
	assert.Equal(t, 2, q[1].TrackedJobCount)
	// Water counted once per job-quarter: J1 + J3 + J2's share.
	assert.InDelta(t, 1_000_000+500+920*75.0/92, q[1].TotalWater, 1e-6)

	for name, rows := range res.Tables {
		for _, r := range rows {
			assert.GreaterOrEqual(t, r.MarketShare, 0.0, name)
			assert.LessOrEqual(t, r.MarketShare, 1.0, name)
		}
	}

	basins := res.Tables[TableQuarterlyBasin]
	var names []string
	for _, r := range basins {
		names = append(names, fmt.Sprintf("%s/%s", r.Quarter, r.Basin))
	}
	assert.Equal(t, []string{"2023Q4/Eagle Ford", "2024Q1/Eagle Ford", "2024Q1/Other", "2024Q1/Permian Basin"}, names)

	focus := res.Tables[TableFocusCounty]
	require.Len(t, focus, 1)
	assert.Equal(t, "Midland", focus[0].County)

	assert.Len(t, res.TableNames(), 6)
}

func TestRun_WorkerCountInvariant(t *testing.T) {
	var base *Result
	for _, w := range []int{1, 2, 4, 8} {
		res, err := newEngine(t, w).Run(context.Background(), fixture())
		require.NoError(t, err)
		if base == nil {
			base = res
			continue
		}
		assert.Equal(t, base.Estimates, res.Estimates, "workers=%d", w)
		assert.Equal(t, base.Records, res.Records, "workers=%d", w)
		assert.Equal(t, base.Tables, res.Tables, "workers=%d", w)
		assert.Equal(t, base.Diagnostics, res.Diagnostics, "workers=%d", w)
	}
}

func TestRun_PoliciesChangeTrackedSubset(t *testing.T) {
	recs := []model.JobRecord{
		row("J1", day(2024, 1, 1), day(2024, 1, 2), "Texas", "Midland", "Atlas Copco", "100 MESH", "Proppant"),
	}
	recs[0].DeclaredMass = f(100)

	permissive := DefaultParams()
	strict := DefaultParams()
	strict.SupplierPolicy = classify.SupplierExactPattern

	for _, tt := range []struct {
		params  Params
		tracked float64
	}{
		{permissive, 100},
		{strict, 0},
	} {
		e, err := New(tt.params, nil)
		require.NoError(t, err)
		res, err := e.Run(context.Background(), recs)
		require.NoError(t, err)
		assert.InDelta(t, tt.tracked, res.Tables[TableQuarterly][0].TrackedEntityMass, 1e-9)
	}
}

func TestRun_Empty(t *testing.T) {
	res, err := newEngine(t, 4).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Tables[TableQuarterly])
	assert.Zero(t, res.Diagnostics.JobsSeen)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(t, 2).Run(ctx, fixture())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_AmbiguousCatalog(t *testing.T) {
	cats := catalog.Default()
	cats.Basins[1].States["Texas"] = append(cats.Basins[1].States["Texas"], "midland")

	_, err := New(DefaultParams(), cats)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAmbiguousBasinMembership)
}

func TestNew_Policies(t *testing.T) {
	p := DefaultParams()
	p.SupplierPolicy, p.ProductPolicy = " Exact_Pattern ", "HEURISTIC"
	e, err := New(p, catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, classify.SupplierExactPattern, e.Params().SupplierPolicy)
	assert.Equal(t, classify.ProductHeuristic, e.Params().ProductPolicy)

	p.ProductPolicy = "fuzzy"
	_, err = New(p, catalog.Default())
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestRun_ZeroCoverageUsesDeclaredMass(t *testing.T) {
	start, end := day(2024, 1, 10), day(2024, 1, 20)
	a := row("J1", start, end, "Texas", "Midland", "Atlas Sand", "100 MESH", "Proppant")
	a.DeclaredMass, a.PercentOfJobMass, a.TotalFluidVolume = f(500), f(1), f(1000)
	b := row("J1", start, end, "Texas", "Midland", "US Silica", "40/70", "Proppant")
	b.PercentOfJobMass, b.TotalFluidVolume = f(1), f(1000)

	p := DefaultParams()
	p.ReportedMassMinCoverage = 0
	e, err := New(p, catalog.Default())
	require.NoError(t, err)

	res, err := e.Run(context.Background(), []model.JobRecord{a, b})
	require.NoError(t, err)
	require.Len(t, res.Estimates, 1)
	assert.Equal(t, model.MassSourceReported, res.Estimates[0].MassSource)
	assert.InDelta(t, 500, res.Estimates[0].EstimatedMass, 1e-9)
}

func TestRun_InvalidDateRangeNotCountedAsZeroDuration(t *testing.T) {
	res, err := newEngine(t, 2).Run(context.Background(), fixture())
	require.NoError(t, err)

	byID := make(map[string]model.JobSummary, len(res.Summaries))
	for _, s := range res.Summaries {
		byID[s.JobID] = s
	}
	assert.False(t, byID["J4"].Apportioned)
	assert.True(t, byID["J1"].Apportioned)
	assert.Equal(t, 10, byID["J1"].DurationDays)

	is := quality.Check(res.Summaries, day(2025, 6, 1), quality.DefaultThresholds())
	assert.Zero(t, is.Counts[quality.CheckZeroDuration])
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative threshold", func(p *Params) { p.ShortJobThresholdDays = -1 }},
		{"zero outlier", func(p *Params) { p.LongJobOutlierDays = 0 }},
		{"zero density", func(p *Params) { p.WaterDensity = 0 }},
		{"coverage one", func(p *Params) { p.ReportedMassMinCoverage = 1 }},
		{"no workers", func(p *Params) { p.Workers = 0 }},
		{"zero unit factor", func(p *Params) { p.Pricing.MassPerPricingUnit = 0 }},
		{"bad supplier policy", func(p *Params) { p.SupplierPolicy = "fuzzy" }},
		{"bad product policy", func(p *Params) { p.ProductPolicy = "fuzzy" }},
		{"contract fraction", func(p *Params) { p.Pricing.ContractFraction = 2 }},
		{"bands inverted", func(p *Params) { p.Bands.ModeratePct = 1 }},
	}
	require.NoError(t, DefaultParams().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), model.ErrInvalidConfig)
		})
	}
}

func TestPartition(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e"}}, partition(ids, 2))
	assert.Len(t, partition(ids, 10), 5)
	assert.Len(t, partition(ids, 1), 1)
	assert.Nil(t, partition(nil, 4))
}
