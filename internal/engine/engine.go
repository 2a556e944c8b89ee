// Package engine runs the attribution stages over one batch of ingredient
// rows: mass estimation, quarter apportionment, classification and
// aggregation.
package engine

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/proppant-cli/internal/aggregate"
	"github.com/sells-group/proppant-cli/internal/apportion"
	"github.com/sells-group/proppant-cli/internal/catalog"
	"github.com/sells-group/proppant-cli/internal/classify"
	"github.com/sells-group/proppant-cli/internal/mass"
	"github.com/sells-group/proppant-cli/internal/model"
)

// Table names in Result.Tables.
const (
	TableQuarterly       = "quarterly"
	TableQuarterlyBasin  = "quarterly_basin"
	TableQuarterlyState  = "quarterly_state"
	TableQuarterlyCounty = "quarterly_county"
	TableQuarterlyProd   = "quarterly_product"
	TableFocusCounty     = "focus_basin_county"
)

// TableGroupBy maps each table to its granularity.
var TableGroupBy = map[string]aggregate.GroupBy{
	TableQuarterly:       aggregate.QuarterOnly,
	TableQuarterlyBasin:  aggregate.QuarterBasin,
	TableQuarterlyState:  aggregate.QuarterState,
	TableQuarterlyCounty: aggregate.QuarterStateCounty,
	TableQuarterlyProd:   aggregate.QuarterProduct,
	TableFocusCounty:     aggregate.QuarterStateCounty,
}

// Engine holds the classifiers and stage configuration for one run.
// It is safe for concurrent use.
type Engine struct {
	params      Params
	estimator   mass.Estimator
	apportioner apportion.Apportioner
	regions     *classify.RegionClassifier
	entities    *classify.EntityClassifier
}

// New validates params and catalogs and builds the classifiers. Catalog
// integrity problems fail here, before any record is processed.
func New(params Params, cats *catalog.Catalogs) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if cats == nil {
		cats = catalog.Default()
	}
	if err := cats.Validate(); err != nil {
		return nil, eris.Wrap(err, "engine: catalog")
	}
	sp, err := classify.ParseSupplierPolicy(string(params.SupplierPolicy))
	if err != nil {
		return nil, err
	}
	pp, err := classify.ParseProductPolicy(string(params.ProductPolicy))
	if err != nil {
		return nil, err
	}
	params.SupplierPolicy, params.ProductPolicy = sp, pp

	return &Engine{
		params: params,
		estimator: mass.Estimator{
			WaterDensity: params.WaterDensity,
			MinCoverage:  params.ReportedMassMinCoverage,
		},
		apportioner: apportion.Apportioner{
			ShortJobThresholdDays: params.ShortJobThresholdDays,
			LongOutlierDays:       params.LongJobOutlierDays,
		},
		regions:  classify.NewRegionClassifier(cats.Basins),
		entities: classify.NewEntityClassifier(cats.Entity, cats.Products, sp, pp),
	}, nil
}

// Params returns the validated parameters.
func (e *Engine) Params() Params { return e.params }

// Result is the output of one run.
type Result struct {
	RunID       string                                `json:"run_id"`
	Estimates   []model.JobEstimate                   `json:"estimates"`
	Records     []model.ClassifiedRecord              `json:"records"`
	Summaries   []model.JobSummary                    `json:"summaries"`
	Tables      map[string][]model.QuarterlyAggregate `json:"tables"`
	Diagnostics model.Diagnostics                     `json:"diagnostics"`
}

// TableNames returns the result's table names in a stable order.
func (r *Result) TableNames() []string {
	names := make([]string, 0, len(r.Tables))
	for n := range r.Tables {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

type partitionOutput struct {
	estimates []model.JobEstimate
	records   []model.ClassifiedRecord
	summaries []model.JobSummary
	diag      model.Diagnostics
}

// Run processes records. Per-record problems are tallied in the result's
// Diagnostics; only cancellation returns an error. Output does not depend
// on the worker count.
func (e *Engine) Run(ctx context.Context, records []model.JobRecord) (*Result, error) {
	start := time.Now()
	diag := model.NewDiagnostics()

	jobs := make(map[string][]model.JobRecord)
	for _, r := range records {
		if r.JobID == "" {
			diag.Add(model.CondMissingJobID, 1)
			continue
		}
		jobs[r.JobID] = append(jobs[r.JobID], r)
	}
	diag.RowsSeen = len(records)
	ids := make([]string, 0, len(jobs))
	for id := range jobs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	parts := partition(ids, e.params.Workers)
	outputs := make([]partitionOutput, len(parts))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.params.Workers)
	for i, part := range parts {
		g.Go(func() error {
			out, err := e.runPartition(gCtx, part, jobs)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString()}
	for _, out := range outputs {
		res.Estimates = append(res.Estimates, out.estimates...)
		res.Records = append(res.Records, out.records...)
		res.Summaries = append(res.Summaries, out.summaries...)
		diag.Merge(out.diag)
	}
	res.Diagnostics = diag

	zap.L().Info("engine: jobs processed",
		zap.String("run_id", res.RunID),
		zap.Int("rows", diag.RowsSeen),
		zap.Int("jobs", diag.JobsSeen),
		zap.Int("apportioned", diag.JobsApportioned),
		zap.Int("records", len(res.Records)),
		zap.Int("partitions", len(parts)),
		zap.Any("conditions", diag.Conditions),
	)

	tables, err := e.buildTables(res.Records)
	if err != nil {
		return nil, err
	}
	res.Tables = tables
	zap.L().Info("engine: aggregation complete",
		zap.String("run_id", res.RunID),
		zap.Int("tables", len(res.Tables)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// partition splits sorted ids into at most n contiguous chunks.
func partition(ids []string, n int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	n = max(1, min(n, len(ids)))
	size := (len(ids) + n - 1) / n
	parts := make([][]string, 0, n)
	for lo := 0; lo < len(ids); lo += size {
		parts = append(parts, ids[lo:min(lo+size, len(ids))])
	}
	return parts
}

func (e *Engine) runPartition(ctx context.Context, ids []string, jobs map[string][]model.JobRecord) (partitionOutput, error) {
	out := partitionOutput{diag: model.NewDiagnostics()}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		e.processJob(id, jobs[id], &out)
	}
	return out, nil
}

// jobHeader picks the job-level fields from the first row that carries them.
type jobHeader struct {
	start, end    time.Time
	state, county string
	fluidVolume   float64
}

func headerOf(rows []model.JobRecord) jobHeader {
	var h jobHeader
	for _, r := range rows {
		if h.start.IsZero() && !r.StartDate.IsZero() && !r.EndDate.IsZero() {
			h.start, h.end = r.StartDate, r.EndDate
		}
		if h.state == "" && r.State != "" {
			h.state, h.county = r.State, r.County
		}
	}
	h.fluidVolume, _ = mass.FluidVolume(rows)
	return h
}

func (e *Engine) processJob(id string, rows []model.JobRecord, out *partitionOutput) {
	d := &out.diag
	d.JobsSeen++

	est, conds := e.estimator.Estimate(id, rows)
	for _, c := range conds {
		d.Add(c, 1)
	}
	d.SourceCounts[est.MassSource]++
	if mass.IngredientCount(rows) > 1 {
		d.MultiProppantJobs++
	}
	out.estimates = append(out.estimates, est)

	h := headerOf(rows)
	basin := e.regions.Classify(h.state, h.county)
	summary := model.JobSummary{
		JobID:         id,
		StartDate:     h.start,
		FluidVolume:   h.fluidVolume,
		EstimatedMass: est.EstimatedMass,
		PercentSum:    est.PercentSum,
		MassSource:    est.MassSource,
		Basin:         basin,
	}

	shares, err := e.apportioner.Apportion(h.start, h.end, est, max(h.fluidVolume, 0))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidDateRange):
			d.Add(model.CondInvalidDateRange, 1)
		default:
			d.Add(model.CondMissingDates, 1)
		}
		zap.L().Debug("engine: job skipped for apportionment", zap.String("job_id", id), zap.Error(err))
		out.summaries = append(out.summaries, summary)
		return
	}

	duration := apportion.Duration(h.start, h.end)
	summary.DurationDays, summary.Apportioned = duration, true
	out.summaries = append(out.summaries, summary)

	d.JobsApportioned++
	switch {
	case duration == 0:
		d.ZeroDurationJobs++
		d.ShortJobs++
	case duration <= e.params.ShortJobThresholdDays:
		d.ShortJobs++
	default:
		d.LongJobs++
	}
	if shares[0].IsLongOutlier {
		d.LongOutliers++
	}

	out.records = append(out.records, e.classify(shares, est, h, basin)...)
}

// classify expands each quarter share into one record per mass line. Water
// is carried on the first line only so group sums count it once.
func (e *Engine) classify(shares []model.QuarterShare, est model.JobEstimate, h jobHeader, basin string) []model.ClassifiedRecord {
	lines := est.Lines
	if len(lines) == 0 {
		lines = []model.MassLine{{}}
	}
	decisions := make([]classify.Decision, len(lines))
	categories := make([]string, len(lines))
	for i, l := range lines {
		decisions[i] = e.entities.Classify(l.Supplier, l.Product)
		categories[i] = classify.ProductCategory(l.Product)
	}

	out := make([]model.ClassifiedRecord, 0, len(shares)*len(lines))
	for _, sh := range shares {
		for i, l := range lines {
			rs := sh
			rs.AttributedMass = l.Mass * sh.VolumeFraction
			if i > 0 {
				rs.AttributedWater = 0
			}
			out = append(out, model.ClassifiedRecord{
				QuarterShare:          rs,
				StartDate:             h.start,
				State:                 h.state,
				County:                h.county,
				Basin:                 basin,
				Supplier:              l.Supplier,
				Product:               l.Product,
				ProductCategory:       categories[i],
				IsTrackedEntity:       decisions[i].IsTrackedEntity,
				IsApprovedProduct:     decisions[i].IsApprovedProduct,
				IncludeInEntitySubset: decisions[i].Include,
			})
		}
	}
	return out
}

// buildTables aggregates once at the finest geographic grain and rolls up
// to the coarser tables.
func (e *Engine) buildTables(records []model.ClassifiedRecord) (map[string][]model.QuarterlyAggregate, error) {
	tables := make(map[string][]model.QuarterlyAggregate)
	fine := aggregate.Build(records, aggregate.ByQuarter|aggregate.ByBasin|aggregate.ByState|aggregate.ByCounty)
	for _, name := range []string{TableQuarterly, TableQuarterlyBasin, TableQuarterlyState, TableQuarterlyCounty} {
		p, err := fine.Rollup(TableGroupBy[name])
		if err != nil {
			return nil, eris.Wrapf(err, "engine: table %s", name)
		}
		tables[name] = p.Rows()
	}
	tables[TableQuarterlyProd] = aggregate.Build(records, aggregate.QuarterProduct).Rows()
	if e.params.FocusBasin != "" {
		tables[TableFocusCounty] = aggregate.Build(records, aggregate.QuarterStateCounty, aggregate.ForBasin(e.params.FocusBasin)).Rows()
	}
	return tables, nil
}
