// Package aggregate groups classified records into quarterly summary rows.
//
// Aggregation goes through a Partial, which keeps per-group sums and the
// distinct job-ID sets behind the counts. Partials built from disjoint
// record sets merge into the same result as one Partial built from their
// union, and a fine-grained Partial rolls up to any coarser grouping
// without revisiting records.
package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proppant-cli/internal/model"
)

// GroupBy is a bitmask of grouping keys.
type GroupBy uint8

const (
	ByQuarter GroupBy = 1 << iota
	ByBasin
	ByState
	ByCounty
	ByProduct
)

// Standard granularities.
const (
	QuarterOnly        = ByQuarter
	QuarterBasin       = ByQuarter | ByBasin
	QuarterState       = ByQuarter | ByState
	QuarterStateCounty = ByQuarter | ByState | ByCounty
	QuarterProduct     = ByQuarter | ByProduct
)

// Has reports whether every key in k is part of g.
func (g GroupBy) Has(k GroupBy) bool { return g&k == k }

func (g GroupBy) String() string {
	var parts []string
	for _, f := range []struct {
		bit  GroupBy
		name string
	}{
		{ByQuarter, "quarter"},
		{ByBasin, "basin"},
		{ByState, "state"},
		{ByCounty, "county"},
		{ByProduct, "product"},
	} {
		if g.Has(f.bit) {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "total"
	}
	return strings.Join(parts, "+")
}

// Key identifies one group. Fields outside the grouping are empty.
type Key struct {
	Quarter         model.Quarter
	Basin           string
	State           string
	County          string
	ProductCategory string
}

func (g GroupBy) project(k Key) Key {
	var out Key
	if g.Has(ByQuarter) {
		out.Quarter = k.Quarter
	}
	if g.Has(ByBasin) {
		out.Basin = k.Basin
	}
	if g.Has(ByState) {
		out.State = k.State
	}
	if g.Has(ByCounty) {
		out.County = k.County
	}
	if g.Has(ByProduct) {
		out.ProductCategory = k.ProductCategory
	}
	return out
}

func (g GroupBy) keyOf(r model.ClassifiedRecord) Key {
	return g.project(Key{
		Quarter:         r.Quarter,
		Basin:           r.Basin,
		State:           r.State,
		County:          r.County,
		ProductCategory: r.ProductCategory,
	})
}

func compareKeys(a, b Key) int {
	return cmp.Or(
		cmp.Compare(a.Quarter.Year, b.Quarter.Year),
		cmp.Compare(a.Quarter.Num, b.Quarter.Num),
		cmp.Compare(a.Basin, b.Basin),
		cmp.Compare(a.State, b.State),
		cmp.Compare(a.County, b.County),
		cmp.Compare(a.ProductCategory, b.ProductCategory),
	)
}

type group struct {
	totalMass   float64
	trackedMass float64
	water       float64
	jobs        map[string]struct{}
	trackedJobs map[string]struct{}
}

func newGroup() *group {
	return &group{jobs: make(map[string]struct{}), trackedJobs: make(map[string]struct{})}
}

func (g *group) merge(o *group) {
	g.totalMass += o.totalMass
	g.trackedMass += o.trackedMass
	g.water += o.water
	for id := range o.jobs {
		g.jobs[id] = struct{}{}
	}
	for id := range o.trackedJobs {
		g.trackedJobs[id] = struct{}{}
	}
}

// Partial is an in-progress aggregation at one granularity.
type Partial struct {
	groupBy GroupBy
	groups  map[Key]*group
}

// New returns an empty Partial.
func New(groupBy GroupBy) *Partial {
	return &Partial{groupBy: groupBy, groups: make(map[Key]*group)}
}

// Filter selects the records that take part in an aggregation.
type Filter func(model.ClassifiedRecord) bool

// ForBasin keeps records classified into the named basin.
func ForBasin(name string) Filter {
	return func(r model.ClassifiedRecord) bool { return r.Basin == name }
}

// Build aggregates records that pass every filter.
func Build(records []model.ClassifiedRecord, groupBy GroupBy, filters ...Filter) *Partial {
	p := New(groupBy)
outer:
	for _, r := range records {
		for _, f := range filters {
			if !f(r) {
				continue outer
			}
		}
		p.Add(r)
	}
	return p
}

// Add folds one record into its group.
func (p *Partial) Add(r model.ClassifiedRecord) {
	k := p.groupBy.keyOf(r)
	g, ok := p.groups[k]
	if !ok {
		g = newGroup()
		p.groups[k] = g
	}
	g.totalMass += r.AttributedMass
	g.water += r.AttributedWater
	g.jobs[r.JobID] = struct{}{}
	if r.IncludeInEntitySubset {
		g.trackedMass += r.AttributedMass
		g.trackedJobs[r.JobID] = struct{}{}
	}
}

// GroupBy returns the Partial's granularity.
func (p *Partial) GroupBy() GroupBy { return p.groupBy }

// Len returns the number of groups.
func (p *Partial) Len() int { return len(p.groups) }

// Merge folds other into p. Both must share a granularity; other is not
// modified.
func (p *Partial) Merge(other *Partial) error {
	if other == nil {
		return nil
	}
	if other.groupBy != p.groupBy {
		return eris.Errorf("aggregate: cannot merge %s into %s", other.groupBy, p.groupBy)
	}
	for k, og := range other.groups {
		g, ok := p.groups[k]
		if !ok {
			g = newGroup()
			p.groups[k] = g
		}
		g.merge(og)
	}
	return nil
}

// Rollup re-groups p at a coarser granularity. coarser must be a subset of
// p's keys.
func (p *Partial) Rollup(coarser GroupBy) (*Partial, error) {
	if !p.groupBy.Has(coarser) {
		return nil, eris.Errorf("aggregate: cannot roll %s up to %s", p.groupBy, coarser)
	}
	out := New(coarser)
	// Sorted so floating-point sums accumulate in a fixed order.
	for _, k := range p.sortedKeys() {
		ck := coarser.project(k)
		cg, ok := out.groups[ck]
		if !ok {
			cg = newGroup()
			out.groups[ck] = cg
		}
		cg.merge(p.groups[k])
	}
	return out, nil
}

func (p *Partial) sortedKeys() []Key {
	keys := make([]Key, 0, len(p.groups))
	for k := range p.groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// Rows materializes the groups with derived metrics, sorted by key.
func (p *Partial) Rows() []model.QuarterlyAggregate {
	keys := p.sortedKeys()
	rows := make([]model.QuarterlyAggregate, 0, len(keys))
	for _, k := range keys {
		g := p.groups[k]
		row := model.QuarterlyAggregate{
			Quarter:           k.Quarter,
			Basin:             k.Basin,
			State:             k.State,
			County:            k.County,
			ProductCategory:   k.ProductCategory,
			TotalMass:         g.totalMass,
			TrackedEntityMass: g.trackedMass,
			TotalWater:        g.water,
			UniqueJobCount:    len(g.jobs),
			TrackedJobCount:   len(g.trackedJobs),
		}
		row.MarketShare = MarketShare(g.trackedMass, g.totalMass)
		row.AvgMassPerJob = ratio(g.totalMass, float64(row.UniqueJobCount))
		row.TrackedAvgMassPerJob = ratio(g.trackedMass, float64(row.TrackedJobCount))
		rows = append(rows, row)
	}
	return rows
}

// MarketShare returns tracked/total, or 0 when total is not positive.
func MarketShare(tracked, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return tracked / total
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// TrackedMassByQuarter sums tracked-entity mass per quarter across rows.
func TrackedMassByQuarter(rows []model.QuarterlyAggregate) map[model.Quarter]float64 {
	out := make(map[model.Quarter]float64)
	for _, r := range rows {
		out[r.Quarter] += r.TrackedEntityMass
	}
	return out
}
