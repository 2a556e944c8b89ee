// Package mass estimates the proppant mass used by one job from the
// ingredient rows disclosed for it.
package mass

import (
	"strings"

	"github.com/sells-group/proppant-cli/internal/model"
)

// Engine defaults. A zero WaterDensity also falls back to
// DefaultWaterDensity; MinCoverage is used as given.
const (
	DefaultWaterDensity = 8.34
	DefaultMinCoverage  = 0.5
)

// Estimator applies the priority-ordered strategies: reported mass when
// enough rows declare it, else the fluid-percentage proxy.
type Estimator struct {
	// WaterDensity converts fluid volume to fluid mass.
	WaterDensity float64
	// MinCoverage is the share of proppant rows that must declare a mass
	// before the reported strategy is used. The test is strictly greater,
	// so 0 selects the reported strategy whenever any row declares a mass.
	MinCoverage float64
}

func (e Estimator) density() float64 {
	if e.WaterDensity <= 0 {
		return DefaultWaterDensity
	}
	return e.WaterDensity
}

// ProppantRows returns rows whose purpose mentions proppant, in input order.
func ProppantRows(rows []model.JobRecord) []model.JobRecord {
	out := make([]model.JobRecord, 0, len(rows))
	for _, r := range rows {
		if r.IsProppant() {
			out = append(out, r)
		}
	}
	return out
}

// FluidVolume returns the first populated total_fluid_volume among rows.
func FluidVolume(rows []model.JobRecord) (float64, bool) {
	for _, r := range rows {
		if r.TotalFluidVolume != nil {
			return *r.TotalFluidVolume, true
		}
	}
	return 0, false
}

// IngredientCount returns the number of distinct ingredient names among
// the proppant rows.
func IngredientCount(rows []model.JobRecord) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if !r.IsProppant() {
			continue
		}
		if n := strings.ToUpper(strings.TrimSpace(r.IngredientName)); n != "" {
			seen[n] = struct{}{}
		}
	}
	return len(seen)
}

// Estimate computes one job's mass. rows may include non-proppant rows;
// they are filtered out. The returned conditions name each per-record
// problem encountered, once per affected row.
func (e Estimator) Estimate(jobID string, rows []model.JobRecord) (model.JobEstimate, []string) {
	est := model.JobEstimate{JobID: jobID, MassSource: model.MassSourceNone}
	prop := ProppantRows(rows)
	if len(prop) == 0 {
		return est, []string{model.CondNoProppantRows}
	}

	var conds []string
	est.Lines = make([]model.MassLine, len(prop))
	for i, r := range prop {
		est.Lines[i] = model.MassLine{Supplier: r.SupplierName, Product: r.ProductName}
	}
	est.PercentSum, conds = percentSum(prop, conds)

	reported, ok, c := e.reported(prop, est.Lines)
	conds = append(conds, c...)
	if ok {
		est.EstimatedMass = reported
		est.MassSource = model.MassSourceReported
		return est, conds
	}

	volume, ok := FluidVolume(rows)
	if !ok || volume <= 0 {
		clearLines(est.Lines)
		return est, append(conds, model.CondMissingFluidVolume)
	}

	fluidMass := volume * e.density()
	var total float64
	for i, r := range prop {
		m := clampedPercent(r) / 100 * fluidMass
		est.Lines[i].Mass = m
		total += m
	}
	if total <= 0 {
		clearLines(est.Lines)
		return est, append(conds, model.CondNonPositiveMass)
	}
	est.EstimatedMass = total
	est.MassSource = model.MassSourceProxy
	return est, conds
}

// reported fills line masses from declared_mass when coverage exceeds the
// threshold and the sum is positive. Missing rows contribute 0.
func (e Estimator) reported(prop []model.JobRecord, lines []model.MassLine) (float64, bool, []string) {
	populated := 0
	for _, r := range prop {
		if r.DeclaredMass != nil {
			populated++
		}
	}
	if float64(populated)/float64(len(prop)) <= e.MinCoverage {
		return 0, false, nil
	}

	var (
		total float64
		conds []string
	)
	for i, r := range prop {
		if r.DeclaredMass == nil {
			continue
		}
		m := *r.DeclaredMass
		if m < 0 {
			conds = append(conds, model.CondNegativeMass)
			m = 0
		}
		lines[i].Mass = m
		total += m
	}
	if total <= 0 {
		clearLines(lines)
		return 0, false, conds
	}
	return total, true, conds
}

func percentSum(prop []model.JobRecord, conds []string) (float64, []string) {
	var sum float64
	for _, r := range prop {
		if r.PercentOfJobMass != nil && *r.PercentOfJobMass < 0 {
			conds = append(conds, model.CondNegativePercent)
		}
		sum += clampedPercent(r)
	}
	return sum, conds
}

func clampedPercent(r model.JobRecord) float64 {
	if r.PercentOfJobMass == nil || *r.PercentOfJobMass < 0 {
		return 0
	}
	return *r.PercentOfJobMass
}

func clearLines(lines []model.MassLine) {
	for i := range lines {
		lines[i].Mass = 0
	}
}
