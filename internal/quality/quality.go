// Package quality runs data-quality checks over per-job summaries and
// ingredient rows. Checks report; they never alter engine output.
package quality

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/classify"
	"github.com/sells-group/proppant-cli/internal/model"
)

// Check names, used as Issues.Counts keys.
const (
	CheckExcessPercent    = "excess_proppant_percent"
	CheckImpossibleMass   = "proppant_exceeds_water_mass"
	CheckHighWater        = "high_water_volume"
	CheckFutureStart      = "future_start_date"
	CheckLongDuration     = "long_duration"
	CheckPre2010          = "pre_2010_start"
	CheckZeroDuration     = "zero_duration"
	CheckZeroProppant     = "zero_proppant"
	CheckUnclassified     = "unclassified_basin"
	CheckLowCompleteness  = "low_supplier_completeness"
	CheckMissingJobFields = "missing_fields"
)

// Thresholds parameterizes the checks.
type Thresholds struct {
	MaxProppantPercent         float64 `json:"max_proppant_percent"`
	MaxProppantWaterRatio      float64 `json:"max_proppant_water_ratio"`
	HighWaterVolume            float64 `json:"high_water_volume"`
	LongJobDays                int     `json:"long_job_days"`
	EarliestYear               int     `json:"earliest_year"`
	WaterDensity               float64 `json:"water_density"`
	MinSupplierCompletenessPct float64 `json:"min_supplier_completeness_pct"`
}

// DefaultThresholds returns the standard check limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxProppantPercent:         80,
		MaxProppantWaterRatio:      0.8,
		HighWaterVolume:            20_000_000,
		LongJobDays:                365,
		EarliestYear:               2010,
		WaterDensity:               8.34,
		MinSupplierCompletenessPct: 80,
	}
}

// Issues groups human-readable findings by severity. Counts holds the
// number of jobs flagged by each check.
type Issues struct {
	Critical []string       `json:"critical"`
	Warnings []string       `json:"warnings"`
	Info     []string       `json:"info"`
	Counts   map[string]int `json:"counts"`
}

// Empty reports whether no check fired.
func (is Issues) Empty() bool {
	return len(is.Critical) == 0 && len(is.Warnings) == 0 && len(is.Info) == 0
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// Check runs the job-level checks. now anchors the future-date check.
func Check(summaries []model.JobSummary, now time.Time, th Thresholds) Issues {
	is := Issues{Counts: make(map[string]int)}
	total := len(summaries)
	if total == 0 {
		return is
	}

	var (
		maxPct, maxWater float64
		maxDuration      int
		earliest         = time.Date(th.EarliestYear, 1, 1, 0, 0, 0, 0, time.UTC)
	)
	for _, s := range summaries {
		if s.PercentSum > th.MaxProppantPercent {
			is.Counts[CheckExcessPercent]++
			maxPct = max(maxPct, s.PercentSum)
		}
		if s.FluidVolume > 0 && s.EstimatedMass > s.FluidVolume*th.WaterDensity*th.MaxProppantWaterRatio {
			is.Counts[CheckImpossibleMass]++
		}
		if s.FluidVolume > th.HighWaterVolume {
			is.Counts[CheckHighWater]++
			maxWater = max(maxWater, s.FluidVolume)
		}
		if !s.StartDate.IsZero() {
			if s.StartDate.After(now) {
				is.Counts[CheckFutureStart]++
			}
			if s.StartDate.Before(earliest) {
				is.Counts[CheckPre2010]++
			}
		}
		if s.Apportioned {
			if s.DurationDays > th.LongJobDays {
				is.Counts[CheckLongDuration]++
				maxDuration = max(maxDuration, s.DurationDays)
			}
			if s.DurationDays == 0 {
				is.Counts[CheckZeroDuration]++
			}
		}
		if s.EstimatedMass == 0 {
			is.Counts[CheckZeroProppant]++
		}
		if s.Basin == classify.BasinOther {
			is.Counts[CheckUnclassified]++
		}
	}

	if n := is.Counts[CheckExcessPercent]; n > 0 {
		is.Warnings = append(is.Warnings, fmt.Sprintf("%d jobs with proppant > %.0f%% of job mass (max: %.1f%%)", n, th.MaxProppantPercent, maxPct))
	}
	if n := is.Counts[CheckImpossibleMass]; n > 0 {
		is.Warnings = append(is.Warnings, fmt.Sprintf("%d jobs with proppant mass > %.0f%% of water mass", n, th.MaxProppantWaterRatio*100))
	}
	if n := is.Counts[CheckHighWater]; n > 0 {
		is.Warnings = append(is.Warnings, fmt.Sprintf("%d jobs with water > %.0fM gallons (max: %.1fM gal)", n, th.HighWaterVolume/1e6, maxWater/1e6))
	}
	if n := is.Counts[CheckFutureStart]; n > 0 {
		is.Warnings = append(is.Warnings, fmt.Sprintf("%d jobs with future start dates", n))
	}
	if n := is.Counts[CheckLongDuration]; n > 0 {
		is.Warnings = append(is.Warnings, fmt.Sprintf("%d jobs with duration > %d days (max: %d days)", n, th.LongJobDays, maxDuration))
	}
	if n := is.Counts[CheckPre2010]; n > 0 {
		is.Info = append(is.Info, fmt.Sprintf("%d jobs before %d (may have limited ingredient detail)", n, th.EarliestYear))
	}
	if n := is.Counts[CheckZeroDuration]; n > 0 {
		is.Info = append(is.Info, fmt.Sprintf("%d jobs with 0-day duration", n))
	}
	if n := is.Counts[CheckZeroProppant]; n > 0 {
		is.Info = append(is.Info, fmt.Sprintf("%d jobs with 0 proppant (%.1f%%)", n, pct(n, total)))
	}
	if n := is.Counts[CheckUnclassified]; n > 0 {
		is.Info = append(is.Info, fmt.Sprintf("%d jobs not classified into a basin (%.1f%%)", n, pct(n, total)))
	}

	zap.L().Info("quality: checks complete",
		zap.Int("jobs", total),
		zap.Int("warnings", len(is.Warnings)),
		zap.Int("info", len(is.Info)),
	)
	return is
}

// AddDiagnostics reports per-record conditions tallied during a run. A run
// where every job lacked required fields is critical.
func (is *Issues) AddDiagnostics(d model.Diagnostics) {
	if is.Counts == nil {
		is.Counts = make(map[string]int)
	}
	conds := make([]string, 0, len(d.Conditions))
	for c := range d.Conditions {
		conds = append(conds, c)
	}
	slices.Sort(conds)

	missing := 0
	for _, c := range conds {
		n := d.Conditions[c]
		is.Warnings = append(is.Warnings, fmt.Sprintf("%d records: %s", n, strings.ReplaceAll(c, "_", " ")))
		if c == model.CondMissingJobID || c == model.CondMissingDates || c == model.CondInvalidDateRange {
			missing += n
		}
	}
	is.Counts[CheckMissingJobFields] = missing
	if d.JobsSeen > 0 && d.JobsApportioned == 0 {
		is.Critical = append(is.Critical, fmt.Sprintf("none of %d jobs could be apportioned", d.JobsSeen))
	}
}

// Completeness measures how often the supplier field is populated.
type Completeness struct {
	OverallPct  float64         `json:"overall_pct"`
	ProppantPct float64         `json:"proppant_pct"`
	ByYear      map[int]float64 `json:"by_year"`
	Low         bool            `json:"low"`
}

// SupplierCompleteness computes supplier-field coverage over all rows, over
// proppant rows, and per start year. Low is set when proppant coverage is
// under minPct.
func SupplierCompleteness(rows []model.JobRecord, minPct float64) Completeness {
	type tally struct{ with, total int }
	var all, prop tally
	years := make(map[int]*tally)

	for _, r := range rows {
		has := strings.TrimSpace(r.SupplierName) != ""
		all.total++
		if has {
			all.with++
		}
		if r.IsProppant() {
			prop.total++
			if has {
				prop.with++
			}
		}
		if !r.StartDate.IsZero() {
			y := r.StartDate.Year()
			t, ok := years[y]
			if !ok {
				t = &tally{}
				years[y] = t
			}
			t.total++
			if has {
				t.with++
			}
		}
	}

	c := Completeness{
		OverallPct:  pct(all.with, all.total),
		ProppantPct: pct(prop.with, prop.total),
		ByYear:      make(map[int]float64, len(years)),
	}
	for y, t := range years {
		c.ByYear[y] = pct(t.with, t.total)
	}
	c.Low = prop.total > 0 && c.ProppantPct < minPct

	if c.Low {
		zap.L().Warn("quality: supplier completeness below threshold, tracked volumes may be understated",
			zap.Float64("proppant_pct", c.ProppantPct),
			zap.Float64("min_pct", minPct),
		)
	}
	return c
}

// AddCompleteness records a low-coverage warning.
func (is *Issues) AddCompleteness(c Completeness) {
	if !c.Low {
		return
	}
	if is.Counts == nil {
		is.Counts = make(map[string]int)
	}
	is.Counts[CheckLowCompleteness] = 1
	is.Warnings = append(is.Warnings, fmt.Sprintf("supplier completeness on proppant rows is %.1f%%", c.ProppantPct))
}
