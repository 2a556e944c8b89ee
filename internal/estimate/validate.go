package estimate

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/model"
)

// Band is a reporting label for estimate accuracy.
type Band string

const (
	BandGood     Band = "good"
	BandModerate Band = "moderate"
	BandPoor     Band = "poor"
)

// Bands holds the absolute-percent-error thresholds for each label.
type Bands struct {
	GoodPct     float64 `json:"good_pct"`
	ModeratePct float64 `json:"moderate_pct"`
}

// DefaultBands returns the 10% / 20% thresholds.
func DefaultBands() Bands {
	return Bands{GoodPct: 10, ModeratePct: 20}
}

// Validate checks that thresholds are ordered.
func (b Bands) Validate() error {
	if b.GoodPct <= 0 || b.ModeratePct < b.GoodPct {
		return eris.Wrapf(model.ErrInvalidConfig, "estimate: accuracy bands good=%v moderate=%v", b.GoodPct, b.ModeratePct)
	}
	return nil
}

// Classify labels an absolute percent error.
func (b Bands) Classify(absErrPct float64) Band {
	switch {
	case absErrPct < b.GoodPct:
		return BandGood
	case absErrPct < b.ModeratePct:
		return BandModerate
	default:
		return BandPoor
	}
}

// VolumeError compares one quarter's estimate with a reported figure.
type VolumeError struct {
	Quarter     model.Quarter `json:"quarter"`
	Estimated   float64       `json:"estimated"`
	Reported    float64       `json:"reported"`
	ErrorMass   float64       `json:"error_mass"`
	ErrorPct    float64       `json:"error_pct"`
	AbsErrorPct float64       `json:"abs_error_pct"`
	Band        Band          `json:"band"`
}

// AccuracyReport is the result of validation mode.
type AccuracyReport struct {
	Quarters        []VolumeError   `json:"quarters"`
	Skipped         []model.Quarter `json:"skipped,omitempty"`
	MeanAbsErrorPct float64         `json:"mean_abs_error_pct"`
	Band            Band            `json:"band,omitempty"`
}

// Validate compares estimated mass with reported mass per quarter. Quarters
// the engine did not estimate, or with a non-positive reported value, are
// skipped.
func Validate(massByQuarter, reportedMass map[model.Quarter]float64, bands Bands) AccuracyReport {
	var out AccuracyReport
	var absSum float64
	for _, q := range sortedQuarters(reportedMass) {
		est, ok := massByQuarter[q]
		rep := reportedMass[q]
		if !ok || rep <= 0 {
			out.Skipped = append(out.Skipped, q)
			continue
		}
		ve := VolumeError{
			Quarter:   q,
			Estimated: est,
			Reported:  rep,
			ErrorMass: est - rep,
		}
		ve.ErrorPct = ve.ErrorMass / rep * 100
		ve.AbsErrorPct = math.Abs(ve.ErrorPct)
		ve.Band = bands.Classify(ve.AbsErrorPct)
		absSum += ve.AbsErrorPct
		out.Quarters = append(out.Quarters, ve)
	}

	if len(out.Quarters) == 0 {
		zap.L().Warn("estimate: no reported volumes overlap estimated quarters")
		return out
	}
	out.MeanAbsErrorPct = absSum / float64(len(out.Quarters))
	out.Band = bands.Classify(out.MeanAbsErrorPct)

	log := zap.L().With(
		zap.Int("quarters", len(out.Quarters)),
		zap.Float64("mean_abs_error_pct", out.MeanAbsErrorPct),
		zap.String("band", string(out.Band)),
	)
	if out.Band == BandGood {
		log.Info("estimate: volume accuracy validated")
	} else {
		log.Warn("estimate: volume accuracy outside good band")
	}
	return out
}
