package estimate

import (
	"math"

	"github.com/sells-group/proppant-cli/internal/model"
)

// DefaultEarlyMultiplier scales two months of starts to a full quarter.
const DefaultEarlyMultiplier = 1.5

// GrowthTrend compares the mean of the last four values of a chronological
// series with the mean of the four before it, as a percent change. It is 0
// with fewer than eight values or a non-positive prior mean.
func GrowthTrend(series []float64) float64 {
	n := len(series)
	if n < 8 {
		return 0
	}
	recent := mean(series[n-4:])
	prior := mean(series[n-8 : n-4])
	if prior <= 0 {
		return 0
	}
	return (recent - prior) / prior * 100
}

func mean(xs []float64) float64 {
	m, _ := meanStdDev(xs)
	return m
}

// QuarterPrediction tests whether jobs starting in a quarter's first two
// months predict the quarter's full tracked mass.
type QuarterPrediction struct {
	Quarter       model.Quarter `json:"quarter"`
	EarlyMass     float64       `json:"early_mass"`
	FullMass      float64       `json:"full_mass"`
	PredictedMass float64       `json:"predicted_mass"`
	ErrorPct      float64       `json:"error_pct"`
}

// EarlyPrediction summarizes QuarterPrediction rows.
type EarlyPrediction struct {
	Quarters     []QuarterPrediction `json:"quarters"`
	MeanErrorPct float64             `json:"mean_error_pct"`
	Power        string              `json:"power"`
}

// EarlyQuarterPrediction groups tracked records by attributed quarter. Early
// mass counts records whose job started in the first two months of that
// quarter; the prediction is early mass times multiplier.
func EarlyQuarterPrediction(records []model.ClassifiedRecord, multiplier float64) EarlyPrediction {
	if multiplier <= 0 {
		multiplier = DefaultEarlyMultiplier
	}

	type sums struct{ early, full float64 }
	byQuarter := make(map[model.Quarter]*sums)
	for _, r := range records {
		if !r.IncludeInEntitySubset {
			continue
		}
		s, ok := byQuarter[r.Quarter]
		if !ok {
			s = &sums{}
			byQuarter[r.Quarter] = s
		}
		s.full += r.AttributedMass
		if r.Quarter.InEarlyMonths(r.StartDate) {
			s.early += r.AttributedMass
		}
	}

	var out EarlyPrediction
	var errSum float64
	for _, q := range sortedQuarters(byQuarter) {
		s := byQuarter[q]
		qp := QuarterPrediction{
			Quarter:       q,
			EarlyMass:     s.early,
			FullMass:      s.full,
			PredictedMass: s.early * multiplier,
		}
		if s.full > 0 {
			qp.ErrorPct = math.Abs(qp.PredictedMass-s.full) / s.full * 100
		}
		errSum += qp.ErrorPct
		out.Quarters = append(out.Quarters, qp)
	}
	if len(out.Quarters) > 0 {
		out.MeanErrorPct = errSum / float64(len(out.Quarters))
	}
	switch {
	case len(out.Quarters) == 0:
		out.Power = "none"
	case out.MeanErrorPct < 15:
		out.Power = "high"
	case out.MeanErrorPct < 25:
		out.Power = "moderate"
	default:
		out.Power = "low"
	}
	return out
}
