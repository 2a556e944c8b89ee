package estimate

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/model"
)

// DefaultVolatilityWarnPct is the implied-price volatility that triggers a
// warning.
const DefaultVolatilityWarnPct = 15

// ImpliedPrice is the back-solved price for one quarter.
type ImpliedPrice struct {
	Quarter         model.Quarter `json:"quarter"`
	EstimatedMass   float64       `json:"estimated_mass"`
	Units           float64       `json:"units"`
	ReportedRevenue float64       `json:"reported_revenue"`
	Price           float64       `json:"price"`
}

// PricingBacksolve summarizes implied prices across quarters.
type PricingBacksolve struct {
	Quarters      []ImpliedPrice  `json:"quarters"`
	Skipped       []model.Quarter `json:"skipped,omitempty"`
	Mean          float64         `json:"mean"`
	StdDev        float64         `json:"std_dev"`
	Min           float64         `json:"min"`
	Max           float64         `json:"max"`
	VolatilityPct float64         `json:"volatility_pct"`
	Warning       bool            `json:"warning"`
}

func sortedQuarters[V any](m map[model.Quarter]V) []model.Quarter {
	qs := make([]model.Quarter, 0, len(m))
	for q := range m {
		qs = append(qs, q)
	}
	slices.SortFunc(qs, func(a, b model.Quarter) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return qs
}

// Inverse derives the implied price per pricing unit from reported revenue.
// Quarters without a positive estimated mass have no defined price and are
// listed in Skipped. warnPct <= 0 uses DefaultVolatilityWarnPct.
func (p Pricing) Inverse(massByQuarter, reportedRevenue map[model.Quarter]float64, warnPct float64) PricingBacksolve {
	if warnPct <= 0 {
		warnPct = DefaultVolatilityWarnPct
	}

	var out PricingBacksolve
	for _, q := range sortedQuarters(reportedRevenue) {
		mass := massByQuarter[q]
		if mass <= 0 {
			out.Skipped = append(out.Skipped, q)
			continue
		}
		units := p.Units(mass)
		rev := reportedRevenue[q]
		out.Quarters = append(out.Quarters, ImpliedPrice{
			Quarter:         q,
			EstimatedMass:   mass,
			Units:           units,
			ReportedRevenue: rev,
			Price:           RoundCents(rev / units),
		})
	}

	prices := make([]float64, len(out.Quarters))
	for i, ip := range out.Quarters {
		prices[i] = ip.Price
	}
	out.Mean, out.StdDev = meanStdDev(prices)
	if len(prices) > 0 {
		out.Min, out.Max = slices.Min(prices), slices.Max(prices)
	}
	if out.Mean > 0 {
		out.VolatilityPct = out.StdDev / out.Mean * 100
	}
	out.Warning = out.VolatilityPct >= warnPct

	log := zap.L().With(
		zap.Int("quarters", len(out.Quarters)),
		zap.Int("skipped", len(out.Skipped)),
		zap.Float64("mean_price", out.Mean),
		zap.Float64("volatility_pct", out.VolatilityPct),
	)
	switch {
	case len(out.Quarters) == 0:
		log.Warn("estimate: no reported revenue overlaps estimated mass")
	case out.Warning:
		log.Warn("estimate: high implied price volatility")
	default:
		log.Info("estimate: implied pricing computed")
	}
	return out
}

// meanStdDev returns the mean and sample standard deviation. The deviation
// is 0 for fewer than two values.
func meanStdDev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}
