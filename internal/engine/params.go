package engine

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/proppant-cli/internal/apportion"
	"github.com/sells-group/proppant-cli/internal/classify"
	"github.com/sells-group/proppant-cli/internal/estimate"
	"github.com/sells-group/proppant-cli/internal/mass"
	"github.com/sells-group/proppant-cli/internal/model"
	"github.com/sells-group/proppant-cli/internal/quality"
)

// Params is the immutable configuration of one analysis run.
type Params struct {
	ShortJobThresholdDays   int                     `json:"short_job_threshold_days"`
	LongJobOutlierDays      int                     `json:"long_job_outlier_days"`
	WaterDensity            float64                 `json:"water_density"`
	ReportedMassMinCoverage float64                 `json:"reported_mass_min_coverage"`
	SupplierPolicy          classify.SupplierPolicy `json:"supplier_policy"`
	ProductPolicy           classify.ProductPolicy  `json:"product_policy"`
	Workers                 int                     `json:"workers"`

	// FocusBasin gets its own quarter+state+county table. Empty disables it.
	FocusBasin string `json:"focus_basin,omitempty"`

	Pricing           estimate.Pricing   `json:"pricing"`
	Bands             estimate.Bands     `json:"bands"`
	VolatilityWarnPct float64            `json:"volatility_warn_pct"`
	Quality           quality.Thresholds `json:"quality"`
}

// DefaultParams returns the standard configuration.
func DefaultParams() Params {
	return Params{
		ShortJobThresholdDays:   apportion.DefaultShortJobThresholdDays,
		LongJobOutlierDays:      apportion.DefaultLongOutlierDays,
		WaterDensity:            mass.DefaultWaterDensity,
		ReportedMassMinCoverage: mass.DefaultMinCoverage,
		SupplierPolicy:          classify.SupplierPermissive,
		ProductPolicy:           classify.ProductExact,
		Workers:                 4,
		FocusBasin:              "Permian Basin",
		Pricing: estimate.Pricing{
			PricePerUnit:       60,
			ContractFraction:   0.8,
			SpotMultiplier:     1.0,
			MassPerPricingUnit: estimate.DefaultMassPerPricingUnit,
		},
		Bands:             estimate.DefaultBands(),
		VolatilityWarnPct: estimate.DefaultVolatilityWarnPct,
		Quality:           quality.DefaultThresholds(),
	}
}

// Validate rejects out-of-range values with model.ErrInvalidConfig.
func (p Params) Validate() error {
	switch {
	case p.ShortJobThresholdDays < 0:
		return eris.Wrapf(model.ErrInvalidConfig, "engine: short job threshold %d is negative", p.ShortJobThresholdDays)
	case p.LongJobOutlierDays <= 0:
		return eris.Wrapf(model.ErrInvalidConfig, "engine: long job outlier days %d must be positive", p.LongJobOutlierDays)
	case p.WaterDensity <= 0:
		return eris.Wrapf(model.ErrInvalidConfig, "engine: water density %v must be positive", p.WaterDensity)
	case p.ReportedMassMinCoverage < 0 || p.ReportedMassMinCoverage >= 1:
		return eris.Wrapf(model.ErrInvalidConfig, "engine: reported mass coverage %v outside [0,1)", p.ReportedMassMinCoverage)
	case p.Workers < 1:
		return eris.Wrapf(model.ErrInvalidConfig, "engine: workers %d must be at least 1", p.Workers)
	case p.Pricing.MassPerPricingUnit <= 0:
		return eris.Wrapf(model.ErrInvalidConfig, "engine: mass per pricing unit %v must be positive", p.Pricing.MassPerPricingUnit)
	}
	if _, err := classify.ParseSupplierPolicy(string(p.SupplierPolicy)); err != nil {
		return err
	}
	if _, err := classify.ParseProductPolicy(string(p.ProductPolicy)); err != nil {
		return err
	}
	if err := p.Pricing.Validate(); err != nil {
		return err
	}
	return p.Bands.Validate()
}

// Map flattens the parameters for run metadata.
func (p Params) Map() map[string]any {
	return map[string]any{
		"short_job_threshold_days":   p.ShortJobThresholdDays,
		"long_job_outlier_days":      p.LongJobOutlierDays,
		"water_density":              p.WaterDensity,
		"reported_mass_min_coverage": p.ReportedMassMinCoverage,
		"supplier_policy":            string(p.SupplierPolicy),
		"product_policy":             string(p.ProductPolicy),
		"workers":                    p.Workers,
		"focus_basin":                p.FocusBasin,
		"price_per_unit":             p.Pricing.PricePerUnit,
		"contract_fraction":          p.Pricing.ContractFraction,
		"spot_price_multiplier":      p.Pricing.SpotMultiplier,
		"mass_per_pricing_unit":      p.Pricing.MassPerPricingUnit,
	}
}
