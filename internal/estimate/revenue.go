// Package estimate converts tracked-entity mass into revenue estimates and
// checks those estimates against externally reported figures.
package estimate

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/model"
)

// DefaultMassPerPricingUnit converts pounds to short tons.
const DefaultMassPerPricingUnit = 2000

// Pricing holds the forward-mode assumptions. Prices are per pricing unit;
// mass arrives in source mass units and is divided by MassPerPricingUnit.
type Pricing struct {
	PricePerUnit       float64 `json:"price_per_unit"`
	ContractFraction   float64 `json:"contract_fraction"`
	SpotMultiplier     float64 `json:"spot_multiplier"`
	MassPerPricingUnit float64 `json:"mass_per_pricing_unit"`
}

// Validate rejects assumptions the forward formula cannot use.
func (p Pricing) Validate() error {
	if p.ContractFraction < 0 || p.ContractFraction > 1 {
		return eris.Wrapf(model.ErrInvalidConfig, "estimate: contract fraction %v outside [0,1]", p.ContractFraction)
	}
	if p.PricePerUnit < 0 {
		return eris.Wrapf(model.ErrInvalidConfig, "estimate: negative price per unit %v", p.PricePerUnit)
	}
	if p.SpotMultiplier < 0 {
		return eris.Wrapf(model.ErrInvalidConfig, "estimate: negative spot multiplier %v", p.SpotMultiplier)
	}
	if p.MassPerPricingUnit < 0 {
		return eris.Wrapf(model.ErrInvalidConfig, "estimate: negative mass per pricing unit %v", p.MassPerPricingUnit)
	}
	return nil
}

// Units converts source mass to pricing units.
func (p Pricing) Units(mass float64) float64 {
	per := p.MassPerPricingUnit
	if per <= 0 {
		per = DefaultMassPerPricingUnit
	}
	return mass / per
}

// BlendedPrice is the volume-weighted price across contract and spot.
func (p Pricing) BlendedPrice() float64 {
	return p.ContractFraction*p.PricePerUnit + (1-p.ContractFraction)*p.PricePerUnit*p.SpotMultiplier
}

// Forward estimates revenue for a tracked mass.
func (p Pricing) Forward(trackedMass float64) model.RevenueFigures {
	units := p.Units(trackedMass)
	f := model.RevenueFigures{
		Units:         units,
		ContractUnits: units * p.ContractFraction,
		SpotUnits:     units * (1 - p.ContractFraction),
		BlendedPrice:  p.BlendedPrice(),
	}
	f.ContractRevenue = f.ContractUnits * p.PricePerUnit
	f.SpotRevenue = f.SpotUnits * p.PricePerUnit * p.SpotMultiplier
	f.TotalRevenue = f.ContractRevenue + f.SpotRevenue
	return f
}

// Apply attaches forward revenue figures to each row from its tracked mass.
// Rows are modified in place.
func (p Pricing) Apply(rows []model.QuarterlyAggregate) {
	var total float64
	for i := range rows {
		f := p.Forward(rows[i].TrackedEntityMass)
		rows[i].Revenue = &f
		total += f.TotalRevenue
	}
	zap.L().Info("estimate: forward revenue applied",
		zap.Int("rows", len(rows)),
		zap.Float64("price_per_unit", p.PricePerUnit),
		zap.Float64("contract_fraction", p.ContractFraction),
		zap.Float64("blended_price", p.BlendedPrice()),
		zap.String("total_revenue", FormatRevenue(total)),
	)
}

// FormatRevenue formats a dollar amount in human-readable form.
func FormatRevenue(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	switch {
	case amount >= 1_000_000_000:
		return fmt.Sprintf("%s$%.1fB", sign, amount/1_000_000_000)
	case amount >= 1_000_000:
		return fmt.Sprintf("%s$%.1fM", sign, amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("%s$%.0fK", sign, amount/1_000)
	default:
		return fmt.Sprintf("%s$%.0f", sign, amount)
	}
}

// FormatUSD renders an exact two-decimal dollar string, e.g. "$1234.50".
func FormatUSD(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// RoundCents rounds a price to whole cents.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
