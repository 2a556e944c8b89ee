package model

// RevenueFigures is the forward revenue estimate for one aggregate row.
type RevenueFigures struct {
	Units           float64 `json:"units"`
	ContractUnits   float64 `json:"contract_units"`
	SpotUnits       float64 `json:"spot_units"`
	ContractRevenue float64 `json:"contract_revenue"`
	SpotRevenue     float64 `json:"spot_revenue"`
	TotalRevenue    float64 `json:"total_revenue"`
	BlendedPrice    float64 `json:"blended_price"`
}

// QuarterlyAggregate is one row of a grouped summary table. Key fields not
// part of the grouping are left empty.
type QuarterlyAggregate struct {
	Quarter         Quarter `json:"quarter"`
	Basin           string  `json:"basin,omitempty"`
	State           string  `json:"state,omitempty"`
	County          string  `json:"county,omitempty"`
	ProductCategory string  `json:"product_category,omitempty"`

	TotalMass         float64 `json:"total_mass"`
	TrackedEntityMass float64 `json:"tracked_entity_mass"`
	TotalWater        float64 `json:"total_water"`
	UniqueJobCount    int     `json:"unique_job_count"`
	TrackedJobCount   int     `json:"tracked_job_count"`

	MarketShare          float64 `json:"market_share"`
	AvgMassPerJob        float64 `json:"avg_mass_per_job"`
	TrackedAvgMassPerJob float64 `json:"tracked_avg_mass_per_job"`

	Revenue *RevenueFigures `json:"revenue,omitempty"`
}
