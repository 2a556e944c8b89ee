package model

import (
	"strings"
	"time"
)

// MassSource tags which estimation strategy produced a job's mass.
type MassSource string

const (
	MassSourceReported MassSource = "reported"
	MassSourceProxy    MassSource = "proxy"
	MassSourceNone     MassSource = "none"
)

// JobRecord is one disclosed ingredient row of a well-completion job.
// A job has many rows; one or more of them are proppant.
type JobRecord struct {
	JobID          string    `json:"job_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	State          string    `json:"state,omitempty"`
	County         string    `json:"county,omitempty"`
	SupplierName   string    `json:"supplier_name,omitempty"`
	ProductName    string    `json:"product_name,omitempty"`
	IngredientName string    `json:"ingredient_name,omitempty"`
	Purpose        string    `json:"purpose,omitempty"`

	DeclaredMass     *float64 `json:"declared_mass,omitempty"`
	PercentOfJobMass *float64 `json:"percent_of_job_mass,omitempty"`
	TotalFluidVolume *float64 `json:"total_fluid_volume,omitempty"`
}

// IsProppant reports whether the row's purpose mentions proppant.
func (r JobRecord) IsProppant() bool {
	return strings.Contains(strings.ToLower(r.Purpose), "proppant")
}

// MassLine is one proppant row's contribution to a job estimate.
type MassLine struct {
	Supplier string  `json:"supplier,omitempty"`
	Product  string  `json:"product,omitempty"`
	Mass     float64 `json:"mass"`
}

// JobEstimate is the derived per-job proppant mass.
// Line masses sum to EstimatedMass.
type JobEstimate struct {
	JobID         string     `json:"job_id"`
	EstimatedMass float64    `json:"estimated_mass"`
	MassSource    MassSource `json:"mass_source"`
	PercentSum    float64    `json:"percent_sum"`
	Lines         []MassLine `json:"lines,omitempty"`
}

// QuarterShare is the slice of one job's volume attributed to one quarter.
type QuarterShare struct {
	JobID           string  `json:"job_id"`
	Quarter         Quarter `json:"quarter"`
	VolumeFraction  float64 `json:"volume_fraction"`
	Days            int     `json:"days"`
	AttributedMass  float64 `json:"attributed_mass"`
	AttributedWater float64 `json:"attributed_water"`
	IsLongOutlier   bool    `json:"is_long_outlier"`
}

// ClassifiedRecord is a QuarterShare narrowed to one mass line and
// annotated with region and entity classification.
type ClassifiedRecord struct {
	QuarterShare

	StartDate       time.Time `json:"start_date"`
	State           string    `json:"state,omitempty"`
	County          string    `json:"county,omitempty"`
	Basin           string    `json:"basin"`
	Supplier        string    `json:"supplier,omitempty"`
	Product         string    `json:"product,omitempty"`
	ProductCategory string    `json:"product_category,omitempty"`

	IsTrackedEntity       bool `json:"is_tracked_entity"`
	IsApprovedProduct     bool `json:"is_approved_product"`
	IncludeInEntitySubset bool `json:"include_in_entity_subset"`
}

// JobSummary is the one-row-per-job view used by data-quality checks.
// DurationDays is only meaningful when Apportioned is set.
type JobSummary struct {
	JobID         string     `json:"job_id"`
	StartDate     time.Time  `json:"start_date"`
	DurationDays  int        `json:"duration_days"`
	Apportioned   bool       `json:"apportioned"`
	FluidVolume   float64    `json:"fluid_volume"`
	EstimatedMass float64    `json:"estimated_mass"`
	PercentSum    float64    `json:"percent_sum"`
	MassSource    MassSource `json:"mass_source"`
	Basin         string     `json:"basin"`
}
