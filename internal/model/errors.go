package model

import "errors"

// Error taxonomy shared by the engine stages. Per-record conditions are
// tallied in Diagnostics; structural ones abort the run.
var (
	ErrMissingRequiredField     = errors.New("missing required field")
	ErrInvalidDateRange         = errors.New("invalid date range")
	ErrAmbiguousBasinMembership = errors.New("ambiguous basin membership")
	ErrMissingColumn            = errors.New("missing required column")
	ErrInvalidConfig            = errors.New("invalid configuration")
)

// Diagnostic condition names.
const (
	CondMissingJobID       = "missing_job_id"
	CondMissingDates       = "missing_dates"
	CondMissingFluidVolume = "missing_fluid_volume"
	CondInvalidDateRange   = "invalid_date_range"
	CondNegativePercent    = "negative_percent_clamped"
	CondNegativeMass       = "negative_mass_clamped"
	CondNoProppantRows     = "no_proppant_rows"
	CondNonPositiveMass    = "non_positive_mass"
)
