package model

// Diagnostics counts the records and jobs affected by each per-record
// condition during a run, plus stage totals.
type Diagnostics struct {
	Conditions   map[string]int     `json:"conditions"`
	SourceCounts map[MassSource]int `json:"source_counts"`

	RowsSeen          int `json:"rows_seen"`
	JobsSeen          int `json:"jobs_seen"`
	JobsApportioned   int `json:"jobs_apportioned"`
	ShortJobs         int `json:"short_jobs"`
	LongJobs          int `json:"long_jobs"`
	LongOutliers      int `json:"long_outliers"`
	ZeroDurationJobs  int `json:"zero_duration_jobs"`
	MultiProppantJobs int `json:"multi_proppant_jobs"`
}

// NewDiagnostics returns an empty Diagnostics with initialized maps.
func NewDiagnostics() Diagnostics {
	return Diagnostics{
		Conditions:   make(map[string]int),
		SourceCounts: make(map[MassSource]int),
	}
}

// Add increments the count for a condition.
func (d *Diagnostics) Add(cond string, n int) {
	if n == 0 {
		return
	}
	if d.Conditions == nil {
		d.Conditions = make(map[string]int)
	}
	d.Conditions[cond] += n
}

// Merge folds other into d. Merging is order-independent.
func (d *Diagnostics) Merge(other Diagnostics) {
	for k, v := range other.Conditions {
		d.Add(k, v)
	}
	if d.SourceCounts == nil {
		d.SourceCounts = make(map[MassSource]int)
	}
	for k, v := range other.SourceCounts {
		d.SourceCounts[k] += v
	}
	d.RowsSeen += other.RowsSeen
	d.JobsSeen += other.JobsSeen
	d.JobsApportioned += other.JobsApportioned
	d.ShortJobs += other.ShortJobs
	d.LongJobs += other.LongJobs
	d.LongOutliers += other.LongOutliers
	d.ZeroDurationJobs += other.ZeroDurationJobs
	d.MultiProppantJobs += other.MultiProppantJobs
}

// Count returns the tally for a condition.
func (d Diagnostics) Count(cond string) int {
	return d.Conditions[cond]
}
