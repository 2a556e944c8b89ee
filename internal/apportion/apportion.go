// Package apportion splits a job's estimated mass across the calendar
// quarters its duration overlaps.
package apportion

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proppant-cli/internal/model"
)

// Configuration defaults.
const (
	DefaultShortJobThresholdDays = 45
	DefaultLongOutlierDays       = 365
)

const day = 24 * time.Hour

// Apportioner assigns job mass to quarters. Jobs no longer than
// ShortJobThresholdDays go wholly to the start quarter; longer jobs are
// split by inclusive calendar days per quarter. A zero LongOutlierDays
// uses DefaultLongOutlierDays.
type Apportioner struct {
	ShortJobThresholdDays int
	LongOutlierDays       int
}

func (a Apportioner) outlier() int {
	if a.LongOutlierDays <= 0 {
		return DefaultLongOutlierDays
	}
	return a.LongOutlierDays
}

// QuarterDays is the number of job days falling in one quarter.
type QuarterDays struct {
	Quarter model.Quarter
	Days    int
}

// civil truncates t to its calendar date in UTC.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Duration returns end minus start in whole calendar days.
func Duration(start, end time.Time) int {
	return int(civil(end).Sub(civil(start)) / day)
}

func checkRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return eris.Wrap(model.ErrMissingRequiredField, "apportion: start and end dates are required")
	}
	if civil(end).Before(civil(start)) {
		return eris.Wrapf(model.ErrInvalidDateRange, "apportion: end %s before start %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return nil
}

// SplitDays returns the inclusive day count of [start, end] in each quarter
// touched, in chronological order. Counts come from intersecting the job
// interval with each quarter's bounds.
func SplitDays(start, end time.Time) ([]QuarterDays, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	s, e := civil(start), civil(end)
	last := model.QuarterOf(e)

	var out []QuarterDays
	for q := model.QuarterOf(s); ; q = q.Next() {
		lo, hi := q.Start(), q.End()
		if s.After(lo) {
			lo = s
		}
		if e.Before(hi) {
			hi = e
		}
		out = append(out, QuarterDays{Quarter: q, Days: int(hi.Sub(lo)/day) + 1})
		if q == last {
			break
		}
	}
	return out, nil
}

// Apportion returns one QuarterShare per quarter the job is attributed to.
// Fractions sum to exactly 1: the last quarter takes the remainder, and its
// attributed mass and water are likewise remainders.
func (a Apportioner) Apportion(start, end time.Time, est model.JobEstimate, fluidVolume float64) ([]model.QuarterShare, error) {
	if err := checkRange(start, end); err != nil {
		return nil, eris.Wrapf(err, "job %s", est.JobID)
	}

	duration := Duration(start, end)
	outlier := duration > a.outlier()

	if duration <= a.ShortJobThresholdDays {
		return []model.QuarterShare{{
			JobID:           est.JobID,
			Quarter:         model.QuarterOf(civil(start)),
			VolumeFraction:  1,
			Days:            duration + 1,
			AttributedMass:  est.EstimatedMass,
			AttributedWater: fluidVolume,
			IsLongOutlier:   outlier,
		}}, nil
	}

	split, err := SplitDays(start, end)
	if err != nil {
		return nil, err
	}
	total := float64(duration + 1)

	shares := make([]model.QuarterShare, len(split))
	var fracSum, massSum, waterSum float64
	for i, qd := range split {
		sh := model.QuarterShare{
			JobID:         est.JobID,
			Quarter:       qd.Quarter,
			Days:          qd.Days,
			IsLongOutlier: outlier,
		}
		if i == len(split)-1 {
			sh.VolumeFraction = 1 - fracSum
			sh.AttributedMass = est.EstimatedMass - massSum
			sh.AttributedWater = fluidVolume - waterSum
		} else {
			sh.VolumeFraction = float64(qd.Days) / total
			sh.AttributedMass = est.EstimatedMass * sh.VolumeFraction
			sh.AttributedWater = fluidVolume * sh.VolumeFraction
			fracSum += sh.VolumeFraction
			massSum += sh.AttributedMass
			waterSum += sh.AttributedWater
		}
		shares[i] = sh
	}
	return shares, nil
}
