package apportion

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proppant-cli/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fractionSum(shares []model.QuarterShare) (frac, mass float64) {
	for _, s := range shares {
		frac += s.VolumeFraction
		mass += s.AttributedMass
	}
	return frac, mass
}

func TestSplitDays_YearBoundary(t *testing.T) {
	split, err := SplitDays(date(2023, 12, 15), date(2024, 1, 15))
	require.NoError(t, err)
	require.Len(t, split, 2)
	assert.Equal(t, QuarterDays{Quarter: model.Quarter{Year: 2023, Num: 4}, Days: 17}, split[0])
	assert.Equal(t, QuarterDays{Quarter: model.Quarter{Year: 2024, Num: 1}, Days: 15}, split[1])
}

func TestSplitDays_ManyQuarters(t *testing.T) {
	split, err := SplitDays(date(2023, 2, 1), date(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, split, 5)

	days := 0
	for _, qd := range split {
		days += qd.Days
	}
	assert.Equal(t, Duration(date(2023, 2, 1), date(2024, 3, 31))+1, days)
	assert.Equal(t, 59, split[0].Days) // Feb + Mar 2023
	assert.Equal(t, 91, split[4].Days) // 2024Q1, leap year
}

func TestApportion_SplitMatchesInclusiveDays(t *testing.T) {
	a := Apportioner{ShortJobThresholdDays: 30}
	est := model.JobEstimate{JobID: "J1", EstimatedMass: 32_000}

	shares, err := a.Apportion(date(2023, 12, 15), date(2024, 1, 15), est, 3200)
	require.NoError(t, err)
	require.Len(t, shares, 2)

	assert.InDelta(t, 17.0/32, shares[0].VolumeFraction, 1e-12)
	assert.InDelta(t, 15.0/32, shares[1].VolumeFraction, 1e-12)
	assert.InDelta(t, 17_000, shares[0].AttributedMass, 1e-9)
	assert.InDelta(t, 1500, shares[1].AttributedWater, 1e-9)

	frac, mass := fractionSum(shares)
	assert.InDelta(t, 1.0, frac, 1e-9)
	assert.InDelta(t, est.EstimatedMass, mass, 1e-9)
}

func TestApportion_ShortJobSingleQuarter(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       model.Quarter
		days       int
	}{
		{"same day", date(2024, 3, 31), date(2024, 3, 31), model.Quarter{Year: 2024, Num: 1}, 1},
		{"crosses boundary", date(2023, 12, 15), date(2024, 1, 15), model.Quarter{Year: 2023, Num: 4}, 32},
		{"exactly threshold", date(2024, 3, 1), date(2024, 4, 15), model.Quarter{Year: 2024, Num: 1}, 46},
	}
	a := Apportioner{ShortJobThresholdDays: 45}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := a.Apportion(tt.start, tt.end, model.JobEstimate{JobID: "J", EstimatedMass: 10}, 5)
			require.NoError(t, err)
			require.Len(t, shares, 1)
			assert.Equal(t, tt.want, shares[0].Quarter)
			assert.Equal(t, 1.0, shares[0].VolumeFraction)
			assert.Equal(t, 10.0, shares[0].AttributedMass)
			assert.Equal(t, 5.0, shares[0].AttributedWater)
			assert.Equal(t, tt.days, shares[0].Days)
			assert.False(t, shares[0].IsLongOutlier)
		})
	}
}

func TestApportion_FractionsSumToOne(t *testing.T) {
	a := Apportioner{ShortJobThresholdDays: 45, LongOutlierDays: 365}
	starts := []time.Time{date(2020, 1, 1), date(2021, 2, 28), date(2022, 11, 30), date(2023, 6, 17)}
	lengths := []int{46, 47, 90, 200, 365, 366, 1000}

	for _, s := range starts {
		for _, n := range lengths {
			end := s.AddDate(0, 0, n)
			shares, err := a.Apportion(s, end, model.JobEstimate{JobID: "J", EstimatedMass: 123_456.789}, 1e6)
			require.NoError(t, err)
			frac, mass := fractionSum(shares)
			assert.InDelta(t, 1.0, frac, 1e-9, "start %s length %d", s, n)
			assert.InDelta(t, 123_456.789, mass, 1e-6)
			for _, sh := range shares {
				assert.Greater(t, sh.VolumeFraction, 0.0)
				assert.Equal(t, n > 365, sh.IsLongOutlier)
			}
		}
	}
}

func TestApportion_TimeOfDayIgnored(t *testing.T) {
	a := Apportioner{ShortJobThresholdDays: 0}
	start := time.Date(2023, 12, 31, 23, 30, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC)

	shares, err := a.Apportion(start, end, model.JobEstimate{JobID: "J", EstimatedMass: 2}, 0)
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, 0.5, shares[0].VolumeFraction)
	assert.Equal(t, 0.5, shares[1].VolumeFraction)
}

func TestApportion_InvalidInput(t *testing.T) {
	a := Apportioner{}
	est := model.JobEstimate{JobID: "J"}

	_, err := a.Apportion(date(2024, 2, 1), date(2024, 1, 1), est, 0)
	assert.True(t, errors.Is(err, model.ErrInvalidDateRange))

	_, err = a.Apportion(time.Time{}, date(2024, 1, 1), est, 0)
	assert.True(t, errors.Is(err, model.ErrMissingRequiredField))

	_, err = SplitDays(date(2024, 2, 1), date(2024, 1, 31))
	assert.True(t, errors.Is(err, model.ErrInvalidDateRange))
}
