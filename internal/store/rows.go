package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proppant-cli/internal/model"
)

// aggregateColumns is the column order for aggregate inserts and selects.
var aggregateColumns = []string{
	"run_id", "table_name", "row_idx",
	"quarter", "basin", "state", "county", "product_category",
	"total_mass", "tracked_entity_mass", "total_water",
	"unique_job_count", "tracked_job_count",
	"market_share", "avg_mass_per_job", "tracked_avg_mass_per_job",
	"revenue",
}

const selectAggregateColumns = `quarter, basin, state, county, product_category,
	total_mass, tracked_entity_mass, total_water, unique_job_count, tracked_job_count,
	market_share, avg_mass_per_job, tracked_avg_mass_per_job, revenue`

func aggregateArgs(runID, table string, idx int, r model.QuarterlyAggregate) ([]any, error) {
	var revenue []byte
	if r.Revenue != nil {
		b, err := json.Marshal(r.Revenue)
		if err != nil {
			return nil, eris.Wrap(err, "store: marshal revenue")
		}
		revenue = b
	}
	return []any{
		runID, table, idx,
		r.Quarter.String(), r.Basin, r.State, r.County, r.ProductCategory,
		r.TotalMass, r.TrackedEntityMass, r.TotalWater,
		r.UniqueJobCount, r.TrackedJobCount,
		r.MarketShare, r.AvgMassPerJob, r.TrackedAvgMassPerJob,
		revenue,
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAggregate(row scannable) (model.QuarterlyAggregate, error) {
	var (
		r       model.QuarterlyAggregate
		quarter string
		revenue []byte
	)
	err := row.Scan(&quarter, &r.Basin, &r.State, &r.County, &r.ProductCategory,
		&r.TotalMass, &r.TrackedEntityMass, &r.TotalWater, &r.UniqueJobCount, &r.TrackedJobCount,
		&r.MarketShare, &r.AvgMassPerJob, &r.TrackedAvgMassPerJob, &revenue)
	if err != nil {
		return r, eris.Wrap(err, "store: scan aggregate")
	}
	if r.Quarter, err = model.ParseQuarter(quarter); err != nil {
		return r, err
	}
	if len(revenue) > 0 {
		r.Revenue = &model.RevenueFigures{}
		if err := json.Unmarshal(revenue, r.Revenue); err != nil {
			return r, eris.Wrap(err, "store: unmarshal revenue")
		}
	}
	return r, nil
}

// runJSON holds a run's JSON-encoded columns.
type runJSON struct {
	params, diagnostics, tables []byte
}

func encodeRun(run model.Run) (runJSON, error) {
	var (
		enc runJSON
		err error
	)
	if enc.params, err = json.Marshal(run.Params); err != nil {
		return enc, eris.Wrap(err, "store: marshal params")
	}
	if enc.diagnostics, err = json.Marshal(run.Diagnostics); err != nil {
		return enc, eris.Wrap(err, "store: marshal diagnostics")
	}
	if enc.tables, err = json.Marshal(run.Tables); err != nil {
		return enc, eris.Wrap(err, "store: marshal tables")
	}
	return enc, nil
}

func (enc runJSON) decodeInto(r *model.Run) error {
	if len(enc.params) > 0 && string(enc.params) != "null" {
		if err := json.Unmarshal(enc.params, &r.Params); err != nil {
			return eris.Wrap(err, "store: unmarshal params")
		}
	}
	if len(enc.diagnostics) > 0 && string(enc.diagnostics) != "null" {
		r.Diagnostics = &model.Diagnostics{}
		if err := json.Unmarshal(enc.diagnostics, r.Diagnostics); err != nil {
			return eris.Wrap(err, "store: unmarshal diagnostics")
		}
	}
	if len(enc.tables) > 0 && string(enc.tables) != "null" {
		if err := json.Unmarshal(enc.tables, &r.Tables); err != nil {
			return eris.Wrap(err, "store: unmarshal tables")
		}
	}
	return nil
}
