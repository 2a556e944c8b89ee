// Package export writes aggregate tables as CSV files and XLSX workbooks.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/aggregate"
	"github.com/sells-group/proppant-cli/internal/model"
)

// MetricColumns follow the grouping-key columns in every table.
var MetricColumns = []string{
	"total_mass",
	"tracked_entity_mass",
	"total_water",
	"unique_job_count",
	"tracked_job_count",
	"market_share",
	"avg_mass_per_job",
	"total_revenue_estimate",
}

type keyColumn struct {
	bit   aggregate.GroupBy
	name  string
	value func(model.QuarterlyAggregate) string
}

var keyColumns = []keyColumn{
	{aggregate.ByQuarter, "quarter", func(r model.QuarterlyAggregate) string { return r.Quarter.String() }},
	{aggregate.ByBasin, "basin", func(r model.QuarterlyAggregate) string { return r.Basin }},
	{aggregate.ByState, "state", func(r model.QuarterlyAggregate) string { return r.State }},
	{aggregate.ByCounty, "county", func(r model.QuarterlyAggregate) string { return r.County }},
	{aggregate.ByProduct, "product_category", func(r model.QuarterlyAggregate) string { return r.ProductCategory }},
}

// Header returns the column names for a table grouped by g.
func Header(g aggregate.GroupBy) []string {
	var h []string
	for _, k := range keyColumns {
		if g.Has(k.bit) {
			h = append(h, k.name)
		}
	}
	return append(h, MetricColumns...)
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// Row renders one aggregate as strings in Header order. The revenue
// column is blank when no revenue was attached.
func Row(r model.QuarterlyAggregate, g aggregate.GroupBy) []string {
	var out []string
	for _, k := range keyColumns {
		if g.Has(k.bit) {
			out = append(out, k.value(r))
		}
	}
	revenue := ""
	if r.Revenue != nil {
		revenue = formatFloat(r.Revenue.TotalRevenue, 2)
	}
	return append(out,
		formatFloat(r.TotalMass, 2),
		formatFloat(r.TrackedEntityMass, 2),
		formatFloat(r.TotalWater, 2),
		strconv.Itoa(r.UniqueJobCount),
		strconv.Itoa(r.TrackedJobCount),
		formatFloat(r.MarketShare, 6),
		formatFloat(r.AvgMassPerJob, 2),
		revenue,
	)
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []model.QuarterlyAggregate, g aggregate.GroupBy) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(g)); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range rows {
		if err := cw.Write(Row(r, g)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteCSVFiles writes each table to dir/<name>.csv and returns the paths
// in the order of names. groupBy maps table names to their granularity.
func WriteCSVFiles(dir string, names []string, tables map[string][]model.QuarterlyAggregate, groupBy map[string]aggregate.GroupBy) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: create %s", dir)
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name+".csv")
		if err := writeCSVFile(path, tables[name], groupBy[name]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	zap.L().Info("export: csv tables written", zap.String("dir", dir), zap.Int("tables", len(paths)))
	return paths, nil
}

func writeCSVFile(path string, rows []model.QuarterlyAggregate, g aggregate.GroupBy) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteCSV(f, rows, g); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}
