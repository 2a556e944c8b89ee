package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/aggregate"
	"github.com/sells-group/proppant-cli/internal/model"
)

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

// WriteXLSX saves one sheet per table, in the order of names. Numeric
// metrics are written as numbers, keys as strings.
func WriteXLSX(path string, names []string, tables map[string][]model.QuarterlyAggregate, groupBy map[string]aggregate.GroupBy) error {
	f := xlsx.NewFile()
	for _, name := range names {
		sheetName := name
		if len(sheetName) > maxSheetName {
			sheetName = sheetName[:maxSheetName]
		}
		sheet, err := f.AddSheet(sheetName)
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", name)
		}
		g := groupBy[name]

		header := sheet.AddRow()
		for _, h := range Header(g) {
			header.AddCell().SetString(h)
		}
		for _, r := range tables[name] {
			addAggregateRow(sheet.AddRow(), r, g)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	zap.L().Info("export: workbook written", zap.String("path", path), zap.Int("sheets", len(names)))
	return nil
}

func addAggregateRow(row *xlsx.Row, r model.QuarterlyAggregate, g aggregate.GroupBy) {
	for _, k := range keyColumns {
		if g.Has(k.bit) {
			row.AddCell().SetString(k.value(r))
		}
	}
	row.AddCell().SetFloat(r.TotalMass)
	row.AddCell().SetFloat(r.TrackedEntityMass)
	row.AddCell().SetFloat(r.TotalWater)
	row.AddCell().SetInt(r.UniqueJobCount)
	row.AddCell().SetInt(r.TrackedJobCount)
	row.AddCell().SetFloat(r.MarketShare)
	row.AddCell().SetFloat(r.AvgMassPerJob)
	if r.Revenue != nil {
		row.AddCell().SetFloat(r.Revenue.TotalRevenue)
	} else {
		row.AddCell().SetString("")
	}
}
