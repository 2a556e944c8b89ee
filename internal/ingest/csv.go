// Package ingest reads FracFocus ingredient disclosures into JobRecords and
// loads reported reference figures.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/model"
)

// FracFocus column headers.
const (
	ColDisclosureID   = "DisclosureId"
	ColJobStartDate   = "JobStartDate"
	ColJobEndDate     = "JobEndDate"
	ColStateName      = "StateName"
	ColCountyName     = "CountyName"
	ColSupplier       = "Supplier"
	ColTradeName      = "TradeName"
	ColPurpose        = "Purpose"
	ColMassIngredient = "MassIngredient"
	ColPercentHFJob   = "PercentHFJob"
	ColBaseWater      = "TotalBaseWaterVolume"
	ColIngredientName = "IngredientName"
)

// RequiredColumns must be present in every input file.
var RequiredColumns = []string{
	ColDisclosureID, ColJobStartDate, ColJobEndDate, ColPurpose, ColBaseWater, ColPercentHFJob,
}

var dateLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"2006-01-02",
	"1/2/2006",
	"2006-01-02 15:04:05",
}

// header maps lower-cased column names to their index.
type header map[string]int

func parseHeader(cols []string) (header, error) {
	h := make(header, len(cols))
	for i, c := range cols {
		c = strings.TrimPrefix(c, "\ufeff")
		h[strings.ToLower(strings.TrimSpace(c))] = i
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := h[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Wrapf(model.ErrMissingColumn, "ingest: %s", strings.Join(missing, ", "))
	}
	return h, nil
}

func (h header) get(row []string, col string) string {
	i, ok := h[strings.ToLower(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseDate accepts the layouts seen across FracFocus exports. Unparseable
// or empty values return the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseFloat returns nil for empty or malformed values. Thousands
// separators are tolerated.
func parseFloat(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (h header) record(row []string) model.JobRecord {
	return model.JobRecord{
		JobID:            h.get(row, ColDisclosureID),
		StartDate:        ParseDate(h.get(row, ColJobStartDate)),
		EndDate:          ParseDate(h.get(row, ColJobEndDate)),
		State:            h.get(row, ColStateName),
		County:           h.get(row, ColCountyName),
		SupplierName:     h.get(row, ColSupplier),
		ProductName:      h.get(row, ColTradeName),
		IngredientName:   h.get(row, ColIngredientName),
		Purpose:          h.get(row, ColPurpose),
		DeclaredMass:     parseFloat(h.get(row, ColMassIngredient)),
		PercentOfJobMass: parseFloat(h.get(row, ColPercentHFJob)),
		TotalFluidVolume: parseFloat(h.get(row, ColBaseWater)),
	}
}

// Stream reads the header synchronously, so a missing required column
// fails before any row is produced, then sends records on the returned
// channel. Both channels are closed when reading completes; at most one
// error is sent.
func Stream(ctx context.Context, r io.Reader) (<-chan model.JobRecord, <-chan error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	cols, err := reader.Read()
	if err == io.EOF {
		return nil, nil, eris.Wrap(model.ErrMissingColumn, "ingest: empty input")
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: read header")
	}
	h, err := parseHeader(cols)
	if err != nil {
		return nil, nil, err
	}

	recCh := make(chan model.JobRecord, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(recCh)
		defer close(errCh)
		for {
			if err := ctx.Err(); err != nil {
				errCh <- err
				return
			}
			row, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "ingest: read row")
				return
			}
			select {
			case recCh <- h.record(row):
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()
	return recCh, errCh, nil
}

// ReadCSV reads every record from r.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.JobRecord, error) {
	recCh, errCh, err := Stream(ctx, r)
	if err != nil {
		return nil, err
	}
	var out []model.JobRecord
	for rec := range recCh {
		out = append(out, rec)
	}
	if err := <-errCh; err != nil {
		return out, err
	}
	zap.L().Debug("ingest: csv read", zap.Int("rows", len(out)))
	return out, nil
}
