package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/catalog"
	"github.com/sells-group/proppant-cli/internal/engine"
	"github.com/sells-group/proppant-cli/internal/export"
	"github.com/sells-group/proppant-cli/internal/ingest"
	"github.com/sells-group/proppant-cli/internal/model"
	"github.com/sells-group/proppant-cli/internal/quality"
)

var (
	analyzeInputs         []string
	analyzeOut            string
	analyzeXLSX           string
	analyzeSave           bool
	analyzeWorkers        int
	analyzeSupplierPolicy string
	analyzeProductPolicy  string
	analyzeCatalog        string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the attribution engine over disclosure files",
	Long: `Reads FracFocus-style CSV or ZIP disclosure files, estimates proppant mass
per job, apportions it across quarters, classifies basin and tracked-supplier
membership, and writes the aggregate tables.

Examples:
  proppant-cli analyze --input registry.zip --out out/
  proppant-cli analyze --input a.csv --input b.csv --xlsx tables.xlsx --save
  proppant-cli analyze --input registry.zip --supplier-policy exact_pattern --product-policy heuristic`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		applyEngineFlags(cmd)
		p, err := cfg.EngineParams()
		if err != nil {
			return err
		}

		res, records, err := runEngine(ctx, p, analyzeInputs)
		if err != nil {
			return err
		}

		if rows := res.Tables[engine.TableQuarterly]; len(rows) > 0 {
			p.Pricing.Apply(rows)
		}

		issues := checkQuality(res, records, p.Quality, time.Now())
		logIssues(issues)

		names := res.TableNames()
		paths, err := export.WriteCSVFiles(analyzeOut, names, res.Tables, engine.TableGroupBy)
		if err != nil {
			return err
		}
		if analyzeXLSX != "" {
			if err := export.WriteXLSX(analyzeXLSX, names, res.Tables, engine.TableGroupBy); err != nil {
				return err
			}
		}

		if analyzeSave {
			if err := saveRun(ctx, res, p, strings.Join(analyzeInputs, ",")); err != nil {
				return err
			}
		}

		return writeSummary(os.Stdout, analysisSummary{
			RunID:       res.RunID,
			Saved:       analyzeSave,
			Tables:      paths,
			Workbook:    analyzeXLSX,
			Diagnostics: res.Diagnostics,
			Quality:     issues,
		})
	},
}

// applyEngineFlags copies explicitly set engine flags over the loaded config.
func applyEngineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Engine.Workers = analyzeWorkers
	}
	if flags.Changed("supplier-policy") {
		cfg.Engine.SupplierPolicy = analyzeSupplierPolicy
	}
	if flags.Changed("product-policy") {
		cfg.Engine.ProductPolicy = analyzeProductPolicy
	}
	if flags.Changed("catalog") {
		cfg.Engine.CatalogPath = analyzeCatalog
	}
}

// runEngine ingests inputs and runs one attribution pass.
func runEngine(ctx context.Context, p engine.Params, inputs []string) (*engine.Result, []model.JobRecord, error) {
	if len(inputs) == 0 {
		return nil, nil, eris.New("at least one --input is required")
	}

	records, err := ingest.ReadFiles(ctx, inputs...)
	if err != nil {
		return nil, nil, err
	}

	cats, err := catalog.Load(cfg.Engine.CatalogPath)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(p, cats)
	if err != nil {
		return nil, nil, err
	}

	res, err := eng.Run(ctx, records)
	if err != nil {
		return nil, nil, eris.Wrap(err, "engine run")
	}
	return res, records, nil
}

// checkQuality runs the job-level checks and adds run diagnostics and
// supplier coverage.
func checkQuality(res *engine.Result, records []model.JobRecord, th quality.Thresholds, now time.Time) quality.Issues {
	issues := quality.Check(res.Summaries, now, th)
	issues.AddDiagnostics(res.Diagnostics)
	issues.AddCompleteness(quality.SupplierCompleteness(records, th.MinSupplierCompletenessPct))
	return issues
}

func logIssues(is quality.Issues) {
	for _, msg := range is.Critical {
		zap.L().Error("quality: critical", zap.String("issue", msg))
	}
	for _, msg := range is.Warnings {
		zap.L().Warn("quality: warning", zap.String("issue", msg))
	}
	for _, msg := range is.Info {
		zap.L().Info("quality: info", zap.String("issue", msg))
	}
}

func saveRun(ctx context.Context, res *engine.Result, p engine.Params, input string) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	diag := res.Diagnostics
	id, err := st.SaveRun(ctx, model.Run{
		ID:          res.RunID,
		Input:       input,
		Status:      model.RunStatusComplete,
		Params:      p.Map(),
		Diagnostics: &diag,
	}, res.Tables)
	if err != nil {
		return eris.Wrap(err, "save run")
	}
	zap.L().Info("run saved", zap.String("run_id", id), zap.String("driver", cfg.Store.Driver))
	return nil
}

type analysisSummary struct {
	RunID       string            `json:"run_id"`
	Saved       bool              `json:"saved"`
	Tables      []string          `json:"tables"`
	Workbook    string            `json:"workbook,omitempty"`
	Diagnostics model.Diagnostics `json:"diagnostics"`
	Quality     quality.Issues    `json:"quality"`
}

func writeSummary(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	analyzeCmd.Flags().StringArrayVar(&analyzeInputs, "input", nil, "disclosure CSV or ZIP file (repeatable, required)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "out", "directory for CSV tables")
	analyzeCmd.Flags().StringVar(&analyzeXLSX, "xlsx", "", "also write an XLSX workbook to this path")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the run and its tables to the configured store")
	addEngineFlags(analyzeCmd)
	_ = analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}

// addEngineFlags registers the engine override flags shared by analyze and revenue.
func addEngineFlags(c *cobra.Command) {
	c.Flags().IntVar(&analyzeWorkers, "workers", 0, "worker partitions (default from config)")
	c.Flags().StringVar(&analyzeSupplierPolicy, "supplier-policy", "", "permissive or exact_pattern (default from config)")
	c.Flags().StringVar(&analyzeProductPolicy, "product-policy", "", "exact or heuristic (default from config)")
	c.Flags().StringVar(&analyzeCatalog, "catalog", "", "catalog YAML file (default built-in)")
}
