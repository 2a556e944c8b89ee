package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/aggregate"
	"github.com/sells-group/proppant-cli/internal/engine"
	"github.com/sells-group/proppant-cli/internal/estimate"
	"github.com/sells-group/proppant-cli/internal/ingest"
)

var (
	revenueInputs   []string
	revenueReported string
)

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Back-solve implied prices and validate volumes against reported figures",
	Long: `Runs the engine, then compares tracked quarterly mass with the reported
revenue and mass in a YAML file:

  revenue:
    2024Q1: 2500000
  mass:
    2024Q1: 41000000

Prints implied prices, accuracy bands, the growth trend and the
early-quarter prediction as JSON.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		reported, err := ingest.LoadReported(revenueReported)
		if err != nil {
			return err
		}

		applyEngineFlags(cmd)
		p, err := cfg.EngineParams()
		if err != nil {
			return err
		}

		res, _, err := runEngine(ctx, p, revenueInputs)
		if err != nil {
			return err
		}

		report := buildRevenueReport(res, p, reported)
		if report.Backsolve != nil && report.Backsolve.Warning {
			zap.L().Warn("implied price volatility above threshold",
				zap.Float64("volatility_pct", report.Backsolve.VolatilityPct),
				zap.Float64("warn_pct", p.VolatilityWarnPct),
			)
		}
		return writeSummary(os.Stdout, report)
	},
}

type revenueReport struct {
	RunID        string                     `json:"run_id"`
	Input        string                     `json:"input"`
	TrackedMass  map[string]float64         `json:"tracked_mass"`
	Backsolve    *estimate.PricingBacksolve `json:"backsolve,omitempty"`
	Accuracy     *estimate.AccuracyReport   `json:"accuracy,omitempty"`
	GrowthPct    float64                    `json:"growth_pct"`
	EarlyQuarter estimate.EarlyPrediction   `json:"early_quarter"`
}

// buildRevenueReport runs inverse mode when reported revenue is present and
// validation mode when reported mass is present.
func buildRevenueReport(res *engine.Result, p engine.Params, reported ingest.Reported) revenueReport {
	quarterly := res.Tables[engine.TableQuarterly]
	massByQuarter := aggregate.TrackedMassByQuarter(quarterly)

	report := revenueReport{
		RunID:        res.RunID,
		Input:        strings.Join(revenueInputs, ","),
		TrackedMass:  make(map[string]float64, len(massByQuarter)),
		EarlyQuarter: estimate.EarlyQuarterPrediction(res.Records, estimate.DefaultEarlyMultiplier),
	}
	series := make([]float64, 0, len(quarterly))
	for _, r := range quarterly {
		report.TrackedMass[r.Quarter.String()] = r.TrackedEntityMass
		series = append(series, r.TrackedEntityMass)
	}
	report.GrowthPct = estimate.GrowthTrend(series)

	if len(reported.Revenue) > 0 {
		bs := p.Pricing.Inverse(massByQuarter, reported.Revenue, p.VolatilityWarnPct)
		report.Backsolve = &bs
	}
	if len(reported.Mass) > 0 {
		acc := estimate.Validate(massByQuarter, reported.Mass, p.Bands)
		report.Accuracy = &acc
	}
	return report
}

func init() {
	revenueCmd.Flags().StringArrayVar(&revenueInputs, "input", nil, "disclosure CSV or ZIP file (repeatable, required)")
	revenueCmd.Flags().StringVar(&revenueReported, "reported", "", "YAML file of reported revenue and mass by quarter (required)")
	addEngineFlags(revenueCmd)
	_ = revenueCmd.MarkFlagRequired("input")
	_ = revenueCmd.MarkFlagRequired("reported")
	rootCmd.AddCommand(revenueCmd)
}
