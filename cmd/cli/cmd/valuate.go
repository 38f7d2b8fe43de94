// Package cmd - valuate command
package cmd

import (
	"github.com/spf13/cobra"

	"finops-forecast/core/ui"
	"finops-forecast/core/valuation"
	"finops-forecast/internal/config"
)

var (
	valuateRevenue       decimalFlag
	valuateEBITDA        decimalFlag
	valuateIndustry      string
	valuateGrowth        decimalFlag
	valuateRecurring     decimalFlag
	valuateConcentration decimalFlag
	valuatePosition      string
)

// valuateCmd values a company from its annual revenue
var valuateCmd = &cobra.Command{
	Use:   "valuate",
	Short: "Value a company against industry multiples",
	Long: `Value annual revenue at the industry's revenue multiples, scaled by
growth, recurring revenue share, customer concentration and market position.
With --ebitda, an EBITDA valuation is reported alongside.

Examples:
  finops valuate --revenue 2400000 --industry saas --growth 0.35 --recurring 90
  finops valuate --revenue 2400000 --ebitda 400000 --position leader`,
	Args: cobra.NoArgs,
	RunE: runValuate,
}

func init() {
	valuateCmd.Flags().Var(&valuateRevenue, "revenue", "annual revenue")
	valuateCmd.Flags().Var(&valuateEBITDA, "ebitda", "annual EBITDA")
	valuateCmd.Flags().StringVar(&valuateIndustry, "industry", "", "industry (default from config)")
	valuateCmd.Flags().Var(&valuateGrowth, "growth", "year-over-year growth (0.35 = 35%)")
	valuateCmd.Flags().Var(&valuateRecurring, "recurring", "recurring revenue share in percent")
	valuateCmd.Flags().Var(&valuateConcentration, "concentration", "largest customers' share of revenue in percent")
	valuateCmd.Flags().StringVar(&valuatePosition, "position", valuation.PositionAverage, "leader, average or weak")
	_ = valuateCmd.MarkFlagRequired("revenue")
}

func runValuate(cmd *cobra.Command, args []string) error {
	industry := valuateIndustry
	if industry == "" {
		industry = config.Get().Forecast.Industry
	}

	eng := valuation.New(activeTables.Multiples)
	byRevenue, err := eng.ByRevenue(valuateRevenue.Decimal(), industry, valuation.Adjustments{
		GrowthRate:               valuateGrowth.Decimal(),
		RecurringRevenuePct:      valuateRecurring.Decimal(),
		CustomerConcentrationPct: valuateConcentration.Decimal(),
		MarketPosition:           valuatePosition,
	})
	if err != nil {
		return err
	}

	var byEBITDA *valuation.Result
	if valuateEBITDA.set {
		r := eng.ByEBITDA(valuateEBITDA.Decimal(), industry)
		byEBITDA = &r
	}

	if wantJSON() {
		return writeJSON(struct {
			Revenue valuation.Result  `json:"revenue"`
			EBITDA  *valuation.Result `json:"ebitda,omitempty"`
		}{byRevenue, byEBITDA})
	}

	out := terminal()
	out.Header("Valuation")
	if byRevenue.Fallback {
		out.Warning("industry %q not in the multiple table, using %s", industry, byRevenue.Industry)
	}

	t := out.NewTable("Metric", "Base", "Low", "Mid", "High").AlignRight(1, 2, 3, 4)
	addValuationRow(t, byRevenue)
	if byEBITDA != nil {
		addValuationRow(t, *byEBITDA)
	}
	t.Render()
	out.Println("")
	out.Info("adjustment factor %s", byRevenue.AdjustmentFactor.StringFixed(2))
	return nil
}

func addValuationRow(t *ui.Table, r valuation.Result) {
	v := r.Valuation
	t.AddRow(r.Metric, r.Base.StringFixed(2), v.Low.StringFixed(0), v.Mid.StringFixed(0), v.High.StringFixed(0))
}
