// Package output - Terminal table formatter
package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"finops-forecast/core/cashflow"
	"finops-forecast/core/determinism"
	"finops-forecast/core/engine"
	"finops-forecast/core/types"
	"finops-forecast/core/ui"
)

// TableOptions control the CLI formatter
type TableOptions struct {
	NoColor         bool
	ShowAssumptions bool
}

// TableFormatter renders a report as terminal sections
type TableFormatter struct {
	opts TableOptions
}

// NewTableFormatter creates a CLI formatter
func NewTableFormatter(opts TableOptions) *TableFormatter {
	return &TableFormatter{opts: opts}
}

// Format returns FormatCLI
func (f *TableFormatter) Format() Format {
	return FormatCLI
}

// Render writes every section present in report
func (f *TableFormatter) Render(w io.Writer, report *engine.Report) error {
	out := ui.NewWriter(w, f.opts.NoColor)

	f.renderSummary(out, report)
	if report.Scenarios != nil {
		f.renderScenarios(out, report)
	}
	if report.Pipeline != nil {
		f.renderPipeline(out, report)
	}
	if len(report.Cohorts) > 0 {
		f.renderCohorts(out, report)
	}
	if report.Accuracy != nil {
		f.renderAccuracy(out, report)
	}
	if report.CashWindows != nil || report.Burn != nil {
		f.renderCash(out, report)
	}
	if report.Valuation != nil {
		f.renderValuation(out, report)
	}
	if f.opts.ShowAssumptions && len(report.Assumptions) > 0 {
		f.renderAssumptions(out, report)
	}
	out.Println("")
	out.Println("%s", out.Color(ui.Dim, fmt.Sprintf("report %s  input %s  tables %s",
		report.Metadata.ReportID, short(report.Metadata.InputHash), report.Metadata.TablesVersion)))
	return nil
}

func (f *TableFormatter) renderSummary(out *ui.Writer, r *engine.Report) {
	s := out.NewSummary("Financial Forecast")
	s.Add("As of", types.FormatDate(r.Metadata.AsOf))
	if r.MRR != nil {
		s.Add("MRR", money(r.MRR.MRR))
		s.Add("ARR", money(r.MRR.ARR))
	}
	if r.Growth != nil {
		s.Add("MoM growth", pct(r.Growth.RatePct))
	}
	if r.Retention != nil {
		s.Add("NRR", pct(r.Retention.NRRPct))
	}
	if r.Pipeline != nil {
		s.Add("Weighted pipeline", money(r.Pipeline.ExpectedValue))
	}
	if r.Runway != nil {
		s.Add("Runway", runwayText(r.Runway))
	}
	if r.Valuation != nil {
		s.Add("Valuation (mid)", money(r.Valuation.Valuation.Mid))
	}
	s.Confidence = r.Confidence.Score
	s.Warnings = len(r.Assumptions)
	s.Render()
}

func (f *TableFormatter) renderScenarios(out *ui.Writer, r *engine.Report) {
	sc := r.Scenarios
	out.Header("Revenue Scenarios")

	trend := make(map[string]decimal.Decimal, len(sc.LinearRegression))
	for _, p := range sc.LinearRegression {
		trend[p.Period] = p.Predicted
	}

	t := out.NewTable("Month", "Period", "Best case", "Expected", "Worst case", "Trend").AlignRight(0, 2, 3, 4, 5)
	for i, m := range sc.Expected.Months {
		trendCell := "-"
		if v, ok := trend[m.Period]; ok {
			trendCell = money(v)
		}
		t.AddRow(strconv.Itoa(m.Month), m.Period,
			money(sc.BestCase.Months[i].MRR), money(m.MRR), money(sc.WorstCase.Months[i].MRR), trendCell)
	}
	t.Render()

	if q := sc.RegressionQuality; q != nil {
		out.Println("")
		out.Info("trend fit r²=%s slope=%s/month (%s)", q.RSquared.StringFixed(4), money(q.Slope), q.Level)
	}
}

func (f *TableFormatter) renderPipeline(out *ui.Writer, r *engine.Report) {
	p := r.Pipeline
	out.Header("Pipeline")

	t := out.NewTable("Stage", "Deals", "Weight", "Total", "Weighted").AlignRight(1, 2, 3, 4)
	for _, stage := range determinism.SortedKeys(p.PerStage) {
		s := p.PerStage[stage]
		name := stage
		if !s.Mapped {
			name += " *"
		}
		t.AddRow(name, strconv.Itoa(s.Count), s.Weight.StringFixed(2), money(s.TotalValue), money(s.WeightedValue))
	}
	t.Render()
	out.Println("")
	out.Println("Expected %s   Best case %s   Worst case %s",
		money(p.ExpectedValue), money(p.BestCase), money(p.WorstCase))
}

func (f *TableFormatter) renderCohorts(out *ui.Writer, r *engine.Report) {
	out.Header("Cohorts")

	t := out.NewTable("Cohort", "Age", "Customers", "Active", "Logo retention", "Revenue retention", "Current MRR").
		AlignRight(1, 2, 3, 4, 5, 6)
	for _, key := range r.Cohorts.Keys() {
		m := r.Cohorts[key]
		t.AddRow(key, strconv.Itoa(m.AgeMonths), strconv.Itoa(m.InitialCount), strconv.Itoa(m.CurrentActive),
			pct(m.CustomerRetentionPct), pct(m.RevenueRetentionPct), money(m.CurrentMRR))
	}
	t.Render()
}

func (f *TableFormatter) renderAccuracy(out *ui.Writer, r *engine.Report) {
	a := r.Accuracy
	out.Header("Forecast Accuracy")
	if a.MatchedCount == 0 {
		out.Warning("no forecast period has a usable actual")
		return
	}

	t := out.NewTable("Period", "Predicted", "Actual", "Error", "Abs % error").AlignRight(1, 2, 3, 4)
	for _, p := range a.PerPeriod {
		t.AddRow(p.Period, money(p.Predicted), money(p.Actual), money(p.Error), pct(p.AbsPctError))
	}
	t.Render()
	out.Println("")
	out.Println("MAPE %s   RMSE %s   Accuracy %s", pct(a.MAPE), money(a.RMSE), pct(a.AccuracyScore))
}

func (f *TableFormatter) renderCash(out *ui.Writer, r *engine.Report) {
	out.Header("Cash")

	if len(r.CashWindows) > 0 {
		t := out.NewTable("Window", "Inflows", "Outflows", "Net", "Ending", "Lowest", "Lowest on").
			AlignRight(1, 2, 3, 4, 5)
		for _, n := range cashflow.Windows {
			s, ok := r.CashWindows[cashflow.WindowKey(n)]
			if !ok {
				continue
			}
			lowest := money(s.LowestBalance)
			if s.IsNegative {
				lowest = out.Color(ui.Red, lowest)
			}
			t.AddRow(fmt.Sprintf("%d days", n), money(s.TotalInflows), money(s.TotalOutflows),
				money(s.NetCashFlow), money(s.EndingBalance), lowest, types.FormatDate(s.LowestBalanceDate))
		}
		t.Render()
		out.Println("")
	}

	if b := r.Burn; b != nil {
		out.Println("Gross burn %s   Revenue %s   Net burn %s", money(b.GrossBurn), money(b.Revenue), money(b.NetBurn))
	}
	if rw := r.Runway; rw != nil {
		switch rw.Status {
		case cashflow.StatusCritical:
			out.Error("%s", rw.Message)
		case cashflow.StatusWarning:
			out.Warning("%s", rw.Message)
		default:
			out.Success("%s", rw.Message)
		}
	}
}

func (f *TableFormatter) renderValuation(out *ui.Writer, r *engine.Report) {
	v := r.Valuation
	out.Header("Valuation")

	headers := []string{"Tier", "Revenue multiple", "Revenue valuation"}
	if r.EBITDAValuation != nil {
		headers = append(headers, "EBITDA multiple", "EBITDA valuation")
	}
	if r.Synergies != nil {
		headers = append(headers, "With synergies")
	}
	t := out.NewTable(headers...).AlignRight(1, 2, 3, 4, 5)

	tiers := []struct {
		name string
		pick func(types.Range) decimal.Decimal
	}{
		{"low", func(x types.Range) decimal.Decimal { return x.Low }},
		{"mid", func(x types.Range) decimal.Decimal { return x.Mid }},
		{"high", func(x types.Range) decimal.Decimal { return x.High }},
	}
	for _, tier := range tiers {
		row := []string{tier.name, multiple(tier.pick(v.Multiples)), whole(tier.pick(v.Valuation))}
		if e := r.EBITDAValuation; e != nil {
			row = append(row, multiple(tier.pick(e.Multiples)), whole(tier.pick(e.Valuation)))
		}
		if s := r.Synergies; s != nil {
			row = append(row, money(tier.pick(s.AdjustedValuation)))
		}
		t.AddRow(row...)
	}
	t.Render()
	out.Println("")
	out.Println("Industry %s   Adjustment factor %s", v.Industry, v.AdjustmentFactor.StringFixed(2))
}

func (f *TableFormatter) renderAssumptions(out *ui.Writer, r *engine.Report) {
	out.Header("Assumptions")

	t := out.NewTable("Key", "Value", "Source", "Impact", "Reason").AlignRight(3)
	for _, a := range r.Assumptions {
		t.AddRow(a.Key(), fmt.Sprint(a.Value), a.Source.String(),
			strconv.FormatFloat(a.ConfidenceImpact, 'f', 2, 64), a.Reason)
	}
	t.Render()
}

func runwayText(r *cashflow.Runway) string {
	if r.Infinite {
		return "profitable"
	}
	return fmt.Sprintf("%s months (%s)", r.Months.String(), r.Status)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func pct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

func whole(d decimal.Decimal) string {
	return d.StringFixed(0)
}

func multiple(d decimal.Decimal) string {
	return d.StringFixed(1) + "x"
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
