// Package stats - Forecast accuracy metrics
package stats

import (
	"math"

	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
)

// Forecast is a predicted value keyed by period label
type Forecast struct {
	Period    string          `json:"period"`
	Predicted decimal.Decimal `json:"predicted"`
}

// Actual is an observed value keyed by period label
type Actual struct {
	Period string          `json:"period"`
	Actual decimal.Decimal `json:"actual"`
}

// PeriodError is the error for one matched period
type PeriodError struct {
	Period      string          `json:"period"`
	Predicted   decimal.Decimal `json:"predicted"`
	Actual      decimal.Decimal `json:"actual"`
	Error       decimal.Decimal `json:"error"`
	AbsPctError decimal.Decimal `json:"abs_pct_error"`
}

// AccuracyReport summarizes forecast error over matched periods
type AccuracyReport struct {
	PerPeriod     []PeriodError   `json:"per_period"`
	MAPE          decimal.Decimal `json:"mape"`
	RMSE          decimal.Decimal `json:"rmse"`
	AccuracyScore decimal.Decimal `json:"accuracy_score"`
	MatchedCount  int             `json:"matched_count"`

	// Skipped lists forecast periods without a usable actual
	Skipped []string `json:"skipped,omitempty"`
}

// Accuracy joins forecasts to actuals by period. Periods missing from
// either side, or whose actual is zero, are skipped. When nothing matches
// the aggregates are zero and PerPeriod is empty. If actuals repeat a
// period the last one wins.
func Accuracy(forecasts []Forecast, actuals []Actual) AccuracyReport {
	byPeriod := make(map[string]decimal.Decimal, len(actuals))
	for _, a := range actuals {
		byPeriod[a.Period] = a.Actual
	}

	report := AccuracyReport{PerPeriod: []PeriodError{}}
	hundred := decimal.NewFromInt(100)
	var sumPct, sumSq decimal.Decimal

	for _, f := range forecasts {
		actual, ok := byPeriod[f.Period]
		if !ok || actual.IsZero() {
			report.Skipped = append(report.Skipped, f.Period)
			continue
		}

		diff := actual.Sub(f.Predicted)
		pct := diff.Abs().Div(actual.Abs()).Mul(hundred)
		sumPct = sumPct.Add(pct)
		sumSq = sumSq.Add(diff.Mul(diff))

		report.PerPeriod = append(report.PerPeriod, PeriodError{
			Period:      f.Period,
			Predicted:   f.Predicted,
			Actual:      actual,
			Error:       types.RoundMoney(diff),
			AbsPctError: types.RoundPercent(pct),
		})
	}

	report.MatchedCount = len(report.PerPeriod)
	if report.MatchedCount == 0 {
		return report
	}

	n := decimal.NewFromInt(int64(report.MatchedCount))
	mape := sumPct.Div(n)
	mse := sumSq.Div(n)

	report.MAPE = types.RoundPercent(mape)
	report.RMSE = types.RoundMoney(decimal.NewFromFloat(math.Sqrt(mse.InexactFloat64())))

	score := hundred.Sub(mape)
	if score.IsNegative() {
		score = decimal.Zero
	}
	report.AccuracyScore = types.RoundPercent(score)
	return report
}
