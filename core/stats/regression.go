// Package stats - Linear trend fitting and forecast accuracy
package stats

import (
	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
)

// Model is a fitted line y = Slope*x + Intercept with its goodness of fit.
// Slope and Intercept are kept unrounded; RSquared is rounded to 4 places.
type Model struct {
	Slope     decimal.Decimal `json:"slope"`
	Intercept decimal.Decimal `json:"intercept"`
	RSquared  decimal.Decimal `json:"r_squared"`
}

// IsZero reports whether m is the degenerate zero model
func (m Model) IsZero() bool {
	return m.Slope.IsZero() && m.Intercept.IsZero() && m.RSquared.IsZero()
}

// Fit runs ordinary least squares over (PeriodIndex, Value) pairs using the
// closed-form sums. Fewer than two points yields the zero model. When every
// value is identical the total variance is zero and RSquared is 0.
func Fit(points []types.MonthlyObservation) Model {
	if len(points) < 2 {
		return Model{}
	}

	n := decimal.NewFromInt(int64(len(points)))
	var sumX, sumY, sumXY, sumXX, sumYY decimal.Decimal
	for _, p := range points {
		x := decimal.NewFromInt(int64(p.PeriodIndex))
		sumX = sumX.Add(x)
		sumY = sumY.Add(p.Value)
		sumXY = sumXY.Add(x.Mul(p.Value))
		sumXX = sumXX.Add(x.Mul(x))
		sumYY = sumYY.Add(p.Value.Mul(p.Value))
	}

	denom := n.Mul(sumXX).Sub(sumX.Mul(sumX))
	if denom.IsZero() {
		// every point shares one x; no slope is defined
		return Model{Intercept: sumY.Div(n)}
	}

	slope := n.Mul(sumXY).Sub(sumX.Mul(sumY)).Div(denom)
	intercept := sumY.Sub(slope.Mul(sumX)).Div(n)

	ssTot := sumYY.Sub(sumY.Mul(sumY).Div(n))
	var ssRes decimal.Decimal
	for _, p := range points {
		fitted := slope.Mul(decimal.NewFromInt(int64(p.PeriodIndex))).Add(intercept)
		resid := p.Value.Sub(fitted)
		ssRes = ssRes.Add(resid.Mul(resid))
	}

	rSquared := decimal.Zero
	if ssTot.IsPositive() {
		rSquared = decimal.NewFromInt(1).Sub(ssRes.Div(ssTot))
	}
	rSquared = clampUnit(rSquared)

	return Model{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  types.RoundRatio(rSquared),
	}
}

// Predict evaluates the model at x, floored at zero and rounded to cents
func Predict(m Model, x int) decimal.Decimal {
	y := m.Slope.Mul(decimal.NewFromInt(int64(x))).Add(m.Intercept)
	if y.IsNegative() {
		return decimal.Zero
	}
	return types.RoundMoney(y)
}

func clampUnit(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	if d.GreaterThan(one) {
		return one
	}
	return d
}
