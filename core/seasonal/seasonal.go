// Package seasonal applies a monthly seasonality curve to forecast values
package seasonal

import (
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/tables"
	"finops-forecast/core/types"
)

// Adjuster scales values by the factor of their calendar month
type Adjuster struct {
	curve tables.Seasonality
}

// New creates an adjuster over curve
func New(curve tables.Seasonality) *Adjuster {
	return &Adjuster{curve: curve}
}

// Default creates an adjuster over the built-in curve
func Default() *Adjuster {
	return New(tables.DefaultSeasonality())
}

// Factor returns the multiplier for month; out-of-range months get 1.0
func (a *Adjuster) Factor(month time.Month) decimal.Decimal {
	return a.curve.Factor(month)
}

// Apply returns base scaled by the month's factor, rounded to cents
func (a *Adjuster) Apply(month time.Month, base decimal.Decimal) decimal.Decimal {
	return types.RoundMoney(base.Mul(a.Factor(month)))
}
