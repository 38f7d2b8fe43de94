// Package confidence - Symmetric bands around projected values
package confidence

import (
	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
)

// Band is the interval a projected value is expected to fall in
type Band struct {
	Lower decimal.Decimal `json:"lower"`
	Upper decimal.Decimal `json:"upper"`
}

// Width is the relative spread of a band below and above the value
type Width struct {
	Down decimal.Decimal `json:"down"`
	Up   decimal.Decimal `json:"up"`
}

// Symmetric returns a width of pct in both directions (0.10 = ±10%)
func Symmetric(pct string) Width {
	d := decimal.RequireFromString(pct)
	return Width{Down: d, Up: d}
}

// Apply wraps value in the band, rounded to cents
func (w Width) Apply(value decimal.Decimal) Band {
	one := decimal.NewFromInt(1)
	return Band{
		Lower: types.RoundMoney(value.Mul(one.Sub(w.Down))),
		Upper: types.RoundMoney(value.Mul(one.Add(w.Up))),
	}
}
