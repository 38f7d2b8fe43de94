// Package types - Rounding rules for finalized results
package types

import (
	"github.com/shopspring/decimal"

	"finops-forecast/internal/errors"
)

// Decimal places applied when a result is finalized
const (
	MoneyPlaces   int32 = 2
	PercentPlaces int32 = 2
	RatioPlaces   int32 = 4
)

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds a monetary value to cents
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// RoundPercent rounds a percentage field
func RoundPercent(d decimal.Decimal) decimal.Decimal {
	return d.Round(PercentPlaces)
}

// RoundRatio rounds a ratio such as rSquared
func RoundRatio(d decimal.Decimal) decimal.Decimal {
	return d.Round(RatioPlaces)
}

// RoundWhole rounds to whole currency units
func RoundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Percent returns part/whole*100 rounded to 2 places, or zero when whole is zero
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return RoundPercent(part.Div(whole).Mul(hundred))
}

// RequireNonNegative returns an invalid argument error when d < 0
func RequireNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return errors.InvalidArgument(field, "must be >= 0, got %s", d.String()).WithContext("value", d.String())
	}
	return nil
}
