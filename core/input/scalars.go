package input

import (
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// Amount is a decimal scalar in a record file. Quoted and bare numbers
// both decode exactly, without passing through float64.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// UnmarshalYAML implements yaml.Unmarshaler
func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.InvalidArgument("amount", "expected a number at line %d", value.Line).
			WithContext("line", value.Line)
	}
	d, err := decimal.NewFromString(value.Value)
	if err != nil {
		return errors.InvalidArgument("amount", "malformed number %q at line %d", value.Value, value.Line).
			WithContext("line", value.Line)
	}
	a.Decimal = d
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (a Amount) MarshalYAML() (interface{}, error) {
	return a.Decimal.String(), nil
}

// Date is a "YYYY-MM-DD" scalar in a record file
type Date struct {
	time.Time
}

// NewDate wraps t
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.InvalidArgument("date", "expected YYYY-MM-DD at line %d", value.Line).
			WithContext("line", value.Line)
	}
	t, err := types.ParseDate(value.Value)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return e.WithContext("line", value.Line)
		}
		return err
	}
	d.Time = t
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Date) MarshalYAML() (interface{}, error) {
	return types.FormatDate(d.Time), nil
}

// optional returns a pointer to the wrapped decimal, or nil
func optional(a *Amount) *decimal.Decimal {
	if a == nil {
		return nil
	}
	d := a.Decimal
	return &d
}
