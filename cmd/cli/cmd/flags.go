// Package cmd - shared flag types and output helpers
package cmd

import (
	"encoding/json"
	"os"

	"github.com/shopspring/decimal"

	"finops-forecast/core/output"
	"finops-forecast/core/ui"
	"finops-forecast/internal/config"
	"finops-forecast/internal/errors"
)

// decimalFlag parses a flag straight into a decimal so amounts never pass through float64
type decimalFlag struct {
	value decimal.Decimal
	set   bool
}

func (d *decimalFlag) String() string {
	return d.value.String()
}

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return errors.InvalidArgument("flag", "expected a number, got %q", s)
	}
	d.value = v
	d.set = true
	return nil
}

func (d *decimalFlag) Type() string {
	return "decimal"
}

func (d *decimalFlag) Decimal() decimal.Decimal {
	return d.value
}

func wantJSON() bool {
	return output.ParseFormat(config.Get().Output.DefaultFormat) == output.FormatJSON
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to encode result", err)
	}
	return nil
}

func terminal() *ui.Writer {
	w := ui.NewWriter(os.Stdout, noColor)
	if verbose {
		w.SetVerbosity(2)
	}
	return w
}
