// Package output - JSON formatter
package output

import (
	"encoding/json"
	"io"

	"finops-forecast/core/engine"
	"finops-forecast/internal/errors"
)

// JSONFormatter writes the report as JSON. Decimals encode as strings so
// no precision is lost.
type JSONFormatter struct {
	indent bool
}

// NewJSONFormatter creates a JSON formatter
func NewJSONFormatter(indent bool) *JSONFormatter {
	return &JSONFormatter{indent: indent}
}

// Format returns FormatJSON
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

// Render writes report to w
func (f *JSONFormatter) Render(w io.Writer, report *engine.Report) error {
	enc := json.NewEncoder(w)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to encode report", err)
	}
	return nil
}
