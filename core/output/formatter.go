// Package output provides output formatting interfaces.
// This package produces human and machine-readable reports and performs
// no computation of its own.
package output

import (
	"io"
	"sort"
	"strings"

	"finops-forecast/core/engine"
	"finops-forecast/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// ParseFormat normalizes a format name
func ParseFormat(s string) Format {
	return Format(strings.ToLower(strings.TrimSpace(s)))
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, report *engine.Report) error
}

// Registry manages formatter registration
type Registry struct {
	formatters map[Format]Formatter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[Format]Formatter)}
}

// Default returns a registry holding the JSON and CLI formatters
func Default(opts TableOptions) *Registry {
	r := NewRegistry()
	_ = r.Register(NewJSONFormatter(true))
	_ = r.Register(NewTableFormatter(opts))
	return r
}

// Register adds a formatter; registering a format twice is an error
func (r *Registry) Register(f Formatter) error {
	if _, exists := r.formatters[f.Format()]; exists {
		return errors.Newf(errors.TypeConfig, "formatter already registered: %s", f.Format())
	}
	r.formatters[f.Format()] = f
	return nil
}

// Get returns the formatter for format
func (r *Registry) Get(format Format) (Formatter, error) {
	f, ok := r.formatters[format]
	if !ok {
		return nil, errors.NotFound("output format", string(format)).
			WithContext("available", r.Formats())
	}
	return f, nil
}

// Formats returns the registered format names, sorted
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}
