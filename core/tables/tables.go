// Package tables holds the named lookup tables that drive the engine:
// pipeline stage weights, industry valuation multiples and the monthly
// seasonality curve. Built-in defaults can be overridden per deployment
// from an HCL file.
package tables

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
)

// BuiltinVersion identifies the compiled-in tables
const BuiltinVersion = "builtin"

// Tables is the full set of lookup tables used by one engine run
type Tables struct {
	// Version labels the table set for reports
	Version string `json:"version"`

	Stages      StageWeights  `json:"stages"`
	Multiples   MultipleTable `json:"multiples"`
	Seasonality Seasonality   `json:"seasonality"`
}

// Default returns the built-in tables
func Default() *Tables {
	return &Tables{
		Version:     BuiltinVersion,
		Stages:      DefaultStageWeights(),
		Multiples:   DefaultMultiples(),
		Seasonality: DefaultSeasonality(),
	}
}

// Clone returns a deep copy so overrides never touch the receiver
func (t *Tables) Clone() *Tables {
	out := &Tables{
		Version:     t.Version,
		Stages:      t.Stages,
		Multiples:   t.Multiples,
		Seasonality: t.Seasonality,
	}
	out.Stages.Weights = make(map[string]decimal.Decimal, len(t.Stages.Weights))
	for k, v := range t.Stages.Weights {
		out.Stages.Weights[k] = v
	}
	out.Multiples.Industries = make(map[string]IndustryMultiples, len(t.Multiples.Industries))
	for k, v := range t.Multiples.Industries {
		out.Multiples.Industries[k] = v
	}
	return out
}

// StageWeights maps pipeline stage names to close probabilities
type StageWeights struct {
	Weights map[string]decimal.Decimal `json:"weights"`

	// Default is the weight for stages missing from Weights
	Default decimal.Decimal `json:"default"`

	// BestCaseThreshold is the minimum weight counted at full value in the best case
	BestCaseThreshold decimal.Decimal `json:"best_case_threshold"`

	// WorstCaseThreshold is the minimum weight counted at full value in the worst case
	WorstCaseThreshold decimal.Decimal `json:"worst_case_threshold"`
}

// DefaultStageWeights returns the built-in stage table
func DefaultStageWeights() StageWeights {
	return StageWeights{
		Weights: map[string]decimal.Decimal{
			"lead":          decimal.RequireFromString("0.05"),
			"qualified":     decimal.RequireFromString("0.15"),
			"discovery":     decimal.RequireFromString("0.25"),
			"demo":          decimal.RequireFromString("0.40"),
			"proposal":      decimal.RequireFromString("0.60"),
			"negotiation":   decimal.RequireFromString("0.80"),
			"contract-sent": decimal.RequireFromString("0.90"),
			"closed-won":    decimal.RequireFromString("1.00"),
			"closed-lost":   decimal.Zero,
		},
		Default:            decimal.RequireFromString("0.10"),
		BestCaseThreshold:  decimal.RequireFromString("0.25"),
		WorstCaseThreshold: decimal.RequireFromString("0.90"),
	}
}

// NormalizeStage lower-cases and trims a stage name
func NormalizeStage(stage string) string {
	return strings.ToLower(strings.TrimSpace(stage))
}

// Weight returns the weight for stage and whether it was mapped
func (s StageWeights) Weight(stage string) (decimal.Decimal, bool) {
	if w, ok := s.Weights[NormalizeStage(stage)]; ok {
		return w, true
	}
	return s.Default, false
}

// IndustryMultiples are the valuation multiple ranges for one industry
type IndustryMultiples struct {
	Revenue types.Range `json:"revenue"`
	EBITDA  types.Range `json:"ebitda"`
}

// MultipleTable maps industries to valuation multiples
type MultipleTable struct {
	Industries map[string]IndustryMultiples `json:"industries"`

	// Fallback is the industry used when a lookup misses
	Fallback string `json:"fallback"`
}

// DefaultMultiples returns the built-in industry table
func DefaultMultiples() MultipleTable {
	return MultipleTable{
		Industries: map[string]IndustryMultiples{
			"saas":          {Revenue: types.NewRange(6, 8, 12), EBITDA: types.NewRange(15, 20, 30)},
			"fintech":       {Revenue: types.NewRange(4, 6, 9), EBITDA: types.NewRange(12, 16, 22)},
			"marketplace":   {Revenue: types.NewRange(2, 4, 6), EBITDA: types.NewRange(12, 16, 22)},
			"healthcare":    {Revenue: types.NewRange(2, 3.5, 5), EBITDA: types.NewRange(10, 13, 16)},
			"ecommerce":     {Revenue: types.NewRange(1, 2, 3.5), EBITDA: types.NewRange(8, 11, 14)},
			"services":      {Revenue: types.NewRange(0.8, 1.2, 1.8), EBITDA: types.NewRange(5, 7, 9)},
			"manufacturing": {Revenue: types.NewRange(0.8, 1.2, 1.6), EBITDA: types.NewRange(5, 7, 10)},
			"generic":       {Revenue: types.NewRange(1, 2, 3), EBITDA: types.NewRange(5, 7, 9)},
		},
		Fallback: "generic",
	}
}

// Lookup returns the multiples for industry, falling back when unmapped.
// The returned key is the row actually used.
func (m MultipleTable) Lookup(industry string) (IndustryMultiples, string, bool) {
	key := strings.ToLower(strings.TrimSpace(industry))
	if row, ok := m.Industries[key]; ok {
		return row, key, true
	}
	return m.Industries[m.Fallback], m.Fallback, false
}

// Seasonality holds one multiplicative factor per calendar month, January first
type Seasonality [12]decimal.Decimal

// DefaultSeasonality returns the built-in curve: strong first half, slow Q4
func DefaultSeasonality() Seasonality {
	var s Seasonality
	for i, f := range []string{
		"1.15", "1.10", "1.10", "1.05", "1.00", "1.00",
		"0.95", "0.95", "1.00", "0.95", "0.90", "0.85",
	} {
		s[i] = decimal.RequireFromString(f)
	}
	return s
}

// Factor returns the factor for month; out-of-range months get 1.0
func (s Seasonality) Factor(month time.Month) decimal.Decimal {
	if month < time.January || month > time.December {
		return decimal.NewFromInt(1)
	}
	return s[month-1]
}
