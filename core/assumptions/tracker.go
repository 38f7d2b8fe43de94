// Package assumptions - Tracked defaults
// Every fallback the engine takes is recorded and reduces confidence.
package assumptions

import (
	"fmt"
	"sort"

	"finops-forecast/core/confidence"
)

// Assumption represents a default applied while computing a result
type Assumption struct {
	// What was assumed
	Component string `json:"component"`
	Attribute string `json:"attribute"`

	// What value was used
	Value interface{} `json:"value"`

	// Why this was assumed
	Source Source `json:"source"`
	Reason string `json:"reason"`

	// Confidence impact
	ConfidenceImpact float64 `json:"confidence_impact"`
}

// Key identifies the assumption as component.attribute
func (a *Assumption) Key() string {
	return fmt.Sprintf("%s.%s", a.Component, a.Attribute)
}

// Source indicates where the assumption came from
type Source int

const (
	FromDefault   Source = iota // Lookup table fallback
	FromHeuristic               // Derived from other inputs
	FromData                    // Input records were insufficient
)

// String returns the source name
func (s Source) String() string {
	switch s {
	case FromDefault:
		return "default"
	case FromHeuristic:
		return "heuristic"
	case FromData:
		return "data"
	default:
		return "unknown"
	}
}

// MarshalText renders the source name in reports
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Tracker tracks all assumptions made during one run
type Tracker struct {
	assumptions []*Assumption
	byComponent map[string][]*Assumption
}

// NewTracker creates a new tracker
func NewTracker() *Tracker {
	return &Tracker{
		assumptions: []*Assumption{},
		byComponent: make(map[string][]*Assumption),
	}
}

// Record adds an assumption
func (t *Tracker) Record(component, attribute string, value interface{}, source Source, reason string, impact float64) *Assumption {
	a := &Assumption{
		Component:        component,
		Attribute:        attribute,
		Value:            value,
		Source:           source,
		Reason:           reason,
		ConfidenceImpact: impact,
	}

	t.assumptions = append(t.assumptions, a)
	t.byComponent[component] = append(t.byComponent[component], a)
	return a
}

// All returns all assumptions in recording order
func (t *Tracker) All() []*Assumption {
	return t.assumptions
}

// ForComponent returns assumptions for a component
func (t *Tracker) ForComponent(component string) []*Assumption {
	return t.byComponent[component]
}

// Components returns the components with at least one assumption, sorted
func (t *Tracker) Components() []string {
	out := make([]string, 0, len(t.byComponent))
	for c := range t.byComponent {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Impacts converts the assumptions into confidence impacts
func (t *Tracker) Impacts() []confidence.Impact {
	out := make([]confidence.Impact, 0, len(t.assumptions))
	for _, a := range t.assumptions {
		out = append(out, confidence.Impact{
			Source: a.Key(),
			Impact: a.ConfidenceImpact,
			Reason: a.Reason,
		})
	}
	return out
}

// Count returns the number of assumptions
func (t *Tracker) Count() int {
	return len(t.assumptions)
}

// DefaultImpacts defines standard confidence impacts per assumption key
var DefaultImpacts = map[string]float64{
	"pipeline.stage_weight":     0.05,
	"valuation.industry":        0.20,
	"cohort.signup_period":      0.05,
	"accuracy.period":           0.02,
	"scenarios.regression":      0.10,
	"scenarios.seasonality":     0.05,
	"cashflow.recurring_day":    0.02,
	"revenue.previous_mrr_zero": 0.10,

	"default": 0.05,
}

// Impact returns the standard impact for an assumption key
func Impact(key string) float64 {
	if impact, ok := DefaultImpacts[key]; ok {
		return impact
	}
	return DefaultImpacts["default"]
}
