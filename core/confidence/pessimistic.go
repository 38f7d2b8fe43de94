// Package confidence - Pessimistic confidence propagation
// Aggregate confidence = MIN(component confidence)
// A weak component is never hidden by strong ones.
package confidence

// Aggregate returns the minimum confidence (pessimistic)
func Aggregate(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	min := 1.0
	for _, v := range values {
		if v < min {
			min = v
		}
	}
	return min
}

// Impact is one reason a result is less trustworthy
type Impact struct {
	Source string  `json:"source"`
	Impact float64 `json:"impact"` // 0.0-1.0 reduction
	Reason string  `json:"reason"`
}

// ApplyImpacts degrades base multiplicatively by each impact
func ApplyImpacts(base float64, impacts []Impact) float64 {
	result := base
	for _, impact := range impacts {
		result *= (1.0 - impact.Impact)
	}
	if result < 0 {
		result = 0
	}
	return result
}

// Tracker collects component confidences during a run
type Tracker struct {
	values  []float64
	reasons []string
	min     float64
}

// NewTracker creates a tracker
func NewTracker() *Tracker {
	return &Tracker{
		values: []float64{},
		min:    1.0,
	}
}

// Add records a confidence value with the reason it is below 1
func (t *Tracker) Add(confidence float64, reason string) {
	t.values = append(t.values, confidence)
	if reason != "" {
		t.reasons = append(t.reasons, reason)
	}
	if confidence < t.min {
		t.min = confidence
	}
}

// Min returns the minimum confidence; 1.0 when nothing was recorded
func (t *Tracker) Min() float64 {
	return t.min
}

// Reasons returns recorded reasons in insertion order
func (t *Tracker) Reasons() []string {
	return t.reasons
}

// IsDegraded returns true if confidence is below threshold
func (t *Tracker) IsDegraded(threshold float64) bool {
	return t.min < threshold
}

// Confidence thresholds
const (
	High   = 0.9
	Medium = 0.7
	Low    = 0.5
)

// Level returns a human-readable level
func Level(confidence float64) string {
	switch {
	case confidence >= High:
		return "high"
	case confidence >= Medium:
		return "medium"
	case confidence >= Low:
		return "low"
	default:
		return "unknown"
	}
}
