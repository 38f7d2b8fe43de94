// Package engine - Run stages
// Stages execute in declaration order; a stage whose records are absent is
// skipped, never reordered.
package engine

// Stage is one step of a run
type Stage int

const (
	StageRevenue   Stage = iota // MRR, growth and retention
	StageScenarios              // Three scenarios and the trend forecast
	StagePipeline               // Weighted pipeline
	StageCohorts                // Cohort retention
	StageAccuracy               // Forecast accuracy
	StageCashFlow               // Daily cash simulation
	StageRunway                 // Burn and runway
	StageValuation              // Multiples and synergies
	stageCount
)

// String returns the stage name
func (s Stage) String() string {
	names := []string{
		"revenue", "scenarios", "pipeline", "cohorts",
		"accuracy", "cash_flow", "runway", "valuation",
	}
	if s >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// MarshalText renders the stage name in reports
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stages returns every stage in execution order
func Stages() []Stage {
	out := make([]Stage, 0, stageCount)
	for s := StageRevenue; s < stageCount; s++ {
		out = append(out, s)
	}
	return out
}
