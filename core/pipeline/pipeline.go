// Package pipeline converts a sales pipeline into probability-weighted
// revenue expectations.
package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"finops-forecast/core/tables"
	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// StageSummary groups the deals sitting in one stage
type StageSummary struct {
	Count         int             `json:"count"`
	TotalValue    decimal.Decimal `json:"total_value"`
	WeightedValue decimal.Decimal `json:"weighted_value"`
	Weight        decimal.Decimal `json:"weight"`
	Mapped        bool            `json:"mapped"`
}

// Result is the weighted view of a pipeline
type Result struct {
	ExpectedValue decimal.Decimal         `json:"expected_value"`
	BestCase      decimal.Decimal         `json:"best_case"`
	WorstCase     decimal.Decimal         `json:"worst_case"`
	PerStage      map[string]StageSummary `json:"per_stage"`
	TotalDeals    int                     `json:"total_deals"`
	TotalValue    decimal.Decimal         `json:"total_value"`

	// UnmappedStages lists normalized stage names that took the default weight
	UnmappedStages []string `json:"unmapped_stages,omitempty"`
}

// Aggregator weights deals by their stage
type Aggregator struct {
	stages tables.StageWeights
}

// New creates an aggregator over a stage table
func New(stages tables.StageWeights) *Aggregator {
	return &Aggregator{stages: stages}
}

// Default creates an aggregator over the built-in stage table
func Default() *Aggregator {
	return New(tables.DefaultStageWeights())
}

// Aggregate sums deals three ways. ExpectedValue is Σ amount*weight.
// BestCase counts deals at or above the best-case threshold at full
// amount and WorstCase does the same at the worst-case threshold, so
// BestCase >= WorstCase always holds while ExpectedValue may fall on
// either side of them.
func (a *Aggregator) Aggregate(deals []types.PipelineDeal) (Result, error) {
	result := Result{PerStage: make(map[string]StageSummary)}
	var expected, best, worst, total decimal.Decimal
	unmapped := make(map[string]struct{})

	for i, d := range deals {
		if d.Amount.IsNegative() {
			return Result{}, errors.InvalidArgument("deals.amount", "must be >= 0, got %s", d.Amount).
				WithContext("index", i)
		}

		stage := tables.NormalizeStage(d.Stage)
		weight, mapped := a.stages.Weight(stage)
		if !mapped {
			unmapped[stage] = struct{}{}
		}

		weighted := d.Amount.Mul(weight)
		expected = expected.Add(weighted)
		total = total.Add(d.Amount)
		if weight.GreaterThanOrEqual(a.stages.BestCaseThreshold) {
			best = best.Add(d.Amount)
		}
		if weight.GreaterThanOrEqual(a.stages.WorstCaseThreshold) {
			worst = worst.Add(d.Amount)
		}

		s := result.PerStage[stage]
		s.Count++
		s.TotalValue = s.TotalValue.Add(d.Amount)
		s.WeightedValue = s.WeightedValue.Add(weighted)
		s.Weight = weight
		s.Mapped = mapped
		result.PerStage[stage] = s
	}

	for stage, s := range result.PerStage {
		s.TotalValue = types.RoundMoney(s.TotalValue)
		s.WeightedValue = types.RoundMoney(s.WeightedValue)
		result.PerStage[stage] = s
	}
	for stage := range unmapped {
		result.UnmappedStages = append(result.UnmappedStages, stage)
	}
	sort.Strings(result.UnmappedStages)

	result.ExpectedValue = types.RoundMoney(expected)
	result.BestCase = types.RoundMoney(best)
	result.WorstCase = types.RoundMoney(worst)
	result.TotalValue = types.RoundMoney(total)
	result.TotalDeals = len(deals)
	return result, nil
}
