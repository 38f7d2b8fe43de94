// Package engine - Report structures
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/assumptions"
	"finops-forecast/core/cashflow"
	"finops-forecast/core/cohort"
	"finops-forecast/core/confidence"
	"finops-forecast/core/pipeline"
	"finops-forecast/core/revenue"
	"finops-forecast/core/stats"
	"finops-forecast/core/types"
	"finops-forecast/core/valuation"
)

// Report is the output of one run. Sections whose records were absent are nil.
type Report struct {
	Metadata Metadata `json:"metadata"`

	MRR       *revenue.MRRSummary     `json:"mrr,omitempty"`
	Growth    *Growth                 `json:"growth,omitempty"`
	Retention *Retention              `json:"retention,omitempty"`
	Scenarios *revenue.ScenarioReport `json:"scenarios,omitempty"`
	Pipeline  *pipeline.Result        `json:"pipeline,omitempty"`
	Cohorts   cohort.Analysis         `json:"cohorts,omitempty"`
	Accuracy  *stats.AccuracyReport   `json:"accuracy,omitempty"`

	CashFlow    []types.DailyCashEntry            `json:"cash_flow,omitempty"`
	CashWindows map[string]cashflow.WindowSummary `json:"cash_windows,omitempty"`
	Burn        *cashflow.Burn                    `json:"burn,omitempty"`
	Runway      *cashflow.Runway                  `json:"runway,omitempty"`

	Valuation       *valuation.Result        `json:"valuation,omitempty"`
	EBITDAValuation *valuation.Result        `json:"ebitda_valuation,omitempty"`
	Synergies       *valuation.SynergyResult `json:"synergies,omitempty"`

	Assumptions []*assumptions.Assumption `json:"assumptions"`
	Confidence  Confidence                `json:"confidence"`
}

// Metadata identifies a run
type Metadata struct {
	AsOf time.Time `json:"as_of"`

	// ReportID is derived from the input hash, tables version and as-of date
	ReportID string `json:"report_id"`

	// RunID is set by the caller and differs between runs of the same input
	RunID string `json:"run_id,omitempty"`

	InputHash     string  `json:"input_hash"`
	TablesVersion string  `json:"tables_version"`
	Source        string  `json:"source,omitempty"`
	Stages        []Stage `json:"stages"`
}

// Growth is month-over-month growth between the last two history months
type Growth struct {
	CurrentPeriod  string          `json:"current_period"`
	PreviousPeriod string          `json:"previous_period"`
	Current        decimal.Decimal `json:"current"`
	Previous       decimal.Decimal `json:"previous"`
	RatePct        decimal.Decimal `json:"rate_pct"`
}

// Retention is net revenue retention over one period
type Retention struct {
	revenue.NRRInput
	NRRPct decimal.Decimal `json:"nrr_pct"`
}

// Confidence is the pessimistic roll-up over every stage that ran
type Confidence struct {
	Score   float64             `json:"score"`
	Level   string              `json:"level"`
	ByStage map[string]float64  `json:"by_stage"`
	Factors []confidence.Impact `json:"factors,omitempty"`

	// Reasons names each degraded stage and the assumptions behind it
	Reasons []string `json:"reasons,omitempty"`
}

// Ran reports whether stage executed in this run
func (r *Report) Ran(stage Stage) bool {
	for _, s := range r.Metadata.Stages {
		if s == stage {
			return true
		}
	}
	return false
}
