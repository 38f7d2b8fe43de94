// Package engine runs every forecasting component over one set of records
// and assembles the report. The CLI is a thin wrapper around this engine.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finops-forecast/core/assumptions"
	"finops-forecast/core/cashflow"
	"finops-forecast/core/cohort"
	"finops-forecast/core/confidence"
	"finops-forecast/core/determinism"
	"finops-forecast/core/input"
	"finops-forecast/core/revenue"
	"finops-forecast/core/stats"
	"finops-forecast/core/tables"
	"finops-forecast/core/types"
	"finops-forecast/core/valuation"
	"finops-forecast/internal/errors"
)

// Engine is the primary API for forecasting. It holds no per-run state and
// is safe for concurrent use.
type Engine struct {
	tables     *tables.Tables
	logger     *zap.Logger
	forecaster *revenue.Forecaster
	valuer     *valuation.Engine
	ids        *determinism.IDGenerator
}

// Option configures an Engine
type Option func(*Engine)

// WithTables replaces the built-in lookup tables
func WithTables(t *tables.Tables) Option {
	return func(e *Engine) {
		if t != nil {
			e.tables = t
		}
	}
}

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine
func New(opts ...Option) *Engine {
	e := &Engine{
		tables: tables.Default(),
		logger: zap.NewNop(),
		ids:    determinism.NewIDGenerator("finops-report"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.forecaster = revenue.NewForecaster(e.tables)
	e.valuer = valuation.New(e.tables.Multiples)
	return e
}

// Tables returns the lookup tables in use
func (e *Engine) Tables() *tables.Tables {
	return e.tables
}

// run carries the state of one Run call
type run struct {
	records *input.Records
	report  *Report
	tracker *assumptions.Tracker
	logger  *zap.Logger

	// currentMRR feeds scenarios, burn and valuation defaults
	currentMRR decimal.Decimal
	haveMRR    bool
}

// Run executes every stage whose records are present. Stage errors abort
// the run and carry the stage name in their context. ctx is checked
// between stages.
func (e *Engine) Run(ctx context.Context, records *input.Records) (*Report, error) {
	if records == nil {
		return nil, errors.Input("records are required")
	}
	if records.AsOf.IsZero() {
		return nil, errors.InvalidArgument("as_of", "an as-of date is required")
	}

	hash, err := inputHash(records)
	if err != nil {
		return nil, err
	}

	r := &run{
		records: records,
		tracker: assumptions.NewTracker(),
		logger:  e.logger.With(zap.String("input_hash", hash[:16])),
		report: &Report{
			Metadata: Metadata{
				AsOf:          records.AsOf,
				InputHash:     hash,
				TablesVersion: e.tables.Version,
				Source:        records.Source.Path,
				ReportID: string(e.ids.Generate(hash, e.tables.Version,
					types.FormatDate(records.AsOf))),
			},
		},
	}
	r.logger.Debug("run started", zap.Stringer("records", records))

	steps := map[Stage]func(*run) (bool, error){
		StageRevenue:   e.revenueStage,
		StageScenarios: e.scenarioStage,
		StagePipeline:  e.pipelineStage,
		StageCohorts:   e.cohortStage,
		StageAccuracy:  e.accuracyStage,
		StageCashFlow:  e.cashFlowStage,
		StageRunway:    e.runwayStage,
		StageValuation: e.valuationStage,
	}
	for _, stage := range Stages() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.TypeInternal, "run cancelled", err).WithContext("stage", stage.String())
		}
		ran, err := steps[stage](r)
		if err != nil {
			r.logger.Debug("stage failed", zap.Stringer("stage", stage), zap.Error(err))
			return nil, withStage(err, stage)
		}
		if ran {
			r.report.Metadata.Stages = append(r.report.Metadata.Stages, stage)
			r.logger.Debug("stage complete", zap.Stringer("stage", stage))
		}
	}

	e.finish(r)
	return r.report, nil
}

// inputHash hashes the records without their source path, so the same data
// read from two locations hashes equally
func inputHash(records *input.Records) (string, error) {
	snapshot := *records
	snapshot.Source = input.Source{}
	h, err := determinism.HashJSON(snapshot)
	if err != nil {
		return "", errors.Internal("failed to hash records", err)
	}
	return h.Hex(), nil
}

func withStage(err error, stage Stage) error {
	if e, ok := err.(*errors.Error); ok {
		return e.Clone().WithContext("stage", stage.String())
	}
	return errors.Wrapf(errors.TypeInternal, err, "stage %s failed", stage)
}

// assume records a default and logs it
func (r *run) assume(component, attribute string, value interface{}, source assumptions.Source, reason string) {
	a := r.tracker.Record(component, attribute, value, source, reason,
		assumptions.Impact(component+"."+attribute))
	r.logger.Info("assumption applied",
		zap.String("key", a.Key()),
		zap.Any("value", value),
		zap.String("source", source.String()),
		zap.String("reason", reason))
}

func (e *Engine) revenueStage(r *run) (bool, error) {
	rec := r.records
	ran := false

	if len(rec.Subscriptions) > 0 {
		mrr, err := revenue.ComputeMRR(rec.Subscriptions)
		if err != nil {
			return false, err
		}
		r.report.MRR = &mrr
		r.currentMRR, r.haveMRR = mrr.MRR, true
		ran = true
	} else if n := len(rec.History); n > 0 {
		r.currentMRR, r.haveMRR = types.RoundMoney(rec.History[n-1].Value), true
		r.assume("revenue", "current_mrr", r.currentMRR.String(), assumptions.FromHeuristic,
			fmt.Sprintf("no subscriptions; using %s history as current MRR", rec.HistoryPeriods[n-1]))
	}

	if n := len(rec.History); n >= 2 {
		cur, prev := rec.History[n-1].Value, rec.History[n-2].Value
		r.report.Growth = &Growth{
			CurrentPeriod:  rec.HistoryPeriods[n-1],
			PreviousPeriod: rec.HistoryPeriods[n-2],
			Current:        types.RoundMoney(cur),
			Previous:       types.RoundMoney(prev),
			RatePct:        revenue.GrowthRate(cur, prev),
		}
		if prev.IsZero() && cur.IsPositive() {
			r.assume("revenue", "previous_mrr_zero", r.report.Growth.RatePct.String(), assumptions.FromDefault,
				fmt.Sprintf("%s had no revenue; growth reported as 100%%", rec.HistoryPeriods[n-2]))
		}
		ran = true
	}

	if rec.Retention != nil {
		r.report.Retention = &Retention{
			NRRInput: *rec.Retention,
			NRRPct:   revenue.NetRevenueRetention(*rec.Retention),
		}
		ran = true
	}
	return ran, nil
}

func (e *Engine) scenarioStage(r *run) (bool, error) {
	if !r.haveMRR {
		return false, nil
	}
	rec := r.records
	report, err := e.forecaster.RunScenarios(revenue.ScenarioRequest{
		CurrentMRR:       r.currentMRR,
		Months:           rec.Months,
		History:          rec.History,
		ApplySeasonality: rec.ApplySeasonality,
		AsOf:             rec.AsOf,
	})
	if err != nil {
		return false, err
	}
	if n := len(rec.History); n < revenue.MinRegressionPoints {
		r.assume("scenarios", "regression", n, assumptions.FromData,
			fmt.Sprintf("%d history months; the trend forecast needs %d", n, revenue.MinRegressionPoints))
	}
	r.report.Scenarios = &report
	return true, nil
}

func (e *Engine) pipelineStage(r *run) (bool, error) {
	if len(r.records.Deals) == 0 {
		return false, nil
	}
	result, err := e.forecaster.ForecastFromPipeline(r.records.Deals)
	if err != nil {
		return false, err
	}
	for _, stage := range result.UnmappedStages {
		r.assume("pipeline", "stage_weight", stage, assumptions.FromDefault,
			fmt.Sprintf("stage %q is not in the stage table; weighted at %s", stage, e.tables.Stages.Default))
	}
	r.report.Pipeline = &result
	return true, nil
}

func (e *Engine) cohortStage(r *run) (bool, error) {
	if len(r.records.Customers) == 0 {
		return false, nil
	}
	analysis, err := cohort.Analyze(r.records.Customers, r.records.AsOf)
	if err != nil {
		return false, err
	}
	if unknown, ok := analysis[types.UnknownCohort]; ok {
		r.assume("cohort", "signup_period", unknown.InitialCount, assumptions.FromData,
			fmt.Sprintf("%d customers without a signup period grouped as %q", unknown.InitialCount, types.UnknownCohort))
	}
	r.report.Cohorts = analysis
	return true, nil
}

func (e *Engine) accuracyStage(r *run) (bool, error) {
	if len(r.records.Forecasts) == 0 && len(r.records.Actuals) == 0 {
		return false, nil
	}
	report := stats.Accuracy(r.records.Forecasts, r.records.Actuals)
	for _, period := range report.Skipped {
		r.assume("accuracy", "period", period, assumptions.FromData,
			fmt.Sprintf("forecast for %s has no usable actual", period))
	}
	r.report.Accuracy = &report
	return true, nil
}

func (e *Engine) cashFlowStage(r *run) (bool, error) {
	cash := r.records.Cash
	if cash == nil {
		return false, nil
	}
	entries, err := cashflow.Simulate(cashflow.SimulationRequest{
		StartingBalance: cash.StartingBalance,
		Start:           cash.Start,
		Days:            r.records.CashDays,
		OneTimeInflows:  cash.OneTimeInflows,
		OneTimeOutflows: cash.OneTimeOutflows,
		Recurring:       cash.Recurring,
	})
	if err != nil {
		return false, err
	}
	for _, ev := range cash.Recurring {
		if ev.DayOfMonth > 28 {
			r.assume("cashflow", "recurring_day", ev.DayOfMonth, assumptions.FromDefault,
				fmt.Sprintf("%q on day %d is skipped in months without that day", ev.Label, ev.DayOfMonth))
		}
	}
	r.report.CashFlow = entries
	r.report.CashWindows = cashflow.Summarize(entries)
	return true, nil
}

func (e *Engine) runwayStage(r *run) (bool, error) {
	in := r.records.Burn
	if in == nil {
		return false, nil
	}

	monthlyRevenue := r.currentMRR
	if in.MonthlyRevenue != nil {
		monthlyRevenue = *in.MonthlyRevenue
	} else {
		r.assume("burn", "monthly_revenue", monthlyRevenue.String(), assumptions.FromHeuristic,
			"monthly revenue not given; using current MRR")
	}
	burn, err := cashflow.BurnRate(in.MonthlyExpenses, monthlyRevenue)
	if err != nil {
		return false, err
	}
	r.report.Burn = &burn

	var balance decimal.Decimal
	switch {
	case in.CashBalance != nil:
		balance = *in.CashBalance
	case r.records.Cash != nil:
		balance = r.records.Cash.StartingBalance
		r.assume("burn", "cash_balance", balance.String(), assumptions.FromHeuristic,
			"cash balance not given; using the ledger's starting balance")
	default:
		r.logger.Debug("runway skipped: no cash balance")
		return true, nil
	}
	runway := cashflow.ComputeRunway(balance, burn, r.records.AsOf)
	r.report.Runway = &runway
	return true, nil
}

func (e *Engine) valuationStage(r *run) (bool, error) {
	in := r.records.Valuation
	if in == nil {
		return false, nil
	}

	annual := r.currentMRR.Mul(decimal.NewFromInt(12))
	if in.AnnualRevenue != nil {
		annual = *in.AnnualRevenue
	} else {
		r.assume("valuation", "annual_revenue", annual.String(), assumptions.FromHeuristic,
			"annual revenue not given; using current MRR x 12")
	}

	result, err := e.valuer.ByRevenue(annual, in.Industry, in.Adjustments)
	if err != nil {
		return false, err
	}
	if result.Fallback {
		r.assume("valuation", "industry", result.Industry, assumptions.FromDefault,
			fmt.Sprintf("industry %q has no multiples; using %s", in.Industry, result.Industry))
	}
	r.report.Valuation = &result

	if in.EBITDA != nil {
		ebitda := e.valuer.ByEBITDA(*in.EBITDA, in.Industry)
		r.report.EBITDAValuation = &ebitda
	}
	if in.Synergies != nil {
		syn, err := valuation.WithSynergies(result.Valuation, *in.Synergies)
		if err != nil {
			return false, err
		}
		r.report.Synergies = &syn
	}
	return true, nil
}

// finish rolls stage confidences up pessimistically: each stage starts at
// 1.0 and is degraded by its own assumptions, and the report takes the
// weakest stage.
func (e *Engine) finish(r *run) {
	componentStage := map[string]Stage{
		"revenue":   StageRevenue,
		"scenarios": StageScenarios,
		"pipeline":  StagePipeline,
		"cohort":    StageCohorts,
		"accuracy":  StageAccuracy,
		"cashflow":  StageCashFlow,
		"burn":      StageRunway,
		"valuation": StageValuation,
	}
	impacts := make(map[Stage][]confidence.Impact)
	for _, component := range r.tracker.Components() {
		stage := componentStage[component]
		for _, a := range r.tracker.ForComponent(component) {
			impacts[stage] = append(impacts[stage], confidence.Impact{
				Source: a.Key(), Impact: a.ConfidenceImpact, Reason: a.Reason,
			})
		}
	}

	tracker := confidence.NewTracker()
	byStage := make(map[string]float64, len(r.report.Metadata.Stages))
	for _, stage := range r.report.Metadata.Stages {
		score := confidence.ApplyImpacts(1.0, impacts[stage])
		reason := ""
		if score < 1.0 {
			keys := make([]string, 0, len(impacts[stage]))
			for _, impact := range impacts[stage] {
				keys = append(keys, impact.Source)
			}
			reason = fmt.Sprintf("%s: %s", stage, strings.Join(keys, ", "))
		}
		tracker.Add(score, reason)
		byStage[stage.String()] = score
	}

	r.report.Assumptions = r.tracker.All()
	r.report.Confidence = Confidence{
		Score:   tracker.Min(),
		Level:   confidence.Level(tracker.Min()),
		ByStage: byStage,
		Factors: r.tracker.Impacts(),
		Reasons: tracker.Reasons(),
	}
	if tracker.IsDegraded(confidence.Medium) {
		r.logger.Warn("low confidence",
			zap.Float64("confidence", tracker.Min()),
			zap.Strings("reasons", tracker.Reasons()))
	}
	r.logger.Debug("run complete",
		zap.Int("stages", len(r.report.Metadata.Stages)),
		zap.Int("assumptions", r.tracker.Count()),
		zap.Float64("confidence", tracker.Min()))
}
