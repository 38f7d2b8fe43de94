package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"finops-forecast/core/cashflow"
	"finops-forecast/core/input"
	"finops-forecast/core/tables"
	"finops-forecast/core/types"
	"finops-forecast/core/valuation"
	"finops-forecast/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

var asOf = time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC)

func fullRecords() *input.Records {
	return &input.Records{
		AsOf:     asOf,
		Industry: "saas",
		Months:   3,
		CashDays: 60,
		Subscriptions: []types.Subscription{
			{Amount: dec("1000"), BillingCycle: types.BillingMonthly},
			{Amount: dec("2400"), BillingCycle: types.BillingAnnual},
		},
		History: []types.MonthlyObservation{
			{PeriodIndex: 0, Value: dec("1000")},
			{PeriodIndex: 1, Value: dec("1100")},
			{PeriodIndex: 2, Value: dec("1200")},
		},
		HistoryPeriods: []string{"2024-07", "2024-08", "2024-09"},
		Deals: []types.PipelineDeal{
			{Stage: "closed-won", Amount: dec("5000")},
			{Stage: "mystery", Amount: dec("1000")},
		},
		Customers: []types.Customer{
			{SignupPeriod: "2024-01", Status: types.StatusActive, InitialMRR: dec("100"), CurrentMRR: dec("120")},
			{Status: types.StatusChurned, InitialMRR: dec("50")},
		},
		Cash: &input.CashInput{
			StartingBalance: dec("120000"),
			Start:           asOf,
			Recurring: []types.RecurringEvent{
				{Amount: dec("5000"), DayOfMonth: 1, Direction: types.DirectionOutflow, Label: "payroll"},
			},
		},
		Burn: &input.BurnInput{MonthlyExpenses: dec("11200")},
		Valuation: &input.ValuationInput{
			Industry:      "saas",
			AnnualRevenue: ptr(dec("1000000")),
			EBITDA:        ptr(dec("200000")),
			Adjustments: valuation.Adjustments{
				GrowthRate:               dec("0.35"),
				RecurringRevenuePct:      dec("90"),
				CustomerConcentrationPct: dec("10"),
				MarketPosition:           "average",
			},
			Synergies: &valuation.Synergies{CostSavings: dec("100000")},
		},
	}
}

func TestRunFullReport(t *testing.T) {
	report, err := New().Run(context.Background(), fullRecords())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(report.Metadata.Stages) != 7 {
		t.Errorf("expected 7 stages (no accuracy), got %v", report.Metadata.Stages)
	}
	if report.Ran(StageAccuracy) || !report.Ran(StageValuation) {
		t.Errorf("unexpected stages %v", report.Metadata.Stages)
	}

	if !report.MRR.MRR.Equal(dec("1200")) || !report.MRR.ARR.Equal(dec("14400")) {
		t.Errorf("unexpected MRR %+v", report.MRR)
	}
	if !report.Growth.RatePct.Equal(dec("9.09")) {
		t.Errorf("expected growth 9.09, got %s", report.Growth.RatePct)
	}
	if report.Scenarios == nil || len(report.Scenarios.Expected.Months) != 3 || report.Scenarios.RegressionQuality == nil {
		t.Errorf("unexpected scenarios %+v", report.Scenarios)
	}
	if !report.Pipeline.ExpectedValue.Equal(dec("5100")) {
		t.Errorf("expected pipeline 5100, got %s", report.Pipeline.ExpectedValue)
	}
	if _, ok := report.Cohorts[types.UnknownCohort]; !ok {
		t.Error("expected an unknown cohort")
	}
	if len(report.CashFlow) != 60 || len(report.CashWindows) != 2 {
		t.Errorf("expected 60 days and two windows, got %d and %d", len(report.CashFlow), len(report.CashWindows))
	}

	// net burn 11200 - 1200 = 10000, cash falls back to the ledger start
	if !report.Burn.NetBurn.Equal(dec("10000")) {
		t.Errorf("unexpected burn %+v", report.Burn)
	}
	if report.Runway == nil || !report.Runway.Months.Equal(dec("12")) || report.Runway.Status != cashflow.StatusWarning {
		t.Errorf("unexpected runway %+v", report.Runway)
	}

	if !report.Valuation.Valuation.Mid.Equal(dec("12400000")) {
		t.Errorf("expected mid valuation 12400000, got %s", report.Valuation.Valuation.Mid)
	}
	if !report.EBITDAValuation.Valuation.Mid.Equal(dec("4000000")) {
		t.Errorf("unexpected EBITDA valuation %+v", report.EBITDAValuation.Valuation)
	}
	if !report.Synergies.AdjustedValuation.Mid.Equal(dec("12475000")) {
		t.Errorf("unexpected synergies %+v", report.Synergies)
	}
}

func TestRunRecordsAssumptions(t *testing.T) {
	report, err := New().Run(context.Background(), fullRecords())
	if err != nil {
		t.Fatal(err)
	}

	keys := make(map[string]bool)
	for _, a := range report.Assumptions {
		keys[a.Key()] = true
	}
	for _, want := range []string{"pipeline.stage_weight", "cohort.signup_period", "burn.monthly_revenue", "burn.cash_balance"} {
		if !keys[want] {
			t.Errorf("expected assumption %s, got %v", want, keys)
		}
	}
	if keys["valuation.industry"] {
		t.Error("saas is mapped; no industry assumption expected")
	}

	c := report.Confidence
	if c.ByStage["valuation"] != 1.0 {
		t.Errorf("valuation stage made no assumptions, got %v", c.ByStage["valuation"])
	}
	if c.ByStage["pipeline"] >= 1.0 {
		t.Errorf("pipeline stage should be degraded, got %v", c.ByStage["pipeline"])
	}
	for stage, score := range c.ByStage {
		if c.Score > score {
			t.Errorf("overall %v exceeds %s stage %v", c.Score, stage, score)
		}
	}
	if len(c.Factors) != len(report.Assumptions) {
		t.Errorf("expected one factor per assumption, got %d vs %d", len(c.Factors), len(report.Assumptions))
	}

	degraded := 0
	for _, score := range c.ByStage {
		if score < 1.0 {
			degraded++
		}
	}
	if len(c.Reasons) != degraded {
		t.Errorf("expected one reason per degraded stage (%d), got %v", degraded, c.Reasons)
	}
	pipelineReason := false
	for _, reason := range c.Reasons {
		if strings.HasPrefix(reason, "valuation:") {
			t.Errorf("valuation made no assumptions, got reason %q", reason)
		}
		if strings.HasPrefix(reason, "pipeline: ") && strings.Contains(reason, "pipeline.stage_weight") {
			pipelineReason = true
		}
	}
	if !pipelineReason {
		t.Errorf("expected a pipeline reason naming its assumption, got %v", c.Reasons)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	e := New()
	a, err := e.Run(context.Background(), fullRecords())
	if err != nil {
		t.Fatal(err)
	}

	moved := fullRecords()
	moved.Source = input.Source{Path: "/elsewhere/records.yaml"}
	b, err := e.Run(context.Background(), moved)
	if err != nil {
		t.Fatal(err)
	}
	if a.Metadata.InputHash != b.Metadata.InputHash || a.Metadata.ReportID != b.Metadata.ReportID {
		t.Errorf("same records must hash equally: %+v vs %+v", a.Metadata, b.Metadata)
	}

	changed := fullRecords()
	changed.Subscriptions[0].Amount = dec("1001")
	c, _ := e.Run(context.Background(), changed)
	if c.Metadata.InputHash == a.Metadata.InputHash {
		t.Error("different records must hash differently")
	}
}

func TestRunMinimalRecords(t *testing.T) {
	report, err := New().Run(context.Background(), &input.Records{AsOf: asOf, Months: 12})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Metadata.Stages) != 0 || report.MRR != nil || report.Scenarios != nil {
		t.Errorf("empty records should run nothing: %+v", report)
	}
	if report.Confidence.Score != 1.0 || report.Confidence.Level != "high" || len(report.Confidence.Reasons) != 0 {
		t.Errorf("unexpected confidence %+v", report.Confidence)
	}
}

func TestRunHistoryOnly(t *testing.T) {
	rec := &input.Records{
		AsOf:           asOf,
		Months:         2,
		History:        []types.MonthlyObservation{{PeriodIndex: 0, Value: dec("0")}, {PeriodIndex: 1, Value: dec("500")}},
		HistoryPeriods: []string{"2024-08", "2024-09"},
		Valuation:      &input.ValuationInput{Industry: "space-mining"},
	}
	report, err := New().Run(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}

	if !report.Growth.RatePct.Equal(dec("100")) {
		t.Errorf("growth from zero should report 100, got %s", report.Growth.RatePct)
	}
	if !report.Scenarios.Expected.Months[0].UnadjustedMRR.IsPositive() {
		t.Error("scenarios should start from the latest history month")
	}
	if report.Scenarios.LinearRegression != nil {
		t.Error("two months of history is too short for the trend forecast")
	}
	if report.Valuation.Industry != "generic" || !report.Valuation.Base.Equal(dec("6000")) {
		t.Errorf("unexpected valuation %+v", report.Valuation)
	}

	keys := make(map[string]bool)
	for _, a := range report.Assumptions {
		keys[a.Key()] = true
	}
	for _, want := range []string{"revenue.current_mrr", "revenue.previous_mrr_zero", "scenarios.regression", "valuation.industry", "valuation.annual_revenue"} {
		if !keys[want] {
			t.Errorf("missing assumption %s in %v", want, keys)
		}
	}
}

func TestRunErrors(t *testing.T) {
	negative := fullRecords()
	negative.Deals[0].Amount = dec("-1")

	badDay := fullRecords()
	badDay.Cash.Recurring[0].DayOfMonth = 0

	tests := []struct {
		name    string
		records *input.Records
		stage   string
	}{
		{name: "negative deal", records: negative, stage: "pipeline"},
		{name: "bad recurring day", records: badDay, stage: "cash_flow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Run(context.Background(), tt.records)
			if !errors.IsType(err, errors.TypeInvalidArgument) {
				t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
			}
			if e := err.(*errors.Error); e.Context["stage"] != tt.stage {
				t.Errorf("expected stage %s, got %v", tt.stage, e.Context["stage"])
			}
		})
	}

	if _, err := New().Run(context.Background(), &input.Records{}); !errors.IsType(err, errors.TypeInvalidArgument) {
		t.Errorf("missing as-of should fail, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Run(ctx, fullRecords()); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestWithTables(t *testing.T) {
	custom := tables.Default().Clone()
	custom.Version = "test-v2"
	custom.Stages.Weights["mystery"] = dec("0.5")

	report, err := New(WithTables(custom)).Run(context.Background(), fullRecords())
	if err != nil {
		t.Fatal(err)
	}
	if report.Metadata.TablesVersion != "test-v2" {
		t.Errorf("expected tables version test-v2, got %s", report.Metadata.TablesVersion)
	}
	if !report.Pipeline.ExpectedValue.Equal(dec("5500")) {
		t.Errorf("expected the custom weight to apply, got %s", report.Pipeline.ExpectedValue)
	}
}

func TestWithLoggerLogsAssumptions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	if _, err := New(WithLogger(zap.New(core))).Run(context.Background(), fullRecords()); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, entry := range logs.FilterMessage("assumption applied").All() {
		if key, ok := entry.ContextMap()["key"].(string); ok && strings.HasPrefix(key, "pipeline.") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a logged pipeline assumption, got %d entries", logs.Len())
	}
}

func TestWithStageCopiesSharedError(t *testing.T) {
	shared := errors.InvalidArgument("day_of_month", "out of range")

	tagged := withStage(shared, StageCashFlow)

	if _, ok := shared.Context["stage"]; ok {
		t.Errorf("shared error was tagged in place: %v", shared.Context)
	}
	e, ok := tagged.(*errors.Error)
	if !ok || e.Context["stage"] != "cash_flow" || e.Context["field"] != "day_of_month" {
		t.Errorf("unexpected tagged error %#v", tagged)
	}
	if e == shared {
		t.Error("expected a copy, got the shared error")
	}
}
