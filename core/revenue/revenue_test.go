package revenue

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/assumptions"
	"finops-forecast/core/tables"
	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeMRR(t *testing.T) {
	subs := []types.Subscription{
		{Amount: dec("1000"), BillingCycle: types.BillingMonthly, Plan: "growth"},
		{Amount: dec("2400"), BillingCycle: types.BillingAnnual, Plan: "starter"},
	}

	got, err := ComputeMRR(subs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.MRR.Equal(dec("1200")) {
		t.Errorf("expected MRR 1200, got %s", got.MRR)
	}
	if !got.ARR.Equal(dec("14400")) {
		t.Errorf("expected ARR 14400, got %s", got.ARR)
	}
	if got.CustomerCount != 2 {
		t.Errorf("expected 2 customers, got %d", got.CustomerCount)
	}
	if !got.AvgPerCustomer.Equal(dec("600")) {
		t.Errorf("expected avg 600, got %s", got.AvgPerCustomer)
	}
	if !got.PerPlan["starter"].Equal(dec("200")) || !got.PerPlan["growth"].Equal(dec("1000")) {
		t.Errorf("unexpected per-plan breakdown: %v", got.PerPlan)
	}
}

func TestComputeMRRMonthlyIdentity(t *testing.T) {
	amounts := []string{"99.99", "249.50", "0", "1200.01", "15.37"}
	var subs []types.Subscription
	sum := decimal.Zero
	for _, a := range amounts {
		subs = append(subs, types.Subscription{Amount: dec(a), BillingCycle: types.BillingMonthly})
		sum = sum.Add(dec(a))
	}

	got, err := ComputeMRR(subs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.MRR.Equal(sum) {
		t.Errorf("expected MRR %s, got %s", sum, got.MRR)
	}
	if !got.ARR.Equal(got.MRR.Mul(decimal.NewFromInt(12))) {
		t.Errorf("ARR %s is not MRR*12", got.ARR)
	}
	if _, ok := got.PerPlan[UnassignedPlan]; !ok {
		t.Errorf("expected unassigned plan bucket, got %v", got.PerPlan)
	}
}

func TestComputeMRRAnnualRounding(t *testing.T) {
	got, err := ComputeMRR([]types.Subscription{
		{Amount: dec("1000"), BillingCycle: types.BillingAnnual},
		{Amount: dec("1000"), BillingCycle: types.BillingAnnual},
	})
	if err != nil {
		t.Fatal(err)
	}
	// 83.333... * 2, rounded once at the end
	if !got.MRR.Equal(dec("166.67")) {
		t.Errorf("expected 166.67, got %s", got.MRR)
	}
	if !got.ARR.Equal(dec("2000.04")) {
		t.Errorf("expected ARR from rounded MRR, got %s", got.ARR)
	}
}

func TestComputeMRRErrors(t *testing.T) {
	tests := []struct {
		name string
		sub  types.Subscription
	}{
		{name: "negative amount", sub: types.Subscription{Amount: dec("-1"), BillingCycle: types.BillingMonthly}},
		{name: "unknown cycle", sub: types.Subscription{Amount: dec("1"), BillingCycle: "weekly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeMRR([]types.Subscription{tt.sub})
			if !errors.IsType(err, errors.TypeInvalidArgument) {
				t.Errorf("expected INVALID_ARGUMENT, got %v", err)
			}
		})
	}
}

func TestComputeMRREmpty(t *testing.T) {
	got, err := ComputeMRR(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.MRR.IsZero() || !got.AvgPerCustomer.IsZero() || got.CustomerCount != 0 {
		t.Errorf("expected zero summary, got %+v", got)
	}
}

func TestGrowthRate(t *testing.T) {
	tests := []struct {
		current, previous, want string
	}{
		{"120", "100", "20"},
		{"90", "100", "-10"},
		{"1", "3", "-66.67"},
		{"5", "0", "100"},
		{"0", "0", "0"},
	}
	for _, tt := range tests {
		got := GrowthRate(dec(tt.current), dec(tt.previous))
		if !got.Equal(dec(tt.want)) {
			t.Errorf("GrowthRate(%s, %s): expected %s, got %s", tt.current, tt.previous, tt.want, got)
		}
	}
}

func TestNetRevenueRetention(t *testing.T) {
	got := NetRevenueRetention(NRRInput{
		BeginningMRR:   dec("10000"),
		ExpansionMRR:   dec("1500"),
		ContractionMRR: dec("300"),
		ChurnedMRR:     dec("700"),
	})
	if !got.Equal(dec("105")) {
		t.Errorf("expected 105, got %s", got)
	}

	zero := NetRevenueRetention(NRRInput{ExpansionMRR: dec("999"), ChurnedMRR: dec("5")})
	if !zero.IsZero() {
		t.Errorf("expected 0 for zero beginning MRR, got %s", zero)
	}
}

func TestProjectForward(t *testing.T) {
	set, _ := assumptions.Canonical(assumptions.Expected, dec("10000"))

	months, err := ProjectForward(dec("10000"), 2, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("expected 2 months, got %d", len(months))
	}

	first := months[0]
	if first.Month != 1 || !first.MRR.Equal(dec("11200")) || !first.ARR.Equal(dec("134400")) {
		t.Errorf("unexpected month 1: %+v", first)
	}
	if !first.ChurnLoss.Equal(dec("300")) || !first.Expansion.Equal(dec("200")) ||
		!first.NewRevenue.Equal(dec("800")) || !first.OrganicGrowth.Equal(dec("500")) {
		t.Errorf("unexpected month 1 components: %+v", first)
	}
	if !months[1].MRR.Equal(dec("12448")) {
		t.Errorf("expected month 2 MRR 12448, got %s", months[1].MRR)
	}
}

func TestProjectForwardAppliesEffectsSimultaneously(t *testing.T) {
	set := assumptions.Set{
		MonthlyGrowthRate: dec("0.05"),
		MonthlyChurnRate:  dec("0.03"),
	}
	months, err := ProjectForward(dec("10000"), 1, set)
	if err != nil {
		t.Fatal(err)
	}
	// sequential application would give 10000 * 0.97 * 1.05 = 10185
	if !months[0].MRR.Equal(dec("10200")) {
		t.Errorf("expected 10200, got %s", months[0].MRR)
	}
}

func TestProjectForwardErrors(t *testing.T) {
	set, _ := assumptions.Canonical(assumptions.Expected, dec("100"))

	if _, err := ProjectForward(dec("100"), -1, set); !errors.IsType(err, errors.TypeInvalidArgument) {
		t.Errorf("expected INVALID_ARGUMENT for negative months, got %v", err)
	}
	if _, err := ProjectForward(dec("-100"), 1, set); !errors.IsType(err, errors.TypeInvalidArgument) {
		t.Errorf("expected INVALID_ARGUMENT for negative MRR, got %v", err)
	}
	months, err := ProjectForward(dec("100"), 0, set)
	if err != nil || len(months) != 0 {
		t.Errorf("expected empty projection for zero months, got %v %v", months, err)
	}
}

func TestRunScenarios(t *testing.T) {
	f := NewForecaster(tables.Default())
	asOf := time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC)

	report, err := f.RunScenarios(ScenarioRequest{
		CurrentMRR: dec("10000"),
		Months:     3,
		AsOf:       asOf,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		scenario Scenario
		month1   string
		lower    string
		upper    string
	}{
		{name: "best", scenario: report.BestCase, month1: "12900", lower: "10965", upper: "14835"},
		{name: "expected", scenario: report.Expected, month1: "11200", lower: "10080", upper: "12320"},
		{name: "worst", scenario: report.WorstCase, month1: "9650", lower: "7720", upper: "11580"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.scenario.Months[0]
			if !m.MRR.Equal(dec(tt.month1)) {
				t.Errorf("expected month 1 MRR %s, got %s", tt.month1, m.MRR)
			}
			if !m.Band.Lower.Equal(dec(tt.lower)) || !m.Band.Upper.Equal(dec(tt.upper)) {
				t.Errorf("expected band [%s, %s], got [%s, %s]", tt.lower, tt.upper, m.Band.Lower, m.Band.Upper)
			}
			if !m.UnadjustedMRR.Equal(m.MRR) || !m.SeasonalFactor.Equal(decimal.NewFromInt(1)) {
				t.Errorf("expected no seasonal adjustment, got %+v", m)
			}
			if m.Period != "2024-11" {
				t.Errorf("expected first period 2024-11, got %s", m.Period)
			}
			if len(tt.scenario.Months) != 3 {
				t.Errorf("expected 3 months, got %d", len(tt.scenario.Months))
			}
			if !tt.scenario.EndingMRR.Equal(tt.scenario.Months[2].MRR) {
				t.Errorf("ending MRR should equal last month")
			}
		})
	}

	if report.LinearRegression != nil || report.RegressionQuality != nil {
		t.Error("expected no regression without history")
	}
}

func TestRunScenariosWithSeasonality(t *testing.T) {
	f := NewForecaster(tables.Default())

	report, err := f.RunScenarios(ScenarioRequest{
		CurrentMRR:       dec("10000"),
		Months:           3,
		ApplySeasonality: true,
		AsOf:             time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	months := report.Expected.Months
	// November 0.90, December 0.85, January 1.15
	wants := []struct{ period, unadjusted, adjusted string }{
		{"2024-11", "11200", "10080"},
		{"2024-12", "12448", "10580.8"},
		{"2025-01", "13745.92", "15807.81"},
	}
	for i, w := range wants {
		m := months[i]
		if m.Period != w.period {
			t.Errorf("month %d: expected period %s, got %s", i+1, w.period, m.Period)
		}
		if !m.UnadjustedMRR.Equal(dec(w.unadjusted)) {
			t.Errorf("month %d: expected unadjusted %s, got %s", i+1, w.unadjusted, m.UnadjustedMRR)
		}
		if !m.MRR.Equal(dec(w.adjusted)) {
			t.Errorf("month %d: expected adjusted %s, got %s", i+1, w.adjusted, m.MRR)
		}
		if !m.ARR.Equal(m.MRR.Mul(decimal.NewFromInt(12))) {
			t.Errorf("month %d: ARR should follow adjusted MRR", i+1)
		}
	}
}

func TestRunScenariosRegression(t *testing.T) {
	f := NewForecaster(tables.Default())
	history := []types.MonthlyObservation{
		{PeriodIndex: 0, Value: dec("1000")},
		{PeriodIndex: 1, Value: dec("1100")},
		{PeriodIndex: 2, Value: dec("1200")},
	}

	report, err := f.RunScenarios(ScenarioRequest{
		CurrentMRR: dec("1200"),
		Months:     3,
		History:    history,
		AsOf:       time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.LinearRegression) != 3 {
		t.Fatalf("expected 3 regression points, got %d", len(report.LinearRegression))
	}
	for i, want := range []string{"1300", "1400", "1500"} {
		p := report.LinearRegression[i]
		if !p.Predicted.Equal(dec(want)) {
			t.Errorf("step %d: expected %s, got %s", i+1, want, p.Predicted)
		}
		if p.PeriodIndex != 3+i {
			t.Errorf("step %d: expected period index %d, got %d", i+1, 3+i, p.PeriodIndex)
		}
	}
	q := report.RegressionQuality
	if q == nil || !q.RSquared.Equal(dec("1")) || !q.Slope.Equal(dec("100")) || q.Level != "high" {
		t.Errorf("unexpected quality: %+v", q)
	}

	// the trend forecast never feeds the scenarios
	plain, _ := f.RunScenarios(ScenarioRequest{CurrentMRR: dec("1200"), Months: 3, AsOf: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)})
	if !plain.Expected.EndingMRR.Equal(report.Expected.EndingMRR) {
		t.Error("history changed the expected scenario")
	}
}

func TestRunScenariosShortHistory(t *testing.T) {
	f := NewForecaster(tables.Default())
	report, err := f.RunScenarios(ScenarioRequest{
		CurrentMRR: dec("500"),
		Months:     2,
		History:    []types.MonthlyObservation{{PeriodIndex: 0, Value: dec("1")}, {PeriodIndex: 1, Value: dec("2")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.RegressionQuality != nil {
		t.Error("two points should not produce a trend forecast")
	}
}

func TestRunScenariosRejectsNegativeMonths(t *testing.T) {
	f := NewForecaster(tables.Default())
	_, err := f.RunScenarios(ScenarioRequest{CurrentMRR: dec("1"), Months: -2})
	if !errors.IsType(err, errors.TypeInvalidArgument) {
		t.Errorf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestForecastFromPipeline(t *testing.T) {
	f := NewForecaster(tables.Default())
	r, err := f.ForecastFromPipeline([]types.PipelineDeal{{Stage: "proposal", Amount: dec("10000")}})
	if err != nil {
		t.Fatal(err)
	}
	if !r.ExpectedValue.Equal(dec("6000")) {
		t.Errorf("expected 6000, got %s", r.ExpectedValue)
	}
}
