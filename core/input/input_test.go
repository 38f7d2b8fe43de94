package input

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

const sampleRecords = `
as_of: 2024-10-15
company:
  name: Acme
  industry: saas
settings:
  months: 6
  apply_seasonality: true
subscriptions:
  - {amount: 1000, billing_cycle: monthly, plan: pro}
  - {amount: "2400.00", billing_cycle: Annual}
history:
  - {period: 2024-09, value: 11800}
  - {period: 2024-07, value: 11000}
  - {period: 2024-08, value: 11400.50}
deals:
  - {name: big, stage: Proposal, amount: 50000}
customers:
  - {signup_period: 2024-01, status: active, initial_mrr: 100, current_mrr: 150}
  - {status: cancelled, initial_mrr: 80, current_mrr: 0}
accuracy:
  forecasts: [{period: 2024-08, value: 11000}]
  actuals: [{period: 2024-08, value: 11400.50}]
cash:
  starting_balance: 250000
  one_time_inflows: [{date: 2024-11-01, amount: 30000, label: grant}]
  recurring:
    - {day_of_month: 1, amount: 42000, direction: outflow, label: payroll}
burn:
  monthly_expenses: 52000
valuation:
  ebitda: 200000
  adjustments: {growth_rate: 0.35, recurring_revenue_pct: 90, customer_concentration_pct: 10, market_position: leader}
  synergies: {revenue_upside: 100000, cost_savings: 50000}
`

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecodeAndRecords(t *testing.T) {
	b, err := Decode(strings.NewReader(sampleRecords))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if b.Source.ContentHash == "" {
		t.Error("expected a content hash")
	}

	r, err := b.Records()
	if err != nil {
		t.Fatalf("records failed: %v", err)
	}

	if !r.AsOf.Equal(time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected as-of %v", r.AsOf)
	}
	if r.Months != 6 || r.CashDays != DefaultCashDays || !r.ApplySeasonality {
		t.Errorf("unexpected settings: months=%d cash_days=%d seasonality=%v", r.Months, r.CashDays, r.ApplySeasonality)
	}
	if r.Industry != "saas" {
		t.Errorf("expected saas, got %q", r.Industry)
	}

	if len(r.Subscriptions) != 2 || r.Subscriptions[1].BillingCycle != types.BillingAnnual {
		t.Errorf("unexpected subscriptions %+v", r.Subscriptions)
	}
	if !r.Subscriptions[1].Amount.Equal(dec("2400")) {
		t.Errorf("expected quoted amount to decode, got %s", r.Subscriptions[1].Amount)
	}

	wantPeriods := []string{"2024-07", "2024-08", "2024-09"}
	for i, p := range wantPeriods {
		if r.HistoryPeriods[i] != p || r.History[i].PeriodIndex != i {
			t.Errorf("history[%d]: expected %s at index %d, got %s at %d", i, p, i, r.HistoryPeriods[i], r.History[i].PeriodIndex)
		}
	}
	if !r.History[1].Value.Equal(dec("11400.50")) {
		t.Errorf("expected exact decimal, got %s", r.History[1].Value)
	}

	if r.Customers[1].Status != types.StatusOther || r.Customers[1].SignupPeriod != "" {
		t.Errorf("unexpected customer %+v", r.Customers[1])
	}
	if len(r.Forecasts) != 1 || len(r.Actuals) != 1 {
		t.Errorf("unexpected accuracy rows: %v %v", r.Forecasts, r.Actuals)
	}

	if r.Cash == nil || !r.Cash.Start.Equal(r.AsOf) {
		t.Fatalf("cash ledger should start on the as-of date: %+v", r.Cash)
	}
	if r.Cash.Recurring[0].Direction != types.DirectionOutflow {
		t.Errorf("unexpected recurring %+v", r.Cash.Recurring)
	}

	if r.Burn == nil || r.Burn.MonthlyRevenue != nil || r.Burn.CashBalance != nil {
		t.Errorf("burn defaults should stay unset: %+v", r.Burn)
	}

	v := r.Valuation
	if v == nil || v.Industry != "saas" || v.AnnualRevenue != nil || v.EBITDA == nil {
		t.Fatalf("unexpected valuation input %+v", v)
	}
	if !v.Synergies.Total().Equal(dec("150000")) {
		t.Errorf("expected synergies 150000, got %s", v.Synergies.Total())
	}
	if !v.Adjustments.GrowthRate.Equal(dec("0.35")) {
		t.Errorf("unexpected adjustments %+v", v.Adjustments)
	}
}

func TestRecordsErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing as-of", yaml: "subscriptions: []"},
		{name: "bad billing cycle", yaml: "as_of: 2024-01-01\nsubscriptions: [{amount: 1, billing_cycle: weekly}]"},
		{name: "bad period", yaml: "as_of: 2024-01-01\nhistory: [{period: 2024/01, value: 1}]"},
		{name: "duplicate period", yaml: "as_of: 2024-01-01\nhistory: [{period: 2024-01, value: 1}, {period: 2024-01, value: 2}]"},
		{name: "bad signup period", yaml: "as_of: 2024-01-01\ncustomers: [{signup_period: jan, status: active, initial_mrr: 1, current_mrr: 1}]"},
		{name: "bad direction", yaml: "as_of: 2024-01-01\ncash: {starting_balance: 1, recurring: [{day_of_month: 1, amount: 1, direction: sideways}]}"},
		{name: "negative months", yaml: "as_of: 2024-01-01\nsettings: {months: -1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Decode(strings.NewReader(tt.yaml))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if _, err := b.Records(); !errors.IsType(err, errors.TypeInvalidArgument) {
				t.Errorf("expected INVALID_ARGUMENT, got %v", err)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		errType errors.Type
	}{
		{name: "malformed amount", yaml: "as_of: 2024-01-01\ndeals: [{stage: lead, amount: lots}]", errType: errors.TypeInvalidArgument},
		{name: "malformed date", yaml: "as_of: 15/10/2024", errType: errors.TypeInvalidArgument},
		{name: "unknown key", yaml: "as_of: 2024-01-01\nsubscribers: []", errType: errors.TypeParsing},
		{name: "not yaml", yaml: "as_of: [", errType: errors.TypeParsing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.yaml)); !errors.IsType(err, tt.errType) {
				t.Errorf("expected %s, got %v", tt.errType, err)
			}
		})
	}
}

func TestDefaultsAndEmptyInput(t *testing.T) {
	b, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty input should decode: %v", err)
	}

	months, days, seasonal := 3, 30, true
	b.AsOf = &Date{Time: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
	b.Settings.CashDays = &days
	b.WithDefaults(Settings{Months: &months, CashDays: &months, ApplySeasonality: &seasonal})

	r, err := b.Records()
	if err != nil {
		t.Fatal(err)
	}
	if r.Months != 3 || r.CashDays != 30 || !r.ApplySeasonality {
		t.Errorf("defaults must not override file settings: %+v", r)
	}
	if r.Cash != nil || r.Burn != nil || r.Valuation != nil || r.Retention != nil {
		t.Error("absent sections must stay nil")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.yaml")
	if err := os.WriteFile(path, []byte(sampleRecords), 0644); err != nil {
		t.Fatal(err)
	}

	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if b.Source.Path != path {
		t.Errorf("expected source path %s, got %s", path, b.Source.Path)
	}

	again, _ := Decode(strings.NewReader(sampleRecords))
	if again.Source.ContentHash != b.Source.ContentHash {
		t.Error("content hash must depend only on the bytes")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	b, err := Decode(strings.NewReader(sampleRecords))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("re-decode failed: %v\n%s", err, buf.String())
	}

	r1, _ := b.Records()
	r2, err := back.Records()
	if err != nil {
		t.Fatal(err)
	}
	if r1.String() != r2.String() || !r2.History[1].Value.Equal(dec("11400.5")) {
		t.Errorf("round trip changed records: %s vs %s", r1, r2)
	}
}

func TestSampleDecodesToCompleteRecords(t *testing.T) {
	asOf := time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := Sample(asOf).Encode(&buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	b, err := Decode(&buf)
	if err != nil {
		t.Fatalf("sample does not decode: %v\n%s", err, buf.String())
	}
	r, err := b.Records()
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}

	if !r.AsOf.Equal(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("AsOf = %v", r.AsOf)
	}
	if r.HistoryPeriods[0] != "2023-09" || r.HistoryPeriods[len(r.HistoryPeriods)-1] != "2024-02" {
		t.Errorf("HistoryPeriods = %v", r.HistoryPeriods)
	}
	if len(r.Subscriptions) == 0 || len(r.Deals) == 0 || len(r.Customers) == 0 {
		t.Errorf("missing rows: %s", r)
	}
	if r.Cash == nil || r.Burn == nil || r.Valuation == nil || r.Retention == nil || len(r.Actuals) == 0 {
		t.Errorf("missing sections: %+v", r)
	}
	if r.Valuation.Industry != "saas" {
		t.Errorf("valuation industry = %q, want company industry", r.Valuation.Industry)
	}
}

func TestWithIndexCopiesSharedError(t *testing.T) {
	shared := errors.InvalidArgument("amount", "must not be negative")

	first := withIndex(shared, "subscriptions", 0).(*errors.Error)
	second := withIndex(shared, "history", 4).(*errors.Error)

	if _, ok := shared.Context["section"]; ok {
		t.Errorf("shared error was tagged in place: %v", shared.Context)
	}
	if first.Context["section"] != "subscriptions" || first.Context["index"] != 0 {
		t.Errorf("first tag overwritten: %v", first.Context)
	}
	if second.Context["section"] != "history" || second.Context["index"] != 4 {
		t.Errorf("unexpected second tag: %v", second.Context)
	}
}
