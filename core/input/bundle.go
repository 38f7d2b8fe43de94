// Package input decodes record files into the typed records the engine
// consumes. Everything downstream of the CLI reads Records only.
package input

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"finops-forecast/core/determinism"
	"finops-forecast/internal/errors"
)

// Built-in horizons used when neither the record file nor the caller sets one
const (
	DefaultMonths   = 12
	DefaultCashDays = 90
)

// Bundle is the on-disk record file
type Bundle struct {
	AsOf     *Date    `yaml:"as_of,omitempty"`
	Settings Settings `yaml:"settings,omitempty"`
	Company  Company  `yaml:"company,omitempty"`

	Subscriptions []SubscriptionRow `yaml:"subscriptions,omitempty"`
	History       []HistoryRow      `yaml:"history,omitempty"`
	Deals         []DealRow         `yaml:"deals,omitempty"`
	Customers     []CustomerRow     `yaml:"customers,omitempty"`

	Accuracy  *AccuracyRows  `yaml:"accuracy,omitempty"`
	Retention *RetentionRow  `yaml:"retention,omitempty"`
	Cash      *CashRows      `yaml:"cash,omitempty"`
	Burn      *BurnRow       `yaml:"burn,omitempty"`
	Valuation *ValuationRows `yaml:"valuation,omitempty"`

	// Source is filled by LoadFile and Decode, never by YAML
	Source Source `yaml:"-"`
}

// Source describes where a bundle came from
type Source struct {
	Path        string `json:"path,omitempty"`
	ContentHash string `json:"content_hash"`
}

// Settings control horizons; nil fields fall back to the caller's defaults
type Settings struct {
	Months           *int  `yaml:"months,omitempty"`
	CashDays         *int  `yaml:"cash_days,omitempty"`
	ApplySeasonality *bool `yaml:"apply_seasonality,omitempty"`
}

// Company holds descriptive facts used for lookups
type Company struct {
	Name     string `yaml:"name,omitempty"`
	Industry string `yaml:"industry,omitempty"`
}

// SubscriptionRow is one subscription record
type SubscriptionRow struct {
	Amount       Amount `yaml:"amount"`
	BillingCycle string `yaml:"billing_cycle"`
	Plan         string `yaml:"plan,omitempty"`
}

// HistoryRow is one month of observed MRR
type HistoryRow struct {
	Period string `yaml:"period"`
	Value  Amount `yaml:"value"`
}

// DealRow is one pipeline deal
type DealRow struct {
	Name   string `yaml:"name,omitempty"`
	Stage  string `yaml:"stage"`
	Amount Amount `yaml:"amount"`
}

// CustomerRow is one customer record
type CustomerRow struct {
	ID           string `yaml:"id,omitempty"`
	SignupPeriod string `yaml:"signup_period,omitempty"`
	Status       string `yaml:"status"`
	InitialMRR   Amount `yaml:"initial_mrr"`
	CurrentMRR   Amount `yaml:"current_mrr"`
}

// PeriodValue is a value keyed by "YYYY-MM"
type PeriodValue struct {
	Period string `yaml:"period"`
	Value  Amount `yaml:"value"`
}

// AccuracyRows pair past forecasts with what actually happened
type AccuracyRows struct {
	Forecasts []PeriodValue `yaml:"forecasts"`
	Actuals   []PeriodValue `yaml:"actuals"`
}

// RetentionRow holds the movements for net revenue retention
type RetentionRow struct {
	BeginningMRR   Amount `yaml:"beginning_mrr"`
	ExpansionMRR   Amount `yaml:"expansion_mrr"`
	ContractionMRR Amount `yaml:"contraction_mrr"`
	ChurnedMRR     Amount `yaml:"churned_mrr"`
}

// CashRows describe the cash ledger to simulate
type CashRows struct {
	StartingBalance Amount         `yaml:"starting_balance"`
	Start           *Date          `yaml:"start,omitempty"`
	OneTimeInflows  []OneTimeRow   `yaml:"one_time_inflows,omitempty"`
	OneTimeOutflows []OneTimeRow   `yaml:"one_time_outflows,omitempty"`
	Recurring       []RecurringRow `yaml:"recurring,omitempty"`
}

// OneTimeRow is a dated cash movement
type OneTimeRow struct {
	Date   Date   `yaml:"date"`
	Amount Amount `yaml:"amount"`
	Label  string `yaml:"label,omitempty"`
}

// RecurringRow is a monthly cash movement
type RecurringRow struct {
	DayOfMonth int    `yaml:"day_of_month"`
	Amount     Amount `yaml:"amount"`
	Direction  string `yaml:"direction"`
	Label      string `yaml:"label,omitempty"`
}

// BurnRow holds the monthly burn inputs. Revenue defaults to current MRR
// and cash to the ledger's starting balance.
type BurnRow struct {
	MonthlyExpenses Amount  `yaml:"monthly_expenses"`
	MonthlyRevenue  *Amount `yaml:"monthly_revenue,omitempty"`
	CashBalance     *Amount `yaml:"cash_balance,omitempty"`
}

// ValuationRows hold the valuation inputs. Revenue defaults to current ARR
// and industry to the company's industry.
type ValuationRows struct {
	Industry      string        `yaml:"industry,omitempty"`
	AnnualRevenue *Amount       `yaml:"annual_revenue,omitempty"`
	EBITDA        *Amount       `yaml:"ebitda,omitempty"`
	Adjustments   AdjustmentRow `yaml:"adjustments,omitempty"`
	Synergies     *SynergyRow   `yaml:"synergies,omitempty"`
}

// AdjustmentRow qualifies a revenue valuation
type AdjustmentRow struct {
	GrowthRate               Amount `yaml:"growth_rate"`
	RecurringRevenuePct      Amount `yaml:"recurring_revenue_pct"`
	CustomerConcentrationPct Amount `yaml:"customer_concentration_pct"`
	MarketPosition           string `yaml:"market_position,omitempty"`
}

// SynergyRow lists acquirer synergies
type SynergyRow struct {
	RevenueUpside       Amount `yaml:"revenue_upside"`
	CostSavings         Amount `yaml:"cost_savings"`
	CustomerBaseValue   Amount `yaml:"customer_base_value"`
	TechnologyValue     Amount `yaml:"technology_value"`
	TalentValue         Amount `yaml:"talent_value"`
	TimeToMarketSavings Amount `yaml:"time_to_market_savings"`
}

// Decode reads one bundle from r. Unknown keys are rejected so typos in
// record files surface instead of silently dropping data.
func Decode(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "failed to read records", err)
	}
	return decode(data)
}

// LoadFile reads a bundle from path
func LoadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("record file", path)
		}
		return nil, errors.Wrap(errors.TypeInput, "failed to read record file", err).WithContext("path", path)
	}
	b, err := decode(data)
	if err != nil {
		return nil, err
	}
	b.Source.Path = path
	return b, nil
}

func decode(data []byte) (*Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && err != io.EOF {
		if errors.IsType(err, errors.TypeInvalidArgument) {
			return nil, err
		}
		return nil, errors.Parsing("failed to parse records", err)
	}
	b.Source.ContentHash = determinism.ComputeHash(data).Hex()
	return &b, nil
}

// WithDefaults fills unset settings from s and returns b
func (b *Bundle) WithDefaults(s Settings) *Bundle {
	if b.Settings.Months == nil {
		b.Settings.Months = s.Months
	}
	if b.Settings.CashDays == nil {
		b.Settings.CashDays = s.CashDays
	}
	if b.Settings.ApplySeasonality == nil {
		b.Settings.ApplySeasonality = s.ApplySeasonality
	}
	return b
}

// Encode writes b as YAML
func (b *Bundle) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to encode records", err)
	}
	return enc.Close()
}
