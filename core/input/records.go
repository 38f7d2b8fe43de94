package input

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/revenue"
	"finops-forecast/core/stats"
	"finops-forecast/core/types"
	"finops-forecast/core/valuation"
	"finops-forecast/internal/errors"
)

// Records are the typed inputs of one engine run. Optional sections are nil
// when the record file omits them.
type Records struct {
	AsOf             time.Time
	Source           Source
	Industry         string
	Months           int
	CashDays         int
	ApplySeasonality bool

	Subscriptions []types.Subscription
	Deals         []types.PipelineDeal
	Customers     []types.Customer

	// History is ascending by period; HistoryPeriods[i] labels History[i]
	History        []types.MonthlyObservation
	HistoryPeriods []string

	Forecasts []stats.Forecast
	Actuals   []stats.Actual

	Retention *revenue.NRRInput
	Cash      *CashInput
	Burn      *BurnInput
	Valuation *ValuationInput
}

// CashInput is the cash ledger section
type CashInput struct {
	StartingBalance decimal.Decimal
	Start           time.Time
	OneTimeInflows  []types.OneTimeEvent
	OneTimeOutflows []types.OneTimeEvent
	Recurring       []types.RecurringEvent
}

// BurnInput is the burn section; nil pointers take engine-derived values
type BurnInput struct {
	MonthlyExpenses decimal.Decimal
	MonthlyRevenue  *decimal.Decimal
	CashBalance     *decimal.Decimal
}

// ValuationInput is the valuation section; nil pointers take engine-derived values
type ValuationInput struct {
	Industry      string
	AnnualRevenue *decimal.Decimal
	EBITDA        *decimal.Decimal
	Adjustments   valuation.Adjustments
	Synergies     *valuation.Synergies
}

// Records validates the bundle and shapes it into engine records.
// The bundle must carry an as-of date; horizons missing from it fall back
// to DefaultMonths and DefaultCashDays.
func (b *Bundle) Records() (*Records, error) {
	if b.AsOf == nil || b.AsOf.IsZero() {
		return nil, errors.InvalidArgument("as_of", "an as-of date is required")
	}

	r := &Records{
		AsOf:     b.AsOf.Time,
		Source:   b.Source,
		Industry: strings.TrimSpace(b.Company.Industry),
		Months:   DefaultMonths,
		CashDays: DefaultCashDays,
	}
	if b.Settings.Months != nil {
		r.Months = *b.Settings.Months
	}
	if b.Settings.CashDays != nil {
		r.CashDays = *b.Settings.CashDays
	}
	if b.Settings.ApplySeasonality != nil {
		r.ApplySeasonality = *b.Settings.ApplySeasonality
	}
	if r.Months < 0 {
		return nil, errors.InvalidArgument("settings.months", "must be >= 0, got %d", r.Months)
	}
	if r.CashDays < 0 {
		return nil, errors.InvalidArgument("settings.cash_days", "must be >= 0, got %d", r.CashDays)
	}

	var err error
	if r.Subscriptions, err = b.subscriptions(); err != nil {
		return nil, err
	}
	if r.History, r.HistoryPeriods, err = b.history(); err != nil {
		return nil, err
	}
	r.Deals = b.deals()
	if r.Customers, err = b.customers(); err != nil {
		return nil, err
	}
	if b.Accuracy != nil {
		if r.Forecasts, r.Actuals, err = b.Accuracy.records(); err != nil {
			return nil, err
		}
	}
	if b.Retention != nil {
		r.Retention = &revenue.NRRInput{
			BeginningMRR:   b.Retention.BeginningMRR.Decimal,
			ExpansionMRR:   b.Retention.ExpansionMRR.Decimal,
			ContractionMRR: b.Retention.ContractionMRR.Decimal,
			ChurnedMRR:     b.Retention.ChurnedMRR.Decimal,
		}
	}
	if b.Cash != nil {
		if r.Cash, err = b.Cash.records(r.AsOf); err != nil {
			return nil, err
		}
	}
	if b.Burn != nil {
		r.Burn = &BurnInput{
			MonthlyExpenses: b.Burn.MonthlyExpenses.Decimal,
			MonthlyRevenue:  optional(b.Burn.MonthlyRevenue),
			CashBalance:     optional(b.Burn.CashBalance),
		}
	}
	if b.Valuation != nil {
		r.Valuation = b.Valuation.records(r.Industry)
	}
	return r, nil
}

func (b *Bundle) subscriptions() ([]types.Subscription, error) {
	out := make([]types.Subscription, 0, len(b.Subscriptions))
	for i, row := range b.Subscriptions {
		cycle, err := types.ParseBillingCycle(row.BillingCycle)
		if err != nil {
			return nil, withIndex(err, "subscriptions", i)
		}
		out = append(out, types.Subscription{
			Amount:       row.Amount.Decimal,
			BillingCycle: cycle,
			Plan:         strings.TrimSpace(row.Plan),
		})
	}
	return out, nil
}

// history sorts observations by period and indexes them by months since
// the first period, so gaps in the record file stay gaps on the x axis.
func (b *Bundle) history() ([]types.MonthlyObservation, []string, error) {
	if len(b.History) == 0 {
		return nil, nil, nil
	}

	type row struct {
		period types.Period
		value  decimal.Decimal
	}
	rows := make([]row, 0, len(b.History))
	seen := make(map[types.Period]bool, len(b.History))
	for i, h := range b.History {
		p, err := types.ParsePeriod(strings.TrimSpace(h.Period))
		if err != nil {
			return nil, nil, withIndex(err, "history", i)
		}
		if seen[p] {
			return nil, nil, errors.InvalidArgument("history.period", "duplicate period %s", p).
				WithContext("index", i)
		}
		seen[p] = true
		rows = append(rows, row{period: p, value: h.Value.Decimal})
	}
	sort.Slice(rows, func(i, j int) bool {
		return types.MonthsBetween(rows[i].period, rows[j].period) > 0
	})

	first := rows[0].period
	obs := make([]types.MonthlyObservation, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		obs[i] = types.MonthlyObservation{PeriodIndex: types.MonthsBetween(first, r.period), Value: r.value}
		labels[i] = r.period.String()
	}
	return obs, labels, nil
}

func (b *Bundle) deals() []types.PipelineDeal {
	out := make([]types.PipelineDeal, 0, len(b.Deals))
	for _, d := range b.Deals {
		out = append(out, types.PipelineDeal{Stage: d.Stage, Amount: d.Amount.Decimal})
	}
	return out
}

func (b *Bundle) customers() ([]types.Customer, error) {
	out := make([]types.Customer, 0, len(b.Customers))
	for i, c := range b.Customers {
		period := strings.TrimSpace(c.SignupPeriod)
		if period != "" {
			if _, err := types.ParsePeriod(period); err != nil {
				return nil, withIndex(err, "customers", i)
			}
		}
		out = append(out, types.Customer{
			SignupPeriod: period,
			Status:       types.ParseCustomerStatus(c.Status),
			InitialMRR:   c.InitialMRR.Decimal,
			CurrentMRR:   c.CurrentMRR.Decimal,
		})
	}
	return out, nil
}

func (a *AccuracyRows) records() ([]stats.Forecast, []stats.Actual, error) {
	forecasts := make([]stats.Forecast, 0, len(a.Forecasts))
	for i, f := range a.Forecasts {
		p, err := types.ParsePeriod(strings.TrimSpace(f.Period))
		if err != nil {
			return nil, nil, withIndex(err, "accuracy.forecasts", i)
		}
		forecasts = append(forecasts, stats.Forecast{Period: p.String(), Predicted: f.Value.Decimal})
	}
	actuals := make([]stats.Actual, 0, len(a.Actuals))
	for i, act := range a.Actuals {
		p, err := types.ParsePeriod(strings.TrimSpace(act.Period))
		if err != nil {
			return nil, nil, withIndex(err, "accuracy.actuals", i)
		}
		actuals = append(actuals, stats.Actual{Period: p.String(), Actual: act.Value.Decimal})
	}
	return forecasts, actuals, nil
}

// records converts the ledger; the simulation starts at asOf unless the
// file names a start date
func (c *CashRows) records(asOf time.Time) (*CashInput, error) {
	out := &CashInput{
		StartingBalance: c.StartingBalance.Decimal,
		Start:           asOf,
	}
	if c.Start != nil {
		out.Start = c.Start.Time
	}
	for _, row := range c.OneTimeInflows {
		out.OneTimeInflows = append(out.OneTimeInflows, types.OneTimeEvent{
			Amount: row.Amount.Decimal, TriggerDate: row.Date.Time, Label: row.Label,
		})
	}
	for _, row := range c.OneTimeOutflows {
		out.OneTimeOutflows = append(out.OneTimeOutflows, types.OneTimeEvent{
			Amount: row.Amount.Decimal, TriggerDate: row.Date.Time, Label: row.Label,
		})
	}
	for i, row := range c.Recurring {
		dir, err := types.ParseDirection(row.Direction)
		if err != nil {
			return nil, withIndex(err, "cash.recurring", i)
		}
		out.Recurring = append(out.Recurring, types.RecurringEvent{
			Amount: row.Amount.Decimal, DayOfMonth: row.DayOfMonth, Direction: dir, Label: row.Label,
		})
	}
	return out, nil
}

func (v *ValuationRows) records(companyIndustry string) *ValuationInput {
	out := &ValuationInput{
		Industry:      strings.TrimSpace(v.Industry),
		AnnualRevenue: optional(v.AnnualRevenue),
		EBITDA:        optional(v.EBITDA),
		Adjustments: valuation.Adjustments{
			GrowthRate:               v.Adjustments.GrowthRate.Decimal,
			RecurringRevenuePct:      v.Adjustments.RecurringRevenuePct.Decimal,
			CustomerConcentrationPct: v.Adjustments.CustomerConcentrationPct.Decimal,
			MarketPosition:           v.Adjustments.MarketPosition,
		},
	}
	if out.Industry == "" {
		out.Industry = companyIndustry
	}
	if s := v.Synergies; s != nil {
		out.Synergies = &valuation.Synergies{
			RevenueUpside:       s.RevenueUpside.Decimal,
			CostSavings:         s.CostSavings.Decimal,
			CustomerBaseValue:   s.CustomerBaseValue.Decimal,
			TechnologyValue:     s.TechnologyValue.Decimal,
			TalentValue:         s.TalentValue.Decimal,
			TimeToMarketSavings: s.TimeToMarketSavings.Decimal,
		}
	}
	return out
}

// withIndex tags a row-level error with its section and position
func withIndex(err error, section string, index int) error {
	if e, ok := err.(*errors.Error); ok {
		return e.Clone().WithContext("section", section).WithContext("index", index)
	}
	return errors.Wrapf(errors.TypeInvalidArgument, err, "%s[%d]", section, index)
}

// String summarizes the record counts for logs
func (r *Records) String() string {
	return fmt.Sprintf("as_of=%s subscriptions=%d history=%d deals=%d customers=%d",
		types.FormatDate(r.AsOf), len(r.Subscriptions), len(r.History), len(r.Deals), len(r.Customers))
}
