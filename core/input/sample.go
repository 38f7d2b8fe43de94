// Package input - Starter record file
package input

import (
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
)

func amt(s string) Amount {
	return NewAmount(decimal.RequireFromString(s))
}

func amtPtr(s string) *Amount {
	a := amt(s)
	return &a
}

// Sample returns a small but complete bundle anchored at asOf. Every
// section is filled so the file exercises every report section.
func Sample(asOf time.Time) *Bundle {
	asOf = types.Day(asOf)
	ref := types.PeriodOf(asOf)
	period := func(back int) string {
		return ref.AddMonths(-back).String()
	}
	months, cashDays := DefaultMonths, DefaultCashDays
	date := NewDate(asOf)

	return &Bundle{
		AsOf:     &date,
		Settings: Settings{Months: &months, CashDays: &cashDays},
		Company:  Company{Name: "Example Co", Industry: "saas"},
		Subscriptions: []SubscriptionRow{
			{Amount: amt("4000"), BillingCycle: string(types.BillingMonthly), Plan: "team"},
			{Amount: amt("36000"), BillingCycle: string(types.BillingAnnual), Plan: "enterprise"},
			{Amount: amt("1500"), BillingCycle: string(types.BillingMonthly), Plan: "business"},
		},
		History: []HistoryRow{
			{Period: period(6), Value: amt("7200")},
			{Period: period(5), Value: amt("7600")},
			{Period: period(4), Value: amt("7900")},
			{Period: period(3), Value: amt("8300")},
			{Period: period(2), Value: amt("8600")},
			{Period: period(1), Value: amt("8800")},
		},
		Deals: []DealRow{
			{Name: "Acme renewal", Stage: "negotiation", Amount: amt("24000")},
			{Name: "Globex pilot", Stage: "demo", Amount: amt("12000")},
			{Name: "Initech", Stage: "proposal", Amount: amt("18000")},
		},
		Customers: []CustomerRow{
			{ID: "c-1", SignupPeriod: period(8), Status: string(types.StatusActive), InitialMRR: amt("3000"), CurrentMRR: amt("3500")},
			{ID: "c-2", SignupPeriod: period(8), Status: string(types.StatusChurned), InitialMRR: amt("1000")},
			{ID: "c-3", SignupPeriod: period(3), Status: string(types.StatusActive), InitialMRR: amt("2000"), CurrentMRR: amt("1800")},
		},
		Accuracy: &AccuracyRows{
			Forecasts: []PeriodValue{{Period: period(2), Value: amt("8500")}, {Period: period(1), Value: amt("9000")}},
			Actuals:   []PeriodValue{{Period: period(2), Value: amt("8600")}, {Period: period(1), Value: amt("8800")}},
		},
		Retention: &RetentionRow{
			BeginningMRR:   amt("8600"),
			ExpansionMRR:   amt("500"),
			ContractionMRR: amt("100"),
			ChurnedMRR:     amt("200"),
		},
		Cash: &CashRows{
			StartingBalance: amt("250000"),
			OneTimeInflows: []OneTimeRow{
				{Date: NewDate(asOf.AddDate(0, 0, 20)), Amount: amt("36000"), Label: "annual invoice"},
			},
			Recurring: []RecurringRow{
				{DayOfMonth: 1, Amount: amt("9000"), Direction: string(types.DirectionInflow), Label: "subscriptions"},
				{DayOfMonth: 25, Amount: amt("18000"), Direction: string(types.DirectionOutflow), Label: "payroll"},
			},
		},
		Burn: &BurnRow{MonthlyExpenses: amt("21000")},
		Valuation: &ValuationRows{
			EBITDA: amtPtr("-60000"),
			Adjustments: AdjustmentRow{
				GrowthRate:               amt("0.40"),
				RecurringRevenuePct:      amt("92"),
				CustomerConcentrationPct: amt("35"),
				MarketPosition:           "average",
			},
		},
	}
}
