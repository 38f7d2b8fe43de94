// Package revenue builds recurring-revenue metrics and projects them forward
// under named assumption sets.
package revenue

import (
	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// UnassignedPlan is the breakdown key for subscriptions without a plan name
const UnassignedPlan = "unassigned"

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// MRRSummary is the recurring revenue snapshot of a subscription book
type MRRSummary struct {
	MRR            decimal.Decimal            `json:"mrr"`
	ARR            decimal.Decimal            `json:"arr"`
	PerPlan        map[string]decimal.Decimal `json:"per_plan"`
	CustomerCount  int                        `json:"customer_count"`
	AvgPerCustomer decimal.Decimal            `json:"avg_per_customer"`
}

// ComputeMRR sums the monthly-equivalent value of every subscription.
// ARR is the rounded MRR times twelve, so ARR == MRR*12 holds exactly.
func ComputeMRR(subs []types.Subscription) (MRRSummary, error) {
	summary := MRRSummary{PerPlan: make(map[string]decimal.Decimal)}
	var total decimal.Decimal

	for i, s := range subs {
		if s.Amount.IsNegative() {
			return MRRSummary{}, errors.InvalidArgument("subscriptions.amount", "must be >= 0, got %s", s.Amount).
				WithContext("index", i)
		}
		if !s.BillingCycle.IsValid() {
			return MRRSummary{}, errors.InvalidArgument("subscriptions.billing_cycle", "unknown billing cycle %q", s.BillingCycle).
				WithContext("index", i)
		}

		monthly := s.MonthlyEquivalent()
		total = total.Add(monthly)

		plan := s.Plan
		if plan == "" {
			plan = UnassignedPlan
		}
		summary.PerPlan[plan] = summary.PerPlan[plan].Add(monthly)
	}

	for plan, v := range summary.PerPlan {
		summary.PerPlan[plan] = types.RoundMoney(v)
	}

	summary.MRR = types.RoundMoney(total)
	summary.ARR = summary.MRR.Mul(twelve)
	summary.CustomerCount = len(subs)
	if summary.CustomerCount > 0 {
		summary.AvgPerCustomer = types.RoundMoney(total.Div(decimal.NewFromInt(int64(summary.CustomerCount))))
	}
	return summary, nil
}

// GrowthRate returns (current-previous)/previous*100 rounded to 2 places.
// With no previous revenue any current revenue counts as 100% growth and
// none counts as 0%; this is a reporting convention, not a limit.
func GrowthRate(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return types.RoundPercent(current.Sub(previous).Div(previous).Mul(hundred))
}

// NRRInput are the revenue movements of a retention period
type NRRInput struct {
	BeginningMRR   decimal.Decimal `json:"beginning_mrr"`
	ExpansionMRR   decimal.Decimal `json:"expansion_mrr"`
	ContractionMRR decimal.Decimal `json:"contraction_mrr"`
	ChurnedMRR     decimal.Decimal `json:"churned_mrr"`
}

// NetRevenueRetention returns retained revenue as a percentage of the
// beginning MRR, or 0 when the period began with no revenue
func NetRevenueRetention(in NRRInput) decimal.Decimal {
	if in.BeginningMRR.IsZero() {
		return decimal.Zero
	}
	retained := in.BeginningMRR.Add(in.ExpansionMRR).Sub(in.ContractionMRR).Sub(in.ChurnedMRR)
	return types.RoundPercent(retained.Div(in.BeginningMRR).Mul(hundred))
}
