// Package revenue - Month-by-month projection
package revenue

import (
	"github.com/shopspring/decimal"

	"finops-forecast/core/assumptions"
	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// ProjectedMonth is one step of a projection
type ProjectedMonth struct {
	Month         int             `json:"month"`
	MRR           decimal.Decimal `json:"mrr"`
	ARR           decimal.Decimal `json:"arr"`
	ChurnLoss     decimal.Decimal `json:"churn_loss"`
	Expansion     decimal.Decimal `json:"expansion"`
	NewRevenue    decimal.Decimal `json:"new_revenue"`
	OrganicGrowth decimal.Decimal `json:"organic_growth"`
}

// ProjectForward runs the recurrence
//
//	mrr' = mrr - mrr*churn + mrr*expansion + newCustomerMRR + mrr*growth
//
// for months steps. All four effects are computed from the same pre-update
// mrr, not one after another, so a month with 5% growth and 3% churn moves
// mrr by exactly +2% plus new revenue. Reported values are rounded to
// cents; the carried mrr is not.
func ProjectForward(startingMRR decimal.Decimal, months int, set assumptions.Set) ([]ProjectedMonth, error) {
	if months < 0 {
		return nil, errors.InvalidArgument("months", "must be >= 0, got %d", months).WithContext("value", months)
	}
	if err := types.RequireNonNegative("starting_mrr", startingMRR); err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	out := make([]ProjectedMonth, 0, months)
	mrr := startingMRR
	for m := 1; m <= months; m++ {
		churn := mrr.Mul(set.MonthlyChurnRate)
		expansion := mrr.Mul(set.ExpansionRate)
		growth := mrr.Mul(set.MonthlyGrowthRate)

		mrr = mrr.Sub(churn).Add(expansion).Add(set.NewCustomerMRR).Add(growth)

		rounded := types.RoundMoney(mrr)
		out = append(out, ProjectedMonth{
			Month:         m,
			MRR:           rounded,
			ARR:           rounded.Mul(twelve),
			ChurnLoss:     types.RoundMoney(churn),
			Expansion:     types.RoundMoney(expansion),
			NewRevenue:    types.RoundMoney(set.NewCustomerMRR),
			OrganicGrowth: types.RoundMoney(growth),
		})
	}
	return out, nil
}
