// Package assumptions defines the parameter bundles that drive revenue
// projections and tracks the defaults applied during a run.
package assumptions

import (
	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// Scenario names
const (
	Optimistic  = "optimistic"
	Expected    = "expected"
	Pessimistic = "pessimistic"
)

// Set is the parameter bundle for one projection scenario.
// Rates are monthly fractions (0.05 = 5%).
type Set struct {
	Name              string          `json:"name,omitempty"`
	MonthlyGrowthRate decimal.Decimal `json:"monthly_growth_rate"`
	MonthlyChurnRate  decimal.Decimal `json:"monthly_churn_rate"`
	ExpansionRate     decimal.Decimal `json:"expansion_rate"`
	NewCustomerMRR    decimal.Decimal `json:"new_customer_mrr"`
}

// Validate rejects a negative NewCustomerMRR
func (s Set) Validate() error {
	return types.RequireNonNegative("new_customer_mrr", s.NewCustomerMRR)
}

type canonical struct {
	growth, churn, expansion, newShare string
}

var canonicalSets = map[string]canonical{
	Optimistic:  {growth: "0.10", churn: "0.01", expansion: "0.05", newShare: "0.15"},
	Expected:    {growth: "0.05", churn: "0.03", expansion: "0.02", newShare: "0.08"},
	Pessimistic: {growth: "0.01", churn: "0.07", expansion: "0.005", newShare: "0.02"},
}

// Canonical returns the named canonical set; new-customer MRR is a share of currentMRR
func Canonical(name string, currentMRR decimal.Decimal) (Set, error) {
	c, ok := canonicalSets[name]
	if !ok {
		return Set{}, errors.InvalidArgument("scenario", "unknown scenario %q", name)
	}
	return Set{
		Name:              name,
		MonthlyGrowthRate: decimal.RequireFromString(c.growth),
		MonthlyChurnRate:  decimal.RequireFromString(c.churn),
		ExpansionRate:     decimal.RequireFromString(c.expansion),
		NewCustomerMRR:    currentMRR.Mul(decimal.RequireFromString(c.newShare)),
	}, nil
}

// ScenarioNames lists canonical scenarios, best first
func ScenarioNames() []string {
	return []string{Optimistic, Expected, Pessimistic}
}
