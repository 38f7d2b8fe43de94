// Package cohort groups customers by signup month and measures how each
// group retains, expands and contracts over time.
package cohort

import (
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/determinism"
	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// Metrics describes one cohort as of a reference time
type Metrics struct {
	InitialCount    int             `json:"initial_count"`
	CurrentActive   int             `json:"current_active"`
	ChurnedCount    int             `json:"churned_count"`
	ExpandedCount   int             `json:"expanded_count"`
	ContractedCount int             `json:"contracted_count"`
	InitialMRR      decimal.Decimal `json:"initial_mrr"`
	CurrentMRR      decimal.Decimal `json:"current_mrr"`
	ExpansionMRR    decimal.Decimal `json:"expansion_mrr"`
	ContractionMRR  decimal.Decimal `json:"contraction_mrr"`

	CustomerRetentionPct    decimal.Decimal `json:"customer_retention_pct"`
	RevenueRetentionPct     decimal.Decimal `json:"revenue_retention_pct"`
	ExpansionRate           decimal.Decimal `json:"expansion_rate"`
	ChurnRate               decimal.Decimal `json:"churn_rate"`
	AvgMRRPerActiveCustomer decimal.Decimal `json:"avg_mrr_per_active_customer"`

	// AgeMonths is whole months from the cohort month to the reference month;
	// 0 for the unknown cohort
	AgeMonths int `json:"age_months"`
}

// Analysis maps cohort keys ("YYYY-MM" or "unknown") to their metrics
type Analysis map[string]Metrics

// Keys returns cohort keys in ascending order; "unknown" sorts after any period
func (a Analysis) Keys() []string {
	return determinism.SortedKeys(a)
}

// Analyze groups customers by signup period. Every customer counts toward
// its cohort's initial totals; only active customers count toward current
// totals and the expansion/contraction classification. asOf is the
// reference time used for cohort age.
func Analyze(customers []types.Customer, asOf time.Time) (Analysis, error) {
	type acc struct {
		Metrics
		period *types.Period
	}
	cohorts := make(map[string]*acc)

	for i, c := range customers {
		if c.CurrentMRR.IsNegative() || c.InitialMRR.IsNegative() {
			return nil, errors.InvalidArgument("customers.mrr", "must be >= 0").WithContext("index", i)
		}

		key := types.UnknownCohort
		var period *types.Period
		if c.SignupPeriod != "" {
			p, err := types.ParsePeriod(c.SignupPeriod)
			if err != nil {
				return nil, errors.Wrap(errors.TypeInvalidArgument, "customers.signup_period", err).WithContext("index", i)
			}
			key = p.String()
			period = &p
		}

		a, ok := cohorts[key]
		if !ok {
			a = &acc{period: period}
			cohorts[key] = a
		}

		a.InitialCount++
		a.InitialMRR = a.InitialMRR.Add(c.InitialMRR)

		switch c.Status {
		case types.StatusActive:
			a.CurrentActive++
			a.CurrentMRR = a.CurrentMRR.Add(c.CurrentMRR)
			switch c.CurrentMRR.Cmp(c.InitialMRR) {
			case 1:
				a.ExpandedCount++
				a.ExpansionMRR = a.ExpansionMRR.Add(c.CurrentMRR.Sub(c.InitialMRR))
			case -1:
				a.ContractedCount++
				a.ContractionMRR = a.ContractionMRR.Add(c.InitialMRR.Sub(c.CurrentMRR))
			}
		case types.StatusChurned:
			a.ChurnedCount++
		}
	}

	ref := types.PeriodOf(asOf)
	out := make(Analysis, len(cohorts))
	for key, a := range cohorts {
		m := a.Metrics
		initial := decimal.NewFromInt(int64(m.InitialCount))

		m.CustomerRetentionPct = types.Percent(decimal.NewFromInt(int64(m.CurrentActive)), initial)
		m.RevenueRetentionPct = types.Percent(m.CurrentMRR, m.InitialMRR)
		m.ExpansionRate = types.Percent(decimal.NewFromInt(int64(m.ExpandedCount)), initial)
		m.ChurnRate = types.Percent(decimal.NewFromInt(int64(m.ChurnedCount)), initial)
		if m.CurrentActive > 0 {
			m.AvgMRRPerActiveCustomer = types.RoundMoney(m.CurrentMRR.Div(decimal.NewFromInt(int64(m.CurrentActive))))
		}

		if a.period != nil {
			if age := types.MonthsBetween(*a.period, ref); age > 0 {
				m.AgeMonths = age
			}
		}

		m.InitialMRR = types.RoundMoney(m.InitialMRR)
		m.CurrentMRR = types.RoundMoney(m.CurrentMRR)
		m.ExpansionMRR = types.RoundMoney(m.ExpansionMRR)
		m.ContractionMRR = types.RoundMoney(m.ContractionMRR)
		out[key] = m
	}
	return out, nil
}
