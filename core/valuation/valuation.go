// Package valuation estimates company value from industry multiples.
package valuation

import (
	"strings"

	"github.com/shopspring/decimal"

	"finops-forecast/core/tables"
	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// Market positions recognized by the adjustment factor
const (
	PositionLeader  = "leader"
	PositionAverage = "average"
	PositionWeak    = "weak"
)

// Adjustments qualify a revenue valuation
type Adjustments struct {
	// GrowthRate is a fraction: 0.35 means 35% year over year
	GrowthRate decimal.Decimal `json:"growth_rate"`

	// RecurringRevenuePct and CustomerConcentrationPct are percentages in [0, 100]
	RecurringRevenuePct      decimal.Decimal `json:"recurring_revenue_pct"`
	CustomerConcentrationPct decimal.Decimal `json:"customer_concentration_pct"`

	MarketPosition string `json:"market_position"`
}

// Factor stacks the additive adjustment bumps over a base of 1.0.
// The result is not clamped and may be zero or negative.
func (a Adjustments) Factor() decimal.Decimal {
	factor := decimal.NewFromInt(1)

	switch {
	case a.GrowthRate.GreaterThan(decimal.RequireFromString("0.30")):
		factor = factor.Add(decimal.RequireFromString("0.30"))
	case a.GrowthRate.GreaterThan(decimal.RequireFromString("0.15")):
		factor = factor.Add(decimal.RequireFromString("0.15"))
	case a.GrowthRate.IsNegative():
		factor = factor.Sub(decimal.RequireFromString("0.20"))
	}

	switch {
	case a.RecurringRevenuePct.GreaterThan(decimal.NewFromInt(80)):
		factor = factor.Add(decimal.RequireFromString("0.25"))
	case a.RecurringRevenuePct.GreaterThan(decimal.NewFromInt(50)):
		factor = factor.Add(decimal.RequireFromString("0.10"))
	}

	switch {
	case a.CustomerConcentrationPct.GreaterThan(decimal.NewFromInt(50)):
		factor = factor.Sub(decimal.RequireFromString("0.30"))
	case a.CustomerConcentrationPct.GreaterThan(decimal.NewFromInt(30)):
		factor = factor.Sub(decimal.RequireFromString("0.15"))
	}

	switch strings.ToLower(strings.TrimSpace(a.MarketPosition)) {
	case PositionLeader:
		factor = factor.Add(decimal.RequireFromString("0.20"))
	case PositionWeak:
		factor = factor.Sub(decimal.RequireFromString("0.20"))
	}

	return factor
}

// Result is a multiple-based valuation
type Result struct {
	Industry  string          `json:"industry"`
	Fallback  bool            `json:"fallback"`
	Metric    string          `json:"metric"`
	Base      decimal.Decimal `json:"base"`
	Multiples types.Range     `json:"multiples"`
	Valuation types.Range     `json:"valuation"`

	// AdjustmentFactor is 1 for EBITDA valuations
	AdjustmentFactor decimal.Decimal `json:"adjustment_factor"`
}

// Synergies are the acquirer-specific value components of a deal
type Synergies struct {
	RevenueUpside       decimal.Decimal `json:"revenue_upside"`
	CostSavings         decimal.Decimal `json:"cost_savings"`
	CustomerBaseValue   decimal.Decimal `json:"customer_base_value"`
	TechnologyValue     decimal.Decimal `json:"technology_value"`
	TalentValue         decimal.Decimal `json:"talent_value"`
	TimeToMarketSavings decimal.Decimal `json:"time_to_market_savings"`
}

// Total sums every synergy component
func (s Synergies) Total() decimal.Decimal {
	return decimal.Sum(s.RevenueUpside, s.CostSavings, s.CustomerBaseValue,
		s.TechnologyValue, s.TalentValue, s.TimeToMarketSavings)
}

// SynergyResult is a base valuation lifted by synergies
type SynergyResult struct {
	TotalSynergies    decimal.Decimal `json:"total_synergies"`
	AdjustedValuation types.Range     `json:"adjusted_valuation"`
}

// Synergy realization per tier
var (
	LowSynergyShare  = decimal.RequireFromString("0.5")
	MidSynergyShare  = decimal.RequireFromString("0.75")
	HighSynergyShare = decimal.NewFromInt(1)
)

// Engine values companies against a multiple table
type Engine struct {
	multiples tables.MultipleTable
}

// New creates an engine over a multiple table
func New(multiples tables.MultipleTable) *Engine {
	return &Engine{multiples: multiples}
}

// Default creates an engine over the built-in multiples
func Default() *Engine {
	return New(tables.DefaultMultiples())
}

// ByRevenue values annual revenue at the industry's revenue multiples
// scaled by the adjustment factor. Unknown industries use the fallback row.
func (e *Engine) ByRevenue(annualRevenue decimal.Decimal, industry string, adj Adjustments) (Result, error) {
	if err := types.RequireNonNegative("annual_revenue", annualRevenue); err != nil {
		return Result{}, err
	}

	row, key, ok := e.multiples.Lookup(industry)
	factor := adj.Factor()
	return Result{
		Industry:  key,
		Fallback:  !ok,
		Metric:    "revenue",
		Base:      types.RoundMoney(annualRevenue),
		Multiples: row.Revenue,
		Valuation: row.Revenue.Map(func(m decimal.Decimal) decimal.Decimal {
			return types.RoundWhole(annualRevenue.Mul(m).Mul(factor))
		}),
		AdjustmentFactor: factor,
	}, nil
}

// ByEBITDA values EBITDA at the industry's EBITDA multiples. A negative
// EBITDA yields a negative valuation rather than an error.
func (e *Engine) ByEBITDA(ebitda decimal.Decimal, industry string) Result {
	row, key, ok := e.multiples.Lookup(industry)
	return Result{
		Industry:  key,
		Fallback:  !ok,
		Metric:    "ebitda",
		Base:      types.RoundMoney(ebitda),
		Multiples: row.EBITDA,
		Valuation: row.EBITDA.Map(func(m decimal.Decimal) decimal.Decimal {
			return types.RoundWhole(ebitda.Mul(m))
		}),
		AdjustmentFactor: decimal.NewFromInt(1),
	}
}

// WithSynergies adds half the synergies to the low tier, three quarters
// to the mid tier and all of them to the high tier.
func WithSynergies(base types.Range, s Synergies) (SynergyResult, error) {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"synergies.revenue_upside", s.RevenueUpside},
		{"synergies.cost_savings", s.CostSavings},
		{"synergies.customer_base_value", s.CustomerBaseValue},
		{"synergies.technology_value", s.TechnologyValue},
		{"synergies.talent_value", s.TalentValue},
		{"synergies.time_to_market_savings", s.TimeToMarketSavings},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return SynergyResult{}, errors.InvalidArgument(f.name, "must be >= 0, got %s", f.value)
		}
	}

	total := s.Total()
	return SynergyResult{
		TotalSynergies: types.RoundMoney(total),
		AdjustedValuation: types.Range{
			Low:  types.RoundMoney(base.Low.Add(total.Mul(LowSynergyShare))),
			Mid:  types.RoundMoney(base.Mid.Add(total.Mul(MidSynergyShare))),
			High: types.RoundMoney(base.High.Add(total.Mul(HighSynergyShare))),
		},
	}, nil
}
