// Package cashflow - Burn rate and runway
package cashflow

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
)

// Runway statuses
const (
	StatusProfitable = "profitable"
	StatusCritical   = "critical"
	StatusWarning    = "warning"
	StatusModerate   = "moderate"
	StatusHealthy    = "healthy"
)

// Burn is the monthly cash consumption of the business
type Burn struct {
	GrossBurn    decimal.Decimal `json:"gross_burn"`
	Revenue      decimal.Decimal `json:"revenue"`
	NetBurn      decimal.Decimal `json:"net_burn"`
	IsProfitable bool            `json:"is_profitable"`
}

// BurnRate computes net burn as expenses minus revenue
func BurnRate(monthlyExpenses, monthlyRevenue decimal.Decimal) (Burn, error) {
	if err := types.RequireNonNegative("monthly_expenses", monthlyExpenses); err != nil {
		return Burn{}, err
	}
	if err := types.RequireNonNegative("monthly_revenue", monthlyRevenue); err != nil {
		return Burn{}, err
	}
	net := types.RoundMoney(monthlyExpenses.Sub(monthlyRevenue))
	return Burn{
		GrossBurn:    types.RoundMoney(monthlyExpenses),
		Revenue:      types.RoundMoney(monthlyRevenue),
		NetBurn:      net,
		IsProfitable: !net.IsPositive(),
	}, nil
}

// Runway is how long cash lasts at the current burn
type Runway struct {
	// Months is rounded to one decimal; meaningless when Infinite is set
	Months   decimal.Decimal `json:"months"`
	Infinite bool            `json:"infinite"`
	Status   string          `json:"status"`

	// CashOutDate is nil when the business is not burning cash
	CashOutDate *time.Time `json:"cash_out_date,omitempty"`
	Message     string     `json:"message"`
}

// MonthsFloat returns Months, or +Inf when the runway is unbounded
func (r Runway) MonthsFloat() float64 {
	if r.Infinite {
		return math.Inf(1)
	}
	f, _ := r.Months.Float64()
	return f
}

// ComputeRunway divides cash by net burn. A non-positive net burn means
// the runway is unbounded. A negative cash balance has no runway left.
// asOf anchors the cash-out date.
func ComputeRunway(cashBalance decimal.Decimal, burn Burn, asOf time.Time) Runway {
	if !burn.NetBurn.IsPositive() {
		return Runway{
			Infinite: true,
			Status:   StatusProfitable,
			Message:  "Profitable: cash is not being depleted at the current burn",
		}
	}

	months := cashBalance.Div(burn.NetBurn)
	if months.IsNegative() {
		months = decimal.Zero
	}

	// each threshold includes its upper bound: exactly 12 months is a warning
	var status string
	switch {
	case months.LessThanOrEqual(decimal.NewFromInt(6)):
		status = StatusCritical
	case months.LessThanOrEqual(decimal.NewFromInt(12)):
		status = StatusWarning
	case months.LessThanOrEqual(decimal.NewFromInt(18)):
		status = StatusModerate
	default:
		status = StatusHealthy
	}

	rounded := months.Round(1)
	cashOut := types.AddMonthsClamped(asOf, int(months.Floor().IntPart()))
	unit := "months"
	if rounded.Equal(decimal.NewFromInt(1)) {
		unit = "month"
	}
	return Runway{
		Months:      rounded,
		Status:      status,
		CashOutDate: &cashOut,
		Message: fmt.Sprintf("%s %s of runway at a net burn of %s/month; cash runs out around %s",
			rounded.String(), unit, burn.NetBurn.StringFixed(2), types.FormatDate(cashOut)),
	}
}
