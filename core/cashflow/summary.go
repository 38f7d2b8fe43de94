// Package cashflow - Window summaries
package cashflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
)

// Windows are the prefix lengths Summarize reports on
var Windows = []int{30, 60, 90}

// WindowKey names the summary of an n-day window, e.g. "30day"
func WindowKey(days int) string {
	return fmt.Sprintf("%dday", days)
}

// WindowSummary aggregates the first Days entries of a simulation
type WindowSummary struct {
	Days              int             `json:"days"`
	TotalInflows      decimal.Decimal `json:"total_inflows"`
	TotalOutflows     decimal.Decimal `json:"total_outflows"`
	NetCashFlow       decimal.Decimal `json:"net_cash_flow"`
	EndingBalance     decimal.Decimal `json:"ending_balance"`
	LowestBalance     decimal.Decimal `json:"lowest_balance"`
	LowestBalanceDate time.Time       `json:"lowest_balance_date"`
	IsNegative        bool            `json:"is_negative"`
}

// Summarize reports on each window in Windows. A window longer than the
// simulation is omitted. The earliest date wins ties for lowest balance.
func Summarize(entries []types.DailyCashEntry) map[string]WindowSummary {
	out := make(map[string]WindowSummary, len(Windows))
	for _, n := range Windows {
		if len(entries) < n {
			continue
		}
		out[WindowKey(n)] = summarizeWindow(entries[:n])
	}
	return out
}

func summarizeWindow(window []types.DailyCashEntry) WindowSummary {
	s := WindowSummary{
		Days:              len(window),
		LowestBalance:     window[0].Balance,
		LowestBalanceDate: window[0].Date,
	}
	for _, e := range window {
		s.TotalInflows = s.TotalInflows.Add(e.Inflow)
		s.TotalOutflows = s.TotalOutflows.Add(e.Outflow)
		if e.Balance.LessThan(s.LowestBalance) {
			s.LowestBalance = e.Balance
			s.LowestBalanceDate = e.Date
		}
	}
	s.TotalInflows = types.RoundMoney(s.TotalInflows)
	s.TotalOutflows = types.RoundMoney(s.TotalOutflows)
	s.NetCashFlow = s.TotalInflows.Sub(s.TotalOutflows)
	s.EndingBalance = window[len(window)-1].Balance
	s.IsNegative = s.LowestBalance.IsNegative()
	return s
}
