// Package cashflow simulates a daily cash ledger and derives burn and runway.
package cashflow

import (
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// SimulationRequest are the inputs to Simulate
type SimulationRequest struct {
	StartingBalance decimal.Decimal
	Start           time.Time // first simulated day; only its date is used
	Days            int
	OneTimeInflows  []types.OneTimeEvent
	OneTimeOutflows []types.OneTimeEvent
	Recurring       []types.RecurringEvent
}

// Validate checks the contract of a simulation request
func (r SimulationRequest) Validate() error {
	if r.Days < 0 {
		return errors.InvalidArgument("days", "must be >= 0, got %d", r.Days).WithContext("value", r.Days)
	}
	for i, ev := range r.Recurring {
		if ev.DayOfMonth < 1 || ev.DayOfMonth > 31 {
			return errors.InvalidArgument("recurring.day_of_month", "must be within 1..31, got %d", ev.DayOfMonth).
				WithContext("index", i)
		}
		if ev.Direction != types.DirectionInflow && ev.Direction != types.DirectionOutflow {
			return errors.InvalidArgument("recurring.direction", "unknown direction %q", ev.Direction).
				WithContext("index", i)
		}
	}
	return nil
}

// Simulate folds the events over Days consecutive days starting at Start.
// One-time events fire on their exact date. Recurring events fire when the
// day of month matches, so a day-31 event is silent in shorter months.
// The balance is rounded to cents after every day.
func Simulate(req SimulationRequest) ([]types.DailyCashEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entries := make([]types.DailyCashEntry, 0, req.Days)
	start := types.Day(req.Start)
	balance := req.StartingBalance

	for i := 0; i < req.Days; i++ {
		date := start.AddDate(0, 0, i)
		var inflow, outflow decimal.Decimal

		for _, ev := range req.OneTimeInflows {
			if types.SameDay(ev.TriggerDate, date) {
				inflow = inflow.Add(ev.Amount)
			}
		}
		for _, ev := range req.OneTimeOutflows {
			if types.SameDay(ev.TriggerDate, date) {
				outflow = outflow.Add(ev.Amount)
			}
		}
		for _, ev := range req.Recurring {
			if ev.DayOfMonth != date.Day() {
				continue
			}
			if ev.Direction == types.DirectionInflow {
				inflow = inflow.Add(ev.Amount)
			} else {
				outflow = outflow.Add(ev.Amount)
			}
		}

		net := inflow.Sub(outflow)
		balance = types.RoundMoney(balance.Add(net))
		entries = append(entries, types.DailyCashEntry{
			Date:    date,
			Inflow:  types.RoundMoney(inflow),
			Outflow: types.RoundMoney(outflow),
			NetFlow: types.RoundMoney(net),
			Balance: balance,
		})
	}
	return entries, nil
}
