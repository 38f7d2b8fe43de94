// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions,
// parsing of their enumerations, and rounding helpers.
package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/internal/errors"
)

// BillingCycle is how often a subscription is invoiced
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingAnnual  BillingCycle = "annual"
)

// String returns the string representation of the billing cycle
func (b BillingCycle) String() string {
	return string(b)
}

// IsValid checks if the billing cycle is known
func (b BillingCycle) IsValid() bool {
	switch b {
	case BillingMonthly, BillingAnnual:
		return true
	default:
		return false
	}
}

// ParseBillingCycle normalizes a billing cycle name
func ParseBillingCycle(s string) (BillingCycle, error) {
	b := BillingCycle(strings.ToLower(strings.TrimSpace(s)))
	if !b.IsValid() {
		return "", errors.InvalidArgument("billing_cycle", "unknown billing cycle %q", s)
	}
	return b, nil
}

// CustomerStatus is the lifecycle state of a customer
type CustomerStatus string

const (
	StatusActive  CustomerStatus = "active"
	StatusChurned CustomerStatus = "churned"
	StatusOther   CustomerStatus = "other"
)

// ParseCustomerStatus normalizes a status; unrecognized values map to StatusOther
func ParseCustomerStatus(s string) CustomerStatus {
	switch CustomerStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive
	case StatusChurned:
		return StatusChurned
	default:
		return StatusOther
	}
}

// Direction is the sign of a recurring cash event
type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

// ParseDirection normalizes a cash direction
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DirectionInflow, DirectionOutflow:
		return d, nil
	default:
		return "", errors.InvalidArgument("direction", "unknown direction %q", s)
	}
}

// MonthlyObservation is one historical data point, e.g. MRR for a month
type MonthlyObservation struct {
	PeriodIndex int             `json:"period_index"`
	Value       decimal.Decimal `json:"value"`
}

// Subscription is a recurring revenue contract
type Subscription struct {
	Amount       decimal.Decimal `json:"amount"`
	BillingCycle BillingCycle    `json:"billing_cycle"`
	Plan         string          `json:"plan"`
}

// MonthlyEquivalent returns the amount normalized to one month
func (s Subscription) MonthlyEquivalent() decimal.Decimal {
	if s.BillingCycle == BillingAnnual {
		return s.Amount.Div(decimal.NewFromInt(12))
	}
	return s.Amount
}

// PipelineDeal is an open or closed sales opportunity
type PipelineDeal struct {
	Stage  string          `json:"stage"`
	Amount decimal.Decimal `json:"amount"`
}

// Customer is one account tracked for cohort analysis
type Customer struct {
	// SignupPeriod is "YYYY-MM"; empty means the signup month is unknown
	SignupPeriod string          `json:"signup_period,omitempty"`
	Status       CustomerStatus  `json:"status"`
	CurrentMRR   decimal.Decimal `json:"current_mrr"`
	InitialMRR   decimal.Decimal `json:"initial_mrr"`
}

// OneTimeEvent is a cash movement on a specific date
type OneTimeEvent struct {
	Amount      decimal.Decimal `json:"amount"`
	TriggerDate time.Time       `json:"trigger_date"`
	Label       string          `json:"label,omitempty"`
}

// RecurringEvent is a cash movement repeating on a day of every month
type RecurringEvent struct {
	Amount     decimal.Decimal `json:"amount"`
	DayOfMonth int             `json:"day_of_month"`
	Direction  Direction       `json:"direction"`
	Label      string          `json:"label,omitempty"`
}

// DailyCashEntry is one simulated day of the cash ledger
type DailyCashEntry struct {
	Date    time.Time       `json:"date"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	NetFlow decimal.Decimal `json:"net_flow"`
	Balance decimal.Decimal `json:"balance"`
}

// Range is a low/mid/high triple used for multiples and valuations
type Range struct {
	Low  decimal.Decimal `json:"low"`
	Mid  decimal.Decimal `json:"mid"`
	High decimal.Decimal `json:"high"`
}

// NewRange builds a Range from float literals
func NewRange(low, mid, high float64) Range {
	return Range{
		Low:  decimal.NewFromFloat(low),
		Mid:  decimal.NewFromFloat(mid),
		High: decimal.NewFromFloat(high),
	}
}

// Map applies fn to each tier
func (r Range) Map(fn func(decimal.Decimal) decimal.Decimal) Range {
	return Range{Low: fn(r.Low), Mid: fn(r.Mid), High: fn(r.High)}
}
