// Package revenue - Three-scenario simulation
package revenue

import (
	"time"

	"github.com/shopspring/decimal"

	"finops-forecast/core/assumptions"
	"finops-forecast/core/confidence"
	"finops-forecast/core/pipeline"
	"finops-forecast/core/seasonal"
	"finops-forecast/core/stats"
	"finops-forecast/core/tables"
	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// MinRegressionPoints is the history length needed for the trend forecast
const MinRegressionPoints = 3

// Band widths per scenario
var (
	BestCaseWidth  = confidence.Symmetric("0.15")
	ExpectedWidth  = confidence.Symmetric("0.10")
	WorstCaseWidth = confidence.Symmetric("0.20")
)

// Forecaster runs scenario and pipeline forecasts over a set of lookup tables
type Forecaster struct {
	adjuster *seasonal.Adjuster
	pipeline *pipeline.Aggregator
}

// NewForecaster creates a forecaster over t
func NewForecaster(t *tables.Tables) *Forecaster {
	return &Forecaster{
		adjuster: seasonal.New(t.Seasonality),
		pipeline: pipeline.New(t.Stages),
	}
}

// ScenarioRequest are the inputs to RunScenarios
type ScenarioRequest struct {
	CurrentMRR       decimal.Decimal
	Months           int
	History          []types.MonthlyObservation
	ApplySeasonality bool

	// AsOf anchors calendar months: step i falls in AsOf's month + i
	AsOf time.Time
}

// ScenarioMonth is one projected month with its band
type ScenarioMonth struct {
	ProjectedMonth
	Period         string          `json:"period"`
	UnadjustedMRR  decimal.Decimal `json:"unadjusted_mrr"`
	SeasonalFactor decimal.Decimal `json:"seasonal_factor"`
	Band           confidence.Band `json:"band"`
}

// Scenario is one full projection
type Scenario struct {
	Name        string           `json:"name"`
	Assumptions assumptions.Set  `json:"assumptions"`
	Width       confidence.Width `json:"band_width"`
	Months      []ScenarioMonth  `json:"months"`
	EndingMRR   decimal.Decimal  `json:"ending_mrr"`
}

// RegressionPoint is one step of the trend forecast
type RegressionPoint struct {
	Month       int             `json:"month"`
	Period      string          `json:"period"`
	PeriodIndex int             `json:"period_index"`
	Predicted   decimal.Decimal `json:"predicted"`
}

// RegressionQuality describes how well the trend fits history
type RegressionQuality struct {
	RSquared decimal.Decimal `json:"r_squared"`
	Slope    decimal.Decimal `json:"slope"`
	Level    string          `json:"level"`
}

// ScenarioReport holds the three scenarios and the optional trend forecast
type ScenarioReport struct {
	BestCase          Scenario           `json:"best_case"`
	Expected          Scenario           `json:"expected"`
	WorstCase         Scenario           `json:"worst_case"`
	LinearRegression  []RegressionPoint  `json:"linear_regression,omitempty"`
	RegressionQuality *RegressionQuality `json:"regression_quality,omitempty"`
}

// RunScenarios projects currentMRR under the optimistic, expected and
// pessimistic sets. The trend forecast, when history is long enough, is
// computed independently and never feeds the scenarios.
func (f *Forecaster) RunScenarios(req ScenarioRequest) (ScenarioReport, error) {
	if req.Months < 0 {
		return ScenarioReport{}, errors.InvalidArgument("months", "must be >= 0, got %d", req.Months).WithContext("value", req.Months)
	}
	if err := types.RequireNonNegative("current_mrr", req.CurrentMRR); err != nil {
		return ScenarioReport{}, err
	}

	anchor := types.PeriodOf(req.AsOf)
	var report ScenarioReport
	for _, target := range []struct {
		name  string
		width confidence.Width
		out   *Scenario
	}{
		{assumptions.Optimistic, BestCaseWidth, &report.BestCase},
		{assumptions.Expected, ExpectedWidth, &report.Expected},
		{assumptions.Pessimistic, WorstCaseWidth, &report.WorstCase},
	} {
		s, err := f.scenario(target.name, target.width, anchor, req)
		if err != nil {
			return ScenarioReport{}, err
		}
		*target.out = s
	}

	if len(req.History) >= MinRegressionPoints {
		model := stats.Fit(req.History)
		last := req.History[len(req.History)-1].PeriodIndex
		report.LinearRegression = make([]RegressionPoint, 0, req.Months)
		for i := 1; i <= req.Months; i++ {
			report.LinearRegression = append(report.LinearRegression, RegressionPoint{
				Month:       i,
				Period:      anchor.AddMonths(i).String(),
				PeriodIndex: last + i,
				Predicted:   stats.Predict(model, last+i),
			})
		}
		r2, _ := model.RSquared.Float64()
		report.RegressionQuality = &RegressionQuality{
			RSquared: model.RSquared,
			Slope:    types.RoundMoney(model.Slope),
			Level:    confidence.Level(r2),
		}
	}

	return report, nil
}

func (f *Forecaster) scenario(name string, width confidence.Width, anchor types.Period, req ScenarioRequest) (Scenario, error) {
	set, err := assumptions.Canonical(name, req.CurrentMRR)
	if err != nil {
		return Scenario{}, err
	}
	projected, err := ProjectForward(req.CurrentMRR, req.Months, set)
	if err != nil {
		return Scenario{}, err
	}

	s := Scenario{
		Name:        name,
		Assumptions: set,
		Width:       width,
		Months:      make([]ScenarioMonth, 0, len(projected)),
		EndingMRR:   types.RoundMoney(req.CurrentMRR),
	}
	one := decimal.NewFromInt(1)
	for _, pm := range projected {
		period := anchor.AddMonths(pm.Month)
		sm := ScenarioMonth{
			ProjectedMonth: pm,
			Period:         period.String(),
			UnadjustedMRR:  pm.MRR,
			SeasonalFactor: one,
		}
		if req.ApplySeasonality {
			sm.SeasonalFactor = f.adjuster.Factor(period.Month)
			sm.MRR = f.adjuster.Apply(period.Month, pm.MRR)
			sm.ARR = sm.MRR.Mul(twelve)
		}
		sm.Band = width.Apply(sm.MRR)
		s.Months = append(s.Months, sm)
		s.EndingMRR = sm.MRR
	}
	return s, nil
}

// ForecastFromPipeline weights deals by stage; see pipeline.Aggregator
func (f *Forecaster) ForecastFromPipeline(deals []types.PipelineDeal) (pipeline.Result, error) {
	return f.pipeline.Aggregate(deals)
}
