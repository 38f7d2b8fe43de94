package assumptions

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"finops-forecast/internal/errors"
)

func TestCanonicalSets(t *testing.T) {
	mrr := decimal.NewFromInt(10000)

	tests := []struct {
		name                                  string
		growth, churn, expansion, newCustomer string
	}{
		{name: Optimistic, growth: "0.10", churn: "0.01", expansion: "0.05", newCustomer: "1500"},
		{name: Expected, growth: "0.05", churn: "0.03", expansion: "0.02", newCustomer: "800"},
		{name: Pessimistic, growth: "0.01", churn: "0.07", expansion: "0.005", newCustomer: "200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Canonical(tt.name, mrr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			checks := map[string][2]decimal.Decimal{
				"growth":       {set.MonthlyGrowthRate, decimal.RequireFromString(tt.growth)},
				"churn":        {set.MonthlyChurnRate, decimal.RequireFromString(tt.churn)},
				"expansion":    {set.ExpansionRate, decimal.RequireFromString(tt.expansion)},
				"new customer": {set.NewCustomerMRR, decimal.RequireFromString(tt.newCustomer)},
			}
			for field, pair := range checks {
				if !pair[0].Equal(pair[1]) {
					t.Errorf("%s: expected %s, got %s", field, pair[1], pair[0])
				}
			}
			if set.Name != tt.name {
				t.Errorf("expected name %s, got %s", tt.name, set.Name)
			}
		})
	}
}

func TestCanonicalUnknown(t *testing.T) {
	_, err := Canonical("euphoric", decimal.NewFromInt(1))
	if !errors.IsType(err, errors.TypeInvalidArgument) {
		t.Errorf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestSetValidate(t *testing.T) {
	if err := (Set{NewCustomerMRR: decimal.NewFromInt(-5)}).Validate(); err == nil {
		t.Error("expected negative new-customer MRR to be rejected")
	}
	if err := (Set{MonthlyChurnRate: decimal.NewFromInt(-1)}).Validate(); err != nil {
		t.Errorf("rates are unconstrained, got %v", err)
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Record("pipeline", "stage_weight", "0.10", FromDefault, `stage "pilot" not in table`, Impact("pipeline.stage_weight"))
	tr.Record("valuation", "industry", "generic", FromDefault, `industry "space" not in table`, Impact("valuation.industry"))
	tr.Record("pipeline", "stage_weight", "0.10", FromDefault, "stage \"\" not in table", 0.05)

	if tr.Count() != 3 {
		t.Errorf("expected 3 assumptions, got %d", tr.Count())
	}
	if len(tr.ForComponent("pipeline")) != 2 {
		t.Errorf("expected 2 pipeline assumptions, got %d", len(tr.ForComponent("pipeline")))
	}
	comps := tr.Components()
	if len(comps) != 2 || comps[0] != "pipeline" || comps[1] != "valuation" {
		t.Errorf("unexpected components: %v", comps)
	}

	impacts := tr.Impacts()
	if len(impacts) != 3 {
		t.Fatalf("expected 3 impacts, got %d", len(impacts))
	}
	if impacts[1].Impact != 0.20 || impacts[1].Source != "valuation.industry" {
		t.Errorf("unexpected valuation impact: %+v", impacts[1])
	}
}

func TestImpactDefault(t *testing.T) {
	if Impact("nothing.here") != DefaultImpacts["default"] {
		t.Error("expected default impact for unknown key")
	}
}

func TestSourceMarshalsAsName(t *testing.T) {
	data, err := json.Marshal(&Assumption{Component: "c", Attribute: "a", Source: FromHeuristic})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"source":"heuristic"`) {
		t.Errorf("expected source name in JSON, got %s", data)
	}
}
