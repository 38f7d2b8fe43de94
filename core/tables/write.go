// Package tables - HCL export
package tables

import (
	"io"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"finops-forecast/core/determinism"
	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// WriteHCL writes t in the override file format. The output parses back
// into an identical table set, so it doubles as a starting point for
// deployment overrides.
func (t *Tables) WriteHCL(w io.Writer) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	body.SetAttributeValue("version", cty.StringVal(t.Version))
	body.SetAttributeValue("default_weight", number(t.Stages.Default))
	body.SetAttributeValue("best_case_threshold", number(t.Stages.BestCaseThreshold))
	body.SetAttributeValue("worst_case_threshold", number(t.Stages.WorstCaseThreshold))
	body.SetAttributeValue("fallback_industry", cty.StringVal(t.Multiples.Fallback))

	for _, name := range determinism.SortedKeys(t.Stages.Weights) {
		body.AppendNewline()
		block := body.AppendNewBlock("stage", []string{name})
		block.Body().SetAttributeValue("weight", number(t.Stages.Weights[name]))
	}

	for _, name := range determinism.SortedKeys(t.Multiples.Industries) {
		row := t.Multiples.Industries[name]
		body.AppendNewline()
		block := body.AppendNewBlock("industry", []string{name})
		block.Body().SetAttributeValue("revenue", rangeList(row.Revenue))
		block.Body().SetAttributeValue("ebitda", rangeList(row.EBITDA))
	}

	factors := make([]cty.Value, len(t.Seasonality))
	for i, s := range t.Seasonality {
		factors[i] = number(s)
	}
	body.AppendNewline()
	body.AppendNewBlock("seasonality", nil).Body().SetAttributeValue("factors", cty.ListVal(factors))

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to write tables", err)
	}
	return nil
}

func number(d decimal.Decimal) cty.Value {
	return cty.MustParseNumberVal(d.String())
}

func rangeList(r types.Range) cty.Value {
	return cty.ListVal([]cty.Value{number(r.Low), number(r.Mid), number(r.High)})
}
