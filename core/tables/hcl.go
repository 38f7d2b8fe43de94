// Package tables - HCL overrides for lookup tables
package tables

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"finops-forecast/core/types"
	"finops-forecast/internal/errors"
)

// tablesFile is the HCL schema of an override file:
//
//	version = "2025-q1"
//	default_weight = 0.1
//
//	stage "pilot" {
//	  weight = 0.5
//	}
//
//	industry "saas" {
//	  revenue = [5, 7, 10]
//	  ebitda  = [14, 18, 26]
//	}
//
//	seasonality {
//	  factors = [1.1, 1.05, 1, 1, 1, 1, 0.95, 0.95, 1, 1, 0.95, 0.9]
//	}
type tablesFile struct {
	Version            *string        `hcl:"version,optional"`
	DefaultWeight      hcl.Expression `hcl:"default_weight,optional"`
	BestCaseThreshold  hcl.Expression `hcl:"best_case_threshold,optional"`
	WorstCaseThreshold hcl.Expression `hcl:"worst_case_threshold,optional"`
	FallbackIndustry   *string        `hcl:"fallback_industry,optional"`

	Stages      []stageBlock      `hcl:"stage,block"`
	Industries  []industryBlock   `hcl:"industry,block"`
	Seasonality *seasonalityBlock `hcl:"seasonality,block"`
}

type stageBlock struct {
	Name   string         `hcl:"name,label"`
	Weight hcl.Expression `hcl:"weight"`
}

type industryBlock struct {
	Name    string         `hcl:"name,label"`
	Revenue hcl.Expression `hcl:"revenue,optional"`
	EBITDA  hcl.Expression `hcl:"ebitda,optional"`
}

type seasonalityBlock struct {
	Factors hcl.Expression `hcl:"factors"`
}

// LoadFile reads an HCL override file and merges it over base
func LoadFile(path string, base *Tables) (*Tables, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("tables file", path)
		}
		return nil, errors.Config("reading tables file", err).WithContext("path", path)
	}
	return Parse(src, path, base)
}

// Parse decodes HCL source and merges it over base. base is not modified;
// a nil base means the built-in defaults.
func Parse(src []byte, filename string, base *Tables) (*Tables, error) {
	if base == nil {
		base = Default()
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing("parsing tables file", diags).WithContext("file", filename)
	}

	var raw tablesFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, errors.Parsing("decoding tables file", diags).WithContext("file", filename)
	}

	out := base.Clone()
	out.Version = filename
	if raw.Version != nil {
		out.Version = *raw.Version
	}

	if err := mergeStages(out, &raw); err != nil {
		return nil, err
	}
	if err := mergeIndustries(out, &raw); err != nil {
		return nil, err
	}
	if raw.Seasonality != nil {
		factors, err := numberList(raw.Seasonality.Factors, "seasonality.factors")
		if err != nil {
			return nil, err
		}
		if len(factors) != 12 {
			return nil, errors.Newf(errors.TypeConfig, "seasonality.factors: expected 12 values, got %d", len(factors))
		}
		for i, f := range factors {
			if f.IsNegative() {
				return nil, errors.Newf(errors.TypeConfig, "seasonality.factors[%d]: must be >= 0", i)
			}
			out.Seasonality[i] = f
		}
	}

	return out, nil
}

func mergeStages(out *Tables, raw *tablesFile) error {
	for _, attr := range []struct {
		name   string
		expr   hcl.Expression
		target *decimal.Decimal
	}{
		{"default_weight", raw.DefaultWeight, &out.Stages.Default},
		{"best_case_threshold", raw.BestCaseThreshold, &out.Stages.BestCaseThreshold},
		{"worst_case_threshold", raw.WorstCaseThreshold, &out.Stages.WorstCaseThreshold},
	} {
		v, ok, err := optionalNumber(attr.expr, attr.name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := requireProbability(attr.name, v); err != nil {
			return err
		}
		*attr.target = v
	}

	for _, s := range raw.Stages {
		name := NormalizeStage(s.Name)
		w, ok, err := optionalNumber(s.Weight, "stage."+name+".weight")
		if err != nil {
			return err
		}
		if !ok {
			return errors.Newf(errors.TypeConfig, "stage %q: weight is required", name)
		}
		if err := requireProbability("stage."+name+".weight", w); err != nil {
			return err
		}
		out.Stages.Weights[name] = w
	}

	// best case counts deals at or above its threshold, so a higher worst
	// threshold keeps BestCase >= WorstCase
	if out.Stages.WorstCaseThreshold.LessThan(out.Stages.BestCaseThreshold) {
		return errors.Newf(errors.TypeConfig, "worst_case_threshold %s is below best_case_threshold %s",
			out.Stages.WorstCaseThreshold, out.Stages.BestCaseThreshold)
	}
	return nil
}

func mergeIndustries(out *Tables, raw *tablesFile) error {
	for _, ind := range raw.Industries {
		name := strings.ToLower(strings.TrimSpace(ind.Name))
		row, exists := out.Multiples.Industries[name]

		revenue, hasRevenue, err := optionalRange(ind.Revenue, "industry."+name+".revenue")
		if err != nil {
			return err
		}
		ebitda, hasEBITDA, err := optionalRange(ind.EBITDA, "industry."+name+".ebitda")
		if err != nil {
			return err
		}
		if !exists && !(hasRevenue && hasEBITDA) {
			return errors.Newf(errors.TypeConfig, "industry %q: a new industry needs both revenue and ebitda", name)
		}
		if hasRevenue {
			row.Revenue = revenue
		}
		if hasEBITDA {
			row.EBITDA = ebitda
		}
		out.Multiples.Industries[name] = row
	}

	if raw.FallbackIndustry != nil {
		fb := strings.ToLower(strings.TrimSpace(*raw.FallbackIndustry))
		if _, ok := out.Multiples.Industries[fb]; !ok {
			return errors.Newf(errors.TypeConfig, "fallback_industry %q has no industry row", fb)
		}
		out.Multiples.Fallback = fb
	}
	return nil
}

func requireProbability(name string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Newf(errors.TypeConfig, "%s: must be within [0, 1], got %s", name, v)
	}
	return nil
}

func optionalNumber(expr hcl.Expression, name string) (decimal.Decimal, bool, error) {
	if expr == nil {
		return decimal.Zero, false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return decimal.Zero, false, errors.Parsing(name, diags)
	}
	if val.IsNull() {
		return decimal.Zero, false, nil
	}
	d, err := ctyDecimal(val, name)
	return d, err == nil, err
}

func optionalRange(expr hcl.Expression, name string) (types.Range, bool, error) {
	if expr == nil {
		return types.Range{}, false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return types.Range{}, false, errors.Parsing(name, diags)
	}
	if val.IsNull() {
		return types.Range{}, false, nil
	}
	nums, err := ctyNumbers(val, name)
	if err != nil {
		return types.Range{}, false, err
	}
	if len(nums) != 3 {
		return types.Range{}, false, errors.Newf(errors.TypeConfig, "%s: expected [low, mid, high], got %d values", name, len(nums))
	}
	if nums[0].GreaterThan(nums[1]) || nums[1].GreaterThan(nums[2]) {
		return types.Range{}, false, errors.Newf(errors.TypeConfig, "%s: values must be ascending", name)
	}
	return types.Range{Low: nums[0], Mid: nums[1], High: nums[2]}, true, nil
}

func numberList(expr hcl.Expression, name string) ([]decimal.Decimal, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, errors.Parsing(name, diags)
	}
	return ctyNumbers(val, name)
}

func ctyNumbers(val cty.Value, name string) ([]decimal.Decimal, error) {
	if val.IsNull() || !val.CanIterateElements() {
		return nil, errors.Newf(errors.TypeConfig, "%s: expected a list of numbers, got %s", name, val.Type().FriendlyName())
	}
	out := make([]decimal.Decimal, 0, val.LengthInt())
	iter := val.ElementIterator()
	for i := 0; iter.Next(); i++ {
		_, elem := iter.Element()
		d, err := ctyDecimal(elem, fmt.Sprintf("%s[%d]", name, i))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ctyDecimal converts a known cty number without passing through float64
func ctyDecimal(val cty.Value, name string) (decimal.Decimal, error) {
	if !val.IsKnown() || val.IsNull() || val.Type() != cty.Number {
		return decimal.Zero, errors.Newf(errors.TypeConfig, "%s: expected a number, got %s", name, val.Type().FriendlyName())
	}
	d, err := decimal.NewFromString(val.AsBigFloat().Text('f', -1))
	if err != nil {
		return decimal.Zero, errors.Parsing(name, err)
	}
	return d, nil
}
