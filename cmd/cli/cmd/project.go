// Package cmd - project command
package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"finops-forecast/core/assumptions"
	"finops-forecast/core/revenue"
)

var (
	projectMRR      decimalFlag
	projectMonths   int
	projectScenario string
	projectGrowth   decimalFlag
	projectChurn    decimalFlag
)

// projectCmd runs one MRR projection
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project MRR forward under one assumption set",
	Long: `Project MRR month by month under a canonical scenario.

--growth and --churn override the scenario's monthly rates.

Examples:
  finops project --mrr 50000 --months 12
  finops project --mrr 50000 --scenario pessimistic
  finops project --mrr 50000 --growth 0.04 --churn 0.02`,
	Args: cobra.NoArgs,
	RunE: runProject,
}

func init() {
	projectCmd.Flags().Var(&projectMRR, "mrr", "starting MRR")
	projectCmd.Flags().IntVar(&projectMonths, "months", 12, "months to project")
	projectCmd.Flags().StringVar(&projectScenario, "scenario", assumptions.Expected, "optimistic, expected or pessimistic")
	projectCmd.Flags().Var(&projectGrowth, "growth", "monthly growth rate override (0.05 = 5%)")
	projectCmd.Flags().Var(&projectChurn, "churn", "monthly churn rate override")
	_ = projectCmd.MarkFlagRequired("mrr")
}

func runProject(cmd *cobra.Command, args []string) error {
	set, err := assumptions.Canonical(projectScenario, projectMRR.Decimal())
	if err != nil {
		return err
	}
	if projectGrowth.set {
		set.MonthlyGrowthRate = projectGrowth.Decimal()
	}
	if projectChurn.set {
		set.MonthlyChurnRate = projectChurn.Decimal()
	}

	months, err := revenue.ProjectForward(projectMRR.Decimal(), projectMonths, set)
	if err != nil {
		return err
	}

	if wantJSON() {
		return writeJSON(struct {
			Assumptions assumptions.Set          `json:"assumptions"`
			Months      []revenue.ProjectedMonth `json:"months"`
		}{set, months})
	}

	out := terminal()
	out.Header("MRR Projection (" + set.Name + ")")
	out.Info("growth %s  churn %s  expansion %s  new MRR %s/month",
		set.MonthlyGrowthRate.String(), set.MonthlyChurnRate.String(),
		set.ExpansionRate.String(), set.NewCustomerMRR.StringFixed(2))
	out.Println("")

	t := out.NewTable("Month", "MRR", "ARR", "Churn", "Expansion", "New", "Growth").AlignRight(0, 1, 2, 3, 4, 5, 6)
	for _, m := range months {
		t.AddRow(strconv.Itoa(m.Month), m.MRR.StringFixed(2), m.ARR.StringFixed(2),
			m.ChurnLoss.StringFixed(2), m.Expansion.StringFixed(2),
			m.NewRevenue.StringFixed(2), m.OrganicGrowth.StringFixed(2))
	}
	t.Render()
	return nil
}
