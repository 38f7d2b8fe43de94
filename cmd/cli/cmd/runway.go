// Package cmd - runway command
package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"finops-forecast/core/cashflow"
	"finops-forecast/core/types"
)

var (
	runwayCash     decimalFlag
	runwayExpenses decimalFlag
	runwayRevenue  decimalFlag
)

// runwayCmd computes burn and runway from three figures
var runwayCmd = &cobra.Command{
	Use:   "runway",
	Short: "Compute burn rate and cash runway",
	Long: `Compute net burn and how many months the cash balance lasts.

Examples:
  finops runway --cash 500000 --expenses 80000 --revenue 45000
  finops runway --cash 500000 --expenses 80000 --format json`,
	Args: cobra.NoArgs,
	RunE: runRunway,
}

func init() {
	runwayCmd.Flags().Var(&runwayCash, "cash", "cash balance")
	runwayCmd.Flags().Var(&runwayExpenses, "expenses", "monthly expenses")
	runwayCmd.Flags().Var(&runwayRevenue, "revenue", "monthly revenue (default 0)")
	_ = runwayCmd.MarkFlagRequired("cash")
	_ = runwayCmd.MarkFlagRequired("expenses")
}

func runRunway(cmd *cobra.Command, args []string) error {
	burn, err := cashflow.BurnRate(runwayExpenses.Decimal(), runwayRevenue.Decimal())
	if err != nil {
		return err
	}
	runway := cashflow.ComputeRunway(runwayCash.Decimal(), burn, types.Day(time.Now().UTC()))

	if wantJSON() {
		return writeJSON(struct {
			Burn   cashflow.Burn   `json:"burn"`
			Runway cashflow.Runway `json:"runway"`
		}{burn, runway})
	}

	out := terminal()
	out.Header("Runway")
	t := out.NewTable("Gross burn", "Revenue", "Net burn", "Status").AlignRight(0, 1, 2)
	t.AddRow(burn.GrossBurn.StringFixed(2), burn.Revenue.StringFixed(2), burn.NetBurn.StringFixed(2), runway.Status)
	t.Render()
	out.Println("")

	switch runway.Status {
	case cashflow.StatusCritical:
		out.Error("%s", runway.Message)
	case cashflow.StatusWarning:
		out.Warning("%s", runway.Message)
	default:
		out.Success("%s", runway.Message)
	}
	return nil
}
