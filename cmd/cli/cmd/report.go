// Package cmd - report command
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finops-forecast/core/engine"
	"finops-forecast/core/input"
	"finops-forecast/core/output"
	"finops-forecast/core/types"
	"finops-forecast/internal/config"
	"finops-forecast/internal/logging"
)

var reportAsOf string

// reportCmd runs the full engine over a record file
var reportCmd = &cobra.Command{
	Use:   "report <records.yaml>",
	Short: "Produce a full forecast report from a record file",
	Long: `Run every forecast whose records are present in the file.

Sections without records are omitted. Horizons missing from the file come
from the configuration. A file without as_of uses --as-of, or today.

Examples:
  finops report records.yaml
  finops report --as-of 2024-10-01 records.yaml
  finops report --format json records.yaml > report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportAsOf, "as-of", "", "reference date (YYYY-MM-DD) when the file has none")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	startTime := time.Now()
	cfg := config.Get()

	bundle, err := input.LoadFile(args[0])
	if err != nil {
		return err
	}
	if err := fillBundle(bundle, cfg, reportAsOf, startTime); err != nil {
		return err
	}

	records, err := bundle.Records()
	if err != nil {
		return err
	}
	logging.Debug("records loaded", zap.String("summary", records.String()))

	eng := engine.New(
		engine.WithTables(activeTables),
		engine.WithLogger(logging.Named("engine")),
	)
	report, err := eng.Run(ctx, records)
	if err != nil {
		return err
	}
	report.Metadata.RunID = uuid.NewString()

	logging.Info("report complete",
		zap.String("run_id", report.Metadata.RunID),
		zap.String("report_id", report.Metadata.ReportID),
		zap.Duration("duration", time.Since(startTime)))

	return render(report)
}

// fillBundle applies configured defaults to whatever the record file leaves unset
func fillBundle(b *input.Bundle, cfg *config.Config, asOf string, now time.Time) error {
	months, cashDays, seasonal := cfg.Forecast.Months, cfg.Forecast.CashDays, cfg.Forecast.ApplySeasonality
	b.WithDefaults(input.Settings{
		Months:           &months,
		CashDays:         &cashDays,
		ApplySeasonality: &seasonal,
	})

	if b.Company.Industry == "" {
		b.Company.Industry = cfg.Forecast.Industry
	}

	if b.AsOf == nil || b.AsOf.IsZero() {
		ref := types.Day(now.UTC())
		if asOf != "" {
			t, err := types.ParseDate(asOf)
			if err != nil {
				return err
			}
			ref = t
		}
		d := input.NewDate(ref)
		b.AsOf = &d
	}
	return nil
}

func render(report *engine.Report) error {
	f, err := formatters().Get(output.ParseFormat(config.Get().Output.DefaultFormat))
	if err != nil {
		return err
	}
	if err := f.Render(os.Stdout, report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
