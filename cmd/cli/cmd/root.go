// Package cmd provides the CLI commands for finops.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finops-forecast/core/output"
	"finops-forecast/core/tables"
	"finops-forecast/internal/config"
	"finops-forecast/internal/logging"
)

var (
	cfgFile      string
	envFile      string
	tablesFile   string
	outputFormat string
	verbose      bool
	noColor      bool

	// effective lookup tables after overrides
	activeTables = tables.Default()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "finops",
	Short: "Forecast revenue, cash and valuation from financial records",
	Long: `finops is a deterministic financial forecasting engine.

It projects MRR under best, expected and worst case assumptions, weights the
sales pipeline, analyzes customer cohorts, simulates daily cash and values
the company against industry multiples.

Examples:
  finops report records.yaml
  finops report --format json records.yaml
  finops project --mrr 50000 --months 12 --scenario expected
  finops runway --cash 500000 --expenses 80000 --revenue 45000`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI
func Execute() error {
	defer logging.Sync()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./finops.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file with FINOPS_* overrides")
	rootCmd.PersistentFlags().StringVar(&tablesFile, "tables", "", "HCL file overriding the lookup tables")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(runwayCmd)
	rootCmd.AddCommand(valuateCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = "finops.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying environment: %v\n", err)
		os.Exit(1)
	}
	if outputFormat != "" {
		cfg.Output.DefaultFormat = string(output.ParseFormat(outputFormat))
	}
	if tablesFile != "" {
		cfg.TablesFile = tablesFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		logging.Warn("keeping default logger",
			zap.String("output", cfg.Logging.Output),
			zap.Error(err))
	}

	if cfg.TablesFile != "" {
		t, err := tables.LoadFile(cfg.TablesFile, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading tables: %v\n", err)
			os.Exit(1)
		}
		activeTables = t
		logging.Debug("lookup tables loaded",
			zap.String("file", cfg.TablesFile),
			zap.String("version", t.Version))
	}
}

// formatters builds the registry for the current configuration
func formatters() *output.Registry {
	cfg := config.Get()
	return output.Default(output.TableOptions{
		NoColor:         noColor,
		ShowAssumptions: cfg.Output.ShowAssumptions,
	})
}
