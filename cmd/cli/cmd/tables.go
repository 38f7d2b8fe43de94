// Package cmd - tables, init, config and version commands
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finops-forecast/core/input"
	"finops-forecast/internal/config"
	"finops-forecast/internal/errors"
)

// Version is set at build time
var Version = "0.1.0"

var tablesHCL bool

// tablesCmd prints the effective lookup tables
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Print the effective lookup tables",
	Long: `Print the stage weights, valuation multiples and seasonality curve
in effect after any --tables override.

--hcl writes the tables in the override file format, ready to edit:
  finops tables --hcl > tables.hcl
  finops --tables tables.hcl report records.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tablesHCL {
			return activeTables.WriteHCL(os.Stdout)
		}
		return writeJSON(activeTables)
	},
}

// initCmd writes a starter record file
var initCmd = &cobra.Command{
	Use:   "init <records.yaml>",
	Short: "Write a sample record file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil {
			return errors.Newf(errors.TypeInput, "refusing to overwrite %s", path)
		}
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(errors.TypeInput, "failed to create record file", err).WithContext("path", path)
		}
		defer f.Close()

		if err := input.Sample(time.Now().UTC()).Encode(f); err != nil {
			return err
		}
		terminal().Success("wrote %s", path)
		return nil
	},
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("finops version %s (tables %s)\n", Version, activeTables.Version)
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "finops.yaml"
		if len(args) > 0 {
			path = args[0]
		}
		if err := config.Get().Save(path); err != nil {
			return errors.Config("saving config", err).WithContext("path", path)
		}
		terminal().Success("wrote %s", path)
		return nil
	},
}

func init() {
	tablesCmd.Flags().BoolVar(&tablesHCL, "hcl", false, "print in the HCL override format")
	configCmd.AddCommand(configInitCmd)
}
