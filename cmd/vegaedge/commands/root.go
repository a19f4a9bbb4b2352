package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	providerName string
	fixturePath  string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vegaedge",
	Short: "VegaEdge - risk reversal screener",
	Long: `VegaEdge Unified CLI

Screens listed options for bullish and bearish risk reversals.
Quotes flow through sanitize, combine, rank and report stages.

Usage:
  go run ./cmd/vegaedge [command]

Examples:
  go run ./cmd/vegaedge analyze AAPL
  go run ./cmd/vegaedge analyze TSLA --strategy bearish --min-dte 20 --max-dte 60
  go run ./cmd/vegaedge api --port 8000
  go run ./cmd/vegaedge watch AAPL --schedule "*/15 9-16 * * 1-5"
  go run ./cmd/vegaedge check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "config", "", "strategy parameter YAML (default is STRATEGY_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "market data provider (yahoo|postgres|fixture), overrides DATA_PROVIDER")
	rootCmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "fixture YAML path, overrides FIXTURE_PATH")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
