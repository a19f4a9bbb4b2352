package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vegaedge/internal/analysis"
	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/internal/report"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "Screen one underlying for risk reversals",
	Long: `Runs one risk reversal analysis and prints the report.

This command:
- fetches spot and the listed expirations
- analyzes the first expirations inside the DTE window
- ranks valid combinations and prints the top picks

Example:
  go run ./cmd/vegaedge analyze AAPL
  go run ./cmd/vegaedge analyze TSLA --strategy bearish --format json
  go run ./cmd/vegaedge analyze AAPL --fixture testdata/snapshot.yaml --as-of 2025-01-22`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeStrategy string
	analyzeMinDTE   int
	analyzeMaxDTE   int
	analyzeFormat   string
	analyzeAsOf     string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVarP(&analyzeStrategy, "strategy", "s", string(contracts.Bullish), "bullish or bearish")
	analyzeCmd.Flags().IntVar(&analyzeMinDTE, "min-dte", -1, "minimum days to expiration (default from strategy config)")
	analyzeCmd.Flags().IntVar(&analyzeMaxDTE, "max-dte", -1, "maximum days to expiration (default from strategy config)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format (text|json)")
	analyzeCmd.Flags().StringVar(&analyzeAsOf, "as-of", "", "analysis date YYYY-MM-DD (default today)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFormat != "text" && analyzeFormat != "json" {
		return fmt.Errorf("unknown format %q (text|json)", analyzeFormat)
	}

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Initialize logger
	log := newCLILogger(cfg)

	// 3. Wire engine
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Build request
	req, err := buildRequest(a, args[0], requestFlags{
		strategy: analyzeStrategy,
		minDTE:   analyzeMinDTE,
		maxDTE:   analyzeMaxDTE,
		asOf:     analyzeAsOf,
	})
	if err != nil {
		return err
	}

	// 5. Run with Ctrl+C cancellation
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := a.engine.Analyze(ctx, req)
	if err != nil {
		return err
	}

	// 6. Print
	out := cmd.OutOrStdout()
	if analyzeFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		fmt.Fprintln(out, report.RenderText(rep))
	}

	if rep.Status == contracts.StatusError {
		return fmt.Errorf("analysis failed for %s", rep.Ticker)
	}
	return nil
}

// requestFlags are the per-run knobs shared by analyze and watch
type requestFlags struct {
	strategy string
	minDTE   int // negative means strategy config default
	maxDTE   int
	asOf     string
}

// buildRequest resolves flag defaults against the strategy config
func buildRequest(a *app, ticker string, flags requestFlags) (analysis.Request, error) {
	strategy, err := contracts.ParseStrategy(flags.strategy)
	if err != nil {
		return analysis.Request{}, err
	}

	req := analysis.Request{
		Strategy: strategy,
		Ticker:   ticker,
		MinDTE:   a.strategy.Expiries.DefaultMinDTE,
		MaxDTE:   a.strategy.Expiries.DefaultMaxDTE,
	}
	if flags.minDTE >= 0 {
		req.MinDTE = flags.minDTE
	}
	if flags.maxDTE >= 0 {
		req.MaxDTE = flags.maxDTE
	}

	if flags.asOf != "" {
		asOf, err := time.ParseInLocation(contracts.DateLayout, flags.asOf, a.cfg.Location())
		if err != nil {
			return analysis.Request{}, fmt.Errorf("invalid --as-of %q: %w", flags.asOf, err)
		}
		req.AsOf = asOf
	}

	if err := req.Validate(); err != nil {
		return analysis.Request{}, err
	}
	return req, nil
}
