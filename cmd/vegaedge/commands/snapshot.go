package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vegaedge/internal/analysis"
	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/internal/provider"
	"github.com/wonny/vegaedge/internal/strategyconfig"
	"github.com/wonny/vegaedge/pkg/database"
	"github.com/wonny/vegaedge/pkg/logger"
	"github.com/wonny/vegaedge/pkg/redis"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot TICKER [TICKER...]",
	Short: "Record Yahoo quotes into PostgreSQL",
	Long: `Fetches spot and option chains from Yahoo Finance and stores them
in the tables read by DATA_PROVIDER=postgres.

Only expirations inside the DTE window are captured.
A failed chain is logged and skipped.

Example:
  go run ./cmd/vegaedge snapshot AAPL MSFT
  go run ./cmd/vegaedge snapshot SPY --min-dte 0 --max-dte 120 --max-expiries 6`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSnapshot,
}

var (
	snapshotMinDTE      int
	snapshotMaxDTE      int
	snapshotMaxExpiries int
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	// Flags
	snapshotCmd.Flags().IntVar(&snapshotMinDTE, "min-dte", -1, "minimum days to expiration (default from strategy config)")
	snapshotCmd.Flags().IntVar(&snapshotMaxDTE, "max-dte", -1, "maximum days to expiration (default from strategy config)")
	snapshotCmd.Flags().IntVar(&snapshotMaxExpiries, "max-expiries", 0, "expirations per ticker (default from strategy config)")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	strategy, err := strategyconfig.LoadOrDefault(cfg.StrategyConfigPath)
	if err != nil {
		return fmt.Errorf("load strategy config: %w", err)
	}
	minDTE, maxDTE, maxCount := strategy.Expiries.DefaultMinDTE, strategy.Expiries.DefaultMaxDTE, strategy.Expiries.MaxCount
	if snapshotMinDTE >= 0 {
		minDTE = snapshotMinDTE
	}
	if snapshotMaxDTE >= 0 {
		maxDTE = snapshotMaxDTE
	}
	if snapshotMaxExpiries > 0 {
		maxCount = snapshotMaxExpiries
	}
	if maxDTE < minDTE {
		return fmt.Errorf("max-dte %d is below min-dte %d", maxDTE, minDTE)
	}

	// 3. Connect stores
	a := &app{cfg: cfg, log: log}
	defer a.Close()

	if a.redis, err = redis.New(cfg); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	if a.db, err = database.New(cfg); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	store := provider.NewPostgres(a.db.Pool, log)
	source := provider.NewYahoo(a.newYahooClient(), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	// 4. Capture each ticker
	out := cmd.OutOrStdout()
	var failed []string
	for _, arg := range args {
		ticker := strings.ToUpper(strings.TrimSpace(arg))
		saved, err := captureTicker(ctx, source, store, ticker, minDTE, maxDTE, maxCount, cfg.Location(), log)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			PrintError(out, fmt.Sprintf("%s: %v", ticker, err))
			failed = append(failed, ticker)
			continue
		}
		PrintSuccess(out, fmt.Sprintf("%s: %d chains saved", ticker, saved))
	}

	if len(failed) > 0 {
		return fmt.Errorf("snapshot failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

// captureTicker stores spot and the windowed chains for one ticker
func captureTicker(ctx context.Context, source contracts.MarketData, store *provider.Postgres, ticker string, minDTE, maxDTE, maxCount int, loc *time.Location, log *logger.Logger) (int, error) {
	capturedAt := time.Now().UTC()

	spot, err := source.Spot(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("spot: %w", err)
	}
	if err := store.SaveSpot(ctx, ticker, spot, capturedAt); err != nil {
		return 0, err
	}

	listed, err := source.Expiries(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("expiries: %w", err)
	}

	saved := 0
	for _, exp := range analysis.SelectExpiries(listed, time.Now().In(loc), minDTE, maxDTE, maxCount) {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		chain, err := source.Chain(ctx, ticker, exp.Date, spot)
		if err != nil {
			log.WithFields(map[string]interface{}{
				"ticker":     ticker,
				"expiration": exp.Label(),
			}).WithError(err).Warn("Chain fetch failed, skipping")
			continue
		}
		if err := store.SaveChain(ctx, ticker, exp.Date, chain, capturedAt); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}
