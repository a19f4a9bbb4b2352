package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show resolved configuration and test connections",
	Long: `Prints the resolved configuration and strategy parameter hash,
then pings every configured store.

This command:
- loads .env and the strategy YAML
- connects to PostgreSQL when DATA_PROVIDER=postgres
- pings Redis when REDIS_ENABLED=true

Example:
  go run ./cmd/vegaedge check
  go run ./cmd/vegaedge check --config config/strategy/risk_reversal.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== VegaEdge Configuration Check ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		PrintError(out, err.Error())
		return err
	}
	PrintSuccess(out, fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))

	const w = 16
	PrintKeyValue(out, "Provider", cfg.DataProvider, w)
	PrintKeyValue(out, "Timezone", cfg.Location().String(), w)
	PrintKeyValue(out, "Port", cfg.Port, w)
	PrintKeyValue(out, "Database URL", maskPassword(cfg.Database.URL), w)
	PrintKeyValue(out, "Redis", strconv.FormatBool(cfg.Redis.Enabled), w)
	PrintKeyValue(out, "Yahoo req/sec", strconv.FormatFloat(cfg.Yahoo.RequestsPerSecond, 'f', -1, 64), w)
	if cfg.FixturePath != "" {
		PrintKeyValue(out, "Fixture", cfg.FixturePath, w)
	}

	// 2. Wire engine (connects configured stores)
	fmt.Fprintln(out, "\nConnecting...")
	a, err := newApp(cfg, newCLILogger(cfg))
	if err != nil {
		PrintError(out, err.Error())
		return err
	}
	defer a.Close()

	strategyPath := cfg.StrategyConfigPath
	if strategyPath == "" {
		strategyPath = "(built-in defaults)"
	}
	PrintSuccess(out, "Strategy parameters valid")
	PrintKeyValue(out, "Strategy file", strategyPath, w)
	PrintKeyValue(out, "Strategy", fmt.Sprintf("%s v%s", a.strategy.Meta.StrategyID, a.strategy.Meta.Version), w)
	PrintKeyValue(out, "Config hash", a.engine.ConfigHash(), w)
	PrintKeyValue(out, "DTE window", fmt.Sprintf("%d-%d days", a.strategy.Expiries.DefaultMinDTE, a.strategy.Expiries.DefaultMaxDTE), w)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 3. Database
	if a.db != nil {
		status, err := a.db.HealthCheck(ctx)
		if err != nil {
			PrintError(out, fmt.Sprintf("Database health check failed: %v", err))
			return err
		}
		PrintSuccess(out, fmt.Sprintf("Database healthy (%v, %d conns)", status.ResponseTime, status.Stats.TotalConns))
	}

	// 4. Redis
	if a.redis.Enabled() {
		if err := a.redis.Ping(ctx); err != nil {
			PrintError(out, fmt.Sprintf("Redis ping failed: %v", err))
			return err
		}
		PrintSuccess(out, "Redis reachable")
	} else {
		PrintInfo(out, "Redis disabled")
	}

	// 5. Fixture
	if a.fixture != nil {
		asOf := "(not recorded)"
		if !a.fixture.AsOf().IsZero() {
			asOf = a.fixture.AsOf().Format("2006-01-02")
		}
		PrintSuccess(out, fmt.Sprintf("Fixture loaded (as of %s)", asOf))
	}

	fmt.Fprintln(out, "\n✅ All checks passed!")
	return nil
}
