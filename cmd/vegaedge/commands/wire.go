package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wonny/vegaedge/internal/analysis"
	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/internal/external/yahoo"
	"github.com/wonny/vegaedge/internal/provider"
	"github.com/wonny/vegaedge/internal/strategyconfig"
	"github.com/wonny/vegaedge/pkg/config"
	"github.com/wonny/vegaedge/pkg/database"
	"github.com/wonny/vegaedge/pkg/httputil"
	"github.com/wonny/vegaedge/pkg/logger"
	"github.com/wonny/vegaedge/pkg/redis"
)

// app holds everything a command needs to run analyses
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	market   contracts.MarketData
	engine   *analysis.Engine
	fixture  *provider.Fixture // non-nil for DATA_PROVIDER=fixture
	db       *database.DB      // non-nil for DATA_PROVIDER=postgres
	redis    *redis.Client
}

// loadConfig reads env config and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if providerName != "" {
		cfg.DataProvider = strings.ToLower(providerName)
	}
	if fixturePath != "" {
		cfg.FixturePath = fixturePath
		if providerName == "" {
			cfg.DataProvider = config.ProviderFixture
		}
	}
	if strategyFile != "" {
		cfg.StrategyConfigPath = strategyFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	switch cfg.DataProvider {
	case config.ProviderYahoo, config.ProviderPostgres:
	case config.ProviderFixture:
		if cfg.FixturePath == "" {
			return nil, fmt.Errorf("--fixture or FIXTURE_PATH is required for the fixture provider")
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.DataProvider)
	}
	return cfg, nil
}

// newCLILogger keeps stdout free for reports
func newCLILogger(cfg *config.Config) *logger.Logger {
	return logger.NewWithWriter(os.Stderr, cfg.LogLevel)
}

// newApp wires config, market data and the analysis engine
func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	// 1. Strategy parameters
	strategy, err := strategyconfig.LoadOrDefault(cfg.StrategyConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	a.strategy = strategy

	// 2. Redis (optional, disabled client is a no-op)
	a.redis, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 3. Market data source
	market, err := a.newMarket()
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.redis.Enabled() {
		cache := redis.NewCache(a.redis, "vegaedge")
		market = provider.NewCached(market, cache, cfg.Redis.CacheTTL, log)
	}
	a.market = market

	// 4. Engine
	opts := []analysis.Option{analysis.WithLocation(cfg.Location())}
	if a.fixture != nil && !a.fixture.AsOf().IsZero() {
		// noon keeps the recorded calendar date in any timezone
		d := a.fixture.AsOf()
		asOf := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, cfg.Location())
		opts = append(opts, analysis.WithClock(func() time.Time { return asOf }))
	}
	a.engine, err = analysis.NewEngine(market, strategy, log, opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"provider":    cfg.DataProvider,
		"redis":       a.redis.Enabled(),
		"config_hash": a.engine.ConfigHash(),
	}).Debug("Analysis engine ready")

	return a, nil
}

func (a *app) newMarket() (contracts.MarketData, error) {
	switch a.cfg.DataProvider {
	case config.ProviderFixture:
		fx, err := provider.LoadFixture(a.cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		a.fixture = fx
		return fx, nil

	case config.ProviderPostgres:
		db, err := database.New(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		return provider.NewPostgres(db.Pool, a.log), nil

	default:
		return provider.NewYahoo(a.newYahooClient(), a.log), nil
	}
}

// newYahooClient shares one request budget across processes when Redis is on
func (a *app) newYahooClient() *yahoo.Client {
	httpClient := httputil.New(a.cfg, a.log)
	if a.redis != nil && a.redis.Enabled() {
		limiter := redis.NewRateLimiter(a.redis, "vegaedge").Bind(redis.YahooRateLimit)
		httpClient.WithLimiter(limiter)
	}
	return yahoo.NewClient(httpClient, a.cfg.Yahoo, a.log)
}

// Close releases database and Redis connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
