package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/vegaedge/internal/combination"
	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/internal/ranking"
	"github.com/wonny/vegaedge/internal/report"
	"github.com/wonny/vegaedge/internal/sanitizer"
	"github.com/wonny/vegaedge/internal/strategyconfig"
	"github.com/wonny/vegaedge/pkg/logger"
)

// Engine runs one risk-reversal analysis per request:
// spot → expiries → per expiry (chain → sanitize → generate) → pooled ranking → report
// ⭐ SSOT: run orchestration lives only here
type Engine struct {
	market    contracts.MarketData
	config    *strategyconfig.Config
	hash      string
	sanitizer *sanitizer.Sanitizer
	generator *combination.Generator
	ranker    *ranking.Ranker
	assembler *report.Assembler

	location *time.Location
	now      func() time.Time
	logger   *logger.Logger
}

// Option customizes an Engine
type Option func(*Engine)

// WithLocation sets the timezone that defines "today" for days-to-expiry
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Request is one analysis call from the boundary layer
type Request struct {
	Strategy contracts.Strategy
	Ticker   string
	MinDTE   int
	MaxDTE   int
	AsOf     time.Time // zero means today
}

// Validate normalizes the ticker and checks the DTE window
func (r *Request) Validate() error {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	if r.Ticker == "" {
		return fmt.Errorf("%w: ticker is required", contracts.ErrInvalidRequest)
	}
	if r.Strategy != contracts.Bullish && r.Strategy != contracts.Bearish {
		return fmt.Errorf("%w: unknown strategy %q", contracts.ErrInvalidRequest, r.Strategy)
	}
	if r.MinDTE < 0 {
		return fmt.Errorf("%w: min_dte must not be negative", contracts.ErrInvalidRequest)
	}
	if r.MaxDTE < r.MinDTE {
		return fmt.Errorf("%w: max_dte %d is below min_dte %d", contracts.ErrInvalidRequest, r.MaxDTE, r.MinDTE)
	}
	return nil
}

// NewEngine validates the parameter set and wires the pipeline stages
func NewEngine(market contracts.MarketData, cfg *strategyconfig.Config, log *logger.Logger, opts ...Option) (*Engine, error) {
	if market == nil {
		return nil, fmt.Errorf("market data source is required")
	}
	if cfg == nil {
		cfg = strategyconfig.Default()
	}
	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("strategy config: %w", err)
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	e := &Engine{
		market:    market,
		config:    cfg,
		hash:      hash,
		sanitizer: sanitizer.New(sanitizerConfig(cfg), log),
		generator: combination.NewGenerator(generatorConfig(cfg), log),
		ranker:    ranking.NewRanker(weightConfig(cfg), cfg.Ranking.MaxPerExpiry, log),
		assembler: report.NewAssembler(cfg.Report.TopN),
		location:  time.UTC,
		now:       time.Now,
		logger:    log.WithComponent("analysis"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ConfigHash identifies the parameter set echoed in every report
func (e *Engine) ConfigHash() string {
	return e.hash
}

// Analyze runs one analysis. Only ErrInvalidRequest is returned as an error;
// every other outcome, including internal faults, is a Report status.
func (e *Engine) Analyze(ctx context.Context, req Request) (rep *contracts.Report, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	startTime := e.now()

	defer func() {
		if p := recover(); p != nil {
			e.logger.WithFields(map[string]interface{}{
				"ticker":   req.Ticker,
				"strategy": req.Strategy,
				"panic":    fmt.Sprint(p),
			}).Error("Analysis panicked")
			rep = e.failure(req, contracts.StatusError, report.AnalysisErrorMessage(req.Ticker, p))
			err = nil
		}
	}()

	e.logger.WithFields(map[string]interface{}{
		"ticker":   req.Ticker,
		"strategy": req.Strategy,
		"min_dte":  req.MinDTE,
		"max_dte":  req.MaxDTE,
	}).Info("Starting analysis")

	rep, runErr := e.run(ctx, req)
	if runErr != nil {
		e.logger.WithError(runErr).WithField("ticker", req.Ticker).Error("Analysis failed")
		return e.failure(req, contracts.StatusError, report.AnalysisErrorMessage(req.Ticker, runErr)), nil
	}

	e.logger.WithFields(map[string]interface{}{
		"ticker":       req.Ticker,
		"strategy":     req.Strategy,
		"status":       rep.Status,
		"combinations": len(rep.Combinations),
		"duration":     e.now().Sub(startTime).Seconds(),
	}).Info("Analysis completed")

	return rep, nil
}

func (e *Engine) run(ctx context.Context, req Request) (*contracts.Report, error) {
	spot, err := e.market.Spot(ctx, req.Ticker)
	if err != nil || spot <= 0 || math.IsNaN(spot) || math.IsInf(spot, 0) {
		e.logger.WithFields(map[string]interface{}{
			"ticker": req.Ticker,
			"spot":   spot,
			"error":  fmt.Sprint(err),
		}).Warn("Spot price unavailable")
		return e.failure(req, contracts.StatusNoData, report.NoPriceMessage(req.Ticker)), nil
	}

	listed, err := e.market.Expiries(ctx, req.Ticker)
	if err != nil {
		e.logger.WithError(err).WithField("ticker", req.Ticker).Warn("Expiry list unavailable")
		if errors.Is(err, contracts.ErrNoData) {
			return e.failure(req, contracts.StatusNoData, report.NoOptionsMessage(req.Ticker)), nil
		}
		return e.failure(req, contracts.StatusNoData, report.ExpiriesFetchMessage(req.Ticker)), nil
	}
	if len(listed) == 0 {
		return e.failure(req, contracts.StatusNoData, report.NoOptionsMessage(req.Ticker)), nil
	}

	today := req.AsOf
	if today.IsZero() {
		today = e.now().In(e.location)
	}
	expiries := SelectExpiries(listed, today, req.MinDTE, req.MaxDTE, e.config.Expiries.MaxCount)
	if len(expiries) == 0 {
		return e.failure(req, contracts.StatusNoData, report.NoExpiriesInWindowMessage(req.Ticker)), nil
	}

	pooled := make([]contracts.Combination, 0)
	summary := make([]contracts.ExpirySummary, 0, len(expiries))
	for i, expiry := range expiries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		combos, s, err := e.analyzeExpiry(ctx, req, spot, expiry)
		if err != nil {
			return nil, err
		}
		pooled = append(pooled, combos...)
		summary = append(summary, s)

		e.logger.WithFields(map[string]interface{}{
			"ticker":     req.Ticker,
			"expiration": s.Expiration,
			"days":       s.DaysToExp,
			"status":     s.Status,
			"candidates": s.Candidates,
		}).Infof("Expiry analyzed [%d/%d]", i+1, len(expiries))
	}

	ranked, err := e.ranker.RankAndGroup(req.Strategy, pooled)
	if err != nil {
		return nil, fmt.Errorf("rank combinations: %w", err)
	}

	return e.assembler.Assemble(report.Input{
		Ticker:      req.Ticker,
		Strategy:    req.Strategy,
		Spot:        spot,
		MinDTE:      req.MinDTE,
		MaxDTE:      req.MaxDTE,
		Ranked:      ranked,
		Summary:     summary,
		GeneratedAt: e.now().In(e.location),
		ConfigHash:  e.hash,
	}), nil
}

// analyzeExpiry never fails on data problems; those become the expiry status.
// The returned error is reserved for faults that must abort the run.
func (e *Engine) analyzeExpiry(ctx context.Context, req Request, spot float64, expiry contracts.Expiry) ([]contracts.Combination, contracts.ExpirySummary, error) {
	s := contracts.ExpirySummary{
		Expiration: expiry.Label(),
		DaysToExp:  expiry.DaysToExp,
	}

	raw, err := e.market.Chain(ctx, req.Ticker, expiry.Date, spot)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, s, ctxErr
		}
		e.logger.WithError(err).WithFields(map[string]interface{}{
			"ticker":     req.Ticker,
			"expiration": s.Expiration,
		}).Warn("Chain fetch failed, skipping expiry")
		s.Status = contracts.ExpiryFetchFailed
		s.Error = err.Error()
		return nil, s, nil
	}

	chain, _, err := e.sanitizer.Sanitize(raw, spot)
	if err != nil {
		return nil, s, fmt.Errorf("sanitize %s: %w", s.Expiration, err)
	}
	if chain.IsEmpty() {
		s.Status = contracts.ExpiryEmptyAfterFilter
		s.Error = contracts.ErrEmptyAfterFilter.Error()
		return nil, s, nil
	}

	combos, stats, err := e.generator.Generate(req.Strategy, chain, spot, expiry)
	if err != nil {
		return nil, s, fmt.Errorf("generate %s: %w", s.Expiration, err)
	}

	switch {
	case stats.Empty():
		s.Status = contracts.ExpiryEmptyAfterFilter
		s.Error = contracts.ErrEmptyAfterFilter.Error()
	case len(combos) == 0:
		s.Status = contracts.ExpiryNoValidCombinations
		s.Error = contracts.ErrNoValidCombinations.Error()
	default:
		s.Status = contracts.ExpiryOK
		s.Candidates = len(combos)
	}
	return combos, s, nil
}

func (e *Engine) failure(req Request, status contracts.Status, message string) *contracts.Report {
	r := report.Failure(req.Ticker, req.Strategy, status, message, e.now().In(e.location))
	r.MinDTE = req.MinDTE
	r.MaxDTE = req.MaxDTE
	r.ConfigHash = e.hash
	return r
}

func sanitizerConfig(cfg *strategyconfig.Config) sanitizer.Config {
	return sanitizer.Config{
		MinImpliedVolatility: cfg.Sanitizer.MinImpliedVolatility,
		MaxSpreadRatio:       cfg.Sanitizer.MaxSpreadRatio,
	}
}

func generatorConfig(cfg *strategyconfig.Config) combination.Config {
	return combination.Config{
		RiskFreeRate:         cfg.Pricing.RiskFreeRate,
		DividendYield:        cfg.Pricing.DividendYield,
		MaxStrikeDistancePct: cfg.Generator.MaxStrikeDistancePct,
		MaxAbsNetCost:        cfg.Generator.MaxAbsNetCost,
		BullishMinNetDelta:   cfg.Generator.Bullish.MinNetDelta,
		BullishMinNetVega:    cfg.Generator.Bullish.MinNetVega,
		BearishMaxNetDelta:   cfg.Generator.Bearish.MaxNetDelta,
		BearishMaxNetVega:    cfg.Generator.Bearish.MaxNetVega,
	}
}

func weightConfig(cfg *strategyconfig.Config) ranking.WeightConfig {
	return ranking.WeightConfig{
		Delta:      cfg.Ranking.Weights.Delta,
		Efficiency: cfg.Ranking.Weights.Efficiency,
		Vega:       cfg.Ranking.Weights.Vega,
	}
}
