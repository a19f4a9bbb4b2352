package strategyconfig

import (
	"fmt"
	"math"
)

// ValidationError is a fatal config problem
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is a non-fatal deviation from recommended values
type Warning struct {
	Code    string
	Message string
}

const weightEpsilon = 1e-9

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Pricing ===
	if !finite(cfg.Pricing.RiskFreeRate) || !finite(cfg.Pricing.DividendYield) {
		return ValidationError{"pricing", "rates must be finite"}
	}
	if cfg.Pricing.DividendYield < 0 {
		return ValidationError{"pricing.dividend_yield", "must be >= 0"}
	}

	// === Expiries ===
	e := cfg.Expiries
	if e.MaxCount < 1 {
		return ValidationError{"expiries.max_count", "must be >= 1"}
	}
	if e.DefaultMinDTE < 0 || e.DefaultMinDTE > e.DefaultMaxDTE {
		return ValidationError{"expiries", "must satisfy 0 <= default_min_dte <= default_max_dte"}
	}

	// === Sanitizer ===
	if cfg.Sanitizer.MinImpliedVolatility < 0 {
		return ValidationError{"sanitizer.min_implied_volatility", "must be >= 0"}
	}
	if cfg.Sanitizer.MaxSpreadRatio <= 0 || cfg.Sanitizer.MaxSpreadRatio > 1 {
		return ValidationError{"sanitizer.max_spread_ratio", "must be in (0, 1]"}
	}

	// === Generator ===
	g := cfg.Generator
	if g.MaxStrikeDistancePct <= 0 {
		return ValidationError{"generator.max_strike_distance_pct", "must be > 0"}
	}
	if g.MaxAbsNetCost <= 0 {
		return ValidationError{"generator.max_abs_net_cost", "must be > 0"}
	}
	if g.Bullish.MinNetDelta < 0 {
		return ValidationError{"generator.bullish.min_net_delta", "must be >= 0"}
	}
	if g.Bearish.MaxNetDelta > 0 {
		return ValidationError{"generator.bearish.max_net_delta", "must be <= 0"}
	}

	// === Ranking ===
	w := cfg.Ranking.Weights
	for field, v := range map[string]float64{"delta": w.Delta, "efficiency": w.Efficiency, "vega": w.Vega} {
		if v < 0 || !finite(v) {
			return ValidationError{"ranking.weights." + field, "must be a finite value >= 0"}
		}
	}
	if math.Abs(w.Sum()-1.0) > weightEpsilon {
		return ValidationError{"ranking.weights", fmt.Sprintf("must sum to 1.0, got %.6f", w.Sum())}
	}
	if cfg.Ranking.MaxPerExpiry < 1 {
		return ValidationError{"ranking.max_per_expiry", "must be >= 1"}
	}

	// === Report ===
	if cfg.Report.TopN < 1 {
		return ValidationError{"report.top_n", "must be >= 1"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Sanitizer.MaxSpreadRatio > 0.6 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_SPREADS",
			Message: "max_spread_ratio > 0.6: stale quotes will distort greeks",
		})
	}

	if cfg.Generator.MaxStrikeDistancePct > 0.75 {
		warnings = append(warnings, Warning{
			Code:    "DEEP_OTM",
			Message: "max_strike_distance_pct > 0.75: deep OTM strikes are thinly traded",
		})
	}

	if cfg.Expiries.MaxCount > 3 {
		warnings = append(warnings, Warning{
			Code:    "MANY_EXPIRIES",
			Message: "max_count > 3: more chain fetches per run against a rate-limited source",
		})
	}

	return warnings
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
