package strategyconfig

// Config is the complete set of risk-reversal screening parameters.
// Default() reproduces the production thresholds; a YAML file may override them.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Pricing   Pricing   `yaml:"pricing" json:"pricing"`
	Expiries  Expiries  `yaml:"expiries" json:"expiries"`
	Sanitizer Sanitizer `yaml:"sanitizer" json:"sanitizer"`
	Generator Generator `yaml:"generator" json:"generator"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
	Report    Report    `yaml:"report" json:"report"`
}

// Meta identifies the parameter set
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Pricing holds the Black-Scholes-Merton market inputs
type Pricing struct {
	RiskFreeRate  float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
	DividendYield float64 `yaml:"dividend_yield" json:"dividend_yield"`
}

// Expiries bounds which expirations are analyzed
type Expiries struct {
	MaxCount      int `yaml:"max_count" json:"max_count"` // first N in window
	DefaultMinDTE int `yaml:"default_min_dte" json:"default_min_dte"`
	DefaultMaxDTE int `yaml:"default_max_dte" json:"default_max_dte"`
}

// Sanitizer holds the quote quality gate
type Sanitizer struct {
	MinImpliedVolatility float64 `yaml:"min_implied_volatility" json:"min_implied_volatility"` // strict >
	MaxSpreadRatio       float64 `yaml:"max_spread_ratio" json:"max_spread_ratio"`             // (ask-bid)/ask, strict <
}

// Generator holds pairing and validity-gate thresholds
type Generator struct {
	MaxStrikeDistancePct float64     `yaml:"max_strike_distance_pct" json:"max_strike_distance_pct"` // fraction of spot
	MaxAbsNetCost        float64     `yaml:"max_abs_net_cost" json:"max_abs_net_cost"`
	Bullish              BullishGate `yaml:"bullish" json:"bullish"`
	Bearish              BearishGate `yaml:"bearish" json:"bearish"`
}

// BullishGate rejects when net_delta <= MinNetDelta or net_vega <= MinNetVega
type BullishGate struct {
	MinNetDelta float64 `yaml:"min_net_delta" json:"min_net_delta"`
	MinNetVega  float64 `yaml:"min_net_vega" json:"min_net_vega"`
}

// BearishGate rejects when net_delta >= MaxNetDelta or net_vega > MaxNetVega
type BearishGate struct {
	MaxNetDelta float64 `yaml:"max_net_delta" json:"max_net_delta"`
	MaxNetVega  float64 `yaml:"max_net_vega" json:"max_net_vega"`
}

// Ranking holds composite score weights and the per-expiry cap
type Ranking struct {
	Weights      Weights `yaml:"weights" json:"weights"`
	MaxPerExpiry int     `yaml:"max_per_expiry" json:"max_per_expiry"`
}

// Weights must sum to 1.0
type Weights struct {
	Delta      float64 `yaml:"delta" json:"delta"`
	Efficiency float64 `yaml:"efficiency" json:"efficiency"`
	Vega       float64 `yaml:"vega" json:"vega"`
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.Delta + w.Efficiency + w.Vega
}

// Report holds presentation limits
type Report struct {
	TopN int `yaml:"top_n" json:"top_n"`
}

// Default returns the production parameter set
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "risk_reversal",
			Version:    "1.0.0",
		},
		Pricing: Pricing{
			RiskFreeRate:  0.045,
			DividendYield: 0,
		},
		Expiries: Expiries{
			MaxCount:      3,
			DefaultMinDTE: 30,
			DefaultMaxDTE: 90,
		},
		Sanitizer: Sanitizer{
			MinImpliedVolatility: 0.01,
			MaxSpreadRatio:       0.6,
		},
		Generator: Generator{
			MaxStrikeDistancePct: 0.75,
			MaxAbsNetCost:        20,
			Bullish: BullishGate{
				MinNetDelta: 0.1,
				MinNetVega:  0,
			},
			Bearish: BearishGate{
				MaxNetDelta: -0.1,
				MaxNetVega:  0.01,
			},
		},
		Ranking: Ranking{
			Weights: Weights{
				Delta:      0.40,
				Efficiency: 0.40,
				Vega:       0.20,
			},
			MaxPerExpiry: 3,
		},
		Report: Report{
			TopN: 5,
		},
	}
}
