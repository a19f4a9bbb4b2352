package strategyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 0.045, cfg.Pricing.RiskFreeRate)
	assert.Equal(t, 3, cfg.Expiries.MaxCount)
	assert.Equal(t, 0.01, cfg.Sanitizer.MinImpliedVolatility)
	assert.Equal(t, 0.6, cfg.Sanitizer.MaxSpreadRatio)
	assert.Equal(t, 0.75, cfg.Generator.MaxStrikeDistancePct)
	assert.Equal(t, 20.0, cfg.Generator.MaxAbsNetCost)
	assert.Equal(t, 3, cfg.Ranking.MaxPerExpiry)
	assert.InDelta(t, 1.0, cfg.Ranking.Weights.Sum(), 1e-12)
	assert.Empty(t, Warn(cfg))
}

func TestLoadRepositoryConfig(t *testing.T) {
	path := "../../config/strategy/risk_reversal.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	// The shipped file must match the built-in defaults
	fileHash, err := Hash(cfg)
	require.NoError(t, err)
	defaultHash, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, defaultHash, fileHash)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
pricing:
  risk_free_rate: 0.05
ranking:
  weights:
    delta: 0.5
    efficiency: 0.3
    vega: 0.2
`))
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Pricing.RiskFreeRate)
	assert.Equal(t, 0.5, cfg.Ranking.Weights.Delta)
	// untouched sections keep defaults
	assert.Equal(t, 0.6, cfg.Sanitizer.MaxSpreadRatio)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("sanitizer:\n  max_sprad_ratio: 0.5\n"))
	require.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ranking:\n  max_per_expiry: 0\n"), 0o600))
	_, err = LoadOrDefault(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"weights do not sum", func(c *Config) { c.Ranking.Weights.Vega = 0.3 }, "ranking.weights"},
		{"negative weight", func(c *Config) { c.Ranking.Weights.Vega = -0.2; c.Ranking.Weights.Delta = 0.8 }, "ranking.weights.vega"},
		{"zero per expiry", func(c *Config) { c.Ranking.MaxPerExpiry = 0 }, "ranking.max_per_expiry"},
		{"spread ratio", func(c *Config) { c.Sanitizer.MaxSpreadRatio = 0 }, "sanitizer.max_spread_ratio"},
		{"dte window", func(c *Config) { c.Expiries.DefaultMinDTE = 100 }, "expiries"},
		{"bearish delta sign", func(c *Config) { c.Generator.Bearish.MaxNetDelta = 0.1 }, "generator.bearish.max_net_delta"},
		{"cost cap", func(c *Config) { c.Generator.MaxAbsNetCost = 0 }, "generator.max_abs_net_cost"},
		{"top n", func(c *Config) { c.Report.TopN = 0 }, "report.top_n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var ve ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestHashDeterministic(t *testing.T) {
	h1, err := Hash(Default())
	require.NoError(t, err)
	h2, _ := Hash(Default())
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	changed := Default()
	changed.Pricing.RiskFreeRate = 0.05
	h3, _ := Hash(changed)
	assert.NotEqual(t, h1, h3)
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Sanitizer.MaxSpreadRatio = 0.8
	cfg.Expiries.MaxCount = 6

	warnings := Warn(cfg)
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"WIDE_SPREADS", "MANY_EXPIRIES"}, codes)
}
