package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vegaedge/internal/contracts"
)

const testFixture = "../../../internal/provider/testdata/snapshot.yaml"

// execute runs the root command with fresh flag state
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENV", "development")
	t.Setenv("DATA_PROVIDER", "yahoo")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("STRATEGY_CONFIG", "")

	strategyFile, providerName, fixturePath, verbose = "", "", "", false
	analyzeStrategy, analyzeMinDTE, analyzeMaxDTE, analyzeFormat, analyzeAsOf = "bullish", -1, -1, "text", ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestAnalyzeFixtureJSON(t *testing.T) {
	out, err := execute(t, "analyze", "aapl", "--fixture", testFixture, "--format", "json")
	require.NoError(t, err)

	var rep contracts.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "AAPL", rep.Ticker)
	assert.Equal(t, contracts.Bullish, rep.Strategy)
	assert.Equal(t, contracts.StatusOK, rep.Status)
	assert.Equal(t, 30, rep.MinDTE)
	assert.Equal(t, 90, rep.MaxDTE)
	require.NotNil(t, rep.Top)
	assert.Equal(t, "2025-02-21", rep.Top.Expiration)
	assert.NotEmpty(t, rep.ConfigHash)
}

func TestAnalyzeFixtureText(t *testing.T) {
	out, err := execute(t, "analyze", "NOOPT", "--fixture", testFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "No options data available for NOOPT.")
}

func TestAnalyzeRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad strategy", []string{"analyze", "AAPL", "--fixture", testFixture, "--strategy", "sideways"}},
		{"bad window", []string{"analyze", "AAPL", "--fixture", testFixture, "--min-dte", "60", "--max-dte", "30"}},
		{"bad format", []string{"analyze", "AAPL", "--fixture", testFixture, "--format", "xml"}},
		{"bad as-of", []string{"analyze", "AAPL", "--fixture", testFixture, "--as-of", "22/01/2025"}},
		{"missing fixture", []string{"analyze", "AAPL", "--provider", "fixture"}},
		{"unknown provider", []string{"analyze", "AAPL", "--provider", "bloomberg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestCheckFixture(t *testing.T) {
	out, err := execute(t, "check", "--fixture", testFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Fixture loaded (as of 2025-01-22)")
	assert.Contains(t, out, "Redis disabled")
	assert.Contains(t, out, "All checks passed")
}
