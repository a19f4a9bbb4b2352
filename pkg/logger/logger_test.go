package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entries decodes one JSON object per line
func entries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Debug("chain fetched")
	log.Info("expiry analyzed")
	log.Warn("spot price unavailable")
	log.Error("analysis failed")

	got := entries(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "warn", got[0]["level"])
	assert.Equal(t, "spot price unavailable", got[0]["message"])
	assert.Equal(t, "error", got[1]["level"])
	assert.Contains(t, got[1], "time")
}

func TestLevelIsPerLogger(t *testing.T) {
	var quiet, loud bytes.Buffer
	NewWithWriter(&quiet, "error").Info("hidden")
	NewWithWriter(&loud, "debug").Debug("shown")

	assert.Empty(t, quiet.String())
	assert.Contains(t, loud.String(), "shown")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.WithFields(map[string]interface{}{
		"ticker":     "AAPL",
		"candidates": 4,
	}).WithField("expiration", "2025-02-21").Infof("Expiry analyzed [%d/%d]", 1, 3)

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0]["ticker"])
	assert.Equal(t, float64(4), got[0]["candidates"])
	assert.Equal(t, "2025-02-21", got[0]["expiration"])
	assert.Equal(t, "Expiry analyzed [1/3]", got[0]["message"])
}

func TestWithComponentAndError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info").WithComponent("yahoo")

	log.WithError(errors.New("unexpected status 429")).Warn("HTTP request failed")

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "yahoo", got[0][ComponentKey])
	assert.Equal(t, "unexpected status 429", got[0]["error"])
}

func TestChildLoggersDoNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, "info")

	parent.WithField("ticker", "TSLA").Info("child")
	parent.Info("parent")

	got := entries(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "TSLA", got[0]["ticker"])
	assert.NotContains(t, got[1], "ticker")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	build(&buf, "console", "info").Info("Starting analysis")

	out := buf.String()
	assert.Contains(t, out, "Starting analysis")
	assert.False(t, json.Valid([]byte(strings.TrimSpace(out))), "console output is not JSON")
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithComponent("analysis").WithFields(map[string]interface{}{"k": 1}).Error("ignored")
	})
}
