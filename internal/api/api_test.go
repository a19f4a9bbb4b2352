package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vegaedge/internal/analysis"
	"github.com/wonny/vegaedge/internal/api/handlers"
	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/internal/report"
	"github.com/wonny/vegaedge/pkg/config"
	"github.com/wonny/vegaedge/pkg/logger"
)

type fakeAnalyzer struct {
	got    analysis.Request
	report *contracts.Report
	err    error
	panics bool
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req analysis.Request) (*contracts.Report, error) {
	f.got = req
	if f.panics {
		panic("boom")
	}
	return f.report, f.err
}

func okReport(strategy contracts.Strategy) *contracts.Report {
	combo := contracts.RankedCombination{
		Combination: contracts.Combination{
			Strategy:    strategy,
			Expiration:  "2025-02-21",
			DaysToExp:   30,
			LongStrike:  110,
			ShortStrike: 90,
			NetCost:     0.7,
			NetVega:     0.008,
			Breakeven:   110.7,
			Efficiency:  -0.035,
			MaxLoss:     90.7,
		},
		Rank:       1,
		TotalScore: 0.5,
	}
	return report.NewAssembler(5).Assemble(report.Input{
		Ticker:      "AAPL",
		Strategy:    strategy,
		Spot:        100,
		MinDTE:      30,
		MaxDTE:      90,
		Ranked:      []contracts.RankedCombination{combo},
		Summary:     []contracts.ExpirySummary{{Expiration: "2025-02-21", DaysToExp: 30, Candidates: 1, Status: contracts.ExpiryOK}},
		GeneratedAt: time.Date(2025, 1, 22, 10, 0, 0, 0, time.UTC),
	})
}

func newTestRouter(analyzer handlers.Analyzer, origins ...string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := handlers.NewAnalysisHandler(analyzer, 30, 90, logger.Nop())
	return NewRouter(h, origins, logger.Nop())
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type analyzeBody struct {
	Result struct {
		Summary           string            `json:"summary"`
		Risk              string            `json:"risk"`
		PricingComparison string            `json:"pricing_comparison"`
		Top5              [][]string        `json:"top_5"`
		Report            string            `json:"report"`
		Analysis          *contracts.Report `json:"analysis"`
	} `json:"result"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) analyzeBody {
	t.Helper()
	var body analyzeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(&fakeAnalyzer{}), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","message":"VegaEdge API is running"}`, rec.Body.String())
}

func TestRoot(t *testing.T) {
	rec := do(t, newTestRouter(&fakeAnalyzer{}), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "VegaEdge")
}

func TestAnalyzeBullish(t *testing.T) {
	analyzer := &fakeAnalyzer{report: okReport(contracts.Bullish)}
	router := newTestRouter(analyzer)

	rec := do(t, router, http.MethodPost, "/api/analyze/bullish", `{"ticker":" aapl "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, analysis.Request{Strategy: contracts.Bullish, Ticker: "AAPL", MinDTE: 30, MaxDTE: 90}, analyzer.got)

	body := decode(t, rec)
	assert.True(t, strings.HasPrefix(body.Result.Summary, "Expiration: 2025-02-21 (30 days)"))
	assert.Contains(t, body.Result.Risk, "Short OTM Put")
	assert.True(t, strings.HasPrefix(body.Result.PricingComparison, "Current Method (Worst-case)"))
	require.Len(t, body.Result.Top5, 1)
	assert.Equal(t, []string{"1", "2025-02-21", "$110.00/90.00", "$0.70 DB", "0.008", "-3.5%", "0.500"}, body.Result.Top5[0])
	assert.Contains(t, body.Result.Report, "AAPL Bullish Risk Reversal Report")
	require.NotNil(t, body.Result.Analysis)
	assert.Equal(t, contracts.StatusOK, body.Result.Analysis.Status)
	assert.Equal(t, 110.0, body.Result.Analysis.Top.LongStrike)
}

func TestAnalyzeBearishWithWindow(t *testing.T) {
	analyzer := &fakeAnalyzer{report: okReport(contracts.Bearish)}

	rec := do(t, newTestRouter(analyzer), http.MethodPost, "/api/analyze/bearish", `{"ticker":"spy","min_dte":7,"max_dte":45}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, analysis.Request{Strategy: contracts.Bearish, Ticker: "SPY", MinDTE: 7, MaxDTE: 45}, analyzer.got)
}

func TestAnalyzeBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing ticker", `{"min_dte":30}`, "Ticker symbol is required"},
		{"blank ticker", `{"ticker":"   "}`, "Ticker symbol is required"},
		{"empty body", ``, "Ticker symbol is required"},
		{"malformed json", `{"ticker":`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{report: okReport(contracts.Bullish)}

			rec := do(t, newTestRouter(analyzer), http.MethodPost, "/api/analyze/bullish", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.message+`"}`, rec.Body.String())
			assert.Empty(t, analyzer.got.Ticker)
		})
	}
}

func TestAnalyzeInvalidWindow(t *testing.T) {
	analyzer := &fakeAnalyzer{err: contracts.ErrInvalidRequest}

	rec := do(t, newTestRouter(analyzer), http.MethodPost, "/api/analyze/bullish", `{"ticker":"AAPL","min_dte":90,"max_dte":30}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request")
}

func TestAnalyzeNoDataReport(t *testing.T) {
	msg := report.NoPriceMessage("XYZ")
	analyzer := &fakeAnalyzer{
		report: report.Failure("XYZ", contracts.Bullish, contracts.StatusNoData, msg, time.Now()),
	}

	rec := do(t, newTestRouter(analyzer), http.MethodPost, "/api/analyze/bullish", `{"ticker":"xyz"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, msg, body.Result.Summary)
	assert.Empty(t, body.Result.Risk)
	assert.Empty(t, body.Result.Top5)
	assert.Equal(t, contracts.StatusNoData, body.Result.Analysis.Status)
}

func TestAnalyzePanic(t *testing.T) {
	rec := do(t, newTestRouter(&fakeAnalyzer{panics: true}), http.MethodPost, "/api/analyze/bearish", `{"ticker":"AAPL"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Analysis Error: boom", body.Result.Summary)
	assert.Nil(t, body.Result.Analysis)
}

func TestPreflight(t *testing.T) {
	rec := do(t, newTestRouter(&fakeAnalyzer{}), http.MethodOptions, "/api/analyze/bullish", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSAllowList(t *testing.T) {
	router := newTestRouter(&fakeAnalyzer{}, "https://app.example.com")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/analyze/bullish"},
		{http.MethodGet, "/api/analyze/bearish"},
		{http.MethodPut, "/api/analyze/bullish"},
		{http.MethodPost, "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, newTestRouter(&fakeAnalyzer{}), tt.method, tt.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}

	rec := do(t, newTestRouter(&fakeAnalyzer{}), http.MethodPost, "/api/analyze/sideways", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerAddr(t *testing.T) {
	s := New(&config.Config{Port: "9001"}, logger.Nop(), http.NotFoundHandler())

	assert.Equal(t, ":9001", s.Addr())
}
