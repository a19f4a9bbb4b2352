package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/vegaedge/internal/analysis"
	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/internal/report"
	"github.com/wonny/vegaedge/pkg/logger"
)

// Analyzer runs one analysis; *analysis.Engine satisfies it
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*contracts.Report, error)
}

// AnalysisHandler serves the risk-reversal endpoints
// ⭐ SSOT: analysis HTTP handlers live only here
type AnalysisHandler struct {
	analyzer      Analyzer
	defaultMinDTE int
	defaultMaxDTE int
	logger        *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer Analyzer, defaultMinDTE, defaultMaxDTE int, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:      analyzer,
		defaultMinDTE: defaultMinDTE,
		defaultMaxDTE: defaultMaxDTE,
		logger:        log.WithComponent("api"),
	}
}

// AnalyzeRequest is the request body of both analysis endpoints
type AnalyzeRequest struct {
	Ticker string `json:"ticker"`
	MinDTE *int   `json:"min_dte"`
	MaxDTE *int   `json:"max_dte"`
}

// AnalyzeResult keeps the legacy section fields and adds the structured report
type AnalyzeResult struct {
	report.Sections
	Analysis *contracts.Report `json:"analysis,omitempty"`
}

// AnalyzeResponse wraps every analysis answer, including failures
type AnalyzeResponse struct {
	Result AnalyzeResult `json:"result"`
}

// Bullish runs a bullish analysis
// POST /api/analyze/bullish
func (h *AnalysisHandler) Bullish(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, contracts.Bullish)
}

// Bearish runs a bearish analysis
// POST /api/analyze/bearish
func (h *AnalysisHandler) Bearish(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, contracts.Bearish)
}

func (h *AnalysisHandler) analyze(w http.ResponseWriter, r *http.Request, strategy contracts.Strategy) {
	var body AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(body.Ticker))
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "Ticker symbol is required")
		return
	}

	req := analysis.Request{
		Strategy: strategy,
		Ticker:   ticker,
		MinDTE:   h.defaultMinDTE,
		MaxDTE:   h.defaultMaxDTE,
	}
	if body.MinDTE != nil {
		req.MinDTE = *body.MinDTE
	}
	if body.MaxDTE != nil {
		req.MaxDTE = *body.MaxDTE
	}

	defer func() {
		if p := recover(); p != nil {
			h.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"panic":  fmt.Sprint(p),
			}).Error("Analysis handler panicked")
			respondJSON(w, http.StatusInternalServerError, AnalyzeResponse{
				Result: AnalyzeResult{Sections: errorSections(fmt.Sprintf("Analysis Error: %v", p))},
			})
		}
	}()

	rep, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		if errors.Is(err, contracts.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).WithField("ticker", ticker).Error("Analysis failed")
		respondJSON(w, http.StatusInternalServerError, AnalyzeResponse{
			Result: AnalyzeResult{Sections: errorSections(fmt.Sprintf("Analysis Error: %v", err))},
		})
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"strategy": strategy,
		"status":   rep.Status,
	}).Info("Analysis served")

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		Result: AnalyzeResult{
			Sections: report.Split(rep),
			Analysis: rep,
		},
	})
}

func errorSections(message string) report.Sections {
	return report.Sections{
		Summary: message,
		Top5:    [][]string{},
		Report:  message,
	}
}
