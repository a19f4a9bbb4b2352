package handlers

import "net/http"

// Health reports liveness
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "VegaEdge API is running",
	})
}

// Root describes the service
// GET /
func Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "VegaEdge Risk Reversal API",
		"endpoints": []string{
			"POST /api/analyze/bullish",
			"POST /api/analyze/bearish",
			"GET /health",
		},
	})
}
