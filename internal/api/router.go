package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/vegaedge/internal/api/handlers"
	"github.com/wonny/vegaedge/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routes are registered only here
func NewRouter(analysisHandler *handlers.AnalysisHandler, allowedOrigins []string, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", handlers.Root).Methods("GET")
	r.HandleFunc("/health", handlers.Health).Methods("GET")

	// Analysis routes sit on the root router so a wrong method is a 405, not a 404
	r.HandleFunc("/api/analyze/bullish", analysisHandler.Bullish).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/analyze/bearish", analysisHandler.Bearish).Methods("POST", "OPTIONS")

	// Apply middleware
	r.Use(recoveryMiddleware(log))
	r.Use(corsMiddleware(allowedOrigins))
	r.Use(loggingMiddleware(log))

	return r
}

// corsMiddleware answers preflight requests and stamps CORS headers.
// "*" in allowedOrigins admits any origin.
func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	allowAll := false
	allowed := make(map[string]bool)
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
