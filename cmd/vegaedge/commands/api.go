package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vegaedge/internal/api"
	"github.com/wonny/vegaedge/internal/api/handlers"
	"github.com/wonny/vegaedge/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /                     - Service banner
  GET  /health               - Health check
  POST /api/analyze/bullish  - Bullish risk reversal analysis
  POST /api/analyze/bearish  - Bearish risk reversal analysis

Example:
  go run ./cmd/vegaedge api
  go run ./cmd/vegaedge api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== VegaEdge API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":     cfg.Port,
		"env":      cfg.Env,
		"provider": cfg.DataProvider,
	}).Info("Initializing API server")

	// 3. Wire market data and engine
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Create handler
	analysisHandler := handlers.NewAnalysisHandler(
		a.engine,
		a.strategy.Expiries.DefaultMinDTE,
		a.strategy.Expiries.DefaultMaxDTE,
		log,
	)

	// 5. Create router
	router := api.NewRouter(analysisHandler, cfg.CORSAllowedOrigins, log)

	// 6. Create server
	server := api.New(cfg, log, router)

	// 7. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/analyze/bullish")
	fmt.Println("  POST /api/analyze/bearish")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
