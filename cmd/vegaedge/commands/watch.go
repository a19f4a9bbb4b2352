package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/internal/report"
	"github.com/wonny/vegaedge/internal/scheduler"
	"github.com/wonny/vegaedge/internal/scheduler/jobs"
	"github.com/wonny/vegaedge/pkg/logger"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch TICKER",
	Short: "Re-run one analysis on a cron schedule",
	Long: `Starts a scheduler that re-analyzes one underlying periodically.

Each run logs the top pick, or a warning when nothing qualifies.
The first run happens immediately. The schedule uses standard
5-field cron syntax evaluated in TIMEZONE.

The watcher can be stopped with Ctrl+C.

Example:
  go run ./cmd/vegaedge watch AAPL
  go run ./cmd/vegaedge watch SPY --strategy bearish --schedule "0 10,15 * * 1-5" --print`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchSchedule string
	watchStrategy string
	watchMinDTE   int
	watchMaxDTE   int
	watchPrint    bool
	watchRetries  int
)

func init() {
	rootCmd.AddCommand(watchCmd)

	// Flags
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "*/15 9-16 * * 1-5", "cron schedule")
	watchCmd.Flags().StringVarP(&watchStrategy, "strategy", "s", string(contracts.Bullish), "bullish or bearish")
	watchCmd.Flags().IntVar(&watchMinDTE, "min-dte", -1, "minimum days to expiration (default from strategy config)")
	watchCmd.Flags().IntVar(&watchMaxDTE, "max-dte", -1, "maximum days to expiration (default from strategy config)")
	watchCmd.Flags().BoolVar(&watchPrint, "print", false, "print the text report after every run")
	watchCmd.Flags().IntVar(&watchRetries, "retries", 0, "retries per failed run")
}

func runWatch(cmd *cobra.Command, args []string) error {
	// 1. Validate schedule before connecting anything
	if err := scheduler.ValidateSchedule(watchSchedule); err != nil {
		return err
	}

	// 2. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	log := logger.New(cfg)

	// 4. Wire engine
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	req, err := buildRequest(a, args[0], requestFlags{
		strategy: watchStrategy,
		minDTE:   watchMinDTE,
		maxDTE:   watchMaxDTE,
	})
	if err != nil {
		return err
	}

	// 5. Register job
	var onReport func(*contracts.Report)
	if watchPrint {
		out := cmd.OutOrStdout()
		onReport = func(rep *contracts.Report) {
			fmt.Fprintln(out, report.RenderText(rep))
		}
	}
	job := jobs.NewWatchJob(a.engine, req, watchSchedule, onReport, log)

	sched := scheduler.New(log,
		scheduler.WithLocation(cfg.Location()),
		scheduler.WithRetry(watchRetries, 30*time.Second),
	)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("register watch job: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. First run immediately
	if _, err := sched.RunNow(ctx, job.Name()); err != nil {
		return err
	}

	// 7. Start scheduler
	sched.Start()
	if next, err := sched.NextRun(job.Name()); err == nil {
		log.WithFields(map[string]interface{}{
			"job":      job.Name(),
			"schedule": watchSchedule,
			"next_run": next.Format(time.RFC3339),
		}).Info("Watching")
	}

	<-ctx.Done()
	sched.Stop()

	if history, err := sched.GetJobHistory(job.Name()); err == nil {
		log.WithFields(map[string]interface{}{
			"runs":         len(history.Results),
			"success_rate": history.GetSuccessRate(),
		}).Info("Watch finished")
	}
	return nil
}
