package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wonny/vegaedge/internal/analysis"
	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/pkg/logger"
)

// Analyzer runs one analysis; *analysis.Engine satisfies it
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*contracts.Report, error)
}

// WatchJob re-runs one analysis on a schedule and reports each result
type WatchJob struct {
	analyzer Analyzer
	request  analysis.Request
	schedule string
	onReport func(*contracts.Report)
	logger   *logger.Logger

	mu   sync.RWMutex
	last *contracts.Report
}

// NewWatchJob creates a watch job; onReport may be nil
func NewWatchJob(analyzer Analyzer, req analysis.Request, schedule string, onReport func(*contracts.Report), log *logger.Logger) *WatchJob {
	return &WatchJob{
		analyzer: analyzer,
		request:  req,
		schedule: schedule,
		onReport: onReport,
		logger:   log.WithComponent("watch"),
	}
}

// Name implements scheduler.Job
func (j *WatchJob) Name() string {
	return fmt.Sprintf("watch:%s:%s", strings.ToUpper(j.request.Ticker), j.request.Strategy)
}

// Schedule implements scheduler.Job
func (j *WatchJob) Schedule() string {
	return j.schedule
}

// Run implements scheduler.Job. A report with no recommendation is a
// successful run; only rejected requests and error statuses fail it.
func (j *WatchJob) Run(ctx context.Context) error {
	rep, err := j.analyzer.Analyze(ctx, j.request)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", j.request.Ticker, err)
	}

	j.mu.Lock()
	j.last = rep
	j.mu.Unlock()

	fields := map[string]interface{}{
		"ticker":   rep.Ticker,
		"strategy": rep.Strategy,
		"status":   rep.Status,
	}
	if rep.OK() {
		fields["expiration"] = rep.Top.Expiration
		fields["long_strike"] = rep.Top.LongStrike
		fields["short_strike"] = rep.Top.ShortStrike
		fields["net_cost"] = rep.Top.NetCost
		fields["score"] = rep.Top.TotalScore
		j.logger.WithFields(fields).Info("Top pick")
	} else {
		fields["message"] = rep.Message
		j.logger.WithFields(fields).Warn("No recommendation")
	}

	if j.onReport != nil {
		j.onReport(rep)
	}

	if rep.Status == contracts.StatusError {
		return fmt.Errorf("%s", rep.Message)
	}
	return nil
}

// Last returns the most recent report, nil before the first run
func (j *WatchJob) Last() *contracts.Report {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
