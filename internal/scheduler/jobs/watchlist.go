package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/peergap/internal/analysis"
	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/pkg/logger"
)

// Runner runs one analysis
type Runner interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.RunResult, error)
}

// WatchlistJob re-runs the analysis for every watchlist symbol
type WatchlistJob struct {
	runner    Runner
	watchlist []string
	schedule  string
	logger    *logger.Logger
}

// NewWatchlistJob creates a new watchlist refresh job
func NewWatchlistJob(runner Runner, watchlist []string, schedule string, log *logger.Logger) *WatchlistJob {
	return &WatchlistJob{
		runner:    runner,
		watchlist: watchlist,
		schedule:  schedule,
		logger:    log.WithField("job", "watchlist_refresh"),
	}
}

// Name returns the job name
func (j *WatchlistJob) Name() string {
	return "watchlist_refresh"
}

// Schedule returns the cron schedule
func (j *WatchlistJob) Schedule() string {
	return j.schedule
}

// Run analyzes each symbol in turn
// Individual failures are logged; the job fails only when every symbol fails.
func (j *WatchlistJob) Run(ctx context.Context) error {
	if len(j.watchlist) == 0 {
		j.logger.Debug("Watchlist empty, nothing to refresh")
		return nil
	}

	var failed []string
	succeeded := 0
	for _, raw := range j.watchlist {
		if err := ctx.Err(); err != nil {
			return err
		}

		symbol := contracts.NormalizeSymbol(raw)
		result, err := j.runner.Run(ctx, analysis.Request{Symbol: symbol})
		if err != nil {
			failed = append(failed, symbol)
			j.logger.WithError(err).WithField("symbol", symbol).Warn("Watchlist analysis failed")
			continue
		}
		succeeded++

		fields := map[string]interface{}{
			"symbol":    symbol,
			"persisted": result.Persisted,
		}
		if result.Report != nil {
			fields["report_id"] = result.Report.ReportID
			fields["peers"] = len(result.Report.Peers)
		}
		j.logger.WithFields(fields).Info("Watchlist analysis completed")
	}

	j.logger.WithFields(map[string]interface{}{
		"succeeded": succeeded,
		"failed":    len(failed),
	}).Info("Watchlist refresh finished")

	if succeeded == 0 {
		return fmt.Errorf("all %d watchlist analyses failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}
