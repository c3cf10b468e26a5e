package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/pkg/logger"
)

// RetentionJob deletes reports older than the retention window
type RetentionJob struct {
	store    contracts.ReportStore
	days     int
	schedule string
	now      func() time.Time
	logger   *logger.Logger
}

// NewRetentionJob creates a new report retention job
func NewRetentionJob(store contracts.ReportStore, days int, schedule string, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		store:    store,
		days:     days,
		schedule: schedule,
		now:      time.Now,
		logger:   log.WithField("job", "report_retention"),
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "report_retention"
}

// Schedule returns the cron schedule
func (j *RetentionJob) Schedule() string {
	return j.schedule
}

// Cutoff returns the creation time before which reports are deleted
func (j *RetentionJob) Cutoff() time.Time {
	return j.now().UTC().AddDate(0, 0, -j.days)
}

// Run executes the cleanup
func (j *RetentionJob) Run(ctx context.Context) error {
	if j.days <= 0 {
		return fmt.Errorf("retention days must be > 0, got %d", j.days)
	}

	cutoff := j.Cutoff()
	deleted, err := j.store.DeleteReportsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("report retention: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	}).Info("Report retention completed")

	return nil
}
