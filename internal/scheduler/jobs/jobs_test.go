package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/peergap/internal/analysis"
	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/pkg/logger"
)

type fakeRunner struct {
	fail map[string]bool
	seen []string
}

func (r *fakeRunner) Run(ctx context.Context, req analysis.Request) (*analysis.RunResult, error) {
	r.seen = append(r.seen, req.Symbol)
	if r.fail[req.Symbol] {
		return nil, errors.New("provider down")
	}
	return &analysis.RunResult{
		RunID:     "run-" + req.Symbol,
		Persisted: true,
		Report:    &contracts.AnalysisReport{ReportID: "rep-" + req.Symbol},
	}, nil
}

func TestWatchlistJob(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"CINF": true}}
	job := NewWatchlistJob(runner, []string{"wrb", " cinf ", "AFG"}, "0 0 6 * * 1-5", logger.NewNop())

	assert.Equal(t, "watchlist_refresh", job.Name())
	assert.Equal(t, "0 0 6 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"WRB", "CINF", "AFG"}, runner.seen)
}

func TestWatchlistJob_AllFail(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"WRB": true, "AFG": true}}
	job := NewWatchlistJob(runner, []string{"WRB", "AFG"}, "@daily", logger.NewNop())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WRB, AFG")
}

func TestWatchlistJob_EmptyAndCancelled(t *testing.T) {
	runner := &fakeRunner{}

	require.NoError(t, NewWatchlistJob(runner, nil, "@daily", logger.NewNop()).Run(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewWatchlistJob(runner, []string{"WRB"}, "@daily", logger.NewNop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.seen)
}

type fakeStore struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (s *fakeStore) SaveReport(ctx context.Context, r *contracts.AnalysisReport) error { return nil }
func (s *fakeStore) GetReport(ctx context.Context, id string) (*contracts.AnalysisReport, error) {
	return nil, contracts.ErrReportNotFound
}
func (s *fakeStore) ListReports(ctx context.Context, symbol string, limit int) ([]contracts.ReportSummary, error) {
	return nil, nil
}
func (s *fakeStore) DeleteReportsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestRetentionJob(t *testing.T) {
	store := &fakeStore{deleted: 4}
	job := NewRetentionJob(store, 90, "0 30 3 * * *", logger.NewNop())
	job.now = func() time.Time { return time.Date(2025, 6, 30, 3, 30, 0, 0, time.UTC) }

	assert.Equal(t, "report_retention", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, time.Date(2025, 4, 1, 3, 30, 0, 0, time.UTC), store.cutoff)
}

func TestRetentionJob_Errors(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}

	err := NewRetentionJob(store, 30, "@daily", logger.NewNop()).Run(context.Background())
	assert.ErrorContains(t, err, "report retention: db down")

	err = NewRetentionJob(store, 0, "@daily", logger.NewNop()).Run(context.Background())
	assert.ErrorContains(t, err, "retention days")
}
