package comparative

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/internal/metrics"
	"github.com/wonny/peergap/pkg/logger"
)

// Result is the outcome of one comparative batch
type Result struct {
	Records  []contracts.EntityMetricRecord `json:"records"` // target first, then peers in request order
	Rankings []contracts.RankedMetric       `json:"rankings"`
	Overall  []contracts.OverallRank        `json:"overall"`
	Failures []string                       `json:"failures"`
}

// Record returns the record for a symbol
func (r *Result) Record(symbol string) (contracts.EntityMetricRecord, bool) {
	for _, rec := range r.Records {
		if rec.Symbol == symbol {
			return rec, true
		}
	}
	return contracts.EntityMetricRecord{}, false
}

// Target returns the target record
func (r *Result) Target() contracts.EntityMetricRecord {
	for _, rec := range r.Records {
		if rec.IsTarget {
			return rec
		}
	}
	return contracts.EntityMetricRecord{}
}

// ProgressFunc is called once per finished entity, from the collecting goroutine
type ProgressFunc func(rec contracts.EntityMetricRecord, done, total int)

// Aggregator collects financials for target and peers and ranks them
// ⭐ SSOT: 병렬 수집은 여기서만
type Aggregator struct {
	cfg      Config
	fetcher  contracts.FinancialFetcher
	progress ProgressFunc
	logger   *logger.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(cfg Config, fetcher contracts.FinancialFetcher, log *logger.Logger) *Aggregator {
	return &Aggregator{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  log.WithModule("comparative"),
	}
}

// WithProgress returns a copy of the aggregator that reports per-entity progress
func (a *Aggregator) WithProgress(fn ProgressFunc) *Aggregator {
	cp := *a
	cp.progress = fn
	return &cp
}

type task struct {
	index    int
	symbol   string
	isTarget bool
}

type outcome struct {
	index     int
	record    contracts.EntityMetricRecord
	cancelled bool
}

// CollectAndRank fetches and derives every entity with bounded parallelism,
// then ranks the survivors.
//
// A single entity failure becomes a tombstone. The batch fails only when the
// target fails or no peer survives. Caller cancellation returns ctx.Err() and
// no records.
func (a *Aggregator) CollectAndRank(ctx context.Context, targetID string, peerIDs []string) (*Result, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	symbols := entitySymbols(targetID, peerIDs)
	if len(symbols) == 0 {
		return nil, &contracts.ValidationError{Field: "target", Message: "required"}
	}
	if len(symbols) == 1 {
		return nil, &contracts.BatchFailure{Reason: "no peers to compare"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	workers := a.cfg.MaxParallel
	if workers > len(symbols) {
		workers = len(symbols)
	}

	a.logger.WithFields(map[string]interface{}{
		"target":  symbols[0],
		"peers":   len(symbols) - 1,
		"workers": workers,
		"timeout": a.cfg.TaskTimeout.String(),
	}).Info("Starting comparative collection")

	// Worker pool
	taskCh := make(chan task, len(symbols))
	resultCh := make(chan outcome, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			a.worker(ctx, workerID, taskCh, resultCh)
		}(i)
	}

	for i, s := range symbols {
		taskCh <- task{index: i, symbol: s, isTarget: i == 0}
	}
	close(taskCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	records := make([]contracts.EntityMetricRecord, len(symbols))
	done := 0
	for out := range resultCh {
		if out.cancelled {
			continue
		}
		records[out.index] = out.record
		done++
		if a.progress != nil {
			a.progress(out.record, done, len(symbols))
		}
	}

	// Abandoned batch: no partial records
	if err := ctx.Err(); err != nil {
		a.logger.WithError(err).Warn("Comparative collection cancelled")
		return nil, err
	}

	result := &Result{Records: records, Failures: []string{}}
	peersOK := 0
	for _, rec := range records {
		if !rec.Available {
			result.Failures = append(result.Failures, rec.Symbol)
			continue
		}
		if !rec.IsTarget {
			peersOK++
		}
	}

	if !records[0].Available {
		return nil, &contracts.BatchFailure{
			Reason:   fmt.Sprintf("target %s collection failed: %s", records[0].Symbol, records[0].FailureReason),
			Failures: result.Failures,
		}
	}
	if peersOK == 0 {
		return nil, &contracts.BatchFailure{Reason: "no peer collected successfully", Failures: result.Failures}
	}

	result.Rankings = RankAll(records)
	result.Overall = OverallRanks(records, result.Rankings, a.cfg.Weights)

	a.logger.WithFields(map[string]interface{}{
		"target":      symbols[0],
		"succeeded":   len(records) - len(result.Failures),
		"failed":      len(result.Failures),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("Comparative collection completed")

	return result, nil
}

// worker processes collection tasks until the channel closes
func (a *Aggregator) worker(ctx context.Context, workerID int, taskCh <-chan task, resultCh chan<- outcome) {
	for t := range taskCh {
		if ctx.Err() != nil {
			resultCh <- outcome{index: t.index, cancelled: true}
			continue
		}

		rec, err := a.collect(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				resultCh <- outcome{index: t.index, cancelled: true}
				continue
			}

			reason := err.Error()
			var cf *contracts.CollectionFailure
			if errors.As(err, &cf) {
				reason = cf.Reason
			}
			a.logger.WithError(err).WithFields(map[string]interface{}{
				"worker":    workerID,
				"symbol":    t.symbol,
				"is_target": t.isTarget,
			}).Warn("Entity collection failed")

			resultCh <- outcome{index: t.index, record: contracts.NewTombstone(t.symbol, t.isTarget, reason)}
			continue
		}

		a.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"symbol": t.symbol,
		}).Debug("Entity collected")

		resultCh <- outcome{index: t.index, record: rec}
	}
}

type fetched struct {
	raw *contracts.RawFinancials
	err error
}

// collect runs fetch+derive for one entity under the per-task timeout
func (a *Aggregator) collect(ctx context.Context, t task) (contracts.EntityMetricRecord, error) {
	taskCtx, cancel := context.WithTimeout(ctx, a.cfg.TaskTimeout)
	defer cancel()

	// Fetchers that ignore ctx must not hold the worker past the deadline
	ch := make(chan fetched, 1)
	go func() {
		raw, err := a.fetcher.Fetch(taskCtx, t.symbol)
		ch <- fetched{raw: raw, err: err}
	}()

	var res fetched
	select {
	case res = <-ch:
	case <-taskCtx.Done():
		res.err = taskCtx.Err()
	}

	if res.err != nil {
		if ctx.Err() != nil {
			return contracts.EntityMetricRecord{}, ctx.Err()
		}
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			return contracts.EntityMetricRecord{}, &contracts.CollectionFailure{
				Symbol: t.symbol,
				Reason: fmt.Sprintf("timeout after %s", a.cfg.TaskTimeout),
				Err:    res.err,
			}
		}
		return contracts.EntityMetricRecord{}, &contracts.CollectionFailure{Symbol: t.symbol, Reason: "fetch failed", Err: res.err}
	}
	if res.raw == nil {
		return contracts.EntityMetricRecord{}, &contracts.CollectionFailure{Symbol: t.symbol, Reason: "provider returned no data"}
	}

	raw := *res.raw
	if raw.Profile.Symbol == "" {
		raw.Profile.Symbol = t.symbol
	}

	derived, err := metrics.Derive(&raw)
	if err != nil {
		return contracts.EntityMetricRecord{}, &contracts.CollectionFailure{Symbol: t.symbol, Reason: "derive failed", Err: err}
	}

	return contracts.EntityMetricRecord{
		Symbol:    t.symbol,
		IsTarget:  t.isTarget,
		Available: true,
		Raw:       &raw,
		Derived:   &derived,
	}, nil
}

// entitySymbols returns the normalized target followed by unique peers
func entitySymbols(targetID string, peerIDs []string) []string {
	target := contracts.NormalizeSymbol(targetID)
	if target == "" {
		return nil
	}

	symbols := []string{target}
	seen := map[string]bool{target: true}
	for _, p := range peerIDs {
		s := contracts.NormalizeSymbol(p)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	return symbols
}
