package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/peergap/internal/analysisconfig"
	"github.com/wonny/peergap/internal/comparative"
	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/internal/peers"
	"github.com/wonny/peergap/internal/valuation"
	"github.com/wonny/peergap/pkg/logger"
)

// Stage names, in execution order
const (
	StageDiscovery  = "discovery"
	StageCollection = "collection"
	StageInsights   = "insights"
	StageValuation  = "valuation"
	StagePersist    = "persist"
)

// Provider supplies profiles, candidate screens and financials
type Provider interface {
	contracts.ProfileSource
	contracts.CandidateSearcher
	contracts.FinancialFetcher
}

// PeerHistory returns the last stored peer set for a target
type PeerHistory interface {
	LatestPeers(ctx context.Context, target string) ([]contracts.PeerCandidate, error)
}

// Request is one analysis run
type Request struct {
	Symbol   string   `json:"symbol"`
	Peers    []string `json:"peers,omitempty"`     // hints, or the full peer set with Override
	Override bool     `json:"override,omitempty"`  // use Peers verbatim, skip discovery
	MaxPeers int      `json:"max_peers,omitempty"` // 0 = profile default
}

// RunResult holds the outcome of a run
type RunResult struct {
	RunID           string
	Report          *contracts.AnalysisReport
	CompletedStages []string
	Persisted       bool
	Duration        time.Duration
}

// PeerSet is the output of discovery
// FromHistory is set when every screen failed and the stored peer set was used.
type PeerSet struct {
	Target      contracts.EntityProfile   `json:"target"`
	Peers       []contracts.PeerCandidate `json:"peers"`
	Screened    int                       `json:"screened"`
	FromHistory bool                      `json:"from_history,omitempty"`
}

// Service runs discovery, comparison and valuation for one target
// ⭐ SSOT: 분석 파이프라인 조율은 여기서만
type Service struct {
	cfg        *analysisconfig.Config
	configHash string
	provider   Provider
	store      contracts.ReportStore
	history    PeerHistory
	observer   Observer
	timeout    time.Duration

	aggregator *comparative.Aggregator
	valuator   *valuation.Valuator

	logger *logger.Logger
}

// NewService creates an analysis service for a validated profile
func NewService(cfg *analysisconfig.Config, provider Provider, log *logger.Logger) (*Service, error) {
	if err := analysisconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("analysis profile: %w", err)
	}
	hash, err := analysisconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to hash analysis profile: %w", err)
	}

	return &Service{
		cfg:        cfg,
		configHash: hash,
		provider:   provider,
		observer:   nopObserver{},
		aggregator: comparative.NewAggregator(cfg.ComparativeConfig(), provider, log),
		valuator:   valuation.NewValuator(cfg.Regressor(), cfg.Decomposer(), cfg.Valuation.FactorAttribution, log),
		logger:     log.WithModule("analysis"),
	}, nil
}

// WithStore enables report persistence
// A store that also implements PeerHistory is used as discovery fallback.
func (s *Service) WithStore(store contracts.ReportStore) *Service {
	s.store = store
	if h, ok := store.(PeerHistory); ok {
		s.history = h
	}
	return s
}

// WithObserver sets the progress observer
func (s *Service) WithObserver(o Observer) *Service {
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
	return s
}

// WithTimeout bounds a whole run, 0 = no bound
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// Config returns the analysis profile
func (s *Service) Config() *analysisconfig.Config {
	return s.cfg
}

// ConfigHash returns the profile hash stamped on reports
func (s *Service) ConfigHash() string {
	return s.configHash
}

// DiscoverPeers finds the peer set for a symbol
// maxPeers <= 0 uses the profile default.
func (s *Service) DiscoverPeers(ctx context.Context, symbol string, maxPeers int) (*PeerSet, error) {
	return s.discover(ctx, symbol, maxPeers, nil)
}

// discover screens by industry then sector within the market cap band, adds
// caller hints and lets the engine pick the peer set
func (s *Service) discover(ctx context.Context, symbol string, maxPeers int, hints []string) (*PeerSet, error) {
	symbol = contracts.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, &contracts.ValidationError{Field: "symbol", Message: "required"}
	}

	target, err := s.provider.Profile(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("target profile %s: %w", symbol, err)
	}

	pool, screensOK, screenErr := s.screen(ctx, target)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pool = append(pool, s.hintProfiles(ctx, symbol, hints)...)

	peerCfg := s.cfg.PeersConfig()
	if maxPeers > 0 {
		peerCfg.MaxPeers = maxPeers
	}

	// 스크리너 전부 실패 + 후보 없음: 저장된 피어 세트 사용
	if screensOK == 0 && screenErr != nil && len(pool) == 0 {
		if set, ok := s.historicalPeers(ctx, *target, peerCfg.MaxPeers); ok {
			return set, nil
		}
		return nil, fmt.Errorf("candidate screen for %s: %w", symbol, screenErr)
	}

	found, err := peers.NewEngine(peerCfg, s.logger).DiscoverFrom(*target, pool)
	if err != nil {
		return nil, err
	}

	return &PeerSet{Target: *target, Peers: found, Screened: len(pool)}, nil
}

// screen runs the industry and sector screens
// A failed screen is logged and skipped; the last error is returned.
func (s *Service) screen(ctx context.Context, target *contracts.EntityProfile) ([]peers.SourcedProfile, int, error) {
	d := s.cfg.Discovery
	base := contracts.CandidateQuery{Limit: d.ScreenLimit}
	if d.SameCountry {
		base.Country = target.Country
	}
	if target.MarketCap > 0 {
		base.MarketCapMin = target.MarketCap * d.MarketCapBand.MinRatio
		base.MarketCapMax = target.MarketCap * d.MarketCapBand.MaxRatio
	}

	type screenSpec struct {
		query  contracts.CandidateQuery
		source contracts.PeerSource
	}
	var screens []screenSpec
	if target.Industry != "" {
		q := base
		q.Sector = target.Sector
		q.Industry = target.Industry
		screens = append(screens, screenSpec{q, contracts.SourceScreenerIndustry})
	}
	if target.Sector != "" {
		q := base
		q.Sector = target.Sector
		screens = append(screens, screenSpec{q, contracts.SourceScreenerSector})
	}

	var pool []peers.SourcedProfile
	var lastErr error
	ok := 0
	for _, sc := range screens {
		found, err := s.provider.SearchCandidates(ctx, sc.query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ok, ctx.Err()
			}
			lastErr = err
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"symbol": target.Symbol,
				"source": string(sc.source),
			}).Warn("Candidate screen failed")
			continue
		}
		ok++
		for _, p := range found {
			pool = append(pool, peers.SourcedProfile{Profile: p, Source: sc.source})
		}
		s.logger.WithFields(map[string]interface{}{
			"symbol": target.Symbol,
			"source": string(sc.source),
			"found":  len(found),
		}).Debug("Candidate screen completed")
	}
	return pool, ok, lastErr
}

// hintProfiles looks up caller-suggested peers; lookup failures are skipped
func (s *Service) hintProfiles(ctx context.Context, target string, hints []string) []peers.SourcedProfile {
	var out []peers.SourcedProfile
	seen := map[string]bool{target: true}
	for _, h := range hints {
		symbol := contracts.NormalizeSymbol(h)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true

		p, err := s.provider.Profile(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return out
			}
			s.logger.WithError(err).WithField("symbol", symbol).Warn("Hinted peer lookup failed")
			continue
		}
		out = append(out, peers.SourcedProfile{Profile: *p, Source: contracts.SourceHint})
	}
	return out
}

func (s *Service) historicalPeers(ctx context.Context, target contracts.EntityProfile, maxPeers int) (*PeerSet, bool) {
	if s.history == nil {
		return nil, false
	}
	stored, err := s.history.LatestPeers(ctx, target.Symbol)
	if err != nil || len(stored) == 0 {
		if err != nil {
			s.logger.WithError(err).WithField("symbol", target.Symbol).Warn("Stored peer lookup failed")
		}
		return nil, false
	}
	if len(stored) > maxPeers {
		stored = stored[:maxPeers]
	}
	s.logger.WithFields(map[string]interface{}{
		"symbol": target.Symbol,
		"peers":  len(stored),
	}).Warn("Screens unavailable, using stored peer set")
	return &PeerSet{Target: target, Peers: stored, FromHistory: true}, true
}

// Run executes discovery → collection → insights → valuation → persist
func (s *Service) Run(ctx context.Context, req Request) (*RunResult, error) {
	startTime := time.Now()
	symbol := contracts.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, &contracts.ValidationError{Field: "symbol", Message: "required"}
	}
	if req.Override && len(req.Peers) == 0 {
		return nil, &contracts.ValidationError{Field: "peers", Message: "required with override"}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := &RunResult{
		RunID:           uuid.NewString(),
		CompletedStages: make([]string, 0, 5),
	}
	log := s.logger.WithRun(result.RunID, symbol)

	log.WithFields(map[string]interface{}{
		"override": req.Override,
		"hints":    len(req.Peers),
		"profile":  s.cfg.Meta.ProfileID,
	}).Info("Starting analysis run")
	s.emit(Event{Type: EventStarted, RunID: result.RunID, Target: symbol})

	fail := func(stage string, err error) (*RunResult, error) {
		result.Duration = time.Since(startTime)
		s.emit(Event{Type: EventFailed, RunID: result.RunID, Target: symbol, Stage: stage, Message: err.Error()})
		log.WithError(err).WithField("stage", stage).Error("Analysis run failed")
		return result, fmt.Errorf("%s failed: %w", stage, err)
	}

	// 1. Discovery
	s.stage(result, symbol, StageDiscovery)
	var set *PeerSet
	if req.Override {
		set = &PeerSet{Target: contracts.EntityProfile{Symbol: symbol}, Peers: peers.ManualPeers(symbol, req.Peers)}
	} else {
		var err error
		set, err = s.discover(ctx, symbol, req.MaxPeers, req.Peers)
		if err != nil {
			return fail(StageDiscovery, err)
		}
	}
	if len(set.Peers) == 0 {
		return fail(StageDiscovery, &contracts.BatchFailure{Reason: fmt.Sprintf("no peers qualified for %s", symbol)})
	}
	result.CompletedStages = append(result.CompletedStages, StageDiscovery)

	// 2. Collection + ranking
	s.stage(result, symbol, StageCollection)
	agg := s.aggregator.WithProgress(func(rec contracts.EntityMetricRecord, done, total int) {
		s.emit(Event{
			Type:      EventEntity,
			RunID:     result.RunID,
			Target:    symbol,
			Stage:     StageCollection,
			Symbol:    rec.Symbol,
			Available: rec.Available,
			Done:      done,
			Total:     total,
			Message:   rec.FailureReason,
		})
	})
	comp, err := agg.CollectAndRank(ctx, symbol, peers.Symbols(set.Peers))
	if err != nil {
		return fail(StageCollection, err)
	}
	result.CompletedStages = append(result.CompletedStages, StageCollection)

	report := &contracts.AnalysisReport{
		ReportID:     uuid.NewString(),
		TargetSymbol: symbol,
		Target:       set.Target,
		ManualPeers:  req.Override,
		Peers:        enrichPeers(set.Peers, comp),
		Records:      comp.Records,
		Rankings:     comp.Rankings,
		Overall:      comp.Overall,
		Failures:     comp.Failures,
		ConfigHash:   s.configHash,
	}
	if t := comp.Target(); t.Raw != nil && report.Target.Name == "" {
		report.Target = t.Raw.Profile
	}

	// 3. Insights
	s.stage(result, symbol, StageInsights)
	report.Insights = comparative.BuildInsights(comp, s.cfg.InsightConfig())
	result.CompletedStages = append(result.CompletedStages, StageInsights)

	// 4. Valuation (회귀 실패 시 total gap만)
	if s.cfg.Valuation.Enabled {
		s.stage(result, symbol, StageValuation)
		va, err := s.valuator.Analyze(comp.Records)
		switch {
		case err == nil:
			report.Valuation = va
		case errors.Is(err, contracts.ErrInsufficientData):
			log.WithError(err).Warn("Valuation skipped")
		default:
			return fail(StageValuation, err)
		}
		result.CompletedStages = append(result.CompletedStages, StageValuation)
	}

	report.GeneratedAt = time.Now().UTC()
	report.ProcessingTime = time.Since(startTime)
	result.Report = report

	// 5. Persist
	if s.store != nil && s.cfg.Schedule.PersistResults {
		s.stage(result, symbol, StagePersist)
		if err := s.store.SaveReport(ctx, report); err != nil {
			return fail(StagePersist, err)
		}
		result.Persisted = true
		result.CompletedStages = append(result.CompletedStages, StagePersist)
	}

	result.Duration = time.Since(startTime)
	s.emit(Event{Type: EventCompleted, RunID: result.RunID, Target: symbol, ReportID: report.ReportID})

	log.WithFields(map[string]interface{}{
		"report_id":   report.ReportID,
		"peers":       len(report.Peers),
		"failures":    len(report.Failures),
		"persisted":   result.Persisted,
		"stages":      result.CompletedStages,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Analysis run completed")

	return result, nil
}

func (s *Service) stage(result *RunResult, target, stage string) {
	s.emit(Event{Type: EventStage, RunID: result.RunID, Target: target, Stage: stage})
}

func (s *Service) emit(e Event) {
	e.Time = time.Now().UTC()
	s.observer.Notify(e)
}

// enrichPeers fills symbol-only peer profiles from collected data
func enrichPeers(in []contracts.PeerCandidate, comp *comparative.Result) []contracts.PeerCandidate {
	out := make([]contracts.PeerCandidate, len(in))
	for i, p := range in {
		out[i] = p
		if p.Profile.Name != "" {
			continue
		}
		if rec, ok := comp.Record(p.Profile.NormalizedSymbol()); ok && rec.Raw != nil {
			out[i].Profile = rec.Raw.Profile
		}
	}
	return out
}
