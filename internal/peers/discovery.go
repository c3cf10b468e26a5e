package peers

import (
	"fmt"
	"sort"

	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/pkg/logger"
)

// Config holds peer discovery parameters
type Config struct {
	MaxPeers int             // 최대 피어 수 (기본: 5)
	MinScore float64         // combined score 하한 (기본: 0.60)
	Weights  Weights         // similarity component weights
	Tiers    TierMultipliers // relationship tier multipliers
}

// DefaultConfig returns default discovery configuration
func DefaultConfig() Config {
	return Config{
		MaxPeers: 5,
		MinScore: 0.60,
		Weights:  DefaultWeights(),
		Tiers:    DefaultTierMultipliers(),
	}
}

// Validate checks the discovery configuration
func (c Config) Validate() error {
	if c.MaxPeers < 1 {
		return &contracts.ValidationError{Field: "max_peers", Message: "must be >= 1"}
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return &contracts.ValidationError{Field: "min_score", Message: "must be in [0, 1]"}
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.Tiers.Industry <= 0 || c.Tiers.Sector <= 0 || c.Tiers.Financial <= 0 {
		return &contracts.ValidationError{Field: "tiers", Message: "multipliers must be > 0"}
	}
	return nil
}

// SourcedProfile is a candidate profile tagged with the screen that found it
type SourcedProfile struct {
	Profile contracts.EntityProfile
	Source  contracts.PeerSource
}

// Engine selects and orders the peer set for a target
// ⭐ SSOT: 피어 선정 로직은 여기서만
type Engine struct {
	cfg    Config
	scorer *Scorer
	logger *logger.Logger
}

// NewEngine creates a discovery engine
func NewEngine(cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		scorer: NewScorer(cfg.Weights),
		logger: log.WithModule("peers"),
	}
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Discover scores candidates against the target and returns the ordered peer set
// An empty result is not an error; the threshold is never lowered.
func (e *Engine) Discover(target contracts.EntityProfile, candidates []contracts.EntityProfile) ([]contracts.PeerCandidate, error) {
	pool := make([]SourcedProfile, len(candidates))
	for i, c := range candidates {
		pool[i] = SourcedProfile{Profile: c}
	}
	return e.DiscoverFrom(target, pool)
}

// DiscoverFrom is Discover over candidates tagged with their source
// Config errors are returned before any candidate is scored.
func (e *Engine) DiscoverFrom(target contracts.EntityProfile, pool []SourcedProfile) ([]contracts.PeerCandidate, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("discovery config: %w", err)
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("target profile: %w", err)
	}

	targetSymbol := target.NormalizedSymbol()
	best := make(map[string]contracts.PeerCandidate, len(pool))
	skipped := 0

	for _, item := range pool {
		symbol := item.Profile.NormalizedSymbol()
		if symbol == "" || symbol == targetSymbol {
			continue
		}
		if err := item.Profile.Validate(); err != nil {
			skipped++
			e.logger.WithError(err).WithField("symbol", symbol).Debug("Skipping invalid candidate")
			continue
		}

		candidate := e.evaluate(target, item)
		if candidate.Score.Combined < e.cfg.MinScore {
			continue
		}

		// Duplicate symbols from several screens: keep the best scoring one
		if prev, ok := best[symbol]; ok && !ranksBefore(candidate, prev) {
			continue
		}
		best[symbol] = candidate
	}

	peers := make([]contracts.PeerCandidate, 0, len(best))
	for _, c := range best {
		peers = append(peers, c)
	}

	sort.Slice(peers, func(i, j int) bool {
		return ranksBefore(peers[i], peers[j])
	})

	if len(peers) > e.cfg.MaxPeers {
		peers = peers[:e.cfg.MaxPeers]
	}

	e.logger.WithFields(map[string]interface{}{
		"target":     targetSymbol,
		"candidates": len(pool),
		"qualified":  len(best),
		"selected":   len(peers),
		"skipped":    skipped,
		"min_score":  e.cfg.MinScore,
	}).Info("Peer discovery completed")

	return peers, nil
}

// evaluate scores, classifies and weights one candidate
func (e *Engine) evaluate(target contracts.EntityProfile, item SourcedProfile) contracts.PeerCandidate {
	score := e.scorer.Score(target, item.Profile)
	rel := Classify(target, item.Profile)

	return contracts.PeerCandidate{
		Profile:       item.Profile,
		Score:         score,
		Relationship:  rel,
		WeightedScore: score.Combined * e.cfg.Tiers.For(rel),
		Source:        item.Source,
		Explanation:   score.Explanation(),
	}
}

// ranksBefore orders by weighted desc, combined desc, symbol asc
func ranksBefore(a, b contracts.PeerCandidate) bool {
	if a.WeightedScore != b.WeightedScore {
		return a.WeightedScore > b.WeightedScore
	}
	if a.Score.Combined != b.Score.Combined {
		return a.Score.Combined > b.Score.Combined
	}
	return a.Profile.NormalizedSymbol() < b.Profile.NormalizedSymbol()
}

// ManualPeers builds the peer set verbatim from a caller-supplied list
// No scoring is applied; blanks and duplicates are dropped.
func ManualPeers(target string, symbols []string) []contracts.PeerCandidate {
	targetSymbol := contracts.NormalizeSymbol(target)
	seen := make(map[string]bool, len(symbols))
	peers := make([]contracts.PeerCandidate, 0, len(symbols))

	for _, s := range symbols {
		symbol := contracts.NormalizeSymbol(s)
		if symbol == "" || symbol == targetSymbol || seen[symbol] {
			continue
		}
		seen[symbol] = true

		peers = append(peers, contracts.PeerCandidate{
			Profile:      contracts.EntityProfile{Symbol: symbol},
			Relationship: contracts.RelationshipFinancial,
			Source:       contracts.SourceManual,
			Explanation:  "manual override",
		})
	}
	return peers
}

// Symbols returns the peer tickers in order
func Symbols(peers []contracts.PeerCandidate) []string {
	symbols := make([]string, len(peers))
	for i, p := range peers {
		symbols[i] = p.Profile.NormalizedSymbol()
	}
	return symbols
}
