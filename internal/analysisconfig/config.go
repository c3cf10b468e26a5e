package analysisconfig

import (
	"time"

	"github.com/wonny/peergap/internal/comparative"
	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/internal/peers"
	"github.com/wonny/peergap/internal/valuation"
)

// Config는 피어 분석 프로파일의 전체 설정
// ⭐ SSOT: 분석 튜닝 파라미터는 이 구조체로만
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Similarity Similarity `yaml:"similarity" json:"similarity"`
	Discovery  Discovery  `yaml:"discovery" json:"discovery"`
	Collection Collection `yaml:"collection" json:"collection"`
	Ranking    Ranking    `yaml:"ranking" json:"ranking"`
	Insights   Insights   `yaml:"insights" json:"insights"`
	Valuation  Valuation  `yaml:"valuation" json:"valuation"`
	Schedule   Schedule   `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// Similarity component weights (합 = 1.0)
type Similarity struct {
	Sector    float64 `yaml:"sector" json:"sector"`
	MarketCap float64 `yaml:"market_cap" json:"market_cap"`
	Revenue   float64 `yaml:"revenue" json:"revenue"`
	Geography float64 `yaml:"geography" json:"geography"`
}

// Discovery 피어 선정
type Discovery struct {
	MaxPeers      int           `yaml:"max_peers" json:"max_peers"`
	MinScore      float64       `yaml:"min_score" json:"min_score"`
	Tiers         Tiers         `yaml:"tiers" json:"tiers"`
	MarketCapBand MarketCapBand `yaml:"market_cap_band" json:"market_cap_band"`
	ScreenLimit   int           `yaml:"screen_limit" json:"screen_limit"`
	SameCountry   bool          `yaml:"same_country" json:"same_country"`
}

type Tiers struct {
	Industry  float64 `yaml:"industry" json:"industry"`
	Sector    float64 `yaml:"sector" json:"sector"`
	Financial float64 `yaml:"financial" json:"financial"`
}

// MarketCapBand bounds the screen relative to the target market cap
type MarketCapBand struct {
	MinRatio float64 `yaml:"min_ratio" json:"min_ratio"`
	MaxRatio float64 `yaml:"max_ratio" json:"max_ratio"`
}

// Collection 병렬 수집
type Collection struct {
	MaxParallel        int `yaml:"max_parallel" json:"max_parallel"`
	TaskTimeoutSeconds int `yaml:"task_timeout_seconds" json:"task_timeout_seconds"`
}

// Ranking overall rank weights
type Ranking struct {
	MetricWeights MetricWeights `yaml:"metric_weights" json:"metric_weights"`
}

// MetricWeights 종합 순위 가중치
// 주의: map 대신 struct 사용으로 해시 재현성 보장
type MetricWeights struct {
	PERatio         float64 `yaml:"pe_ratio" json:"pe_ratio"`
	ROE             float64 `yaml:"roe" json:"roe"`
	ROA             float64 `yaml:"roa" json:"roa"`
	RevenueGrowth   float64 `yaml:"revenue_growth" json:"revenue_growth"`
	DebtToEquity    float64 `yaml:"debt_to_equity" json:"debt_to_equity"`
	CurrentRatio    float64 `yaml:"current_ratio" json:"current_ratio"`
	GrossMargin     float64 `yaml:"gross_margin" json:"gross_margin"`
	OperatingMargin float64 `yaml:"operating_margin" json:"operating_margin"`
	NetMargin       float64 `yaml:"net_margin" json:"net_margin"`
	CombinedRatio   float64 `yaml:"combined_ratio" json:"combined_ratio"`
	MarketCap       float64 `yaml:"market_cap" json:"market_cap"`
}

// Sum returns the total weight
func (w MetricWeights) Sum() float64 {
	return w.PERatio + w.ROE + w.ROA + w.RevenueGrowth + w.DebtToEquity + w.CurrentRatio +
		w.GrossMargin + w.OperatingMargin + w.NetMargin + w.CombinedRatio + w.MarketCap
}

// Map converts to the aggregator weight table, zero weights omitted
func (w MetricWeights) Map() comparative.MetricWeights {
	all := comparative.MetricWeights{
		contracts.MetricPERatio:         w.PERatio,
		contracts.MetricROE:             w.ROE,
		contracts.MetricROA:             w.ROA,
		contracts.MetricRevenueGrowth:   w.RevenueGrowth,
		contracts.MetricDebtToEquity:    w.DebtToEquity,
		contracts.MetricCurrentRatio:    w.CurrentRatio,
		contracts.MetricGrossMargin:     w.GrossMargin,
		contracts.MetricOperatingMargin: w.OperatingMargin,
		contracts.MetricNetMargin:       w.NetMargin,
		contracts.MetricCombinedRatio:   w.CombinedRatio,
		contracts.MetricMarketCap:       w.MarketCap,
	}
	for name, v := range all {
		if v == 0 {
			delete(all, name)
		}
	}
	return all
}

// Insights 인사이트 파라미터
type Insights struct {
	StrengthRank int     `yaml:"strength_rank" json:"strength_rank"`
	RerateFactor float64 `yaml:"rerate_factor" json:"rerate_factor"`
	RoundStep    float64 `yaml:"round_step" json:"round_step"`
	MaxLeverage  float64 `yaml:"max_leverage" json:"max_leverage"`
}

// Valuation 회귀/분해
type Valuation struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	MinPeers          int     `yaml:"min_peers" json:"min_peers"`
	FactorAttribution bool    `yaml:"factor_attribution" json:"factor_attribution"`
	IdentityTolerance float64 `yaml:"identity_tolerance" json:"identity_tolerance"`
	BridgeTolerance   float64 `yaml:"bridge_tolerance" json:"bridge_tolerance"`
}

// Schedule watchlist refresh and retention
type Schedule struct {
	Watchlist      []string `yaml:"watchlist" json:"watchlist"`
	RefreshCron    string   `yaml:"refresh_cron" json:"refresh_cron"`     // 6-field cron (with seconds)
	RetentionCron  string   `yaml:"retention_cron" json:"retention_cron"` // 6-field cron (with seconds)
	RetentionDays  int      `yaml:"retention_days" json:"retention_days"`
	PersistResults bool     `yaml:"persist_results" json:"persist_results"`
}

// Default returns the built-in profile
func Default() *Config {
	return &Config{
		Meta: Meta{ProfileID: "default", Version: "1"},
		Similarity: Similarity{
			Sector:    0.40,
			MarketCap: 0.30,
			Revenue:   0.20,
			Geography: 0.10,
		},
		Discovery: Discovery{
			MaxPeers: 5,
			MinScore: 0.60,
			Tiers: Tiers{
				Industry:  1.3,
				Sector:    1.1,
				Financial: 1.0,
			},
			MarketCapBand: MarketCapBand{MinRatio: 0.3, MaxRatio: 3.0},
			ScreenLimit:   50,
			SameCountry:   true,
		},
		Collection: Collection{
			MaxParallel:        6,
			TaskTimeoutSeconds: 120,
		},
		Ranking: Ranking{
			MetricWeights: MetricWeights{
				PERatio:         0.15,
				ROE:             0.20,
				RevenueGrowth:   0.15,
				CombinedRatio:   0.10,
				MarketCap:       0.10,
				DebtToEquity:    0.10,
				GrossMargin:     0.05,
				OperatingMargin: 0.05,
				NetMargin:       0.10,
			},
		},
		Insights: Insights{
			StrengthRank: 2,
			RerateFactor: 0.35,
			RoundStep:    0.05,
			MaxLeverage:  10,
		},
		Valuation: Valuation{
			Enabled:           true,
			MinPeers:          2,
			FactorAttribution: true,
			IdentityTolerance: 1e-6,
			BridgeTolerance:   0.01,
		},
		Schedule: Schedule{
			RefreshCron:    "0 0 6 * * 1-5",
			RetentionCron:  "0 30 3 * * *",
			RetentionDays:  90,
			PersistResults: true,
		},
	}
}

// PeersConfig returns the discovery engine configuration
func (c *Config) PeersConfig() peers.Config {
	return peers.Config{
		MaxPeers: c.Discovery.MaxPeers,
		MinScore: c.Discovery.MinScore,
		Weights: peers.Weights{
			Sector:    c.Similarity.Sector,
			MarketCap: c.Similarity.MarketCap,
			Revenue:   c.Similarity.Revenue,
			Geography: c.Similarity.Geography,
		},
		Tiers: peers.TierMultipliers{
			Industry:  c.Discovery.Tiers.Industry,
			Sector:    c.Discovery.Tiers.Sector,
			Financial: c.Discovery.Tiers.Financial,
		},
	}
}

// ComparativeConfig returns the aggregator configuration
func (c *Config) ComparativeConfig() comparative.Config {
	return comparative.Config{
		MaxParallel: c.Collection.MaxParallel,
		TaskTimeout: time.Duration(c.Collection.TaskTimeoutSeconds) * time.Second,
		Weights:     c.Ranking.MetricWeights.Map(),
	}
}

// InsightConfig returns the insight parameters
func (c *Config) InsightConfig() comparative.InsightConfig {
	cfg := comparative.DefaultInsightConfig()
	cfg.StrengthRank = c.Insights.StrengthRank
	cfg.RerateFactor = c.Insights.RerateFactor
	cfg.RoundStep = c.Insights.RoundStep
	cfg.MaxLeverage = c.Insights.MaxLeverage
	return cfg
}

// Regressor returns a configured valuation regressor
func (c *Config) Regressor() *valuation.Regressor {
	r := valuation.NewRegressor()
	r.MinPeers = c.Valuation.MinPeers
	return r
}

// Decomposer returns a configured gap decomposer
func (c *Config) Decomposer() *valuation.Decomposer {
	return &valuation.Decomposer{
		IdentityTolerance: c.Valuation.IdentityTolerance,
		BridgeTolerance:   c.Valuation.BridgeTolerance,
	}
}
