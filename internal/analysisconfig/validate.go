package analysisconfig

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/wonny/peergap/internal/contracts"
)

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks all required constraints
// 실패 시 *contracts.ValidationError 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if strings.TrimSpace(cfg.Meta.ProfileID) == "" {
		return invalid("meta.profile_id", "required")
	}

	// === Similarity ===
	s := cfg.Similarity
	if err := validateWeightsSum([]float64{s.Sector, s.MarketCap, s.Revenue, s.Geography}, 1.0, 1e-6); err != nil {
		return invalid("similarity", err.Error())
	}

	// === Discovery ===
	d := cfg.Discovery
	if d.MaxPeers < 1 {
		return invalid("discovery.max_peers", "must be >= 1")
	}
	if err := validatePctRange(d.MinScore, "discovery.min_score"); err != nil {
		return err
	}
	if d.Tiers.Industry <= 0 || d.Tiers.Sector <= 0 || d.Tiers.Financial <= 0 {
		return invalid("discovery.tiers", "multipliers must be > 0")
	}
	if d.Tiers.Industry < d.Tiers.Sector || d.Tiers.Sector < d.Tiers.Financial {
		return invalid("discovery.tiers", "must satisfy industry >= sector >= financial")
	}
	if d.MarketCapBand.MinRatio <= 0 || d.MarketCapBand.MinRatio >= d.MarketCapBand.MaxRatio {
		return invalid("discovery.market_cap_band", "must satisfy 0 < min_ratio < max_ratio")
	}
	if d.ScreenLimit < d.MaxPeers {
		return invalid("discovery.screen_limit", fmt.Sprintf("must be >= max_peers=%d", d.MaxPeers))
	}

	// === Collection ===
	if cfg.Collection.MaxParallel < 1 {
		return invalid("collection.max_parallel", "must be >= 1")
	}
	if cfg.Collection.TaskTimeoutSeconds <= 0 {
		return invalid("collection.task_timeout_seconds", "must be > 0")
	}

	// === Ranking ===
	if err := cfg.Ranking.MetricWeights.Map().Validate(); err != nil {
		var vErr *contracts.ValidationError
		if errors.As(err, &vErr) {
			return invalid("ranking."+vErr.Field, vErr.Message)
		}
		return err
	}

	// === Insights ===
	in := cfg.Insights
	if in.StrengthRank < 1 {
		return invalid("insights.strength_rank", "must be >= 1")
	}
	if err := validatePctRange(in.RerateFactor, "insights.rerate_factor"); err != nil {
		return err
	}
	if in.RoundStep <= 0 {
		return invalid("insights.round_step", "must be > 0")
	}
	if in.MaxLeverage <= 0 {
		return invalid("insights.max_leverage", "must be > 0")
	}

	// === Valuation ===
	v := cfg.Valuation
	if v.MinPeers < 2 {
		return invalid("valuation.min_peers", "must be >= 2")
	}
	if v.IdentityTolerance <= 0 || v.BridgeTolerance <= 0 {
		return invalid("valuation", "tolerances must be > 0")
	}

	// === Schedule ===
	sc := cfg.Schedule
	if sc.RefreshCron != "" {
		if _, err := cronParser.Parse(sc.RefreshCron); err != nil {
			return invalid("schedule.refresh_cron", err.Error())
		}
	}
	if sc.RetentionCron != "" {
		if _, err := cronParser.Parse(sc.RetentionCron); err != nil {
			return invalid("schedule.retention_cron", err.Error())
		}
		if sc.RetentionDays < 1 {
			return invalid("schedule.retention_days", "must be >= 1 when retention_cron is set")
		}
	}
	for i, sym := range sc.Watchlist {
		if contracts.NormalizeSymbol(sym) == "" {
			return invalid(fmt.Sprintf("schedule.watchlist[%d]", i), "empty symbol")
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Discovery.MinScore < 0.5 {
		warnings = append(warnings, Warning{
			Code:    "LOW_MIN_SCORE",
			Message: "min_score < 0.50: 유사도가 낮은 피어가 포함될 수 있음",
		})
	}

	if cfg.Collection.MaxParallel > 10 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_PARALLELISM",
			Message: "max_parallel > 10: 데이터 제공자 rate limit 초과 우려",
		})
	}

	if cfg.Discovery.MaxPeers < 3 {
		warnings = append(warnings, Warning{
			Code:    "FEW_PEERS",
			Message: "max_peers < 3: 회귀 분석이 과소결정(underdetermined)될 가능성 높음",
		})
	}

	if cfg.Schedule.RefreshCron != "" && len(cfg.Schedule.Watchlist) == 0 {
		warnings = append(warnings, Warning{
			Code:    "EMPTY_WATCHLIST",
			Message: "refresh_cron 설정됨, watchlist 비어 있음",
		})
	}

	return warnings
}

// === Helper Functions ===

func invalid(field, msg string) error {
	return &contracts.ValidationError{Field: field, Message: msg}
}

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 || !contracts.IsFinite(w) {
			return errors.New("weights must be non-negative numbers")
		}
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// validatePctRange는 비율 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 || math.IsNaN(pct) {
		return invalid(field, "must be in range [0, 1]")
	}
	return nil
}
