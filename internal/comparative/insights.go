package comparative

import (
	"fmt"
	"math"

	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/internal/metrics"
)

// InsightConfig tunes the observations drawn from the rankings
type InsightConfig struct {
	StrengthRank  int     // target rank at or above this is a strength (기본: 2)
	RerateFactor  float64 // share of the P/E gap to peers closed by the target P/E
	RoundStep     float64 // target P/E rounding step
	MaxLeverage   float64 // D/E above this is extreme
	MinForWeakest int     // minimum ranked entities before a weakness is reported
}

// DefaultInsightConfig returns the built-in insight parameters
func DefaultInsightConfig() InsightConfig {
	return InsightConfig{
		StrengthRank:  2,
		RerateFactor:  0.35,
		RoundStep:     0.05,
		MaxLeverage:   10,
		MinForWeakest: 3,
	}
}

// BuildInsights derives strengths, weaknesses, perception gaps and a P/E target
func BuildInsights(result *Result, cfg InsightConfig) *contracts.Insights {
	ins := &contracts.Insights{
		Strengths:      []contracts.Insight{},
		Weaknesses:     []contracts.Insight{},
		PerceptionGaps: []contracts.Insight{},
	}

	for _, m := range result.Rankings {
		if m.TargetRank == nil || m.RankedCount < 2 {
			continue
		}
		rank, n := *m.TargetRank, m.RankedCount
		insight := contracts.Insight{
			Metric:      m.Name,
			Value:       m.TargetValue,
			Rank:        rank,
			OutOf:       n,
			Description: fmt.Sprintf("%s: %s (%s)", metrics.Label(m.Name), m.Description, metrics.Format(m.Name, m.TargetValue)),
		}

		switch {
		case rank <= cfg.StrengthRank:
			ins.Strengths = append(ins.Strengths, insight)
		case n >= cfg.MinForWeakest && rank >= n-1:
			ins.Weaknesses = append(ins.Weaknesses, insight)
		}
	}

	pe, ok := findRanking(result.Rankings, contracts.MetricPERatio)
	if !ok || pe.TargetValue == nil || pe.PeerAverage == nil {
		ins.ExtremeLeverage = extremeLeverage(result.Records, cfg.MaxLeverage)
		return ins
	}

	current, peerAvg := *pe.TargetValue, *pe.PeerAverage
	ins.PEDiscountToPeers = contracts.Float(peerAvg - current)

	// Fundamentally strong yet priced below peers
	if current < peerAvg {
		for _, s := range ins.Strengths {
			if s.Metric == contracts.MetricPERatio || s.Metric == contracts.MetricMarketCap {
				continue
			}
			gap := s
			gap.Description = fmt.Sprintf("%s ranks %s of %d yet trades at %.1fx vs peer average %.1fx",
				metrics.Label(s.Metric), ordinal(s.Rank), s.OutOf, current, peerAvg)
			ins.PerceptionGaps = append(ins.PerceptionGaps, gap)
		}
	}

	ins.TargetPE = contracts.Float(TargetPE(current, peerAvg, cfg))

	target := result.Target()
	if target.Derived != nil && target.Derived.MarketCap != nil && current > 0 {
		ins.ImpliedMarketCap = contracts.Float(ImpliedMarketCap(*target.Derived.MarketCap, current, *ins.TargetPE))
	}

	ins.ExtremeLeverage = extremeLeverage(result.Records, cfg.MaxLeverage)
	return ins
}

// TargetPE closes part of a discount to peers, rounded to RoundStep
// A target already at or above the peer average is pulled to the average.
func TargetPE(current, peerAvg float64, cfg InsightConfig) float64 {
	if current >= peerAvg {
		return peerAvg
	}
	v := current + cfg.RerateFactor*(peerAvg-current)
	if cfg.RoundStep > 0 {
		v = math.Round(v/cfg.RoundStep) * cfg.RoundStep
	}
	return v
}

// ImpliedMarketCap scales market cap from the current to the target P/E
func ImpliedMarketCap(marketCap, currentPE, targetPE float64) float64 {
	if currentPE == 0 {
		return marketCap
	}
	return marketCap * targetPE / currentPE
}

// extremeLeverage lists peers with non-positive equity or D/E above max
func extremeLeverage(records []contracts.EntityMetricRecord, maxDE float64) []string {
	var out []string
	for _, rec := range records {
		if rec.IsTarget || !rec.Available {
			continue
		}
		if rec.Raw != nil {
			cur := rec.Raw.Current()
			if cur != nil && cur.TotalEquity != nil && *cur.TotalEquity <= 0 {
				out = append(out, rec.Symbol)
				continue
			}
		}
		if de := rec.Value(contracts.MetricDebtToEquity); de != nil && *de > maxDE {
			out = append(out, rec.Symbol)
		}
	}
	return out
}

// DescribeRank renders a rank as "best of 5", "tied for 2nd best of 5", "cheapest of 4"
func DescribeRank(name contracts.MetricName, rank, n int, tied bool) string {
	best, worst := "best", "worst"
	if name == contracts.MetricPERatio {
		best, worst = "cheapest", "most expensive"
	}

	var q string
	switch {
	case n <= 1:
		return "only company reporting"
	case rank == 1:
		q = best
	case rank == n:
		q = worst
	default:
		q = ordinal(rank) + " " + best
	}
	if tied {
		q = "tied for " + q
	}
	return fmt.Sprintf("%s of %d", q, n)
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func findRanking(rankings []contracts.RankedMetric, name contracts.MetricName) (contracts.RankedMetric, bool) {
	for _, m := range rankings {
		if m.Name == name {
			return m, true
		}
	}
	return contracts.RankedMetric{}, false
}
