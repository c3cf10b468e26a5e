package comparative

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/internal/metrics"
)

// RankAll ranks every metric in contracts.RankedMetrics
func RankAll(records []contracts.EntityMetricRecord) []contracts.RankedMetric {
	rankings := make([]contracts.RankedMetric, 0, len(contracts.RankedMetrics))
	for _, name := range contracts.RankedMetrics {
		rankings = append(rankings, RankMetric(name, records))
	}
	return rankings
}

// RankMetric competition-ranks one metric across available records
//
// Tombstones are left out entirely. Entities with an undefined value are
// listed with a nil rank and excluded from the peer average. Entries are
// ordered by rank, undefined last.
func RankMetric(name contracts.MetricName, records []contracts.EntityMetricRecord) contracts.RankedMetric {
	m := contracts.RankedMetric{
		Name:      name,
		Direction: metrics.DirectionOf(name),
		Entries:   []contracts.EntityRank{},
	}

	var ranked, unranked []contracts.EntityRank
	var peerValues []float64

	for _, rec := range records {
		if !rec.Available {
			continue
		}
		v := rec.Value(name)
		entry := contracts.EntityRank{Symbol: rec.Symbol, IsTarget: rec.IsTarget, Value: v}
		if v == nil {
			unranked = append(unranked, entry)
			continue
		}
		ranked = append(ranked, entry)
		if rec.IsTarget {
			m.TargetValue = contracts.Float(*v)
		} else {
			peerValues = append(peerValues, *v)
		}
	}

	// Best first per polarity; equal values keep record order
	sort.SliceStable(ranked, func(i, j int) bool {
		return metrics.Better(name, *ranked[i].Value, *ranked[j].Value)
	})
	assignCompetitionRanks(len(ranked), func(i int) float64 { return *ranked[i].Value }, func(i, rank int, tied bool) {
		r := rank
		ranked[i].Rank = &r
		ranked[i].Tied = tied
	})

	m.Entries = append(m.Entries, ranked...)
	m.Entries = append(m.Entries, unranked...)
	m.RankedCount = len(ranked)

	if len(peerValues) > 0 {
		m.PeerAverage = contracts.Float(stat.Mean(peerValues, nil))
	}

	for _, e := range ranked {
		if e.IsTarget {
			m.TargetRank = e.Rank
			m.Description = DescribeRank(name, *e.Rank, m.RankedCount, e.Tied)
		}
	}

	if m.TargetValue != nil && m.PeerAverage != nil {
		gap := *m.TargetValue - *m.PeerAverage
		m.TargetGap = &gap
		if *m.PeerAverage != 0 {
			m.TargetGapPct = contracts.Float(gap / math.Abs(*m.PeerAverage) * 100)
		}
	}

	return m
}

// OverallRanks aggregates per-metric ranks into one weighted score per entity
//
// Weights are renormalized over the metrics each entity actually has. The
// score is a weighted mean rank, so lower is better; entities are then
// competition-ranked on it.
func OverallRanks(records []contracts.EntityMetricRecord, rankings []contracts.RankedMetric, weights MetricWeights) []contracts.OverallRank {
	totalWeight := 0.0
	for _, name := range contracts.RankedMetrics {
		totalWeight += weights[name]
	}

	overall := make([]contracts.OverallRank, 0, len(records))
	for _, rec := range records {
		if !rec.Available {
			continue
		}

		o := contracts.OverallRank{Symbol: rec.Symbol, IsTarget: rec.IsTarget}
		weightedSum, usedWeight := 0.0, 0.0

		for _, m := range rankings {
			w := weights[m.Name]
			if w <= 0 {
				continue
			}
			entry, ok := m.Entry(rec.Symbol)
			if !ok || entry.Rank == nil {
				continue
			}
			weightedSum += w * float64(*entry.Rank)
			usedWeight += w
			o.MetricsUsed++
		}

		if usedWeight > 0 {
			o.Score = contracts.Float(weightedSum / usedWeight)
			if totalWeight > 0 {
				o.WeightCovered = usedWeight / totalWeight
			}
		}
		overall = append(overall, o)
	}

	// Scored entities by ascending score, unscored last
	sort.SliceStable(overall, func(i, j int) bool {
		a, b := overall[i].Score, overall[j].Score
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a < *b
	})

	scored := 0
	for _, o := range overall {
		if o.Score != nil {
			scored++
		}
	}
	assignCompetitionRanks(scored, func(i int) float64 { return *overall[i].Score }, func(i, rank int, _ bool) {
		r := rank
		overall[i].Rank = &r
	})

	return overall
}

// assignCompetitionRanks walks n sorted values and assigns 1224-style ranks
// Consecutive values within TieTolerance share the rank of the first of the run.
func assignCompetitionRanks(n int, value func(i int) float64, set func(i, rank int, tied bool)) {
	ranks := make([]int, n)
	for i := 0; i < n; i++ {
		if i > 0 && math.Abs(value(i)-value(i-1)) <= TieTolerance {
			ranks[i] = ranks[i-1]
		} else {
			ranks[i] = i + 1
		}
	}
	for i := 0; i < n; i++ {
		tied := (i > 0 && ranks[i-1] == ranks[i]) || (i < n-1 && ranks[i+1] == ranks[i])
		set(i, ranks[i], tied)
	}
}
