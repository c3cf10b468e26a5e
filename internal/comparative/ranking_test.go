package comparative

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/peergap/internal/contracts"
)

func nan() float64 { return math.NaN() }

func record(symbol string, isTarget bool, d contracts.DerivedMetrics) contracts.EntityMetricRecord {
	return contracts.EntityMetricRecord{Symbol: symbol, IsTarget: isTarget, Available: true, Derived: &d}
}

func ranksOf(m contracts.RankedMetric) map[string]*int {
	out := make(map[string]*int, len(m.Entries))
	for _, e := range m.Entries {
		out[e.Symbol] = e.Rank
	}
	return out
}

func TestRankMetric_CompetitionRanking(t *testing.T) {
	records := []contracts.EntityMetricRecord{
		record("T", true, contracts.DerivedMetrics{ROE: f(0.15)}),
		record("A", false, contracts.DerivedMetrics{ROE: f(0.20)}),
		record("B", false, contracts.DerivedMetrics{ROE: f(0.15 + 1e-9)}),
		record("C", false, contracts.DerivedMetrics{ROE: f(0.10)}),
		record("D", false, contracts.DerivedMetrics{}),
		contracts.NewTombstone("E", false, "timeout"),
	}

	m := RankMetric(contracts.MetricROE, records)

	assert.Equal(t, contracts.HigherIsBetter, m.Direction)
	assert.Equal(t, 4, m.RankedCount)
	require.Len(t, m.Entries, 5) // tombstone left out

	ranks := ranksOf(m)
	assert.Equal(t, 1, *ranks["A"])
	assert.Equal(t, 2, *ranks["T"])
	assert.Equal(t, 2, *ranks["B"])
	assert.Equal(t, 4, *ranks["C"])
	assert.Nil(t, ranks["D"])
	assert.Equal(t, "D", m.Entries[4].Symbol)

	entry, _ := m.Entry("T")
	assert.True(t, entry.Tied)
	entry, _ = m.Entry("A")
	assert.False(t, entry.Tied)

	// Peer average excludes target and undefined values
	require.NotNil(t, m.PeerAverage)
	assert.InDelta(t, (0.20+0.15+0.10)/3, *m.PeerAverage, 1e-8)
	require.NotNil(t, m.TargetGap)
	assert.InDelta(t, 0.15-*m.PeerAverage, *m.TargetGap, 1e-12)
	require.NotNil(t, m.TargetGapPct)
	assert.Equal(t, "tied for 2nd best of 4", m.Description)
}

func TestRankMetric_LowerIsBetter(t *testing.T) {
	records := []contracts.EntityMetricRecord{
		record("T", true, contracts.DerivedMetrics{PERatio: f(12.1)}),
		record("A", false, contracts.DerivedMetrics{PERatio: f(15.0)}),
		record("B", false, contracts.DerivedMetrics{PERatio: f(9.5)}),
	}

	m := RankMetric(contracts.MetricPERatio, records)
	ranks := ranksOf(m)

	assert.Equal(t, contracts.LowerIsBetter, m.Direction)
	assert.Equal(t, 1, *ranks["B"])
	assert.Equal(t, 2, *ranks["T"])
	assert.Equal(t, 3, *ranks["A"])
	assert.Equal(t, "2nd cheapest of 3", m.Description)
}

func TestRankMetric_RankInvariant(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}
	var records []contracts.EntityMetricRecord
	for i, v := range values {
		records = append(records, record(string(rune('A'+i)), i == 0, contracts.DerivedMetrics{NetMargin: f(v)}))
	}

	m := RankMetric(contracts.MetricNetMargin, records)

	// Best value gets rank 1; each rank equals 1 + number of strictly better values
	for _, e := range m.Entries {
		better := 0
		for _, v := range values {
			if v > *e.Value {
				better++
			}
		}
		assert.Equal(t, better+1, *e.Rank, e.Symbol)
	}
	assert.Equal(t, 1, *m.Entries[0].Rank)
	assert.Equal(t, 9.0, *m.Entries[0].Value)
}

func TestRankMetric_NoTargetValue(t *testing.T) {
	records := []contracts.EntityMetricRecord{
		record("T", true, contracts.DerivedMetrics{}),
		record("A", false, contracts.DerivedMetrics{CombinedRatio: f(95)}),
	}

	m := RankMetric(contracts.MetricCombinedRatio, records)
	assert.Nil(t, m.TargetRank)
	assert.Nil(t, m.TargetGap)
	assert.Empty(t, m.Description)
	assert.InDelta(t, 95.0, *m.PeerAverage, 1e-12)
}

func TestOverallRanks_RenormalizesWeights(t *testing.T) {
	records := []contracts.EntityMetricRecord{
		record("T", true, contracts.DerivedMetrics{PERatio: f(10), ROE: f(0.10)}),
		record("A", false, contracts.DerivedMetrics{PERatio: f(20), ROE: f(0.30)}),
		record("B", false, contracts.DerivedMetrics{ROE: f(0.20)}), // no P/E
	}
	weights := MetricWeights{contracts.MetricPERatio: 0.5, contracts.MetricROE: 0.5}

	overall := OverallRanks(records, RankAll(records), weights)
	require.Len(t, overall, 3)

	byID := map[string]contracts.OverallRank{}
	for _, o := range overall {
		byID[o.Symbol] = o
	}

	// T: pe 1, roe 3 -> 2.0; A: pe 2, roe 1 -> 1.5; B: roe 2 only -> 2.0
	assert.InDelta(t, 2.0, *byID["T"].Score, 1e-12)
	assert.InDelta(t, 1.5, *byID["A"].Score, 1e-12)
	assert.InDelta(t, 2.0, *byID["B"].Score, 1e-12)
	assert.Equal(t, 1, byID["B"].MetricsUsed)
	assert.InDelta(t, 0.5, byID["B"].WeightCovered, 1e-12)

	assert.Equal(t, 1, *byID["A"].Rank)
	assert.Equal(t, 2, *byID["T"].Rank)
	assert.Equal(t, 2, *byID["B"].Rank)
	assert.Equal(t, "A", overall[0].Symbol)
}

func TestOverallRanks_UnscoredEntity(t *testing.T) {
	records := []contracts.EntityMetricRecord{
		record("T", true, contracts.DerivedMetrics{ROE: f(0.1)}),
		record("A", false, contracts.DerivedMetrics{}),
	}

	overall := OverallRanks(records, RankAll(records), DefaultMetricWeights())
	require.Len(t, overall, 2)
	assert.Equal(t, "T", overall[0].Symbol)
	assert.Equal(t, 1, *overall[0].Rank)
	assert.Nil(t, overall[1].Score)
	assert.Nil(t, overall[1].Rank)
}

func TestDescribeRank(t *testing.T) {
	tests := []struct {
		name    contracts.MetricName
		rank, n int
		tied    bool
		want    string
	}{
		{contracts.MetricROE, 1, 5, false, "best of 5"},
		{contracts.MetricROE, 1, 5, true, "tied for best of 5"},
		{contracts.MetricROE, 5, 5, false, "worst of 5"},
		{contracts.MetricROE, 3, 5, false, "3rd best of 5"},
		{contracts.MetricROE, 2, 5, true, "tied for 2nd best of 5"},
		{contracts.MetricPERatio, 1, 4, false, "cheapest of 4"},
		{contracts.MetricPERatio, 4, 4, false, "most expensive of 4"},
		{contracts.MetricROE, 11, 12, false, "11th best of 12"},
		{contracts.MetricROE, 1, 1, false, "only company reporting"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeRank(tt.name, tt.rank, tt.n, tt.tied))
		})
	}
}
