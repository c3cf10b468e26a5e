package comparative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/peergap/internal/contracts"
)

func insightResult() *Result {
	records := []contracts.EntityMetricRecord{
		record("WRB", true, contracts.DerivedMetrics{PERatio: f(12.1), ROE: f(0.22), NetMargin: f(0.05), MarketCap: f(20e9)}),
		record("CINF", false, contracts.DerivedMetrics{PERatio: f(14.0), ROE: f(0.12), NetMargin: f(0.12), DebtToEquity: f(0.3)}),
		record("AFG", false, contracts.DerivedMetrics{PERatio: f(16.2), ROE: f(0.18), NetMargin: f(0.10), DebtToEquity: f(12)}),
		record("MKL", false, contracts.DerivedMetrics{PERatio: f(15.1), ROE: f(0.10), NetMargin: f(0.09), DebtToEquity: f(0.4)}),
	}
	negEquity := record("HIG", false, contracts.DerivedMetrics{PERatio: f(20), ROE: f(0.05), NetMargin: f(0.08)})
	negEquity.Raw = &contracts.RawFinancials{Periods: []contracts.StatementPeriod{{TotalEquity: f(-5)}}}
	records = append(records, negEquity)

	rankings := RankAll(records)
	return &Result{
		Records:  records,
		Rankings: rankings,
		Overall:  OverallRanks(records, rankings, DefaultMetricWeights()),
		Failures: []string{},
	}
}

func metricsOf(in []contracts.Insight) []contracts.MetricName {
	out := make([]contracts.MetricName, len(in))
	for i, x := range in {
		out[i] = x.Metric
	}
	return out
}

func TestBuildInsights(t *testing.T) {
	ins := BuildInsights(insightResult(), DefaultInsightConfig())

	assert.ElementsMatch(t, []contracts.MetricName{contracts.MetricPERatio, contracts.MetricROE}, metricsOf(ins.Strengths))
	assert.ElementsMatch(t, []contracts.MetricName{contracts.MetricNetMargin}, metricsOf(ins.Weaknesses))

	// ROE leads while P/E sits below the peer average
	require.Len(t, ins.PerceptionGaps, 1)
	assert.Equal(t, contracts.MetricROE, ins.PerceptionGaps[0].Metric)
	assert.Contains(t, ins.PerceptionGaps[0].Description, "ROE ranks 1st of 5")

	peerAvg := (14.0 + 16.2 + 15.1 + 20) / 4
	require.NotNil(t, ins.PEDiscountToPeers)
	assert.InDelta(t, peerAvg-12.1, *ins.PEDiscountToPeers, 1e-9)

	require.NotNil(t, ins.TargetPE)
	assert.InDelta(t, TargetPE(12.1, peerAvg, DefaultInsightConfig()), *ins.TargetPE, 1e-12)
	require.NotNil(t, ins.ImpliedMarketCap)
	assert.InDelta(t, 20e9**ins.TargetPE/12.1, *ins.ImpliedMarketCap, 1)

	assert.ElementsMatch(t, []string{"AFG", "HIG"}, ins.ExtremeLeverage)
}

func TestBuildInsights_NoPE(t *testing.T) {
	records := []contracts.EntityMetricRecord{
		record("T", true, contracts.DerivedMetrics{ROE: f(0.2)}),
		record("A", false, contracts.DerivedMetrics{ROE: f(0.1)}),
	}
	result := &Result{Records: records, Rankings: RankAll(records)}

	ins := BuildInsights(result, DefaultInsightConfig())
	assert.Len(t, ins.Strengths, 1)
	assert.Empty(t, ins.Weaknesses) // fewer than 3 ranked
	assert.Nil(t, ins.TargetPE)
	assert.Nil(t, ins.ImpliedMarketCap)
	assert.Empty(t, ins.PerceptionGaps)
}

func TestTargetPE(t *testing.T) {
	cfg := DefaultInsightConfig()

	// 12.1 + 0.35 * 3.0 = 13.15
	assert.InDelta(t, 13.15, TargetPE(12.1, 15.1, cfg), 1e-9)
	// 10 + 0.35 * 5 = 11.75
	assert.InDelta(t, 11.75, TargetPE(10, 15, cfg), 1e-9)
	// 10 + 0.35 * 1.1 = 10.385 -> 10.40
	assert.InDelta(t, 10.40, TargetPE(10, 11.1, cfg), 1e-9)
	// Premium names are pulled back to the peer average
	assert.Equal(t, 15.0, TargetPE(18, 15, cfg))
}

func TestImpliedMarketCap(t *testing.T) {
	assert.InDelta(t, 12e9, ImpliedMarketCap(10e9, 10, 12), 1e-3)
	assert.Equal(t, 10e9, ImpliedMarketCap(10e9, 0, 12))
}

func TestExtremeLeverage(t *testing.T) {
	derivedOnly := record("AFG", false, contracts.DerivedMetrics{DebtToEquity: f(12)})
	negEquity := record("HIG", false, contracts.DerivedMetrics{DebtToEquity: f(0.5)})
	negEquity.Raw = &contracts.RawFinancials{Periods: []contracts.StatementPeriod{{TotalEquity: f(-5)}}}
	target := record("WRB", true, contracts.DerivedMetrics{DebtToEquity: f(30)})
	normal := record("CINF", false, contracts.DerivedMetrics{DebtToEquity: f(0.3)})

	got := extremeLeverage([]contracts.EntityMetricRecord{target, derivedOnly, negEquity, normal}, 10)
	assert.Equal(t, []string{"AFG", "HIG"}, got)
}
