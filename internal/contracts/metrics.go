package contracts

import (
	"fmt"
	"time"
)

// StatementPeriod is one fiscal period of income statement and balance sheet fields
// nil = provider did not report the field
type StatementPeriod struct {
	PeriodEnd          time.Time `json:"period_end"`
	Revenue            *float64  `json:"revenue,omitempty"`
	CostOfRevenue      *float64  `json:"cost_of_revenue,omitempty"`
	GrossProfit        *float64  `json:"gross_profit,omitempty"`
	OperatingIncome    *float64  `json:"operating_income,omitempty"`
	OperatingExpenses  *float64  `json:"operating_expenses,omitempty"`
	NetIncome          *float64  `json:"net_income,omitempty"`
	TotalEquity        *float64  `json:"total_equity,omitempty"`
	TotalDebt          *float64  `json:"total_debt,omitempty"`
	TotalAssets        *float64  `json:"total_assets,omitempty"`
	CurrentAssets      *float64  `json:"current_assets,omitempty"`
	CurrentLiabilities *float64  `json:"current_liabilities,omitempty"`
}

// RawFinancials is the collected input for one entity
// Periods are ordered newest first
type RawFinancials struct {
	Profile           EntityProfile     `json:"profile"`
	Price             *float64          `json:"price,omitempty"`
	SharesOutstanding *float64          `json:"shares_outstanding,omitempty"`
	MarketCap         *float64          `json:"market_cap,omitempty"`
	Periods           []StatementPeriod `json:"periods"`
	FetchedAt         time.Time         `json:"fetched_at"`
}

// Symbol returns the entity ticker
func (r *RawFinancials) Symbol() string {
	return r.Profile.Symbol
}

// Current returns the most recent period, nil if none
func (r *RawFinancials) Current() *StatementPeriod {
	if len(r.Periods) == 0 {
		return nil
	}
	return &r.Periods[0]
}

// Prior returns the period before the most recent one, nil if none
func (r *RawFinancials) Prior() *StatementPeriod {
	if len(r.Periods) < 2 {
		return nil
	}
	return &r.Periods[1]
}

// MetricName identifies a comparable metric
type MetricName string

const (
	MetricPERatio         MetricName = "pe_ratio"
	MetricROE             MetricName = "roe"
	MetricROA             MetricName = "roa"
	MetricRevenueGrowth   MetricName = "revenue_growth"
	MetricDebtToEquity    MetricName = "debt_to_equity"
	MetricCurrentRatio    MetricName = "current_ratio"
	MetricGrossMargin     MetricName = "gross_margin"
	MetricOperatingMargin MetricName = "operating_margin"
	MetricNetMargin       MetricName = "net_margin"
	MetricCombinedRatio   MetricName = "combined_ratio"
	MetricMarketCap       MetricName = "market_cap"
	MetricDebtRatio       MetricName = "debt_ratio"
)

// RankedMetrics is the ordered set of metrics ranked for every run
var RankedMetrics = []MetricName{
	MetricPERatio,
	MetricROE,
	MetricROA,
	MetricRevenueGrowth,
	MetricDebtToEquity,
	MetricCurrentRatio,
	MetricGrossMargin,
	MetricOperatingMargin,
	MetricNetMargin,
	MetricCombinedRatio,
	MetricMarketCap,
	MetricDebtRatio,
}

// Direction is the polarity of a metric
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// DerivedMetrics are the ratios computed from RawFinancials
// nil = undefined (excluded from ranking, shown as n/a)
type DerivedMetrics struct {
	EPS             *float64 `json:"eps,omitempty"`
	PERatio         *float64 `json:"pe_ratio,omitempty"`
	ROE             *float64 `json:"roe,omitempty"`
	ROA             *float64 `json:"roa,omitempty"`
	RevenueGrowth   *float64 `json:"revenue_growth,omitempty"`
	DebtToEquity    *float64 `json:"debt_to_equity,omitempty"`
	DebtRatio       *float64 `json:"debt_ratio,omitempty"`
	CurrentRatio    *float64 `json:"current_ratio,omitempty"`
	GrossMargin     *float64 `json:"gross_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	NetMargin       *float64 `json:"net_margin,omitempty"`
	CombinedRatio   *float64 `json:"combined_ratio,omitempty"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
}

// Value returns the derived value for a metric name
func (d DerivedMetrics) Value(name MetricName) *float64 {
	switch name {
	case MetricPERatio:
		return d.PERatio
	case MetricROE:
		return d.ROE
	case MetricROA:
		return d.ROA
	case MetricRevenueGrowth:
		return d.RevenueGrowth
	case MetricDebtToEquity:
		return d.DebtToEquity
	case MetricCurrentRatio:
		return d.CurrentRatio
	case MetricGrossMargin:
		return d.GrossMargin
	case MetricOperatingMargin:
		return d.OperatingMargin
	case MetricNetMargin:
		return d.NetMargin
	case MetricCombinedRatio:
		return d.CombinedRatio
	case MetricMarketCap:
		return d.MarketCap
	case MetricDebtRatio:
		return d.DebtRatio
	}
	return nil
}

// EntityMetricRecord is the per-entity result of a collection attempt
// Available=false marks a tombstone: symbol and failure reason only
type EntityMetricRecord struct {
	Symbol        string          `json:"symbol"`
	IsTarget      bool            `json:"is_target"`
	Available     bool            `json:"available"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Raw           *RawFinancials  `json:"raw,omitempty"`
	Derived       *DerivedMetrics `json:"derived,omitempty"`
}

// NewTombstone creates a failed collection record
func NewTombstone(symbol string, isTarget bool, reason string) EntityMetricRecord {
	return EntityMetricRecord{
		Symbol:        symbol,
		IsTarget:      isTarget,
		Available:     false,
		FailureReason: reason,
	}
}

// Value returns a derived metric, nil for tombstones and undefined values
func (r EntityMetricRecord) Value(name MetricName) *float64 {
	if !r.Available || r.Derived == nil {
		return nil
	}
	return r.Derived.Value(name)
}

// EntityRank is one entity's position on a single metric
type EntityRank struct {
	Symbol   string   `json:"symbol"`
	IsTarget bool     `json:"is_target"`
	Value    *float64 `json:"value,omitempty"`
	Rank     *int     `json:"rank,omitempty"` // nil when Value is nil
	Tied     bool     `json:"tied,omitempty"`
}

// RankedMetric is the cross-entity view of one metric
type RankedMetric struct {
	Name         MetricName   `json:"name"`
	Direction    Direction    `json:"direction"`
	Entries      []EntityRank `json:"entries"`
	RankedCount  int          `json:"ranked_count"`
	PeerAverage  *float64     `json:"peer_average,omitempty"` // excludes target and nulls
	TargetValue  *float64     `json:"target_value,omitempty"`
	TargetRank   *int         `json:"target_rank,omitempty"`
	TargetGap    *float64     `json:"target_gap,omitempty"`     // target - peer average
	TargetGapPct *float64     `json:"target_gap_pct,omitempty"` // gap as % of |peer average|
	Description  string       `json:"description,omitempty"`
}

// Entry returns the rank entry for a symbol
func (m RankedMetric) Entry(symbol string) (EntityRank, bool) {
	for _, e := range m.Entries {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return EntityRank{}, false
}

// OverallRank is the weighted aggregate position of one entity
type OverallRank struct {
	Symbol        string   `json:"symbol"`
	IsTarget      bool     `json:"is_target"`
	Score         *float64 `json:"score,omitempty"` // weighted mean of metric ranks (lower is better)
	Rank          *int     `json:"rank,omitempty"`
	MetricsUsed   int      `json:"metrics_used"`
	WeightCovered float64  `json:"weight_covered"`
}

// RankString renders a rank pointer for logs
func RankString(rank *int) string {
	if rank == nil {
		return "n/a"
	}
	return fmt.Sprintf("#%d", *rank)
}
