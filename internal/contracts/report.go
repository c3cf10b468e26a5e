package contracts

import "time"

// Insight is a single observation about the target's relative position
type Insight struct {
	Metric      MetricName `json:"metric"`
	Value       *float64   `json:"value,omitempty"`
	Rank        int        `json:"rank"`
	OutOf       int        `json:"out_of"`
	Description string     `json:"description"`
}

// Insights are derived from the target's rankings
type Insights struct {
	Strengths         []Insight `json:"strengths"`
	Weaknesses        []Insight `json:"weaknesses"`
	PerceptionGaps    []Insight `json:"perception_gaps"`
	TargetPE          *float64  `json:"target_pe,omitempty"`            // recommended re-rate P/E
	ImpliedMarketCap  *float64  `json:"implied_market_cap,omitempty"`   // market cap at TargetPE
	ExtremeLeverage   []string  `json:"extreme_leverage,omitempty"`     // peers with equity <= 0 or D/E > 10
	PEDiscountToPeers *float64  `json:"pe_discount_to_peers,omitempty"` // peer average - target P/E
}

// ValuationAnalysis is the valuation section of a report
// Decomposition and Bridge are nil when the regression could not be fitted
type ValuationAnalysis struct {
	Multiple            MetricName        `json:"multiple"`
	ActualMultiple      float64           `json:"actual_multiple"`
	PeerAverageMultiple float64           `json:"peer_average_multiple"`
	TotalGap            float64           `json:"total_gap"`
	Regression          *RegressionResult `json:"regression,omitempty"`
	Decomposition       *GapDecomposition `json:"decomposition,omitempty"`
	Bridge              *ValuationBridge  `json:"bridge,omitempty"`
	Note                string            `json:"note,omitempty"`
}

// AnalysisReport is the full output of one comparative run
type AnalysisReport struct {
	ReportID       string               `json:"report_id"`
	TargetSymbol   string               `json:"target_symbol"`
	Target         EntityProfile        `json:"target"`
	ManualPeers    bool                 `json:"manual_peers"`
	Peers          []PeerCandidate      `json:"peers"`
	Records        []EntityMetricRecord `json:"records"`
	Rankings       []RankedMetric       `json:"rankings"`
	Overall        []OverallRank        `json:"overall"`
	Failures       []string             `json:"failures"`
	Insights       *Insights            `json:"insights,omitempty"`
	Valuation      *ValuationAnalysis   `json:"valuation,omitempty"`
	ConfigHash     string               `json:"config_hash,omitempty"`
	GeneratedAt    time.Time            `json:"generated_at"`
	ProcessingTime time.Duration        `json:"processing_time"`
}

// Ranking returns the ranked metric by name
func (r *AnalysisReport) Ranking(name MetricName) (RankedMetric, bool) {
	for _, m := range r.Rankings {
		if m.Name == name {
			return m, true
		}
	}
	return RankedMetric{}, false
}

// TargetOverall returns the target's overall rank entry
func (r *AnalysisReport) TargetOverall() (OverallRank, bool) {
	for _, o := range r.Overall {
		if o.IsTarget {
			return o, true
		}
	}
	return OverallRank{}, false
}

// ReportSummary is a lightweight listing row
type ReportSummary struct {
	ReportID       string    `json:"report_id"`
	TargetSymbol   string    `json:"target_symbol"`
	PeerCount      int       `json:"peer_count"`
	FailureCount   int       `json:"failure_count"`
	ConfigHash     string    `json:"config_hash"`
	ProcessingTime float64   `json:"processing_time_seconds"`
	CreatedAt      time.Time `json:"created_at"`
}
