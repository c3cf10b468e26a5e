package contracts

// Factor is a fundamental driver used by the valuation regression
type Factor string

const (
	FactorROE           Factor = "roe"
	FactorRevenueGrowth Factor = "revenue_growth"
	FactorDebtEquity    Factor = "debt_to_equity"
)

// RegressionFactors is the fixed factor order of the valuation model
var RegressionFactors = []Factor{FactorROE, FactorRevenueGrowth, FactorDebtEquity}

// Label returns a display name for the factor
func (f Factor) Label() string {
	switch f {
	case FactorROE:
		return "ROE"
	case FactorRevenueGrowth:
		return "Revenue growth"
	case FactorDebtEquity:
		return "Leverage (D/E)"
	}
	return string(f)
}

// FactorContribution is one factor's share of the fundamental component
// Contribution = Coefficient * (TargetValue - PeerMean)
type FactorContribution struct {
	Factor       Factor  `json:"factor"`
	Coefficient  float64 `json:"coefficient"`
	TargetValue  float64 `json:"target_value"`
	PeerMean     float64 `json:"peer_mean"`
	Contribution float64 `json:"contribution"`
}

// RegressionResult is the fitted model and the target prediction
type RegressionResult struct {
	Intercept        float64              `json:"intercept"`
	Coefficients     map[Factor]float64   `json:"coefficients"`
	RSquared         *float64             `json:"r_squared,omitempty"`
	PeersUsed        []string             `json:"peers_used"`
	PeerMeans        map[Factor]float64   `json:"peer_means"`
	PeerMeanMultiple float64              `json:"peer_mean_multiple"`
	ExpectedMultiple float64              `json:"expected_multiple"`
	Contributions    []FactorContribution `json:"contributions"`
	Underdetermined  bool                 `json:"underdetermined,omitempty"`
}

// BridgeKind classifies a bridge component
type BridgeKind string

const (
	BridgeStart      BridgeKind = "start"
	BridgeDelta      BridgeKind = "delta"
	BridgeCheckpoint BridgeKind = "checkpoint"
	BridgeEnd        BridgeKind = "end"
)

// BridgeComponent is one step of a valuation bridge
type BridgeComponent struct {
	Name        string     `json:"name"`
	Kind        BridgeKind `json:"kind"`
	Delta       float64    `json:"delta"`
	Cumulative  float64    `json:"cumulative"`
	Fundamental bool       `json:"fundamental,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
}

// ValuationBridge walks from the peer average multiple to the actual multiple
// ⭐ SSOT: sum(Delta) == End - Start
type ValuationBridge struct {
	Start      float64           `json:"start"`
	End        float64           `json:"end"`
	Components []BridgeComponent `json:"components"`
	Checkpoint int               `json:"checkpoint"` // index of the fair value component
}

// TotalDelta sums all component deltas
func (b *ValuationBridge) TotalDelta() float64 {
	total := 0.0
	for _, c := range b.Components {
		total += c.Delta
	}
	return total
}

// FairValue returns the checkpoint cumulative value
func (b *ValuationBridge) FairValue() float64 {
	if b.Checkpoint < 0 || b.Checkpoint >= len(b.Components) {
		return b.Start
	}
	return b.Components[b.Checkpoint].Cumulative
}

// GapDecomposition splits a multiple gap into fundamental and narrative parts
type GapDecomposition struct {
	ActualMultiple      float64 `json:"actual_multiple"`
	PeerAverageMultiple float64 `json:"peer_average_multiple"`
	ExpectedMultiple    float64 `json:"expected_multiple"`
	FundamentalGap      float64 `json:"fundamental_gap"`
	NarrativeGap        float64 `json:"narrative_gap"`
	TotalGap            float64 `json:"total_gap"`
}
