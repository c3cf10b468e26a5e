package valuation

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/peergap/internal/contracts"
)

// Fundamentals are the regression factors of one entity
// nil = not reported
type Fundamentals struct {
	ROE           *float64 `json:"roe"`
	RevenueGrowth *float64 `json:"revenue_growth"`
	DebtEquity    *float64 `json:"debt_to_equity"`
}

// Value returns the factor value
func (f Fundamentals) Value(factor contracts.Factor) *float64 {
	switch factor {
	case contracts.FactorROE:
		return f.ROE
	case contracts.FactorRevenueGrowth:
		return f.RevenueGrowth
	case contracts.FactorDebtEquity:
		return f.DebtEquity
	}
	return nil
}

// Complete reports whether every factor is present and finite
func (f Fundamentals) Complete() bool {
	for _, factor := range contracts.RegressionFactors {
		v := f.Value(factor)
		if v == nil || !contracts.IsFinite(*v) {
			return false
		}
	}
	return true
}

// Observation is one peer's fundamentals and its actual multiple
type Observation struct {
	Symbol string `json:"symbol"`
	Fundamentals
	Multiple *float64 `json:"multiple"`
}

// usable reports whether the observation can enter the fit
func (o Observation) usable() bool {
	return o.Complete() && o.Multiple != nil && contracts.IsFinite(*o.Multiple) && *o.Multiple > 0
}

// FundamentalsOf extracts the regression factors from a derived record
func FundamentalsOf(rec contracts.EntityMetricRecord) Fundamentals {
	return Fundamentals{
		ROE:           rec.Value(contracts.MetricROE),
		RevenueGrowth: rec.Value(contracts.MetricRevenueGrowth),
		DebtEquity:    rec.Value(contracts.MetricDebtToEquity),
	}
}

// ObservationOf builds a P/E observation from a derived record
func ObservationOf(rec contracts.EntityMetricRecord) Observation {
	return Observation{
		Symbol:       rec.Symbol,
		Fundamentals: FundamentalsOf(rec),
		Multiple:     rec.Value(contracts.MetricPERatio),
	}
}

// Regressor fits Multiple ~ 1 + ROE + RevenueGrowth + DebtEquity by OLS
// ⭐ SSOT: 밸류에이션 회귀는 여기서만
type Regressor struct {
	MinPeers int     // 최소 완전 피어 수 (기본: 2)
	RCond    float64 // relative singular value cutoff for the rank decision
}

// NewRegressor creates a regressor with default settings
func NewRegressor() *Regressor {
	return &Regressor{MinPeers: 2, RCond: 1e-10}
}

// FitAndPredict fits the model on complete peers and predicts the target multiple
//
// The solve is a least squares fit through the thin SVD. With fewer peers than
// parameters the minimum-norm solution is used and Underdetermined is set.
// No regularization or outlier trimming is applied.
func (r *Regressor) FitAndPredict(peers []Observation, target Fundamentals) (*contracts.RegressionResult, error) {
	var used []Observation
	for _, p := range peers {
		if p.usable() {
			used = append(used, p)
		}
	}

	minPeers := r.MinPeers
	if minPeers < 2 {
		minPeers = 2
	}
	if len(used) < minPeers {
		return nil, fmt.Errorf("%d peers with complete fundamentals, need %d: %w", len(used), minPeers, contracts.ErrInsufficientData)
	}
	if !target.Complete() {
		return nil, fmt.Errorf("target fundamentals incomplete: %w", contracts.ErrInsufficientData)
	}

	// Deterministic row order
	sort.SliceStable(used, func(i, j int) bool { return used[i].Symbol < used[j].Symbol })

	n := len(used)
	p := len(contracts.RegressionFactors) + 1

	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	columns := make(map[contracts.Factor][]float64, len(contracts.RegressionFactors))
	multiples := make([]float64, n)

	for i, o := range used {
		x.Set(i, 0, 1)
		for j, factor := range contracts.RegressionFactors {
			v := *o.Value(factor)
			x.Set(i, j+1, v)
			columns[factor] = append(columns[factor], v)
		}
		y.SetVec(i, *o.Multiple)
		multiples[i] = *o.Multiple
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd factorization failed: %w", contracts.ErrInsufficientData)
	}
	rank := svd.Rank(r.RCond)
	if rank == 0 {
		return nil, fmt.Errorf("design matrix has rank 0: %w", contracts.ErrInsufficientData)
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, y, rank)

	result := &contracts.RegressionResult{
		Intercept:        beta.AtVec(0),
		Coefficients:     make(map[contracts.Factor]float64, len(contracts.RegressionFactors)),
		PeersUsed:        make([]string, n),
		PeerMeans:        make(map[contracts.Factor]float64, len(contracts.RegressionFactors)),
		PeerMeanMultiple: stat.Mean(multiples, nil),
		Underdetermined:  rank < p,
	}
	for i, o := range used {
		result.PeersUsed[i] = o.Symbol
	}

	expected := result.Intercept
	for j, factor := range contracts.RegressionFactors {
		coef := beta.AtVec(j + 1)
		mean := stat.Mean(columns[factor], nil)
		tv := *target.Value(factor)

		result.Coefficients[factor] = coef
		result.PeerMeans[factor] = mean
		result.Contributions = append(result.Contributions, contracts.FactorContribution{
			Factor:       factor,
			Coefficient:  coef,
			TargetValue:  tv,
			PeerMean:     mean,
			Contribution: coef * (tv - mean),
		})
		expected += coef * tv
	}
	result.ExpectedMultiple = expected

	// R² over the fitted peers; undefined when the multiples do not vary
	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	ssRes, ssTot := 0.0, 0.0
	for i := 0; i < n; i++ {
		res := multiples[i] - fitted.AtVec(i)
		dev := multiples[i] - result.PeerMeanMultiple
		ssRes += res * res
		ssTot += dev * dev
	}
	if ssTot > 0 {
		result.RSquared = contracts.Float(1 - ssRes/ssTot)
	}

	return result, nil
}
