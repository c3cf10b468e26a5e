package peers

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/peergap/internal/contracts"
)

// Weights defines similarity component weights for the combined score
type Weights struct {
	Sector    float64 `json:"sector"`     // 기본: 0.40
	MarketCap float64 `json:"market_cap"` // 기본: 0.30
	Revenue   float64 `json:"revenue"`    // 기본: 0.20
	Geography float64 `json:"geography"`  // 기본: 0.10
}

// DefaultWeights returns the fixed default similarity weights
func DefaultWeights() Weights {
	return Weights{
		Sector:    0.40,
		MarketCap: 0.30,
		Revenue:   0.20,
		Geography: 0.10,
	}
}

// Validate checks weights are non-negative and sum to 1.0
func (w Weights) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"sector", w.Sector},
		{"market_cap", w.MarketCap},
		{"revenue", w.Revenue},
		{"geography", w.Geography},
	}
	for _, f := range fields {
		if f.value < 0 || !contracts.IsFinite(f.value) {
			return &contracts.ValidationError{Field: "weights." + f.name, Message: "must be a non-negative number"}
		}
	}

	sum := w.Sector + w.MarketCap + w.Revenue + w.Geography
	// Allow small floating point error
	if sum < 0.99 || sum > 1.01 {
		return &contracts.ValidationError{Field: "weights", Message: fmt.Sprintf("must sum to 1.0, got %.4f", sum)}
	}
	return nil
}

// Scorer computes multi-factor similarity between two profiles
// ⭐ SSOT: 유사도 계산은 여기서만
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score returns component-wise and combined similarity
func (s *Scorer) Score(target, candidate contracts.EntityProfile) contracts.SimilarityScore {
	score := contracts.SimilarityScore{
		Sector:    SectorScore(target.Sector, candidate.Sector),
		MarketCap: MagnitudeProximity(target.MarketCap, candidate.MarketCap),
		Revenue:   revenueProximity(target.Revenue, candidate.Revenue),
		Geography: GeographyScore(target.Country, candidate.Country),
	}

	// Not re-clamped: components are already in [0,1]
	score.Combined = s.weights.Sector*score.Sector +
		s.weights.MarketCap*score.MarketCap +
		s.weights.Revenue*score.Revenue +
		s.weights.Geography*score.Geography

	return score
}

// SectorScore is 1.0 when both sectors are set and equal ignoring case
func SectorScore(target, candidate string) float64 {
	if sameTaxonomy(target, candidate) {
		return 1.0
	}
	return 0.0
}

// MagnitudeProximity scores two positive magnitudes on a log scale
// 1 - |log10(a/b)| clamped to [0,1]; 0 when either value is unusable
func MagnitudeProximity(a, b float64) float64 {
	if !contracts.IsFinite(a) || !contracts.IsFinite(b) || a <= 0 || b <= 0 {
		return 0.0
	}

	score := 1.0 - math.Abs(math.Log10(a/b))
	return math.Max(0.0, math.Min(1.0, score))
}

func revenueProximity(a, b *float64) float64 {
	if a == nil || b == nil {
		return 0.0
	}
	return MagnitudeProximity(*a, *b)
}

func sameTaxonomy(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
