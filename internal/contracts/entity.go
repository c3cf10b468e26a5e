package contracts

import (
	"fmt"
	"math"
	"strings"
)

// EntityProfile is an immutable company snapshot used for peer scoring
// ⭐ SSOT: 피어 탐색 입력은 이 구조체로만
type EntityProfile struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Sector    string   `json:"sector"`
	Industry  string   `json:"industry"`
	MarketCap float64  `json:"market_cap"`
	Country   string   `json:"country"`
	Revenue   *float64 `json:"revenue,omitempty"` // trailing revenue, optional
	Exchange  string   `json:"exchange,omitempty"`
}

// Validate checks the fields required before any scoring starts
func (p EntityProfile) Validate() error {
	if strings.TrimSpace(p.Symbol) == "" {
		return &ValidationError{Field: "symbol", Message: "required"}
	}
	if math.IsNaN(p.MarketCap) || math.IsInf(p.MarketCap, 0) {
		return &ValidationError{Field: "market_cap", Message: fmt.Sprintf("%s: not a finite number", p.Symbol)}
	}
	if p.Revenue != nil && (math.IsNaN(*p.Revenue) || math.IsInf(*p.Revenue, 0)) {
		return &ValidationError{Field: "revenue", Message: fmt.Sprintf("%s: not a finite number", p.Symbol)}
	}
	return nil
}

// NormalizedSymbol returns the upper-cased, trimmed symbol
func (p EntityProfile) NormalizedSymbol() string {
	return NormalizeSymbol(p.Symbol)
}

// NormalizeSymbol upper-cases and trims a ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// SimilarityComponent names one factor of a similarity score
type SimilarityComponent string

const (
	ComponentSector    SimilarityComponent = "sector"
	ComponentMarketCap SimilarityComponent = "market_cap"
	ComponentRevenue   SimilarityComponent = "revenue"
	ComponentGeography SimilarityComponent = "geography"
)

// ComponentScore is a single named similarity factor
type ComponentScore struct {
	Name  SimilarityComponent `json:"name"`
	Score float64             `json:"score"`
}

// SimilarityScore holds component scores in [0,1] and their weighted sum
type SimilarityScore struct {
	Sector    float64 `json:"sector"`
	MarketCap float64 `json:"market_cap"`
	Revenue   float64 `json:"revenue"`
	Geography float64 `json:"geography"`
	Combined  float64 `json:"combined"`
}

// Components returns the component scores in fixed order
func (s SimilarityScore) Components() []ComponentScore {
	return []ComponentScore{
		{Name: ComponentSector, Score: s.Sector},
		{Name: ComponentMarketCap, Score: s.MarketCap},
		{Name: ComponentRevenue, Score: s.Revenue},
		{Name: ComponentGeography, Score: s.Geography},
	}
}

// Explanation renders the component scores for display
func (s SimilarityScore) Explanation() string {
	return fmt.Sprintf("Sector: %.2f, MCap: %.2f, Revenue: %.2f, Geo: %.2f",
		s.Sector, s.MarketCap, s.Revenue, s.Geography)
}

// PeerRelationship is the business-relationship tier between target and peer
type PeerRelationship string

const (
	RelationshipIndustry  PeerRelationship = "industry"  // same sector and industry
	RelationshipSector    PeerRelationship = "sector"    // same sector only
	RelationshipFinancial PeerRelationship = "financial" // neither
)

// PeerSource records how a peer entered the peer set
type PeerSource string

const (
	SourceScreenerIndustry PeerSource = "screener_industry"
	SourceScreenerSector   PeerSource = "screener_sector"
	SourceHint             PeerSource = "hint"
	SourceManual           PeerSource = "manual"
)

// PeerCandidate is a scored candidate produced during discovery
type PeerCandidate struct {
	Profile       EntityProfile    `json:"profile"`
	Score         SimilarityScore  `json:"score"`
	Relationship  PeerRelationship `json:"relationship"`
	WeightedScore float64          `json:"weighted_score"`
	Source        PeerSource       `json:"source"`
	Explanation   string           `json:"explanation,omitempty"`
}

// Symbol returns the candidate's ticker
func (c PeerCandidate) Symbol() string {
	return c.Profile.Symbol
}

// CandidateQuery describes a screen for candidate peers
type CandidateQuery struct {
	Sector       string  `json:"sector,omitempty"`
	Industry     string  `json:"industry,omitempty"`
	Country      string  `json:"country,omitempty"`
	MarketCapMin float64 `json:"market_cap_min,omitempty"`
	MarketCapMax float64 `json:"market_cap_max,omitempty"`
	Limit        int     `json:"limit,omitempty"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// IsFinite reports whether v is a usable number
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
