package peers

import "github.com/wonny/peergap/internal/contracts"

// Classify returns the relationship tier between target and candidate
// Depends only on sector/industry equality (case-insensitive).
func Classify(target, candidate contracts.EntityProfile) contracts.PeerRelationship {
	if !sameTaxonomy(target.Sector, candidate.Sector) {
		return contracts.RelationshipFinancial
	}
	if sameTaxonomy(target.Industry, candidate.Industry) {
		return contracts.RelationshipIndustry
	}
	return contracts.RelationshipSector
}

// TierMultipliers boost the combined score by relationship tier
type TierMultipliers struct {
	Industry  float64 `json:"industry"`
	Sector    float64 `json:"sector"`
	Financial float64 `json:"financial"`
}

// DefaultTierMultipliers returns 1.3 / 1.1 / 1.0
func DefaultTierMultipliers() TierMultipliers {
	return TierMultipliers{
		Industry:  1.3,
		Sector:    1.1,
		Financial: 1.0,
	}
}

// For returns the multiplier for a tier
func (m TierMultipliers) For(rel contracts.PeerRelationship) float64 {
	switch rel {
	case contracts.RelationshipIndustry:
		return m.Industry
	case contracts.RelationshipSector:
		return m.Sector
	default:
		return m.Financial
	}
}
