package peers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/peergap/internal/contracts"
)

func TestScorer_Score_Example(t *testing.T) {
	target := contracts.EntityProfile{
		Symbol: "WRB", Sector: "Financial Services", Industry: "Insurance - Property & Casualty",
		MarketCap: 10e9, Revenue: contracts.Float(5e9), Country: "US",
	}
	candidate := contracts.EntityProfile{
		Symbol: "CINF", Sector: "financial services", Industry: "Insurance - Property & Casualty",
		MarketCap: 8e9, Revenue: contracts.Float(6e9), Country: "United States",
	}

	score := NewScorer(DefaultWeights()).Score(target, candidate)

	assert.Equal(t, 1.0, score.Sector)
	assert.InDelta(t, 0.903, score.MarketCap, 1e-3)
	assert.InDelta(t, 0.921, score.Revenue, 1e-3)
	assert.Equal(t, 1.0, score.Geography)
	// 0.9553 comes from the rounded components above; exact value is 0.95509
	assert.InDelta(t, 0.95509, score.Combined, 1e-4)

	want := 0.40*score.Sector + 0.30*score.MarketCap + 0.20*score.Revenue + 0.10*score.Geography
	assert.InDelta(t, want, score.Combined, 1e-12)
}

func TestMagnitudeProximity(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"equal", 5e9, 5e9, 1.0},
		{"ten times larger", 10e9, 1e9, 0.0},
		{"hundred times larger clamps", 100e9, 1e9, 0.0},
		{"symmetric", 8e9, 10e9, 1 - math.Abs(math.Log10(0.8))},
		{"zero", 0, 1e9, 0.0},
		{"negative", -1e9, 1e9, 0.0},
		{"nan", math.NaN(), 1e9, 0.0},
		{"inf", math.Inf(1), 1e9, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MagnitudeProximity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestScorer_MissingRevenue(t *testing.T) {
	target := contracts.EntityProfile{Symbol: "A", Sector: "Tech", MarketCap: 1e9, Country: "US"}
	candidate := contracts.EntityProfile{Symbol: "B", Sector: "Tech", MarketCap: 1e9, Revenue: contracts.Float(1e9), Country: "US"}

	score := NewScorer(DefaultWeights()).Score(target, candidate)
	assert.Equal(t, 0.0, score.Revenue)
	assert.InDelta(t, 0.8, score.Combined, 1e-12)
}

func TestGeographyScore(t *testing.T) {
	tests := []struct {
		target, candidate string
		want              float64
	}{
		{"US", "USA", 1.0},
		{"US", "united states of america", 1.0},
		{"GB", "United Kingdom", 1.0},
		{"US", "CA", 0.5},
		{"Canada", "Mexico", 0.5},
		{"DE", "FR", 0.5},
		{"JP", "Hong Kong", 0.5},
		{"US", "DE", 0.0},
		{"BR", "AR", 0.0}, // other never matches as a region
		{"BR", "BR", 1.0},
		{"", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.target+"_"+tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.want, GeographyScore(tt.target, tt.candidate))
		})
	}
}

func TestSectorScore(t *testing.T) {
	assert.Equal(t, 1.0, SectorScore("Technology", " technology "))
	assert.Equal(t, 0.0, SectorScore("Technology", "Energy"))
	assert.Equal(t, 0.0, SectorScore("", ""))
}

func TestWeights_Validate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	bad := DefaultWeights()
	bad.Sector = 0.9
	assert.Error(t, bad.Validate())

	negative := Weights{Sector: 1.2, MarketCap: -0.2}
	assert.Error(t, negative.Validate())
}

func TestClassify(t *testing.T) {
	base := contracts.EntityProfile{Symbol: "T", Sector: "Financial Services", Industry: "Insurance - Specialty"}

	tests := []struct {
		name      string
		candidate contracts.EntityProfile
		want      contracts.PeerRelationship
	}{
		{"same industry ignoring case", contracts.EntityProfile{Sector: "FINANCIAL SERVICES", Industry: "insurance - specialty"}, contracts.RelationshipIndustry},
		{"same sector", contracts.EntityProfile{Sector: "Financial Services", Industry: "Banks - Regional"}, contracts.RelationshipSector},
		{"different sector same industry label", contracts.EntityProfile{Sector: "Technology", Industry: "Insurance - Specialty"}, contracts.RelationshipFinancial},
		{"nothing in common", contracts.EntityProfile{Sector: "Energy", Industry: "Oil & Gas"}, contracts.RelationshipFinancial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(base, tt.candidate))
			// Tier outcome is symmetric under argument swap
			assert.Equal(t, tt.want, Classify(tt.candidate, base))
		})
	}
}

func TestTierMultipliers_For(t *testing.T) {
	m := DefaultTierMultipliers()
	assert.Equal(t, 1.3, m.For(contracts.RelationshipIndustry))
	assert.Equal(t, 1.1, m.For(contracts.RelationshipSector))
	assert.Equal(t, 1.0, m.For(contracts.RelationshipFinancial))
}
