package contracts

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile EntityProfile
		field   string
	}{
		{
			name:    "valid profile",
			profile: EntityProfile{Symbol: "WRB", MarketCap: 20e9, Revenue: Float(12e9)},
		},
		{
			name:    "missing symbol",
			profile: EntityProfile{Symbol: "  ", MarketCap: 1e9},
			field:   "symbol",
		},
		{
			name:    "nan market cap",
			profile: EntityProfile{Symbol: "CB", MarketCap: math.NaN()},
			field:   "market_cap",
		},
		{
			name:    "infinite revenue",
			profile: EntityProfile{Symbol: "TRV", MarketCap: 1e9, Revenue: Float(math.Inf(1))},
			field:   "revenue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestSimilarityScore_Components(t *testing.T) {
	score := SimilarityScore{Sector: 1, MarketCap: 0.903, Revenue: 0.921, Geography: 0.5}

	components := score.Components()
	require.Len(t, components, 4)
	assert.Equal(t, ComponentSector, components[0].Name)
	assert.Equal(t, ComponentGeography, components[3].Name)
	assert.Equal(t, "Sector: 1.00, MCap: 0.90, Revenue: 0.92, Geo: 0.50", score.Explanation())
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "BRK.B", NormalizeSymbol(" brk.b "))
	assert.Equal(t, "", NormalizeSymbol(""))
}

func TestEntityMetricRecord_Value(t *testing.T) {
	record := EntityMetricRecord{
		Symbol:    "WRB",
		Available: true,
		Derived:   &DerivedMetrics{PERatio: Float(12.1)},
	}
	require.NotNil(t, record.Value(MetricPERatio))
	assert.Equal(t, 12.1, *record.Value(MetricPERatio))
	assert.Nil(t, record.Value(MetricROE))

	tomb := NewTombstone("CINF", false, "timeout")
	assert.False(t, tomb.Available)
	assert.Nil(t, tomb.Value(MetricPERatio))
}

func TestValuationBridge_Totals(t *testing.T) {
	bridge := ValuationBridge{
		Start: 15.1,
		End:   12.1,
		Components: []BridgeComponent{
			{Name: "Peer average", Kind: BridgeStart, Cumulative: 15.1},
			{Name: "Fundamental adjustment", Kind: BridgeDelta, Delta: -2.44, Cumulative: 12.66},
			{Name: "Fundamental fair value", Kind: BridgeCheckpoint, Cumulative: 12.66},
			{Name: "Narrative discount", Kind: BridgeDelta, Delta: -0.56, Cumulative: 12.1},
			{Name: "Actual multiple", Kind: BridgeEnd, Cumulative: 12.1},
		},
		Checkpoint: 2,
	}

	assert.InDelta(t, -3.0, bridge.TotalDelta(), 1e-9)
	assert.InDelta(t, 12.66, bridge.FairValue(), 1e-9)
}

func TestErrors(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := error(&CollectionFailure{Symbol: "CB", Reason: "fetch", Err: cause})
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "CB")

	batch := &BatchFailure{Reason: "target collection failed", Failures: []string{"WRB", "CB"}}
	assert.Contains(t, batch.Error(), "WRB, CB")

	wrapped := fmt.Errorf("fit peers: %w", ErrInsufficientData)
	assert.True(t, errors.Is(wrapped, ErrInsufficientData))
}
