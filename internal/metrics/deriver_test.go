package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/peergap/internal/contracts"
)

var f = contracts.Float

func insurerRaw() *contracts.RawFinancials {
	return &contracts.RawFinancials{
		Profile: contracts.EntityProfile{
			Symbol:   "WRB",
			Sector:   "Financial Services",
			Industry: "Insurance - Property & Casualty",
		},
		Price:             f(60),
		SharesOutstanding: f(100),
		Periods: []contracts.StatementPeriod{
			{
				PeriodEnd:          time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
				Revenue:            f(1100),
				CostOfRevenue:      f(700),
				OperatingExpenses:  f(250),
				GrossProfit:        f(400),
				OperatingIncome:    f(150),
				NetIncome:          f(500),
				TotalEquity:        f(2200),
				TotalDebt:          f(1100),
				TotalAssets:        f(10000),
				CurrentAssets:      f(300),
				CurrentLiabilities: f(200),
			},
			{
				PeriodEnd:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
				Revenue:     f(1000),
				NetIncome:   f(400),
				TotalEquity: f(1800),
			},
		},
	}
}

func TestDerive_FullPeriods(t *testing.T) {
	d, err := Derive(insurerRaw())
	require.NoError(t, err)

	require.NotNil(t, d.EPS)
	assert.InDelta(t, 5.0, *d.EPS, 1e-12)
	require.NotNil(t, d.PERatio)
	assert.InDelta(t, 12.0, *d.PERatio, 1e-12)

	// 500 / avg(2200, 1800)
	require.NotNil(t, d.ROE)
	assert.InDelta(t, 0.25, *d.ROE, 1e-12)

	require.NotNil(t, d.RevenueGrowth)
	assert.InDelta(t, 0.10, *d.RevenueGrowth, 1e-12)

	require.NotNil(t, d.DebtToEquity)
	assert.InDelta(t, 0.5, *d.DebtToEquity, 1e-12)

	// 1100 / 10000
	require.NotNil(t, d.DebtRatio)
	assert.InDelta(t, 0.11, *d.DebtRatio, 1e-12)
	assert.Equal(t, d.DebtRatio, d.Value(contracts.MetricDebtRatio))

	require.NotNil(t, d.ROA)
	assert.InDelta(t, 0.05, *d.ROA, 1e-12)
	require.NotNil(t, d.CurrentRatio)
	assert.InDelta(t, 1.5, *d.CurrentRatio, 1e-12)

	assert.InDelta(t, 400.0/1100, *d.GrossMargin, 1e-12)
	assert.InDelta(t, 150.0/1100, *d.OperatingMargin, 1e-12)
	assert.InDelta(t, 500.0/1100, *d.NetMargin, 1e-12)

	require.NotNil(t, d.CombinedRatio)
	assert.InDelta(t, 950.0/1100*100, *d.CombinedRatio, 1e-9)

	require.NotNil(t, d.MarketCap)
	assert.InDelta(t, 6000.0, *d.MarketCap, 1e-9)
}

func TestDerive_UndefinedValuesAreNil(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *contracts.RawFinancials)
		check  func(t *testing.T, d contracts.DerivedMetrics)
	}{
		{
			name:   "negative earnings has no P/E",
			mutate: func(r *contracts.RawFinancials) { r.Periods[0].NetIncome = f(-50) },
			check: func(t *testing.T, d contracts.DerivedMetrics) {
				require.NotNil(t, d.EPS)
				assert.Nil(t, d.PERatio)
			},
		},
		{
			name:   "zero shares has no EPS",
			mutate: func(r *contracts.RawFinancials) { r.SharesOutstanding = f(0) },
			check: func(t *testing.T, d contracts.DerivedMetrics) {
				assert.Nil(t, d.EPS)
				assert.Nil(t, d.PERatio)
			},
		},
		{
			name: "non-positive average equity has no ROE",
			mutate: func(r *contracts.RawFinancials) {
				r.Periods[0].TotalEquity = f(-100)
				r.Periods[1].TotalEquity = f(50)
			},
			check: func(t *testing.T, d contracts.DerivedMetrics) {
				assert.Nil(t, d.ROE)
				assert.Nil(t, d.DebtToEquity)
			},
		},
		{
			name:   "zero total assets has no debt ratio",
			mutate: func(r *contracts.RawFinancials) { r.Periods[0].TotalAssets = f(0) },
			check: func(t *testing.T, d contracts.DerivedMetrics) {
				assert.Nil(t, d.DebtRatio)
				assert.Nil(t, d.ROA)
				require.NotNil(t, d.DebtToEquity)
			},
		},
		{
			name:   "zero prior revenue has no growth",
			mutate: func(r *contracts.RawFinancials) { r.Periods[1].Revenue = f(0) },
			check: func(t *testing.T, d contracts.DerivedMetrics) {
				assert.Nil(t, d.RevenueGrowth)
			},
		},
		{
			name:   "single period uses current equity",
			mutate: func(r *contracts.RawFinancials) { r.Periods = r.Periods[:1] },
			check: func(t *testing.T, d contracts.DerivedMetrics) {
				require.NotNil(t, d.ROE)
				assert.InDelta(t, 500.0/2200, *d.ROE, 1e-12)
				assert.Nil(t, d.RevenueGrowth)
			},
		},
		{
			name: "non insurer has no combined ratio",
			mutate: func(r *contracts.RawFinancials) {
				r.Profile.Industry = "Software"
				r.Profile.Sector = "Technology"
			},
			check: func(t *testing.T, d contracts.DerivedMetrics) {
				assert.Nil(t, d.CombinedRatio)
				assert.NotNil(t, d.NetMargin)
			},
		},
		{
			name:   "gross margin falls back to cost of revenue",
			mutate: func(r *contracts.RawFinancials) { r.Periods[0].GrossProfit = nil },
			check: func(t *testing.T, d contracts.DerivedMetrics) {
				require.NotNil(t, d.GrossMargin)
				assert.InDelta(t, 400.0/1100, *d.GrossMargin, 1e-12)
			},
		},
		{
			name:   "no periods keeps market cap only",
			mutate: func(r *contracts.RawFinancials) { r.Periods = nil },
			check: func(t *testing.T, d contracts.DerivedMetrics) {
				assert.NotNil(t, d.MarketCap)
				assert.Nil(t, d.PERatio)
				assert.Nil(t, d.ROE)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := insurerRaw()
			tt.mutate(raw)

			d, err := Derive(raw)
			require.NoError(t, err)
			tt.check(t, d)
		})
	}
}

func TestDerive_MarketCapPreference(t *testing.T) {
	raw := insurerRaw()
	raw.MarketCap = f(7000)
	raw.Profile.MarketCap = 6500

	d, err := Derive(raw)
	require.NoError(t, err)
	assert.Equal(t, 7000.0, *d.MarketCap)

	raw.MarketCap = nil
	d, err = Derive(raw)
	require.NoError(t, err)
	assert.Equal(t, 6500.0, *d.MarketCap)
}

func TestDerive_InvalidInput(t *testing.T) {
	var vErr *contracts.ValidationError

	_, err := Derive(nil)
	assert.ErrorAs(t, err, &vErr)

	raw := insurerRaw()
	raw.Profile.Symbol = " "
	_, err = Derive(raw)
	assert.ErrorAs(t, err, &vErr)

	raw = insurerRaw()
	raw.Price = f(math.NaN())
	_, err = Derive(raw)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "price", vErr.Field)

	raw = insurerRaw()
	raw.Periods[1].Revenue = f(math.Inf(1))
	_, err = Derive(raw)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "periods[1].revenue", vErr.Field)
}

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, contracts.LowerIsBetter, DirectionOf(contracts.MetricPERatio))
	assert.Equal(t, contracts.LowerIsBetter, DirectionOf(contracts.MetricCombinedRatio))
	assert.Equal(t, contracts.LowerIsBetter, DirectionOf(contracts.MetricDebtRatio))
	assert.Equal(t, contracts.HigherIsBetter, DirectionOf(contracts.MetricROE))
	assert.Equal(t, contracts.HigherIsBetter, DirectionOf(contracts.MetricMarketCap))

	assert.True(t, Better(contracts.MetricPERatio, 10, 12))
	assert.True(t, Better(contracts.MetricROE, 0.2, 0.1))
	assert.False(t, Better(contracts.MetricROE, 0.1, 0.1))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "n/a", Format(contracts.MetricROE, nil))
	assert.Equal(t, "25.0%", Format(contracts.MetricROE, f(0.25)))
	assert.Equal(t, "12.5x", Format(contracts.MetricPERatio, f(12.5)))
	assert.Equal(t, "$23.4B", Format(contracts.MetricMarketCap, f(23.4e9)))
	assert.Equal(t, "92.3%", Format(contracts.MetricCombinedRatio, f(92.3)))
}
