package metrics

import (
	"fmt"
	"strings"

	"github.com/wonny/peergap/internal/contracts"
)

// Derive computes the comparable ratios for one entity
// ⭐ SSOT: 재무 비율 계산은 여기서만
//
// Undefined ratios are nil, never NaN or zero. An error is returned only for
// structurally invalid input.
func Derive(raw *contracts.RawFinancials) (contracts.DerivedMetrics, error) {
	var d contracts.DerivedMetrics

	if err := validateRaw(raw); err != nil {
		return d, err
	}

	cur := raw.Current()
	prior := raw.Prior()

	d.MarketCap = marketCap(raw)

	if cur == nil {
		// Quote-only entity: market cap is all we can say
		return d, nil
	}

	// EPS, P/E
	if cur.NetIncome != nil && positive(raw.SharesOutstanding) {
		eps := *cur.NetIncome / *raw.SharesOutstanding
		d.EPS = &eps
		if eps > 0 && positive(raw.Price) {
			d.PERatio = ratio(*raw.Price, eps)
		}
	}

	// ROE on average equity, single period when no prior balance sheet
	if cur.NetIncome != nil && cur.TotalEquity != nil {
		equity := *cur.TotalEquity
		if prior != nil && prior.TotalEquity != nil {
			equity = (equity + *prior.TotalEquity) / 2
		}
		if equity > 0 {
			d.ROE = ratio(*cur.NetIncome, equity)
		}
	}

	if cur.NetIncome != nil && positive(cur.TotalAssets) {
		d.ROA = ratio(*cur.NetIncome, *cur.TotalAssets)
	}

	// Revenue growth as a fraction (0.05 = +5%)
	if cur.Revenue != nil && prior != nil && positive(prior.Revenue) {
		d.RevenueGrowth = ratio(*cur.Revenue-*prior.Revenue, *prior.Revenue)
	}

	if cur.TotalDebt != nil && positive(cur.TotalEquity) {
		d.DebtToEquity = ratio(*cur.TotalDebt, *cur.TotalEquity)
	}

	// 부채비율: total debt / total assets
	if cur.TotalDebt != nil && positive(cur.TotalAssets) {
		d.DebtRatio = ratio(*cur.TotalDebt, *cur.TotalAssets)
	}

	if cur.CurrentAssets != nil && positive(cur.CurrentLiabilities) {
		d.CurrentRatio = ratio(*cur.CurrentAssets, *cur.CurrentLiabilities)
	}

	// Margins
	if positive(cur.Revenue) {
		revenue := *cur.Revenue

		gross := cur.GrossProfit
		if gross == nil && cur.CostOfRevenue != nil {
			g := revenue - *cur.CostOfRevenue
			gross = &g
		}
		if gross != nil {
			d.GrossMargin = ratio(*gross, revenue)
		}
		if cur.OperatingIncome != nil {
			d.OperatingMargin = ratio(*cur.OperatingIncome, revenue)
		}
		if cur.NetIncome != nil {
			d.NetMargin = ratio(*cur.NetIncome, revenue)
		}

		if IsInsurer(raw.Profile) {
			d.CombinedRatio = combinedRatio(cur, revenue)
		}
	}

	return d, nil
}

// IsInsurer reports whether the profile is an insurance company
func IsInsurer(p contracts.EntityProfile) bool {
	return strings.Contains(strings.ToLower(p.Sector), "insurance") ||
		strings.Contains(strings.ToLower(p.Industry), "insurance")
}

// combinedRatio is (cost of revenue + operating expenses) / revenue × 100
// A missing line counts as zero; both missing is undefined.
func combinedRatio(cur *contracts.StatementPeriod, revenue float64) *float64 {
	if cur.CostOfRevenue == nil && cur.OperatingExpenses == nil {
		return nil
	}
	costs := 0.0
	if cur.CostOfRevenue != nil {
		costs += *cur.CostOfRevenue
	}
	if cur.OperatingExpenses != nil {
		costs += *cur.OperatingExpenses
	}
	v := costs / revenue * 100
	return &v
}

// marketCap prefers the quoted value, then the profile, then price × shares
func marketCap(raw *contracts.RawFinancials) *float64 {
	if positive(raw.MarketCap) {
		return contracts.Float(*raw.MarketCap)
	}
	if raw.Profile.MarketCap > 0 {
		return contracts.Float(raw.Profile.MarketCap)
	}
	if positive(raw.Price) && positive(raw.SharesOutstanding) {
		return contracts.Float(*raw.Price * *raw.SharesOutstanding)
	}
	return nil
}

func validateRaw(raw *contracts.RawFinancials) error {
	if raw == nil {
		return &contracts.ValidationError{Field: "raw", Message: "nil financials"}
	}
	if err := raw.Profile.Validate(); err != nil {
		return err
	}

	symbol := raw.Profile.NormalizedSymbol()
	check := func(field string, v *float64) error {
		if v != nil && !contracts.IsFinite(*v) {
			return &contracts.ValidationError{Field: field, Message: fmt.Sprintf("%s: not a finite number", symbol)}
		}
		return nil
	}

	quote := []namedValue{
		{"price", raw.Price},
		{"shares_outstanding", raw.SharesOutstanding},
		{"market_cap", raw.MarketCap},
	}
	for _, f := range quote {
		if err := check(f.name, f.v); err != nil {
			return err
		}
	}

	for i, p := range raw.Periods {
		fields := []namedValue{
			{"revenue", p.Revenue},
			{"cost_of_revenue", p.CostOfRevenue},
			{"gross_profit", p.GrossProfit},
			{"operating_income", p.OperatingIncome},
			{"operating_expenses", p.OperatingExpenses},
			{"net_income", p.NetIncome},
			{"total_equity", p.TotalEquity},
			{"total_debt", p.TotalDebt},
			{"total_assets", p.TotalAssets},
			{"current_assets", p.CurrentAssets},
			{"current_liabilities", p.CurrentLiabilities},
		}
		for _, f := range fields {
			if err := check(fmt.Sprintf("periods[%d].%s", i, f.name), f.v); err != nil {
				return err
			}
		}
	}
	return nil
}

type namedValue struct {
	name string
	v    *float64
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}

// ratio returns a/b, nil when the result is not finite
func ratio(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	v := a / b
	if !contracts.IsFinite(v) {
		return nil
	}
	return &v
}
