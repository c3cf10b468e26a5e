package fmp

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/peergap/internal/contracts"
)

// statementPeriods is the number of annual periods fetched (current + prior)
const statementPeriods = 2

// Profile fetches the company profile
func (c *Client) Profile(ctx context.Context, symbol string) (*contracts.EntityProfile, error) {
	row, err := c.profile(ctx, symbol)
	if err != nil {
		return nil, err
	}
	p := toProfile(row)
	return &p, nil
}

func (c *Client) profile(ctx context.Context, symbol string) (profileResponse, error) {
	symbol = contracts.NormalizeSymbol(symbol)
	if symbol == "" {
		return profileResponse{}, &contracts.ValidationError{Field: "symbol", Message: "required"}
	}

	var rows []profileResponse
	if err := c.getList(ctx, "/api/v3/profile/"+url.PathEscape(symbol), nil, &rows); err != nil {
		return profileResponse{}, err
	}
	if rows[0].Symbol == "" {
		rows[0].Symbol = symbol
	}
	return rows[0], nil
}

// Fetch collects profile, quote and the two latest annual statements
// ⭐ SSOT: contracts.FinancialFetcher 구현
func (c *Client) Fetch(ctx context.Context, symbol string) (*contracts.RawFinancials, error) {
	row, err := c.profile(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	profile := toProfile(row)
	symbol = profile.Symbol
	path := url.PathEscape(symbol)

	raw := &contracts.RawFinancials{
		Profile:   profile,
		Price:     positiveOrNil(row.Price),
		FetchedAt: time.Now().UTC(),
	}

	// quote 실패는 치명적이지 않음 (profile 값으로 대체)
	var quotes []quoteResponse
	if err := c.getList(ctx, "/api/v3/quote/"+path, nil, &quotes); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Quote unavailable, using profile values")
	} else {
		q := quotes[0]
		if price := positiveOrNil(q.Price); price != nil {
			raw.Price = price
		}
		raw.MarketCap = positiveOrNil(q.MarketCap)
		raw.SharesOutstanding = positiveOrNil(q.SharesOutstanding)
	}
	if raw.MarketCap == nil && profile.MarketCap > 0 {
		raw.MarketCap = contracts.Float(profile.MarketCap)
	}

	params := url.Values{}
	params.Set("period", "annual")
	params.Set("limit", strconv.Itoa(statementPeriods))

	var income []incomeStatement
	if err := c.getList(ctx, "/api/v3/income-statement/"+path, params, &income); err != nil {
		return nil, fmt.Errorf("income statement: %w", err)
	}

	var balance []balanceSheet
	if err := c.getList(ctx, "/api/v3/balance-sheet-statement/"+path, cloneValues(params), &balance); err != nil {
		if IsNoData(err) {
			c.logger.WithField("symbol", symbol).Warn("No balance sheet, balance metrics undefined")
		} else {
			return nil, fmt.Errorf("balance sheet: %w", err)
		}
	}

	raw.Periods = mergePeriods(income, balance)
	if p := raw.Current(); p != nil && p.Revenue != nil {
		raw.Profile.Revenue = p.Revenue
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"periods": len(raw.Periods),
	}).Debug("Fetched financials")

	return raw, nil
}

// SearchCandidates screens for actively traded companies matching the query
// An empty screen is not an error.
func (c *Client) SearchCandidates(ctx context.Context, query contracts.CandidateQuery) ([]contracts.EntityProfile, error) {
	params := url.Values{}
	if query.Sector != "" {
		params.Set("sector", query.Sector)
	}
	if query.Industry != "" {
		params.Set("industry", query.Industry)
	}
	if query.Country != "" {
		params.Set("country", query.Country)
	}
	if query.MarketCapMin > 0 {
		params.Set("marketCapMoreThan", strconv.FormatFloat(query.MarketCapMin, 'f', 0, 64))
	}
	if query.MarketCapMax > 0 {
		params.Set("marketCapLowerThan", strconv.FormatFloat(query.MarketCapMax, 'f', 0, 64))
	}
	params.Set("isActivelyTrading", "true")
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}

	var rows []screenerResult
	if err := c.getList(ctx, "/stable/company-screener", params, &rows); err != nil {
		if IsNoData(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]contracts.EntityProfile, 0, len(rows))
	for _, r := range rows {
		if r.IsEtf || r.IsFund || r.Symbol == "" {
			continue
		}
		out = append(out, contracts.EntityProfile{
			Symbol:    contracts.NormalizeSymbol(r.Symbol),
			Name:      r.CompanyName,
			Sector:    r.Sector,
			Industry:  r.Industry,
			MarketCap: r.MarketCap,
			Country:   r.Country,
			Exchange:  r.ExchangeShortName,
		})
	}
	return out, nil
}

func toProfile(r profileResponse) contracts.EntityProfile {
	p := contracts.EntityProfile{
		Symbol:   contracts.NormalizeSymbol(r.Symbol),
		Name:     r.CompanyName,
		Sector:   r.Sector,
		Industry: r.Industry,
		Country:  r.Country,
		Exchange: r.ExchangeShortName,
	}
	if r.MktCap != nil {
		p.MarketCap = *r.MktCap
	}
	return p
}

// mergePeriods joins income and balance rows by period end, newest first
// A balance row without a matching date is ignored.
func mergePeriods(income []incomeStatement, balance []balanceSheet) []contracts.StatementPeriod {
	byDate := make(map[string]balanceSheet, len(balance))
	for _, b := range balance {
		byDate[b.Date] = b
	}

	periods := make([]contracts.StatementPeriod, 0, len(income))
	for _, in := range income {
		p := contracts.StatementPeriod{
			Revenue:           in.Revenue,
			CostOfRevenue:     in.CostOfRevenue,
			GrossProfit:       in.GrossProfit,
			OperatingExpenses: in.OperatingExpenses,
			OperatingIncome:   in.OperatingIncome,
			NetIncome:         in.NetIncome,
		}
		if t, err := time.Parse("2006-01-02", in.Date); err == nil {
			p.PeriodEnd = t
		}
		if b, ok := byDate[in.Date]; ok {
			p.TotalEquity = b.TotalStockholdersEquity
			p.TotalDebt = b.TotalDebt
			p.TotalAssets = b.TotalAssets
			p.CurrentAssets = b.TotalCurrentAssets
			p.CurrentLiabilities = b.TotalCurrentLiabilities
		}
		periods = append(periods, p)
	}

	// FMP는 최신순 반환, 보장되지 않으므로 정렬
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].PeriodEnd.After(periods[j].PeriodEnd)
	})
	if len(periods) > statementPeriods {
		periods = periods[:statementPeriods]
	}
	return periods
}

func positiveOrNil(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
