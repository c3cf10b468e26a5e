package store

import (
	"encoding/json"

	"github.com/wonny/peergap/internal/contracts"
)

// snapshot is one metric_snapshots row
// nil = NULL
type snapshot struct {
	Symbol        string
	MarketCap     *float64
	PERatio       *float64
	Revenue       *float64
	RevenueGrowth *float64
	ROE           *float64
	DebtToEquity  *float64
	Sector        string
	Industry      string
	Country       string
	Raw           []byte // derived metrics JSON
}

// snapshotOf flattens an available record, false for tombstones
func snapshotOf(rec contracts.EntityMetricRecord) (snapshot, bool) {
	if !rec.Available || rec.Derived == nil {
		return snapshot{}, false
	}

	s := snapshot{
		Symbol:        contracts.NormalizeSymbol(rec.Symbol),
		MarketCap:     rec.Derived.MarketCap,
		PERatio:       rec.Derived.PERatio,
		RevenueGrowth: rec.Derived.RevenueGrowth,
		ROE:           rec.Derived.ROE,
		DebtToEquity:  rec.Derived.DebtToEquity,
	}
	if rec.Raw != nil {
		s.Sector = rec.Raw.Profile.Sector
		s.Industry = rec.Raw.Profile.Industry
		s.Country = rec.Raw.Profile.Country
		if p := rec.Raw.Current(); p != nil {
			s.Revenue = p.Revenue
		}
	}
	if data, err := json.Marshal(rec.Derived); err == nil {
		s.Raw = data
	}
	return s, true
}
