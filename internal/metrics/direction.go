package metrics

import (
	"fmt"
	"math"

	"github.com/wonny/peergap/internal/contracts"
)

// lowerIsBetter lists the metrics where a smaller value ranks first
var lowerIsBetter = map[contracts.MetricName]bool{
	contracts.MetricPERatio:       true,
	contracts.MetricDebtToEquity:  true,
	contracts.MetricDebtRatio:     true,
	contracts.MetricCombinedRatio: true,
}

// DirectionOf returns the ranking polarity of a metric
func DirectionOf(name contracts.MetricName) contracts.Direction {
	if lowerIsBetter[name] {
		return contracts.LowerIsBetter
	}
	return contracts.HigherIsBetter
}

// Better reports whether a ranks strictly ahead of b for the metric
func Better(name contracts.MetricName, a, b float64) bool {
	if DirectionOf(name) == contracts.LowerIsBetter {
		return a < b
	}
	return a > b
}

// Label returns a display name for a metric
func Label(name contracts.MetricName) string {
	switch name {
	case contracts.MetricPERatio:
		return "P/E ratio"
	case contracts.MetricROE:
		return "ROE"
	case contracts.MetricROA:
		return "ROA"
	case contracts.MetricRevenueGrowth:
		return "Revenue growth"
	case contracts.MetricDebtToEquity:
		return "Debt/Equity"
	case contracts.MetricCurrentRatio:
		return "Current ratio"
	case contracts.MetricGrossMargin:
		return "Gross margin"
	case contracts.MetricOperatingMargin:
		return "Operating margin"
	case contracts.MetricNetMargin:
		return "Net margin"
	case contracts.MetricCombinedRatio:
		return "Combined ratio"
	case contracts.MetricMarketCap:
		return "Market cap"
	case contracts.MetricDebtRatio:
		return "Debt ratio"
	}
	return string(name)
}

// Format renders a metric value for display, "n/a" when undefined
func Format(name contracts.MetricName, v *float64) string {
	if v == nil {
		return "n/a"
	}
	switch name {
	case contracts.MetricROE, contracts.MetricROA, contracts.MetricRevenueGrowth,
		contracts.MetricGrossMargin, contracts.MetricOperatingMargin, contracts.MetricNetMargin:
		return fmt.Sprintf("%.1f%%", *v*100)
	case contracts.MetricCombinedRatio:
		return fmt.Sprintf("%.1f%%", *v)
	case contracts.MetricPERatio:
		return fmt.Sprintf("%.1fx", *v)
	case contracts.MetricMarketCap:
		return FormatMoney(*v)
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatMoney renders a dollar amount with a B/M suffix
func FormatMoney(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	}
	return fmt.Sprintf("$%.0f", v)
}
