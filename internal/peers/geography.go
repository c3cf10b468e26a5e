package peers

import "strings"

// Region groups countries for the geography component
type Region string

const (
	RegionNorthAmerica Region = "North America"
	RegionEurope       Region = "Europe"
	RegionAsiaPacific  Region = "Asia-Pacific"
	RegionOther        Region = "other"
)

// countryAliases maps names and ISO codes to a canonical country code
var countryAliases = map[string]string{
	"USA":                      "US",
	"UNITED STATES":            "US",
	"UNITED STATES OF AMERICA": "US",
	"UNITED KINGDOM":           "UK",
	"GREAT BRITAIN":            "UK",
	"BRITAIN":                  "UK",
	"GB":                       "UK",
	"CANADA":                   "CA",
	"MEXICO":                   "MX",
	"GERMANY":                  "DE",
	"FRANCE":                   "FR",
	"ITALY":                    "IT",
	"SPAIN":                    "ES",
	"NETHERLANDS":              "NL",
	"SWITZERLAND":              "CH",
	"SWEDEN":                   "SE",
	"NORWAY":                   "NO",
	"CHINA":                    "CN",
	"JAPAN":                    "JP",
	"INDIA":                    "IN",
	"AUSTRALIA":                "AU",
	"SINGAPORE":                "SG",
	"SOUTH KOREA":              "KR",
	"KOREA":                    "KR",
	"HONG KONG":                "HK",
}

var regionByCountry = map[string]Region{
	"US": RegionNorthAmerica,
	"CA": RegionNorthAmerica,
	"MX": RegionNorthAmerica,

	"UK": RegionEurope,
	"DE": RegionEurope,
	"FR": RegionEurope,
	"IT": RegionEurope,
	"ES": RegionEurope,
	"NL": RegionEurope,
	"CH": RegionEurope,
	"SE": RegionEurope,
	"NO": RegionEurope,

	"CN": RegionAsiaPacific,
	"JP": RegionAsiaPacific,
	"IN": RegionAsiaPacific,
	"AU": RegionAsiaPacific,
	"SG": RegionAsiaPacific,
	"KR": RegionAsiaPacific,
	"HK": RegionAsiaPacific,
}

// NormalizeCountry returns the canonical code for a country name or code
func NormalizeCountry(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	if alias, ok := countryAliases[c]; ok {
		return alias
	}
	return c
}

// RegionOf returns the region of a country, RegionOther when unknown
func RegionOf(country string) Region {
	if region, ok := regionByCountry[NormalizeCountry(country)]; ok {
		return region
	}
	return RegionOther
}

// GeographyScore is 1.0 same country, 0.5 same known region, else 0.0
// Unknown or empty countries never match.
func GeographyScore(target, candidate string) float64 {
	t := NormalizeCountry(target)
	c := NormalizeCountry(candidate)
	if t == "" || c == "" {
		return 0.0
	}
	if t == c {
		return 1.0
	}

	tr := RegionOf(t)
	if tr != RegionOther && tr == RegionOf(c) {
		return 0.5
	}
	return 0.0
}
