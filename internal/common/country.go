package common

import (
	"sort"
	"strings"

	"github.com/biter777/countries"
)

// venueAliases maps names the F1 data sources use for a venue or a region, and
// abbreviations of their own, to ISO 3166-1 alpha-2. Everything else is resolved
// by country name.
var venueAliases = map[string]string{
	"abu dhabi":     "ae",
	"great britain": "gb",
	"korea":         "kr",
	"las vegas":     "us",
	"miami":         "us",
	"turkiye":       "tr",
	"uae":           "ae",
	"uk":            "gb",
	"usa":           "us",
}

// fuzzyAliases are matched as substrings, longest first. Aliases of three
// letters or fewer are excluded to avoid accidental matches.
var fuzzyAliases = func() []string {
	var names []string
	for name := range venueAliases {
		if len(name) > 3 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

func lookupCountry(name string) string {
	if code, ok := venueAliases[name]; ok {
		return code
	}
	if c := countries.ByName(name); c != countries.Unknown {
		return strings.ToLower(c.Alpha2())
	}
	return ""
}

// CountryCode returns the lower-case ISO alpha-2 code of a country name, or ""
// when the name is unknown. Compound names such as "Emilia-Romagna, Italy"
// resolve through their last recognizable part.
func CountryCode(name string) string {
	n := NormalizeName(name)
	if n == "" {
		return ""
	}
	if code := lookupCountry(n); code != "" {
		return code
	}

	parts := strings.FieldsFunc(n, func(r rune) bool { return r == ',' || r == '/' || r == '-' })
	for i := len(parts) - 1; i >= 0; i-- {
		if code := lookupCountry(strings.TrimSpace(parts[i])); code != "" {
			return code
		}
	}

	if alias, ok := FirstContained(n, fuzzyAliases...); ok {
		return venueAliases[alias]
	}
	return ""
}
