package sources

import (
	"fmt"

	"github.com/i474232898/pitbuddy/internal/common"
)

const flagCDN = "https://flagcdn.com/w80/%s.png"

// FlagURL returns a flag image for a country name, or "" when the country is unknown.
func FlagURL(country string) string {
	code := common.CountryCode(country)
	if code == "" {
		return ""
	}
	return fmt.Sprintf(flagCDN, code)
}
