package messaging

import (
	"strconv"
	"strings"

	"go-campaign-dispatcher/src/domain/ratelimit"

	"github.com/nyaruka/phonenumbers"
)

// CallingCode returns "+<country calling code>" for an international number, or the
// wildcard when the number cannot be attributed to a country.
func CallingCode(phone string) string {
	digits := strings.TrimLeft(strings.TrimSpace(phone), "+")
	if digits == "" {
		return ratelimit.WildcardCountry
	}
	num, err := phonenumbers.Parse("+"+digits, "")
	if err != nil {
		return ratelimit.WildcardCountry
	}
	code := int(num.GetCountryCode())
	if code == 0 || phonenumbers.GetRegionCodeForCountryCode(code) == phonenumbers.UNKNOWN_REGION {
		return ratelimit.WildcardCountry
	}
	return "+" + strconv.Itoa(code)
}
