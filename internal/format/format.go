// Package format holds the pure helpers used to render IP information.
package format

import (
	"strconv"
	"strings"
)

const NotAvailable = "N/A"

// regionalIndicatorA is the code point of REGIONAL INDICATOR SYMBOL LETTER A.
const regionalIndicatorA = 0x1F1E6

// CountryFlag returns the flag emoji for a two letter ISO country code,
// or an empty string if code is not exactly two ASCII letters.
func CountryFlag(code string) string {
	if len(code) != 2 {
		return ""
	}
	code = strings.ToUpper(code)
	runes := make([]rune, 0, 2)
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < 'A' || c > 'Z' {
			return ""
		}
		runes = append(runes, rune(regionalIndicatorA+int(c-'A')))
	}
	return string(runes)
}

// MaskIP hides the last half of an address. IPv4 keeps the first two
// octets and IPv6 the first two groups. Malformed input is masked on a
// best effort basis.
func MaskIP(ip string) string {
	if ip == "" {
		return NotAvailable
	}
	if strings.Contains(ip, ":") {
		parts := strings.Split(ip, ":")
		return strings.Join(firstTwo(parts), ":") + ":*:*"
	}
	parts := strings.Split(ip, ".")
	return strings.Join(firstTwo(parts), ".") + ".*.*"
}

func firstTwo(parts []string) []string {
	if len(parts) >= 2 {
		return parts[:2]
	}
	return append(parts, "")
}

// RiskLabel renders a fraud score out of 100.
func RiskLabel(score *float64) string {
	if score == nil {
		return NotAvailable
	}
	return Number(*score) + "/100"
}

// Number formats f with the fewest digits needed, so 39.0 renders as "39".
func Number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
