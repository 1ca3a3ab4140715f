package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// currencySymbols maps leading symbols and codes to ISO currency codes.
// Matched in order, longest symbols first, so "c$" and "us$" resolve before
// the bare "$".
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"us$", "USD"},
	{"usd", "USD"},
	{"gbp", "GBP"},
	{"eur", "EUR"},
	{"cad", "CAD"},
	{"aud", "AUD"},
	{"jpy", "JPY"},
	{"c$", "CAD"},
	{"a$", "AUD"},
	{"£", "GBP"},
	{"€", "EUR"},
	{"¥", "JPY"},
	{"$", "USD"},
}

var digitRun = regexp.MustCompile(`[0-9][0-9.,]*`)

// ParsePrice extracts a numeric amount and currency code from a free-form
// price string ("$1,234.50", "1.234,50 EUR", "from £19.99"). It reports
// ok=false when no digit sequence is present.
//
// Separator heuristic: when both "," and "." appear, the rightmost one is the
// decimal point; a lone comma followed by 2-3 trailing digits is treated as a
// decimal comma, otherwise as a thousands separator.
func ParsePrice(text string) (float64, string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, "", false
	}

	digits := digitRun.FindString(trimmed)
	if digits == "" {
		return 0, "", false
	}
	digits = strings.Trim(digits, ".,")

	currency := detectCurrency(trimmed)

	normalized := normalizeSeparators(digits)
	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, "", false
	}
	return amount, currency, true
}

func detectCurrency(text string) string {
	lowered := strings.ToLower(text)
	for _, entry := range currencySymbols {
		if strings.Contains(lowered, entry.symbol) {
			return entry.code
		}
	}
	return ""
}

func normalizeSeparators(digits string) string {
	lastComma := strings.LastIndex(digits, ",")
	lastDot := strings.LastIndex(digits, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Both present: the rightmost separator is the decimal point.
		if lastComma > lastDot {
			digits = strings.ReplaceAll(digits, ".", "")
			digits = strings.Replace(digits, ",", ".", 1)
		} else {
			digits = strings.ReplaceAll(digits, ",", "")
		}
	case lastComma >= 0:
		trailing := len(digits) - lastComma - 1
		if strings.Count(digits, ",") == 1 && (trailing == 2 || trailing == 3) {
			digits = strings.Replace(digits, ",", ".", 1)
		} else {
			digits = strings.ReplaceAll(digits, ",", "")
		}
	}
	return digits
}
