package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var priceDigits = regexp.MustCompile(`\d[\d.,]*`)

// ParsePrice extracts a numeric value from Brazilian currency text such as
// "R$ 1.234,56", "1.234", or "R$89,90". Returns (nil, false) when no
// parseable number is present; the unparsed text is still kept upstream so
// a partial row survives.
//
// Brazilian formatting uses '.' for thousands and ',' for decimals, but
// listing markup is inconsistent: some sites render only the integer part
// ("1.234") and carry cents in a sibling element. The rules:
//
//   - a ',' is always a decimal separator
//   - a '.' followed by exactly three digits at the end is a thousands
//     separator ("1.234" -> 1234), otherwise a decimal point ("12.5" -> 12.5)
func ParsePrice(text string) (*float64, bool) {
	raw := priceDigits.FindString(text)
	if raw == "" {
		return nil, false
	}

	var normalized string
	switch {
	case strings.Contains(raw, ","):
		// "1.234,56": drop thousands dots, comma becomes the point.
		normalized = strings.ReplaceAll(raw, ".", "")
		normalized = strings.Replace(normalized, ",", ".", 1)
	case strings.Contains(raw, "."):
		if i := strings.LastIndex(raw, "."); len(raw)-i-1 == 3 {
			normalized = strings.ReplaceAll(raw, ".", "")
		} else {
			normalized = raw
		}
	default:
		normalized = raw
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}
