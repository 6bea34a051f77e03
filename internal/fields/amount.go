// Package fields converts raw substrings of bank messages and statements
// into typed values: amounts, dates and merchant names.
package fields

import (
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Amount is a whole-peso amount extracted from text.
type Amount struct {
	Value     int64  `json:"value"`
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
}

// amountToken matches an optionally signed number with its currency prefix.
// The sign may lead the symbol ("-$3.600"), follow it ("$-3,600.00") or
// trail the digits ("50.000,00-").
var amountToken = regexp.MustCompile(`(?i)(-)?\s?(?:US\$|\$|COP|USD)?\s?(-)?(\d(?:[\d.,]*\d)?)(-)?`)

// ExtractAmount finds the first amount in text and rounds it to whole pesos.
// The value is always non-negative; direction belongs to the transaction type.
func ExtractAmount(text string) (Amount, bool) {
	d, raw, ok := parseDecimal(text)
	if !ok {
		return Amount{}, false
	}
	v := d.Abs().Round(0).IntPart()
	return Amount{Value: v, Raw: raw, Formatted: FormatCOP(v)}, true
}

// ParseDecimal finds the first amount in text and keeps its sign and
// fractional part. Statement rows use it before rounding.
func ParseDecimal(text string) (decimal.Decimal, bool) {
	d, _, ok := parseDecimal(text)
	return d, ok
}

// RoundPesos rounds half away from zero to whole pesos.
func RoundPesos(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

func parseDecimal(text string) (decimal.Decimal, string, bool) {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	m := amountToken.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, "", false
	}
	d, err := decimal.NewFromString(normalizeSeparators(m[3]))
	if err != nil {
		return decimal.Zero, "", false
	}
	if m[1] != "" || m[2] != "" || m[4] != "" {
		d = d.Neg()
	}
	return d, strings.TrimSpace(m[0]), true
}

// normalizeSeparators turns a grouped number into a plain decimal string.
// The last separator is a decimal point only when exactly two digits follow
// it; every other '.' or ',' groups thousands.
func normalizeSeparators(digits string) string {
	last := strings.LastIndexAny(digits, ".,")
	if last >= 0 && len(digits)-last-1 == 2 {
		whole := stripSeparators(digits[:last])
		if whole == "" {
			whole = "0"
		}
		return whole + "." + digits[last+1:]
	}
	return stripSeparators(digits)
}

func stripSeparators(s string) string {
	return strings.NewReplacer(".", "", ",", "").Replace(s)
}

// FormatCOP renders whole pesos with Colombian grouping, e.g. "$1.234.567".
func FormatCOP(v int64) string {
	return "$" + humanize.FormatInteger("#.###,", int(v))
}
