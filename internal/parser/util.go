package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-transaction-extractor/internal/fields"
	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// fold lower-cases, strips accents and collapses whitespace.
func fold(s string) string {
	return strings.Join(strings.Fields(fields.Fold(s)), " ")
}

// containsAny reports whether the folded text contains any folded needle.
func containsAny(text string, needles []string) bool {
	folded := fold(text)
	for _, needle := range needles {
		if n := fold(needle); n != "" && strings.Contains(folded, n) {
			return true
		}
	}
	return false
}

func cellText(c models.Cell) string {
	return strings.TrimSpace(models.CellString(c))
}

// nonEmpty returns the non-nil cells of a row in order.
func nonEmpty(row models.Row) []models.Cell {
	out := make([]models.Cell, 0, len(row))
	for _, c := range row {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// plainNumber is how spreadsheet libraries render a float as text.
var plainNumber = regexp.MustCompile(`^-?\d+(?:\.\d{1,2})?$`)

// cellDecimal reads a money cell. Native numbers are taken as is; text goes
// through the locale-aware amount parser, except plain "1234.5" renderings.
func cellDecimal(c models.Cell) (decimal.Decimal, bool) {
	switch x := c.(type) {
	case float64:
		return decimal.NewFromFloat(x), true
	case string:
		s := strings.TrimSpace(x)
		if plainNumber.MatchString(s) {
			d, err := decimal.NewFromString(s)
			return d, err == nil
		}
		return fields.ParseDecimal(s)
	}
	return decimal.Zero, false
}

// cellDate reads a date cell. Day/month-only text takes its year from the
// statement period end.
func cellDate(c models.Cell, periodEnd time.Time) (time.Time, bool) {
	switch x := c.(type) {
	case time.Time:
		return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, fields.Bogota), true
	case string:
		if d, ok := fields.ExtractDate(x, ""); ok {
			return d.Value, true
		}
		if day, month, ok := fields.ExtractDayMonth(x); ok {
			if periodEnd.IsZero() {
				periodEnd = time.Now().In(fields.Bogota)
			}
			return fields.InferYear(day, month, periodEnd)
		}
	}
	return time.Time{}, false
}

// parsePeriod reads "01/09/2025 - 30/09/2025", "2025/10/01 a 2025/10/31" or
// "del 1 de septiembre de 2025 al 30 de septiembre de 2025".
func parsePeriod(text string) (time.Time, time.Time, bool) {
	for _, sep := range []string{" al ", " a ", " - ", " hasta "} {
		parts := strings.SplitN(text, sep, 2)
		if len(parts) != 2 {
			continue
		}
		start, ok1 := fields.ExtractDate(parts[0], "")
		end, ok2 := fields.ExtractDate(parts[1], "")
		if ok1 && ok2 {
			return start.Value, end.Value, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// labelValue splits a key/value row. The value is the next non-empty cell,
// or the rest of the label cell after the label and an optional colon.
func labelValue(row models.Row, labels []string) (string, models.Cell, bool) {
	cells := nonEmpty(row)
	if len(cells) == 0 {
		return "", nil, false
	}
	head, ok := cells[0].(string)
	if !ok {
		return "", nil, false
	}
	folded := fold(head)
	for _, label := range labels {
		if !strings.HasPrefix(folded, label) {
			continue
		}
		if len(cells) > 1 {
			return label, cells[1], true
		}
		// Folding keeps one rune per precomposed rune, so the label length
		// also measures the label inside the original text.
		orig := []rune(strings.Join(strings.Fields(head), " "))
		n := len([]rune(label))
		if n > len(orig) {
			return "", nil, false
		}
		rest := strings.TrimSpace(strings.TrimLeft(string(orig[n:]), ":.# "))
		if rest == "" {
			return "", nil, false
		}
		return label, rest, true
	}
	return "", nil, false
}

func ptr[T any](v T) *T { return &v }
