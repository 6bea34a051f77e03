package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Bogota is Colombian time. Colombia does not observe daylight saving.
var Bogota = time.FixedZone("COT", -5*60*60)

// Date is a calendar date, optionally with a time of day.
type Date struct {
	Value     time.Time `json:"value"`
	Raw       string    `json:"raw"`
	Formatted string    `json:"formatted"`
	HasTime   bool      `json:"hasTime"`
}

const spanishMonthAlt = `ene|feb|mar|abr|may|jun|jul|ago|sept?|set|oct|nov|dic`

var spanishMonths = map[string]time.Month{
	"ene": time.January, "feb": time.February, "mar": time.March, "abr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "ago": time.August,
	"sep": time.September, "set": time.September, "oct": time.October,
	"nov": time.November, "dic": time.December,
}

type dateShape struct {
	re *regexp.Regexp
	// positions of year, month and day in the submatch
	y, m, d int
}

// Tried in order; the first shape producing a valid calendar date wins.
var dateShapes = []dateShape{
	{regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`), 3, 2, 1},
	{regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4}|\d{2})\b`), 3, 2, 1},
	{regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})\b`), 3, 2, 1},
	{regexp.MustCompile(`\b(\d{4})/(\d{1,2})/(\d{1,2})\b`), 1, 2, 3},
	{regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), 1, 2, 3},
	{regexp.MustCompile(`(?i)\b(\d{1,2})(?:\s+de)?[\s-]+(` + spanishMonthAlt + `)[a-z]*\.?(?:\s+de)?[\s-]+(\d{4}|\d{2})\b`), 3, 2, 1},
	{regexp.MustCompile(`(?i)\b(` + spanishMonthAlt + `)[a-z]*\.?\s+(\d{1,2}),?\s+(\d{4})\b`), 3, 1, 2},
}

var (
	time12h = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([ap])\.?\s?m\b\.?`)
	time24h = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::(\d{2}))?\b`)
)

// ExtractDate parses the first date in dateStr. The time of day is looked up
// in timeStr, or in dateStr when timeStr is empty; a missing or invalid time
// leaves a date-only result rather than failing.
func ExtractDate(dateStr, timeStr string) (Date, bool) {
	y, mo, d, raw, ok := findDate(dateStr)
	if !ok {
		return Date{}, false
	}
	out := Date{Raw: raw}
	src := timeStr
	if strings.TrimSpace(src) == "" {
		src = dateStr
	}
	if h, mi, s, ok := findTime(src); ok {
		out.Value = time.Date(y, mo, d, h, mi, s, 0, Bogota)
		out.HasTime = true
		out.Formatted = out.Value.Format("2006-01-02 15:04")
		return out, true
	}
	out.Value = time.Date(y, mo, d, 0, 0, 0, 0, Bogota)
	out.Formatted = out.Value.Format("2006-01-02")
	return out, true
}

func findDate(s string) (int, time.Month, int, string, bool) {
	for _, shape := range dateShapes {
		for _, m := range shape.re.FindAllStringSubmatch(s, -1) {
			year, ok := parseYear(m[shape.y])
			if !ok {
				continue
			}
			month, ok := parseMonth(m[shape.m])
			if !ok {
				continue
			}
			day, err := strconv.Atoi(m[shape.d])
			if err != nil || !validDate(year, month, day) {
				continue
			}
			return year, month, day, m[0], true
		}
	}
	return 0, 0, 0, "", false
}

func parseYear(s string) (int, bool) {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if len(s) == 2 {
		if y < 70 {
			return 2000 + y, true
		}
		return 1900 + y, true
	}
	return y, true
}

func parseMonth(s string) (time.Month, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Month(n), n >= 1 && n <= 12
	}
	key := strings.ToLower(s)
	if len(key) > 3 {
		key = key[:3]
	}
	m, ok := spanishMonths[key]
	return m, ok
}

// validDate round-trips through time.Date so 31/04 and 29/02 on common
// years are rejected.
func validDate(y int, m time.Month, d int) bool {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && t.Month() == m && t.Day() == d
}

func findTime(s string) (int, int, int, bool) {
	if m := time12h.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		sec := 0
		if m[3] != "" {
			sec, _ = strconv.Atoi(m[3])
		}
		if h < 1 || h > 12 || mi > 59 || sec > 59 {
			return 0, 0, 0, false
		}
		pm := strings.EqualFold(m[4], "p")
		switch {
		case pm && h != 12:
			h += 12
		case !pm && h == 12:
			h = 0
		}
		return h, mi, sec, true
	}
	if m := time24h.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		sec := 0
		if m[3] != "" {
			sec, _ = strconv.Atoi(m[3])
		}
		if h > 23 || mi > 59 || sec > 59 {
			return 0, 0, 0, false
		}
		return h, mi, sec, true
	}
	return 0, 0, 0, false
}

var dayMonthPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?:\s*[/\-.]\s*|\s+)(\d{1,2}|` + spanishMonthAlt + `)[a-z]*\.?$`)

// ExtractDayMonth parses a year-less date such as "1/10", "01 10" or "5 oct".
func ExtractDayMonth(s string) (int, time.Month, bool) {
	m := dayMonthPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	month, ok := parseMonth(m[2])
	if !ok || day < 1 || day > 31 {
		return 0, 0, false
	}
	return day, month, true
}

// InferYear places a day/month inside a statement period. The period's end
// year is used unless the month falls after the end month, in which case
// the date belongs to the previous year (periods crossing New Year).
func InferYear(day int, month time.Month, periodEnd time.Time) (time.Time, bool) {
	year := periodEnd.Year()
	if month > periodEnd.Month() {
		year--
	}
	if !validDate(year, month, day) {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, Bogota), true
}
