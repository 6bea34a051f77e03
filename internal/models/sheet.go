package models

import (
	"strconv"
	"strings"
	"time"
)

// Cell is a normalized grid cell: nil, string, float64, bool or time.Time.
type Cell any

// Row is an ordered sequence of cells.
type Row []Cell

// Sheet is one decoded worksheet or PDF page.
type Sheet struct {
	Name string `json:"name"`
	Rows []Row  `json:"rows"`
}

// NormalizeCell applies the reader contract to a single value: blank strings
// become nil and every other string is trimmed. Integer kinds widen to float64.
func NormalizeCell(v any) Cell {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, "\u00a0", " "))
		if s == "" {
			return nil
		}
		return s
	case float64, bool, time.Time:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return nil
}

// NormalizeRow normalizes every cell and drops trailing empty cells, so the
// column count of a row is derived from its content.
func NormalizeRow(values []any) Row {
	row := make(Row, len(values))
	last := -1
	for i, v := range values {
		row[i] = NormalizeCell(v)
		if row[i] != nil {
			last = i
		}
	}
	return row[:last+1]
}

// IsBlank reports whether the row has no content.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if c != nil {
			return false
		}
	}
	return true
}

// Get returns the cell at i, or nil when out of range.
func (r Row) Get(i int) Cell {
	if i < 0 || i >= len(r) {
		return nil
	}
	return r[i]
}

// Text joins the non-empty cells with tabs.
func (r Row) Text() string {
	var parts []string
	for _, c := range r {
		if c != nil {
			parts = append(parts, CellString(c))
		}
	}
	return strings.Join(parts, "\t")
}

// ColumnCount returns the width of the widest row.
func (s Sheet) ColumnCount() int {
	n := 0
	for _, r := range s.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// CellString renders a cell as text.
func CellString(c Cell) string {
	switch x := c.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("02/01/2006")
	}
	return ""
}
