package extractor

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

func decodeXLSX(data []byte, password string) ([]models.Sheet, error) {
	encrypted := isEncryptedOOXML(data)
	if encrypted && password == "" {
		return nil, fmt.Errorf("xlsx: %w", models.ErrPasswordRequired)
	}
	var opts excelize.Options
	if encrypted {
		opts.Password = password
	}
	f, err := excelize.OpenReader(bytes.NewReader(data), opts)
	if err != nil {
		// excelize reports every decryption failure as a format error.
		if encrypted {
			return nil, fmt.Errorf("xlsx: %w", models.ErrPasswordInvalid)
		}
		return nil, fmt.Errorf("open xlsx: %v: %w", err, models.ErrDecode)
	}
	defer f.Close()

	styles := &dateStyles{file: f, known: make(map[int]bool)}
	var sheets []models.Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %v: %w", name, err, models.ErrDecode)
		}
		sheet := models.Sheet{Name: name, Rows: make([]models.Row, 0, len(rows))}
		for r, cols := range rows {
			values := make([]any, len(cols))
			for c, raw := range cols {
				values[c] = typedCell(f, styles, name, c+1, r+1, raw)
			}
			sheet.Rows = append(sheet.Rows, models.NormalizeRow(values))
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

// typedCell restores the native type of a raw cell value.
func typedCell(f *excelize.File, styles *dateStyles, sheet string, col, row int, raw string) any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
		return raw
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeFormula:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw
		}
		if styles.isDate(sheet, cell) {
			if t, err := excelize.ExcelDateToTime(v, false); err == nil {
				return t
			}
		}
		return v
	}
	return raw
}

// dateStyles remembers which style ids carry a date number format.
type dateStyles struct {
	file  *excelize.File
	known map[int]bool
}

func (d *dateStyles) isDate(sheet, cell string) bool {
	id, err := d.file.GetCellStyle(sheet, cell)
	if err != nil || id == 0 {
		return false
	}
	if v, ok := d.known[id]; ok {
		return v
	}
	v := false
	if style, err := d.file.GetStyle(id); err == nil && style != nil {
		v = isDateFormat(style.NumFmt, style.CustomNumFmt)
	}
	d.known[id] = v
	return v
}

func isDateFormat(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		return isDatePattern(*custom)
	}
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDatePattern looks for day or year tokens outside quoted literals and
// [..] sections. A lone "m" is ambiguous with minutes and is not enough.
func isDatePattern(format string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '[' && !quoted:
			bracket = true
		case r == ']' && !quoted:
			bracket = false
		case !quoted && !bracket:
			b.WriteRune(r)
		}
	}
	s := b.String()
	return strings.ContainsAny(s, "dy") || strings.Contains(s, "mmm")
}
