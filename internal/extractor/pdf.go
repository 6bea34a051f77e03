package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// decodePDF turns every page into a sheet. Each text row becomes a grid row
// and wide horizontal gaps between text runs split it into cells, which is
// how statement PDFs render their columns.
func decodePDF(data []byte, password string) (sheets []models.Sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			sheets = nil
			err = fmt.Errorf("pdf library crashed: %v: %w", r, models.ErrDecode)
		}
	}()

	r, err := openPDF(data, password)
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages: %w", models.ErrDecode)
	}
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		sheet := models.Sheet{Name: fmt.Sprintf("Page %d", i)}
		lines := pageLines(page)
		margin := leftMargin(lines)
		for _, line := range lines {
			row := models.NormalizeRow(splitCells(line, margin))
			if len(row) > 0 {
				sheet.Rows = append(sheet.Rows, row)
			}
		}
		sheets = append(sheets, sheet)
	}

	if !isReadable(sheets) {
		return nil, fmt.Errorf("no readable text layer, the pdf may be scanned: %w", models.ErrDecode)
	}
	return sheets, nil
}

// openPDF opens data, offering the password once when one is given.
func openPDF(data []byte, password string) (*pdf.Reader, error) {
	var pw func() string
	if password != "" {
		offered := false
		pw = func() string {
			if offered {
				return ""
			}
			offered = true
			return password
		}
	}
	r, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), pw)
	if err != nil {
		return nil, pdfOpenError(err, password)
	}
	return r, nil
}

func pdfOpenError(err error, password string) error {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		if password == "" {
			return fmt.Errorf("pdf: %w", models.ErrPasswordRequired)
		}
		return fmt.Errorf("pdf: %w", models.ErrPasswordInvalid)
	}
	return fmt.Errorf("open pdf: %v: %w", err, models.ErrDecode)
}

// pageLines returns the text runs of a page grouped into visual rows, top to
// bottom. GetTextByRow is preferred; pages it cannot handle fall back to
// grouping Content() runs by their rounded baseline.
func pageLines(page pdf.Page) [][]pdf.Text {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		lines := make([][]pdf.Text, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, row.Content)
		}
		return lines
	}

	byY := make(map[int][]pdf.Text)
	for _, t := range page.Content().Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		y := int(math.Round(t.Y))
		byY[y] = append(byY[y], t)
	}
	ys := make([]int, 0, len(byY))
	for y := range byY {
		ys = append(ys, y)
	}
	// PDF y grows upwards.
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))
	lines := make([][]pdf.Text, 0, len(ys))
	for _, y := range ys {
		lines = append(lines, byY[y])
	}
	return lines
}

const (
	minCellGap = 6.0 // points
	wordGapEm  = 0.2
)

// leftMargin is the x of the leftmost text run on the page.
func leftMargin(lines [][]pdf.Text) float64 {
	margin := math.Inf(1)
	for _, line := range lines {
		for _, t := range line {
			if strings.TrimSpace(t.S) != "" && t.X < margin {
				margin = t.X
			}
		}
	}
	if math.IsInf(margin, 1) {
		return 0
	}
	return margin
}

// splitCells joins the runs of one row left to right. A gap wider than the
// font size (or minCellGap) starts a new cell; a smaller visible gap is a space.
// A row that starts clear of the page margin gets an empty first cell, so
// wrapped table text keeps its column offset.
func splitCells(line []pdf.Text, margin float64) []any {
	if len(line) == 0 {
		return nil
	}
	items := make([]pdf.Text, len(line))
	copy(items, line)
	sort.SliceStable(items, func(a, b int) bool { return items[a].X < items[b].X })

	var (
		cells []any
		cur   strings.Builder
		end   float64
	)
	if items[0].X-margin > math.Max(minCellGap, items[0].FontSize) {
		cells = append(cells, "")
	}
	for i, t := range items {
		if i > 0 {
			gap := t.X - end
			switch {
			case gap > math.Max(minCellGap, t.FontSize):
				cells = append(cells, cur.String())
				cur.Reset()
			case gap > t.FontSize*wordGapEm:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		end = t.X + t.W
	}
	return append(cells, cur.String())
}

// isReadable rejects pages of replacement glyphs and control bytes, which
// custom-encoded fonts produce when the library cannot map them.
func isReadable(sheets []models.Sheet) bool {
	total, readable := 0, 0
	for _, s := range sheets {
		for _, row := range s.Rows {
			for _, c := range row {
				for _, r := range models.CellString(c) {
					total++
					if r != unicode.ReplacementChar && (unicode.IsLetter(r) || unicode.IsDigit(r) ||
						unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)) {
						readable++
					}
				}
			}
		}
	}
	return total > 0 && float64(readable)/float64(total) > 0.6
}
