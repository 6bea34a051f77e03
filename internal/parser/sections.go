package parser

import (
	"strings"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// sectionSpec describes one section of a statement layout.
type sectionSpec struct {
	name string
	// markers open the section when a row's first cell reads as one of them.
	// Without markers the header row itself opens the section.
	markers []string
	// header lists the folded column titles that must all be present.
	// An empty header means the section holds key/value rows.
	header []string
	// optional columns are located when present but not required.
	optional []string
}

// section is one occurrence of a sectionSpec in a sheet.
type section struct {
	name    string
	columns map[string]int
	rows    []sheetRow
}

type sheetRow struct {
	sheet string
	index int
	row   models.Row
}

type scanState int

const (
	seekingSection scanState = iota
	seekingHeader
	consumingRows
)

// scanner walks a sheet as a state machine: find a section marker, then its
// header, then take rows until a blank row, another marker or an end marker.
// It loops back to seeking a section after each one, so repeated sections
// come out as separate occurrences. Rows outside any section are returned as
// loose rows; layouts read account facts from them.
type scanner struct {
	specs []sectionSpec
	end   []string
}

// openTable is a table section still consuming rows when its sheet ran out.
type openTable struct {
	spec    *sectionSpec
	columns map[string]int
}

func (sc scanner) scan(sheet models.Sheet, dbg *debugLog) (sections []section, loose []sheetRow) {
	sections, loose, _ = sc.scanFrom(sheet, dbg, nil)
	return sections, loose
}

// scanFrom scans a sheet that may start inside a table carried over from
// the previous sheet, as PDF pages do when a table breaks without repeating
// its header. The returned table is non-nil when this sheet also ends inside one.
func (sc scanner) scanFrom(sheet models.Sheet, dbg *debugLog, carry *openTable) (sections []section, loose []sheetRow, open *openTable) {
	var (
		cur  *section
		spec *sectionSpec
		st   = seekingSection
	)
	if carry != nil {
		spec = carry.spec
		cur = &section{name: spec.name, columns: carry.columns}
		st = consumingRows
	}
	flush := func() {
		if cur != nil {
			sections = append(sections, *cur)
			cur = nil
		}
	}

	for i, row := range sheet.Rows {
		sr := sheetRow{sheet: sheet.Name, index: i, row: row}
		if row.IsBlank() {
			if st == consumingRows {
				flush()
				st = seekingSection
			}
			continue
		}
		if sc.isEnd(row) {
			flush()
			dbg.add(sr, "end")
			return sections, loose, nil
		}
		if sp := sc.markerFor(row); sp != nil {
			flush()
			spec = sp
			cur = &section{name: sp.name}
			st = consumingRows
			if len(sp.header) > 0 {
				st = seekingHeader
			}
			dbg.add(sr, "section")
			continue
		}

		switch st {
		case seekingSection:
			if sp, cols := sc.headerOnly(row); sp != nil {
				spec = sp
				cur = &section{name: sp.name, columns: cols}
				st = consumingRows
				dbg.add(sr, "header")
				continue
			}
			loose = append(loose, sr)
		case seekingHeader:
			if cols, ok := matchHeader(row, spec); ok {
				cur.columns = cols
				st = consumingRows
				dbg.add(sr, "header")
				continue
			}
			loose = append(loose, sr)
		case consumingRows:
			// Paginated tables repeat their header on every page.
			if len(spec.header) > 0 {
				if _, ok := matchHeader(row, spec); ok {
					dbg.add(sr, "header")
					continue
				}
			}
			cur.rows = append(cur.rows, sr)
		}
	}
	if st == consumingRows && cur != nil {
		open = &openTable{spec: spec, columns: cur.columns}
	}
	flush()
	return sections, loose, open
}

func (sc scanner) isEnd(row models.Row) bool {
	head := firstFolded(row)
	for _, e := range sc.end {
		if strings.HasPrefix(head, e) {
			return true
		}
	}
	return false
}

// markerFor returns the spec whose marker names this row. Marker rows are
// short: the marker text plus at most one more cell.
func (sc scanner) markerFor(row models.Row) *sectionSpec {
	cells := nonEmpty(row)
	if len(cells) == 0 || len(cells) > 2 {
		return nil
	}
	head := strings.TrimRight(firstFolded(row), ": ")
	for i := range sc.specs {
		for _, m := range sc.specs[i].markers {
			if head == m {
				return &sc.specs[i]
			}
		}
	}
	return nil
}

// headerOnly matches sections that have no marker and open on their header.
func (sc scanner) headerOnly(row models.Row) (*sectionSpec, map[string]int) {
	for i := range sc.specs {
		sp := &sc.specs[i]
		if len(sp.markers) > 0 || len(sp.header) == 0 {
			continue
		}
		if cols, ok := matchHeader(row, sp); ok {
			return sp, cols
		}
	}
	return nil, nil
}

// matchHeader finds every required column title in the row. A cell matches
// a title when its folded text starts with it.
func matchHeader(row models.Row, spec *sectionSpec) (map[string]int, bool) {
	cols := make(map[string]int, len(spec.header)+len(spec.optional))
	find := func(title string) bool {
		for i, c := range row {
			s, ok := c.(string)
			if ok && strings.HasPrefix(fold(s), title) {
				cols[title] = i
				return true
			}
		}
		return false
	}
	for _, title := range spec.header {
		if !find(title) {
			return nil, false
		}
	}
	for _, title := range spec.optional {
		find(title)
	}
	return cols, true
}

func firstFolded(row models.Row) string {
	for _, c := range row {
		if s, ok := c.(string); ok {
			return fold(s)
		}
		if c != nil {
			return ""
		}
	}
	return ""
}

// debugLog collects per-row decisions for diagnosing new layout variants.
type debugLog struct {
	lines []models.DebugLine
}

func (d *debugLog) add(r sheetRow, result string) {
	if d == nil {
		return
	}
	d.lines = append(d.lines, models.DebugLine{
		Sheet:  r.sheet,
		Row:    r.index + 1,
		Text:   r.row.Text(),
		Result: result,
	})
}
