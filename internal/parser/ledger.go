package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// ledgerLayout reads PDF statements whose pages are one table of
// "date | description ... | amount | balance" rows. PDF cells come from
// text gaps, so columns are taken by position rather than by header index:
// the first cell is the date, the last two are amount and balance and
// everything between is the description.
type ledgerLayout struct {
	bank    models.BankCode
	name    string
	account models.AccountType
	header  []string
	end     []string
	// footers are folded prefixes of page furniture inside the table.
	footers []string
}

func (l *ledgerLayout) Bank() models.BankCode { return l.bank }
func (l *ledgerLayout) Name() string          { return l.name }

func (l *ledgerLayout) FileTypes() []models.FileType {
	return []models.FileType{models.FileTypePDF}
}

func (l *ledgerLayout) Accepts(models.StatementMetadata, []models.Sheet) bool {
	return true
}

func (l *ledgerLayout) Extract(sheets []models.Sheet, meta models.StatementMetadata) (*models.StatementResult, error) {
	sc := scanner{
		specs: []sectionSpec{{name: secMovements, header: l.header}},
		end:   l.end,
	}
	dbg := &debugLog{}
	facts := newAccountFacts(l.account, "COP")

	var (
		tables []section
		open   *openTable
	)
	for _, sheet := range sheets {
		var sections []section
		var loose []sheetRow
		sections, loose, open = sc.scanFrom(sheet, dbg, open)
		facts.applyLoose(loose, dbg)
		tables = append(tables, sections...)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%s: no movements table: %w", l.name, models.ErrExtractionFailed)
	}

	var raw []RawRow
	// wrapping is true while the last table row read was a movement or one
	// of its wrapped lines. Page furniture does not interrupt it, so a
	// description may wrap across a page break.
	wrapping := false
	for _, s := range tables {
		for _, r := range s.rows {
			if l.isFooter(r.row) {
				dbg.add(r, "skipped")
				continue
			}
			row, ok := l.row(r, facts)
			if ok {
				raw = append(raw, row)
				wrapping = true
				dbg.add(r, "parsed")
				continue
			}
			// Long descriptions wrap onto indented rows with neither a date nor money.
			if n := len(raw); n > 0 && wrapping && isContinuation(r.row) {
				raw[n-1].Description += " " + strings.Join(strings.Fields(r.row.Text()), " ")
				dbg.add(r, "continuation")
				continue
			}
			wrapping = false
			dbg.add(r, "skipped")
		}
	}

	txs := Reconcile(orderChronologically(raw))
	return &models.StatementResult{
		Account:      facts.finish(txs),
		Transactions: txs,
		DebugLines:   dbg.lines,
	}, nil
}

func (l *ledgerLayout) row(r sheetRow, facts *accountFacts) (RawRow, bool) {
	cells := nonEmpty(r.row)
	if len(cells) < 4 {
		return RawRow{}, false
	}
	date, ok := cellDate(cells[0], facts.info.PeriodEnd)
	if !ok {
		return RawRow{}, false
	}
	amount, ok1 := cellDecimal(cells[len(cells)-2])
	balance, ok2 := cellDecimal(cells[len(cells)-1])
	if !ok1 || !ok2 {
		return RawRow{}, false
	}
	desc := make([]string, 0, len(cells)-3)
	for _, c := range cells[1 : len(cells)-2] {
		desc = append(desc, cellText(c))
	}
	return RawRow{
		Date:        date,
		Description: strings.Join(desc, " "),
		Signed:      amount,
		Balance:     &balance,
		Currency:    "COP",
	}, true
}

func (l *ledgerLayout) isFooter(row models.Row) bool {
	head := firstFolded(row)
	for _, f := range l.footers {
		if strings.HasPrefix(head, f) {
			return true
		}
	}
	return false
}

// isContinuation reports whether row is a wrapped description line: it
// leaves the date column empty and carries no date or money.
func isContinuation(row models.Row) bool {
	if len(row) == 0 || row[0] != nil {
		return false
	}
	for _, c := range nonEmpty(row) {
		s := cellText(c)
		if strings.Contains(s, "$") {
			return false
		}
		if _, ok := cellDate(c, time.Time{}); ok {
			return false
		}
	}
	return true
}
