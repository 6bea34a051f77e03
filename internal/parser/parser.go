package parser

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// Extractor reads one bank's statement layout from decoded sheets.
type Extractor interface {
	// Bank returns the bank whose statements this extractor reads.
	Bank() models.BankCode
	// Name identifies the layout, e.g. "bancolombia_savings".
	Name() string
	// FileTypes lists the containers the layout comes in.
	FileTypes() []models.FileType
	// Accepts reports whether this layout, among those of its bank, fits the file.
	Accepts(meta models.StatementMetadata, sheets []models.Sheet) bool
	// Extract reads the statement.
	Extract(sheets []models.Sheet, meta models.StatementMetadata) (*models.StatementResult, error)
}

type factField int

const (
	factAccount factField = iota
	factHolder
	factPeriod
	factStart
	factEnd
	factOpening
	factClosing
)

// accountLabels are folded label prefixes, most specific first.
var accountLabels = []struct {
	label string
	field factField
}{
	{"numero de cuenta", factAccount},
	{"no. de cuenta", factAccount},
	{"cuenta de ahorros no", factAccount},
	{"cuenta no", factAccount},
	{"numero de producto", factAccount},
	{"numero de tarjeta", factAccount},
	{"titular", factHolder},
	{"nombre del cliente", factHolder},
	{"nombre", factHolder},
	{"cliente", factHolder},
	{"periodo facturado", factPeriod},
	{"periodo", factPeriod},
	{"del ", factPeriod},
	{"fecha inicial", factStart},
	{"desde", factStart},
	{"fecha final", factEnd},
	{"fecha de corte", factEnd},
	{"hasta", factEnd},
	{"saldo anterior", factOpening},
	{"saldo inicial", factOpening},
	{"saldo actual", factClosing},
	{"saldo final", factClosing},
	{"nuevo saldo", factClosing},
}

var accountLabelKeys = func() []string {
	keys := make([]string, len(accountLabels))
	for i, l := range accountLabels {
		keys[i] = l.label
	}
	return keys
}()

// accountFacts accumulates account-level values found in key/value rows.
type accountFacts struct {
	info             models.StatementAccountInfo
	opening, closing *decimal.Decimal
}

func newAccountFacts(typ models.AccountType, currency string) *accountFacts {
	return &accountFacts{info: models.StatementAccountInfo{AccountType: typ, Currency: currency}}
}

// apply reads a key/value row. The first occurrence of each value wins.
func (f *accountFacts) apply(r sheetRow) bool {
	label, value, ok := labelValue(r.row, accountLabelKeys)
	if !ok {
		return false
	}
	var field factField
	for _, l := range accountLabels {
		if l.label == label {
			field = l.field
			break
		}
	}

	switch field {
	case factAccount:
		if f.info.AccountNumber == "" {
			f.info.AccountNumber = cellText(value)
		}
	case factHolder:
		if f.info.HolderName == nil {
			f.info.HolderName = ptr(cellText(value))
		}
	case factPeriod:
		start, end, ok := parsePeriod(cellText(value))
		if !ok || !f.info.PeriodEnd.IsZero() {
			return ok
		}
		f.info.PeriodStart, f.info.PeriodEnd = start, end
	case factStart, factEnd:
		d, ok := cellDate(value, time.Time{})
		if !ok {
			return false
		}
		if field == factStart && f.info.PeriodStart.IsZero() {
			f.info.PeriodStart = d
		}
		if field == factEnd && f.info.PeriodEnd.IsZero() {
			f.info.PeriodEnd = d
		}
	case factOpening, factClosing:
		d, ok := cellDecimal(value)
		if !ok {
			return false
		}
		if field == factOpening && f.opening == nil {
			f.opening = &d
		}
		if field == factClosing && f.closing == nil {
			f.closing = &d
		}
	}
	return true
}

// finish fills balances the statement did not state from the transaction chain.
func (f *accountFacts) finish(txs []models.StatementTransaction) models.StatementAccountInfo {
	info := f.info
	if f.opening != nil {
		info.OpeningBalance = *f.opening
	} else if len(txs) > 0 && txs[0].BalanceBefore != nil {
		info.OpeningBalance = *txs[0].BalanceBefore
	}
	if f.closing != nil {
		info.ClosingBalance = *f.closing
	} else if n := len(txs); n > 0 && txs[n-1].BalanceAfter != nil {
		info.ClosingBalance = *txs[n-1].BalanceAfter
	}
	for _, tx := range txs {
		d := tx.TransactionDate
		if f.info.PeriodStart.IsZero() && (info.PeriodStart.IsZero() || d.Before(info.PeriodStart)) {
			info.PeriodStart = d
		}
		if f.info.PeriodEnd.IsZero() && d.After(info.PeriodEnd) {
			info.PeriodEnd = d
		}
	}
	return info
}

// applyLoose reads account facts from rows outside any table.
func (f *accountFacts) applyLoose(rows []sheetRow, dbg *debugLog) {
	for _, r := range rows {
		if f.apply(r) {
			dbg.add(r, "info")
		} else {
			dbg.add(r, "skipped")
		}
	}
}

func acceptsType(e Extractor, t models.FileType) bool {
	for _, ft := range e.FileTypes() {
		if ft == t {
			return true
		}
	}
	return false
}
