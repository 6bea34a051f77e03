package parser

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// Both Bancolombia workbooks share the three-section shape:
//
//	Información general      (key/value rows)
//	Resumen                  (key/value rows)
//	Movimientos              (header + rows, repeated on long statements)
const (
	secInfo      = "informacion general"
	secSummary   = "resumen"
	secMovements = "movimientos"
)

var bancolombiaEnd = []string{"fin del extracto", "fin de extracto"}

// BancolombiaSavingsExtractor handles Bancolombia savings account workbooks.
//
// Movements layout:
//
//	FECHA | DESCRIPCIÓN | SUCURSAL | DCTO. | VALOR | SALDO
//
// Dates carry day and month only ("1/10"); the year comes from the period.
// Values are signed, negative for debits. Example row:
// "1/10 | COMPRA EN EXITO | MEDELLIN | 0012 | -50.000,00 | 950.000,00"
type BancolombiaSavingsExtractor struct{}

func (e *BancolombiaSavingsExtractor) Bank() models.BankCode { return models.BankBancolombia }
func (e *BancolombiaSavingsExtractor) Name() string          { return "bancolombia_savings" }

func (e *BancolombiaSavingsExtractor) FileTypes() []models.FileType {
	return []models.FileType{models.FileTypeXLSX, models.FileTypeXLS}
}

// Accepts is the bank's fallback layout.
func (e *BancolombiaSavingsExtractor) Accepts(models.StatementMetadata, []models.Sheet) bool {
	return true
}

var savingsScanner = scanner{
	specs: []sectionSpec{
		{name: secInfo, markers: []string{secInfo}},
		{name: secSummary, markers: []string{secSummary}},
		{name: secMovements, markers: []string{secMovements},
			header:   []string{"fecha", "descripcion", "valor", "saldo"},
			optional: []string{"sucursal", "dcto"}},
	},
	end: bancolombiaEnd,
}

func (e *BancolombiaSavingsExtractor) Extract(sheets []models.Sheet, meta models.StatementMetadata) (*models.StatementResult, error) {
	dbg := &debugLog{}
	facts := newAccountFacts(models.AccountSavings, "COP")

	var movements []section
	for _, sheet := range sheets {
		sections, loose := savingsScanner.scan(sheet, dbg)
		facts.applyLoose(loose, dbg)
		for _, s := range sections {
			if s.name == secMovements {
				movements = append(movements, s)
				continue
			}
			facts.applyLoose(s.rows, dbg)
		}
	}
	if len(movements) == 0 {
		return nil, fmt.Errorf("%s: no movements section: %w", e.Name(), models.ErrExtractionFailed)
	}

	var raw []RawRow
	for _, s := range movements {
		for _, r := range s.rows {
			row, ok := columnRow(r, s.columns, facts.info.PeriodEnd)
			if !ok {
				dbg.add(r, "skipped")
				continue
			}
			if c, ok := s.columns["dcto"]; ok {
				row.Reference = cellText(r.row.Get(c))
			}
			row.Currency = "COP"
			raw = append(raw, row)
			dbg.add(r, "parsed")
		}
	}

	txs := Reconcile(orderChronologically(raw))
	return &models.StatementResult{
		Account:      facts.finish(txs),
		Transactions: txs,
		DebugLines:   dbg.lines,
	}, nil
}

// columnRow reads a movement row through its located columns. The "saldo"
// column is optional per row; card layouts have none.
func columnRow(r sheetRow, cols map[string]int, periodEnd time.Time) (RawRow, bool) {
	date, ok := cellDate(r.row.Get(cols["fecha"]), periodEnd)
	if !ok {
		return RawRow{}, false
	}
	amount, ok := cellDecimal(r.row.Get(cols["valor"]))
	if !ok {
		return RawRow{}, false
	}
	row := RawRow{
		Date:        date,
		Description: cellText(r.row.Get(cols["descripcion"])),
		Signed:      amount,
	}
	if c, ok := cols["saldo"]; ok {
		if bal, ok := cellDecimal(r.row.Get(c)); ok {
			row.Balance = &bal
		}
	}
	return row, true
}

// BancolombiaCardExtractor handles Bancolombia credit card workbooks: one
// sheet per currency ("Pesos", "Dólares"), each with its own summary.
//
// Movements layout:
//
//	Fecha | Descripción | Valor
//
// Positive values are charges, negative values are payments and credits.
// Cards expose no running balance.
type BancolombiaCardExtractor struct{}

func (e *BancolombiaCardExtractor) Bank() models.BankCode { return models.BankBancolombia }
func (e *BancolombiaCardExtractor) Name() string          { return "bancolombia_card" }

func (e *BancolombiaCardExtractor) FileTypes() []models.FileType {
	return []models.FileType{models.FileTypeXLSX}
}

var cardFileKeywords = []string{"tarjeta", "credito", "tc_", "visa", "mastercard", "amex"}

func (e *BancolombiaCardExtractor) Accepts(meta models.StatementMetadata, sheets []models.Sheet) bool {
	if containsAny(meta.FileName, cardFileKeywords) {
		return true
	}
	for _, sheet := range sheets {
		for i, row := range sheet.Rows {
			if i >= sniffRows {
				break
			}
			if strings.Contains(fold(row.Text()), "numero de tarjeta") {
				return true
			}
		}
	}
	return false
}

var cardScanner = scanner{
	specs: []sectionSpec{
		{name: secInfo, markers: []string{secInfo}},
		{name: secSummary, markers: []string{secSummary}},
		{name: secMovements, markers: []string{secMovements},
			header: []string{"fecha", "descripcion", "valor"}},
	},
	end: bancolombiaEnd,
}

type summaryField int

const (
	sumPrevious summaryField = iota
	sumCharges
	sumCredits
	sumTotal
)

var cardSummaryLabels = []struct {
	label string
	field summaryField
}{
	{"saldo anterior", sumPrevious},
	{"compras", sumCharges},
	{"cargos", sumCharges},
	{"pagos", sumCredits},
	{"abonos", sumCredits},
	{"saldo total", sumTotal},
	{"pago total", sumTotal},
}

var cardSummaryKeys = func() []string {
	keys := make([]string, len(cardSummaryLabels))
	for i, l := range cardSummaryLabels {
		keys[i] = l.label
	}
	return keys
}()

func (e *BancolombiaCardExtractor) Extract(sheets []models.Sheet, meta models.StatementMetadata) (*models.StatementResult, error) {
	dbg := &debugLog{}
	facts := newAccountFacts(models.AccountCreditCard, "COP")
	result := &models.StatementResult{}

	var txs []models.StatementTransaction
	found := false
	for _, sheet := range sheets {
		currency := sheetCurrency(sheet.Name)
		sections, loose := cardScanner.scan(sheet, dbg)
		facts.applyLoose(loose, dbg)

		summary := models.CardSummary{Currency: currency}
		hasSummary := false
		for _, s := range sections {
			switch s.name {
			case secInfo:
				facts.applyLoose(s.rows, dbg)
			case secSummary:
				hasSummary = readCardSummary(s.rows, &summary, dbg) || hasSummary
			}
		}
		if hasSummary {
			result.CardSummary = append(result.CardSummary, summary)
		}

		var raw []RawRow
		for _, s := range sections {
			if s.name != secMovements {
				continue
			}
			found = true
			for _, r := range s.rows {
				row, ok := columnRow(r, s.columns, facts.info.PeriodEnd)
				if !ok {
					dbg.add(r, "skipped")
					continue
				}
				raw = append(raw, cardRow(row, currency))
				dbg.add(r, "parsed")
			}
		}
		txs = append(txs, Reconcile(raw)...)
	}
	if !found {
		return nil, fmt.Errorf("%s: no movements section: %w", e.Name(), models.ErrExtractionFailed)
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].TransactionDate.After(txs[j].TransactionDate)
	})

	result.Account = facts.finish(txs)
	for _, s := range result.CardSummary {
		if s.Currency == result.Account.Currency {
			result.Account.OpeningBalance = s.PreviousBalance
			result.Account.ClosingBalance = s.TotalBalance
		}
	}
	result.Transactions = txs
	result.DebugLines = dbg.lines
	return result, nil
}

// cardRow flips the card's charge-positive sign into the account's view.
// Charges without a recognised prefix take the whole description as merchant.
func cardRow(row RawRow, currency string) RawRow {
	row.Signed = row.Signed.Neg()
	row.Currency = currency
	if row.Signed.IsPositive() && containsAny(row.Description, []string{"pago", "abono"}) {
		row.Type = models.TypeTransferIn
	}
	if row.Type == "" {
		row.Type = classify(row.Description, row.Signed)
	}
	if row.Type != models.TypeExpense {
		return row
	}
	if m := deriveMerchant(row.Description, row.Type); m != nil {
		row.Merchant = m
	} else if d := strings.TrimSpace(row.Description); d != "" && !nonMerchantLine.MatchString(fold(d)) {
		row.Merchant = &d
	}
	return row
}

func readCardSummary(rows []sheetRow, s *models.CardSummary, dbg *debugLog) bool {
	found := false
	for _, r := range rows {
		label, value, ok := labelValue(r.row, cardSummaryKeys)
		var d decimal.Decimal
		if ok {
			d, ok = cellDecimal(value)
		}
		if !ok {
			dbg.add(r, "skipped")
			continue
		}
		for _, l := range cardSummaryLabels {
			if l.label != label {
				continue
			}
			switch l.field {
			case sumPrevious:
				s.PreviousBalance = d
			case sumCharges:
				s.Charges = d
			case sumCredits:
				s.Credits = d.Abs()
			case sumTotal:
				s.TotalBalance = d
			}
		}
		found = true
		dbg.add(r, "info")
	}
	return found
}

func sheetCurrency(name string) string {
	n := fold(name)
	if strings.Contains(n, "dolar") || strings.Contains(n, "usd") {
		return "USD"
	}
	return "COP"
}
