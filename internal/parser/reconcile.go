package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-transaction-extractor/internal/fields"
	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// RawRow is one movement as a layout reads it, before reconciliation.
type RawRow struct {
	Date        time.Time
	Description string
	// Signed is negative when money leaves the account.
	Signed decimal.Decimal
	// Balance is the running balance after the row; nil for card statements.
	Balance   *decimal.Decimal
	Reference string
	Currency  string
	// Type and Merchant, when set, override classification and derivation.
	Type     models.TransactionType
	Merchant *string
}

// Keyword prefixes, folded. Directional transfer keywords outrank the sign.
var (
	transferOutPrefixes = []string{"para ", "transferencia a ", "transf a ", "envio a ", "traslado a ", "transferencia enviada", "pago a tercero"}
	transferInPrefixes  = []string{"de ", "transferencia de ", "transf de ", "transferencia recibida", "abono transferencia", "traslado de ", "recibiste"}
	transferKeywords    = []string{"transferencia", "transf ", "traslado", "bre-b", "bre b"}
	nonMerchantLine     = regexp.MustCompile(`\b(?:interes(?:es)?|rendimientos?|cuota de manejo|comision(?:es)?|iva|gmf|4 ?x ?1000|impuestos?|retencion|gravamen)\b`)
)

// Ordered description prefixes that introduce a merchant.
var merchantPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^compra (?:intl |internacional )?en\s+(.+)$`),
	regexp.MustCompile(`(?i)^pago qr\s+(.+)$`),
	regexp.MustCompile(`(?i)^pago pse\s+(.+)$`),
	regexp.MustCompile(`(?i)^compra\s+(.+)$`),
	regexp.MustCompile(`(?i)^pagaste (?:en|a)\s+(.+)$`),
}

// Reconcile turns raw rows, in chronological order, into transactions with a
// continuous balance chain: each row opens at the previous row's closing
// balance, and the first row opens at its running balance minus its amount.
// Rows without running balances (card statements) get no balances at all.
func Reconcile(rows []RawRow) []models.StatementTransaction {
	out := make([]models.StatementTransaction, 0, len(rows))
	var prevAfter *decimal.Decimal
	for _, r := range rows {
		typ := r.Type
		if typ == "" {
			typ = classify(r.Description, r.Signed)
		}
		tx := models.StatementTransaction{
			Type:            typ,
			Amount:          fields.RoundPesos(r.Signed.Abs()),
			TransactionDate: r.Date,
			Currency:        r.Currency,
		}
		if d := strings.TrimSpace(r.Description); d != "" {
			tx.Description = &d
		}
		if r.Reference != "" {
			tx.Reference = ptr(r.Reference)
		}
		tx.Merchant = r.Merchant
		if tx.Merchant == nil {
			tx.Merchant = deriveMerchant(r.Description, typ)
		}

		switch {
		case prevAfter != nil:
			before := *prevAfter
			after := before.Add(r.Signed)
			if r.Balance != nil {
				after = *r.Balance
			}
			tx.BalanceBefore, tx.BalanceAfter = &before, &after
		case r.Balance != nil:
			before := r.Balance.Sub(r.Signed)
			after := *r.Balance
			tx.BalanceBefore, tx.BalanceAfter = &before, &after
		}
		prevAfter = tx.BalanceAfter
		out = append(out, tx)
	}
	return out
}

// classify infers the type from the sign, letting transfer wording override.
func classify(description string, signed decimal.Decimal) models.TransactionType {
	d := fold(description)
	for _, p := range transferOutPrefixes {
		if strings.HasPrefix(d, p) {
			return models.TypeTransferOut
		}
	}
	for _, p := range transferInPrefixes {
		if strings.HasPrefix(d, p) {
			return models.TypeTransferIn
		}
	}
	transfer := false
	for _, k := range transferKeywords {
		if strings.Contains(d+" ", k) {
			transfer = true
			break
		}
	}
	switch {
	case transfer && signed.IsNegative():
		return models.TypeTransferOut
	case transfer:
		return models.TypeTransferIn
	case signed.IsNegative():
		return models.TypeExpense
	}
	return models.TypeIncome
}

// deriveMerchant pulls the merchant out of purchase descriptions. Transfers,
// interest and fee lines have none.
func deriveMerchant(description string, typ models.TransactionType) *string {
	if typ == models.TypeTransferIn || typ == models.TypeTransferOut {
		return nil
	}
	if nonMerchantLine.MatchString(fold(description)) {
		return nil
	}
	d := strings.Join(strings.Fields(description), " ")
	for _, re := range merchantPrefixes {
		if m := re.FindStringSubmatch(d); m != nil {
			if s := strings.TrimSpace(m[1]); s != "" {
				return &s
			}
		}
	}
	return nil
}

// orderChronologically returns rows oldest first. Statements listing newest
// first are detected from the balance chain, falling back to the dates.
func orderChronologically(rows []RawRow) []RawRow {
	if len(rows) < 2 {
		return rows
	}
	rev := make([]RawRow, len(rows))
	for i, r := range rows {
		rev[len(rows)-1-i] = r
	}
	asc, desc := chainScore(rows), chainScore(rev)
	switch {
	case desc > asc:
		return rev
	case asc > desc:
		return rows
	case rows[0].Date.After(rows[len(rows)-1].Date):
		return rev
	}
	return rows
}

// chainScore counts consecutive pairs whose balances agree with the amount.
func chainScore(rows []RawRow) int {
	n := 0
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1].Balance, rows[i].Balance
		if prev != nil && cur != nil && prev.Add(rows[i].Signed).Equal(*cur) {
			n++
		}
	}
	return n
}
