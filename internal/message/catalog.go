package message

import "github.com/insightdelivered/bank-transaction-extractor/internal/models"

// Shared fragments for catalog expressions.
const (
	amountExpr  = `\$\s?(?P<amount>[\d.,]+)`
	balanceExpr = `\$\s?(?P<balance>[\d.,]+)`
	accountExpr = `\*(?P<account>\d{4})`
	dmyExpr     = `(?P<date>\d{1,2}/\d{1,2}/\d{2,4})`
	ymdExpr     = `(?P<date>\d{4}/\d{1,2}/\d{1,2})`
	timeExpr    = `(?P<time>\d{1,2}:\d{2}(?:\s?[ap]\.?\s?m\.?)?)`

	// balanceTail matches an optional trailing balance and the end of the message.
	balanceTail = `(?:\.?\s*(?:saldo|disponible|saldo disponible):?\s*` + balanceExpr + `|\.?\s*$)`
)

// DefaultMatchers returns the built-in catalogs in registration order.
func DefaultMatchers() []*Matcher {
	return []*Matcher{
		bancolombiaMatcher(),
		nequiMatcher(),
		daviviendaMatcher(),
		daviplataMatcher(),
		bbvaMatcher(),
		bogotaMatcher(),
	}
}

func pattern(name string, typ models.TransactionType, expr string) Pattern {
	return NewPattern(name, typ, `(?i)`+expr)
}
