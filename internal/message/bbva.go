package message

import "github.com/insightdelivered/bank-transaction-extractor/internal/models"

const bbvaPrefix = `bbva:?\s*`

func bbvaMatcher() *Matcher {
	return NewMatcher(models.BankBBVA,
		pattern("purchase", models.TypeExpense,
			bbvaPrefix+`compra (?:de |por )`+amountExpr+` en (?P<merchant>.+?) con tarjeta `+accountExpr+`(?: el `+dmyExpr+`)?(?: a las `+timeExpr+`)?`),
		pattern("deposit", models.TypeIncome,
			bbvaPrefix+`abono (?:de |por )`+amountExpr+` en cuenta `+accountExpr+balanceTail),
		pattern("transfer_out", models.TypeTransferOut,
			bbvaPrefix+`transferencia (?:de |por )`+amountExpr+` a (?P<merchant>.+?) desde cuenta `+accountExpr),
	)
}
