package message

import "github.com/insightdelivered/bank-transaction-extractor/internal/models"

// Banco de Bogotá writes dates year first.
const bogotaPrefix = `banco de bogot[aá]:?\s*`

func bogotaMatcher() *Matcher {
	return NewMatcher(models.BankBogota,
		pattern("purchase", models.TypeExpense,
			bogotaPrefix+`compra (?:de |por )`+amountExpr+` en (?P<merchant>.+?) el `+ymdExpr+`(?:\s+`+timeExpr+`)?(?:\.?\s*tarjeta `+accountExpr+`)?`),
		pattern("deposit", models.TypeIncome,
			bogotaPrefix+`consignaci[oó]n (?:de |por )`+amountExpr+` en cuenta `+accountExpr+`(?: el `+ymdExpr+`)?`),
		pattern("transfer_out", models.TypeTransferOut,
			bogotaPrefix+`transferencia (?:de |por )`+amountExpr+` a (?P<merchant>.+?) desde cuenta `+accountExpr+`(?: el `+ymdExpr+`)?`),
	)
}
