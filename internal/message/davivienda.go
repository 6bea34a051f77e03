package message

import "github.com/insightdelivered/bank-transaction-extractor/internal/models"

const daviviendaPrefix = `davivienda:?\s*`

func daviviendaMatcher() *Matcher {
	return NewMatcher(models.BankDavivienda,
		pattern("purchase", models.TypeExpense,
			daviviendaPrefix+`compra (?:aprobada )?por `+amountExpr+` en (?P<merchant>.+?) el `+dmyExpr+`(?: a las `+timeExpr+`)?(?:\.?\s*tarjeta `+accountExpr+`)?`),
		pattern("deposit", models.TypeIncome,
			daviviendaPrefix+`(?:abono|consignaci[oó]n|dep[oó]sito) (?:de |por )`+amountExpr+` en (?:su |tu )?cuenta `+accountExpr+balanceTail),
		pattern("transfer_out", models.TypeTransferOut,
			daviviendaPrefix+`transferencia (?:de |por )`+amountExpr+` desde (?:su |tu )?cuenta `+accountExpr+` a (?P<merchant>.+?)`+balanceTail),
	)
}
