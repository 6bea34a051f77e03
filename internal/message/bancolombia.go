package message

import "github.com/insightdelivered/bank-transaction-extractor/internal/models"

const bancolombiaPrefix = `bancolombia(?::| le informa)?\s*`

// Legacy shapes carry time, date and card digits inline and come first;
// the modern purchase shape would otherwise swallow them into the merchant.
func bancolombiaMatcher() *Matcher {
	return NewMatcher(models.BankBancolombia,
		pattern("legacy_purchase", models.TypeExpense,
			`bancolombia le informa compra por `+amountExpr+` en (?P<merchant>.+?) `+timeExpr+`\.?\s+`+dmyExpr+`\s+T\.?\s?(?:Cred|Deb)\s*`+accountExpr),
		pattern("legacy_transfer", models.TypeTransferOut,
			`bancolombia le informa transferencia por `+amountExpr+` desde cta `+accountExpr+` a cta \d+\.?\s+`+timeExpr+`\s+`+dmyExpr),
		pattern("purchase", models.TypeExpense,
			bancolombiaPrefix+`compra por `+amountExpr+` en (?P<merchant>.+?)`+balanceTail),
		pattern("payment", models.TypeExpense,
			bancolombiaPrefix+`(?:pagaste|pago) (?:de |por )?`+amountExpr+` a (?P<merchant>.+?) desde (?:tu |su )?(?:cta|cuenta) `+accountExpr+`(?: el `+dmyExpr+`)?(?: a las `+timeExpr+`)?`),
		pattern("withdrawal", models.TypeExpense,
			bancolombiaPrefix+`retiro por `+amountExpr+` en (?P<merchant>.+?)`+balanceTail),
		pattern("transfer_out", models.TypeTransferOut,
			bancolombiaPrefix+`transferiste `+amountExpr+` desde (?:tu |su )?cuenta `+accountExpr+` a (?:la cuenta )?\*?\d+(?: el `+dmyExpr+`)?(?: a las `+timeExpr+`)?`),
		pattern("transfer_in", models.TypeTransferIn,
			bancolombiaPrefix+`recibiste (?:una transferencia )?(?:por |de )?`+amountExpr+` de (?P<merchant>.+?) en (?:tu |su )?cuenta `+accountExpr),
		pattern("deposit", models.TypeIncome,
			bancolombiaPrefix+`(?:pago de nomina|pago de n[oó]mina|consignaci[oó]n|abono) (?:de |por )?`+amountExpr+`(?: de (?P<merchant>.+?))? en (?:tu |su )?cuenta `+accountExpr),
	)
}
