package message

import "github.com/insightdelivered/bank-transaction-extractor/internal/models"

const nequiPrefix = `nequi:?\s*`

func nequiMatcher() *Matcher {
	return NewMatcher(models.BankNequi,
		// Older app versions put the sender first.
		pattern("legacy_received", models.TypeTransferIn,
			`^`+nequiPrefix+`(?P<merchant>[^$]+?) te envi[oó] `+amountExpr+balanceTail),
		pattern("transfer_in", models.TypeTransferIn,
			nequiPrefix+`recibiste una transferencia (?:por |de )`+amountExpr+` de (?P<merchant>.+?)`+balanceTail),
		pattern("received", models.TypeIncome,
			nequiPrefix+`recibiste `+amountExpr+` de (?P<merchant>.+?)`+balanceTail),
		pattern("payment", models.TypeExpense,
			nequiPrefix+`pagaste `+amountExpr+` (?:en|a) (?P<merchant>.+?)`+balanceTail),
		pattern("sent", models.TypeTransferOut,
			nequiPrefix+`enviaste `+amountExpr+` a (?P<merchant>.+?)`+balanceTail),
		pattern("withdrawal", models.TypeExpense,
			nequiPrefix+`retiraste `+amountExpr+` (?:en|de) (?P<merchant>.+?)`+balanceTail),
	)
}
