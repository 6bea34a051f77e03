package message

import "github.com/insightdelivered/bank-transaction-extractor/internal/models"

const daviplataPrefix = `daviplata:?\s*`

func daviplataMatcher() *Matcher {
	return NewMatcher(models.BankDaviplata,
		pattern("received", models.TypeIncome,
			daviplataPrefix+`recibi[oó] `+amountExpr+` de (?P<merchant>.+?)`+balanceTail),
		pattern("payment", models.TypeExpense,
			daviplataPrefix+`pago (?:de |por )`+amountExpr+` en (?P<merchant>.+?)`+balanceTail),
		pattern("sent", models.TypeTransferOut,
			daviplataPrefix+`env[ií]o (?:de |por )?`+amountExpr+` a (?P<merchant>.+?)`+balanceTail),
	)
}
