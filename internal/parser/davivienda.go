package parser

import "github.com/insightdelivered/bank-transaction-extractor/internal/models"

// NewDaviviendaExtractor handles Davivienda savings account PDF statements.
//
// Davivienda statements have this layout:
//
//	Fecha | Descripción | Valor | Saldo
//
// Dates are day/month only and the period is written out in Spanish
// ("Del 1 de septiembre de 2025 al 30 de septiembre de 2025"). Amounts use
// European grouping with a trailing sign.
// Example line: "05/09  COMPRA EN EXITO  $ 50.000,00-  $ 950.000,00"
func NewDaviviendaExtractor() Extractor {
	return &ledgerLayout{
		bank:    models.BankDavivienda,
		name:    "davivienda_savings",
		account: models.AccountSavings,
		header:  []string{"fecha", "descripcion", "valor", "saldo"},
		end:     []string{"fin del extracto", "total movimientos", "para cualquier inquietud", "defensor del consumidor"},
		footers: []string{"pagina", "banco davivienda s.a"},
	}
}
