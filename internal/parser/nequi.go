package parser

import "github.com/insightdelivered/bank-transaction-extractor/internal/models"

// NewNequiExtractor handles Nequi deposit account PDF statements.
//
// Nequi statements have this layout:
//
//	Fecha del movimiento | Descripción | Valor | Saldo
//
// Amounts use US-style grouping with the sign after the symbol.
// Example line: "01/10/2025  Para BEATRIZ ELENA GAVIRIA  $-3,600.00  $351,188.42"
func NewNequiExtractor() Extractor {
	return &ledgerLayout{
		bank:    models.BankNequi,
		name:    "nequi_deposit",
		account: models.AccountDeposit,
		header:  []string{"fecha", "descripcion", "valor", "saldo"},
		end:     []string{"fin del extracto", "este extracto", "para cualquier inquietud", "si tienes dudas"},
		footers: []string{"pagina", "nequi s.a", "nequi es una"},
	}
}
