package models

import "strings"

// BankCode identifies one of the supported financial institutions.
type BankCode string

const (
	BankBancolombia BankCode = "bancolombia"
	BankNequi       BankCode = "nequi"
	BankDavivienda  BankCode = "davivienda"
	BankDaviplata   BankCode = "daviplata"
	BankBBVA        BankCode = "bbva"
	BankBogota      BankCode = "bogota"
	BankNu          BankCode = "nu"
	BankFalabella   BankCode = "falabella"
)

// BankInfo is immutable reference data for a bank.
type BankInfo struct {
	Code BankCode `json:"code"`
	Name string   `json:"name"`
}

var bankList = []BankInfo{
	{BankBancolombia, "Bancolombia"},
	{BankNequi, "Nequi"},
	{BankDavivienda, "Davivienda"},
	{BankDaviplata, "DaviPlata"},
	{BankBBVA, "BBVA Colombia"},
	{BankBogota, "Banco de Bogotá"},
	{BankNu, "Nu Colombia"},
	{BankFalabella, "Banco Falabella"},
}

var bankAliases = map[string]BankCode{
	"banco de bogota": BankBogota,
	"banco de bogotá": BankBogota,
	"bancodebogota":   BankBogota,
	"bbva colombia":   BankBBVA,
	"nu colombia":     BankNu,
	"nubank":          BankNu,
	"banco falabella": BankFalabella,
}

// LookupBank returns the reference data for code.
func LookupBank(code BankCode) (BankInfo, bool) {
	for _, b := range bankList {
		if b.Code == code {
			return b, true
		}
	}
	return BankInfo{}, false
}

// Banks returns every known bank in a stable order.
func Banks() []BankInfo {
	out := make([]BankInfo, len(bankList))
	copy(out, bankList)
	return out
}

// ParseBankCode resolves a user-supplied bank name or code.
func ParseBankCode(s string) (BankCode, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if code, ok := bankAliases[key]; ok {
		return code, true
	}
	if _, ok := LookupBank(BankCode(key)); ok {
		return BankCode(key), true
	}
	return "", false
}
