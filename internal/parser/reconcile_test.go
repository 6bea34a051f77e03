package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func day(d int) time.Time {
	return time.Date(2025, time.October, d, 0, 0, 0, 0, time.UTC)
}

func TestReconcileBalanceChain(t *testing.T) {
	rows := []RawRow{
		{Date: day(1), Description: "Para BEATRIZ ELENA GAVIRIA", Signed: dec("-3600.00"), Balance: decPtr("351188.42")},
		{Date: day(2), Description: "De JUAN PEREZ", Signed: dec("50000"), Balance: decPtr("401188.42")},
		{Date: day(3), Description: "COMPRA EN EXITO", Signed: dec("-12500.50"), Balance: decPtr("388687.92")},
	}
	txs := Reconcile(rows)
	if len(txs) != 3 {
		t.Fatalf("transactions: got %d, want 3", len(txs))
	}

	first := txs[0]
	if first.Type != models.TypeTransferOut || first.Amount != 3600 {
		t.Errorf("first: got %s %d, want transfer_out 3600", first.Type, first.Amount)
	}
	if !first.BalanceBefore.Equal(dec("354788.42")) || !first.BalanceAfter.Equal(dec("351188.42")) {
		t.Errorf("first balances: got %s -> %s", first.BalanceBefore, first.BalanceAfter)
	}
	if first.Merchant != nil {
		t.Errorf("transfer merchant: got %q, want nil", *first.Merchant)
	}

	for i := 1; i < len(txs); i++ {
		if !txs[i].BalanceBefore.Equal(*txs[i-1].BalanceAfter) {
			t.Errorf("row %d opens at %s, previous closed at %s", i, txs[i].BalanceBefore, txs[i-1].BalanceAfter)
		}
	}
	if txs[1].Type != models.TypeTransferIn {
		t.Errorf("second type: got %s, want transfer_in", txs[1].Type)
	}
	if txs[2].Amount != 12501 {
		t.Errorf("rounded amount: got %d, want 12501", txs[2].Amount)
	}
	if txs[2].Merchant == nil || *txs[2].Merchant != "EXITO" {
		t.Errorf("merchant: got %v, want EXITO", txs[2].Merchant)
	}
}

func TestReconcileWithoutBalances(t *testing.T) {
	txs := Reconcile([]RawRow{{Date: day(1), Description: "NETFLIX", Signed: dec("-39900")}})
	if txs[0].BalanceBefore != nil || txs[0].BalanceAfter != nil {
		t.Error("card rows should carry no balances")
	}
	if txs[0].Type != models.TypeExpense {
		t.Errorf("type: got %s, want expense", txs[0].Type)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		desc   string
		signed string
		want   models.TransactionType
	}{
		{"COMPRA EN EXITO", "-100", models.TypeExpense},
		{"ABONO NOMINA", "100", models.TypeIncome},
		{"Para Maria", "-100", models.TypeTransferOut},
		{"De Maria", "100", models.TypeTransferIn},
		// Directional wording wins over the sign.
		{"Transferencia de Maria", "-100", models.TypeTransferIn},
		{"TRANSFERENCIA SUCURSAL VIRTUAL", "-100", models.TypeTransferOut},
		{"TRASLADO FONDOS", "100", models.TypeTransferIn},
		{"Envío a Pedro", "-100", models.TypeTransferOut},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := classify(tt.desc, dec(tt.signed)); got != tt.want {
				t.Errorf("classify(%q, %s) = %s, want %s", tt.desc, tt.signed, got, tt.want)
			}
		})
	}
}

func TestDeriveMerchant(t *testing.T) {
	tests := []struct {
		desc string
		typ  models.TransactionType
		want string
	}{
		{"COMPRA EN EXITO", models.TypeExpense, "EXITO"},
		{"COMPRA INTL EN AMAZON", models.TypeExpense, "AMAZON"},
		{"PAGO QR  TIENDA D1", models.TypeExpense, "TIENDA D1"},
		{"PAGO PSE EPM", models.TypeExpense, "EPM"},
		{"Pagaste en Rappi", models.TypeExpense, "Rappi"},
		{"COMPRA EN EXITO", models.TypeTransferOut, ""},
		{"INTERESES AHORRO", models.TypeIncome, ""},
		{"CUOTA DE MANEJO", models.TypeExpense, ""},
		{"COBRO IVA COMISION", models.TypeExpense, ""},
		{"RETIRO CAJERO", models.TypeExpense, ""},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := deriveMerchant(tt.desc, tt.typ)
			switch {
			case tt.want == "" && got != nil:
				t.Errorf("deriveMerchant(%q) = %q, want nil", tt.desc, *got)
			case tt.want != "" && (got == nil || *got != tt.want):
				t.Errorf("deriveMerchant(%q) = %v, want %q", tt.desc, got, tt.want)
			}
		})
	}
}

func TestOrderChronologically(t *testing.T) {
	newestFirst := []RawRow{
		{Date: day(3), Signed: dec("-10"), Balance: decPtr("80")},
		{Date: day(2), Signed: dec("-10"), Balance: decPtr("90")},
		{Date: day(1), Signed: dec("100"), Balance: decPtr("100")},
	}
	got := orderChronologically(newestFirst)
	if !got[0].Date.Equal(day(1)) || !got[2].Date.Equal(day(3)) {
		t.Errorf("reversed order expected, got first %v", got[0].Date)
	}

	// Same-day rows: only the chain tells the order.
	sameDay := []RawRow{
		{Date: day(1), Signed: dec("-10"), Balance: decPtr("80")},
		{Date: day(1), Signed: dec("-10"), Balance: decPtr("90")},
	}
	got = orderChronologically(sameDay)
	if !got[0].Balance.Equal(dec("90")) {
		t.Errorf("chain order expected, got first balance %s", got[0].Balance)
	}

	noBalances := []RawRow{{Date: day(5)}, {Date: day(2)}}
	got = orderChronologically(noBalances)
	if !got[0].Date.Equal(day(2)) {
		t.Errorf("date order expected, got first %v", got[0].Date)
	}
}
