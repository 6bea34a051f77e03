package writer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleResult() *models.StatementResult {
	return &models.StatementResult{
		Bank: models.BankInfo{Code: models.BankNequi, Name: "Nequi"},
		Account: models.StatementAccountInfo{
			AccountNumber:  "3001234567",
			AccountType:    models.AccountDeposit,
			HolderName:     strPtr("Juan Perez"),
			PeriodStart:    time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:      time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
			OpeningBalance: decimal.RequireFromString("354788.42"),
			ClosingBalance: decimal.RequireFromString("401188.42"),
			Currency:       "COP",
		},
		Transactions: []models.StatementTransaction{
			{
				Type:            models.TypeTransferOut,
				Amount:          3600,
				Description:     strPtr("Para BEATRIZ ELENA GAVIRIA"),
				TransactionDate: time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
				BalanceBefore:   decPtr("354788.42"),
				BalanceAfter:    decPtr("351188.42"),
				Currency:        "COP",
			},
			{
				Type:            models.TypeExpense,
				Amount:          50000,
				Description:     strPtr("=HYPERLINK(\"x\")"),
				Merchant:        strPtr("EXITO"),
				TransactionDate: time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC),
				Currency:        "COP",
			},
		},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"# Bank,Nequi",
		"# Account Holder,Juan Perez",
		"# Statement Period,2025-10-01 to 2025-10-31",
		"# Opening Balance,354788.42",
		"Date,Type,Description,Merchant,Reference,Amount,Currency,Balance Before,Balance After",
		"2025-10-01,transfer_out,Para BEATRIZ ELENA GAVIRIA,,,3600,COP,354788.42,351188.42",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 8 metadata lines + 1 header + 2 transactions = 11
	if len(lines) != 11 {
		t.Errorf("expected 11 lines, got %d", len(lines))
	}
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	if err := w.Write(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()
	if strings.Contains(output, "# Bank") {
		t.Error("should not have bank metadata when header=false")
	}
	if !strings.HasPrefix(output, "Date,Type,") {
		t.Error("expected column headers even without metadata")
	}
}

func TestCSVWriter_FormulaGuard(t *testing.T) {
	var buf bytes.Buffer
	if err := (&CSVWriter{}).Write(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"'=HYPERLINK(""x"")"`) {
		t.Errorf("formula not neutralised:\n%s", buf.String())
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"EXITO", "EXITO"},
		{"=1+1", "'=1+1"},
		{"+57 300", "'+57 300"},
		{"-cmd", "'-cmd"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitize(tt.input); got != tt.expected {
			t.Errorf("sanitize(%q): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}
