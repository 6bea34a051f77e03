package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// fakeReader serves canned sheets keyed by file content.
type fakeReader map[string][]models.Sheet

func (f fakeReader) Read(_ context.Context, data []byte, _ models.FileType, password string) ([]models.Sheet, error) {
	if string(data) == "locked" {
		if password == "" {
			return nil, models.ErrPasswordRequired
		}
		return nil, models.ErrPasswordInvalid
	}
	sheets, ok := f[string(data)]
	if !ok {
		return nil, fmt.Errorf("fake: %w", models.ErrDecode)
	}
	return sheets, nil
}

func fakeParser() *StatementParser {
	return NewStatementParser(WithReader(fakeReader{
		"nequi":   {nequiSheet()},
		"savings": savingsSheets(),
		"card":    cardSheets(),
		"unknown": {{Name: "x", Rows: []models.Row{r("Hola")}}},
	}))
}

func TestStatementParserInputContract(t *testing.T) {
	p := fakeParser()
	tests := []struct {
		name string
		data string
		meta models.StatementMetadata
		want error
	}{
		{"missing name", "nequi", models.StatementMetadata{FileType: models.FileTypePDF}, models.ErrInvalidInput},
		{"missing type", "nequi", models.StatementMetadata{FileName: "extracto"}, models.ErrInvalidInput},
		{"empty data", "", models.StatementMetadata{FileName: "a.pdf"}, models.ErrInvalidInput},
		{"delimited", "x", models.StatementMetadata{FileName: "a.csv"}, models.ErrUnsupportedFile},
		{"unknown bank", "nequi", models.StatementMetadata{FileName: "a.pdf", BankCode: "chase"}, models.ErrInvalidInput},
		{"unrecognised", "unknown", models.StatementMetadata{FileName: "a.pdf"}, models.ErrNoMatch},
		{"no layout", "nequi", models.StatementMetadata{FileName: "a.pdf", BankCode: models.BankNu}, models.ErrUnsupportedFile},
		{"password required", "locked", models.StatementMetadata{FileName: "a.pdf"}, models.ErrPasswordRequired},
		{"password invalid", "locked", models.StatementMetadata{FileName: "a.pdf", Password: "x"}, models.ErrPasswordInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(context.Background(), []byte(tt.data), tt.meta)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			var se *StatementError
			if !errors.As(err, &se) || se.FileName != tt.meta.FileName {
				t.Errorf("error %v does not carry the file name", err)
			}
		})
	}
}

func TestStatementParserDispatch(t *testing.T) {
	p := fakeParser()
	tests := []struct {
		data   string
		meta   models.StatementMetadata
		bank   models.BankCode
		layout models.AccountType
	}{
		{"nequi", models.StatementMetadata{FileName: "octubre.pdf"}, models.BankNequi, models.AccountDeposit},
		{"savings", models.StatementMetadata{FileName: "extracto_ahorros.xlsx"}, models.BankBancolombia, models.AccountSavings},
		{"card", models.StatementMetadata{FileName: "extracto.xlsx", BankCode: models.BankBancolombia}, models.BankBancolombia, models.AccountCreditCard},
		{"card", models.StatementMetadata{FileName: "tarjeta_bancolombia.xlsx"}, models.BankBancolombia, models.AccountCreditCard},
	}
	for _, tt := range tests {
		t.Run(tt.meta.FileName, func(t *testing.T) {
			res, err := p.Parse(context.Background(), []byte(tt.data), tt.meta)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if res.Bank.Code != tt.bank || res.Account.AccountType != tt.layout {
				t.Errorf("got %s/%s, want %s/%s", res.Bank.Code, res.Account.AccountType, tt.bank, tt.layout)
			}
		})
	}
}

func TestDetectBank(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name   string
		meta   models.StatementMetadata
		sheets []models.Sheet
		want   Detection
		ok     bool
	}{
		{"metadata", models.StatementMetadata{FileName: "nequi.pdf", BankCode: models.BankDavivienda}, nil,
			Detection{models.BankDavivienda, ConfidenceHigh, "metadata"}, true},
		{"file name", models.StatementMetadata{FileName: "Extracto_Nequi_Oct.pdf"}, nil,
			Detection{models.BankNequi, ConfidenceHigh, "filename"}, true},
		{"content", models.StatementMetadata{FileName: "oct.xlsx"},
			[]models.Sheet{{Rows: []models.Row{r("Bancolombia S.A.")}}},
			Detection{models.BankBancolombia, ConfidenceMedium, "content"}, true},
		{"specific bank first", models.StatementMetadata{FileName: "oct.pdf"},
			[]models.Sheet{{Rows: []models.Row{r("Nequi es una marca de Bancolombia")}}},
			Detection{models.BankNequi, ConfidenceMedium, "content"}, true},
		{"beyond sniff window", models.StatementMetadata{FileName: "oct.pdf"},
			[]models.Sheet{{Rows: append(make([]models.Row, sniffRows), r("Davivienda"))}},
			Detection{}, false},
		{"nothing", models.StatementMetadata{FileName: "oct.pdf"}, nil, Detection{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reg.DetectBank(tt.meta, tt.sheets)
			if ok != tt.ok || got != tt.want {
				t.Errorf("got %+v %v, want %+v %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCanParse(t *testing.T) {
	p := NewStatementParser()
	tests := []struct {
		meta models.StatementMetadata
		want bool
	}{
		{models.StatementMetadata{FileName: "movimientos.csv"}, false},
		{models.StatementMetadata{FileName: "nu.xlsx", BankCode: models.BankNu}, false},
		{models.StatementMetadata{FileName: "falabella.pdf", BankCode: models.BankFalabella}, false},
		{models.StatementMetadata{FileName: "extracto.pdf"}, true},
		{models.StatementMetadata{FileName: "bancolombia.xls"}, true},
		{models.StatementMetadata{FileName: "bancolombia.pdf"}, false},
		{models.StatementMetadata{FileName: "nequi.pdf"}, true},
		{models.StatementMetadata{FileName: "sin_extension"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.meta.FileName, func(t *testing.T) {
			if got := p.CanParse(tt.meta); got != tt.want {
				t.Errorf("CanParse(%+v) = %v, want %v", tt.meta, got, tt.want)
			}
		})
	}
}

func TestParseMultiplePreservesOrder(t *testing.T) {
	p := fakeParser()
	inputs := []Input{
		{Data: []byte("card"), Metadata: models.StatementMetadata{FileName: "tarjeta.xlsx", BankCode: models.BankBancolombia}},
		{Data: []byte("unknown"), Metadata: models.StatementMetadata{FileName: "x.pdf"}},
		{Data: []byte("nequi"), Metadata: models.StatementMetadata{FileName: "nequi.pdf"}},
		{Data: []byte("savings"), Metadata: models.StatementMetadata{FileName: "bancolombia.xlsx"}},
	}
	out := p.ParseMultiple(context.Background(), inputs)
	if len(out) != len(inputs) {
		t.Fatalf("outcomes: got %d, want %d", len(out), len(inputs))
	}
	for i, o := range out {
		if o.FileName != inputs[i].Metadata.FileName {
			t.Errorf("outcome %d: got %q, want %q", i, o.FileName, inputs[i].Metadata.FileName)
		}
	}
	if !errors.Is(out[1].Err, models.ErrNoMatch) {
		t.Errorf("outcome 1: got %v, want ErrNoMatch", out[1].Err)
	}
	for _, i := range []int{0, 2, 3} {
		if out[i].Err != nil || out[i].Result == nil {
			t.Errorf("outcome %d: got %v", i, out[i].Err)
		}
	}
}

// slowReader blocks until the context ends.
type slowReader struct{}

func (slowReader) Read(ctx context.Context, _ []byte, _ models.FileType, _ string) ([]models.Sheet, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDecodeTimeout(t *testing.T) {
	p := NewStatementParser(WithReader(slowReader{}), WithDecodeTimeout(10*time.Millisecond))
	_, err := p.Parse(context.Background(), []byte("x"), models.StatementMetadata{FileName: "a.pdf"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
}

func savingsWorkbook(t *testing.T, password string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Información general"},
		{"Número de cuenta", "1234-5678-90"},
		{"Periodo", "2025/09/01 - 2025/10/31"},
		{},
		{"Resumen"},
		{"Saldo anterior", 1000000},
		{},
		{"Movimientos"},
		{"FECHA", "DESCRIPCIÓN", "SUCURSAL", "DCTO.", "VALOR", "SALDO"},
		{"28/9", "COMPRA EN EXITO", "MEDELLIN", "0012", -50000.5, 949999.5},
		{"1/10", "ABONO INTERESES AHORROS", nil, nil, 120.5, 950120},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow(%s): %v", cell, err)
		}
	}
	var buf bytes.Buffer
	opts := []excelize.Options{}
	if password != "" {
		opts = append(opts, excelize.Options{Password: password})
	}
	if err := f.Write(&buf, opts...); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

func TestStatementParserWorkbook(t *testing.T) {
	p := NewStatementParser()
	meta := models.StatementMetadata{FileName: "movimientos_bc.xlsx"}
	res, err := p.Parse(context.Background(), savingsWorkbook(t, ""), meta)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Bank.Name != "Bancolombia" || len(res.Transactions) != 2 {
		t.Fatalf("got bank %q with %d transactions", res.Bank.Name, len(res.Transactions))
	}
	if res.Transactions[0].Amount != 50001 {
		t.Errorf("amount: got %d, want 50001", res.Transactions[0].Amount)
	}
	interest := res.Transactions[1]
	if interest.Type != models.TypeIncome || interest.Merchant != nil {
		t.Errorf("interest: got %s %v", interest.Type, interest.Merchant)
	}
	if err := res.Reconcile(); err != nil {
		t.Errorf("Reconcile: %v", err)
	}
}

func TestStatementParserEncryptedWorkbook(t *testing.T) {
	p := NewStatementParser()
	data := savingsWorkbook(t, "1234")
	meta := models.StatementMetadata{FileName: "bancolombia.xlsx"}

	if _, err := p.Parse(context.Background(), data, meta); !errors.Is(err, models.ErrPasswordRequired) {
		t.Fatalf("without password: got %v", err)
	}
	meta.Password = "0000"
	if _, err := p.Parse(context.Background(), data, meta); !errors.Is(err, models.ErrPasswordInvalid) {
		t.Fatalf("wrong password: got %v", err)
	}
	meta.Password = "1234"
	res, err := p.Parse(context.Background(), data, meta)
	if err != nil {
		t.Fatalf("right password: %v", err)
	}
	if len(res.Transactions) != 2 {
		t.Errorf("transactions: got %d, want 2", len(res.Transactions))
	}
}
