package extractor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

func TestReadRejectsBadInput(t *testing.T) {
	dec := NewDecoder()
	ctx := context.Background()
	tests := []struct {
		name string
		data []byte
		kind models.FileType
		want error
	}{
		{"empty", nil, models.FileTypePDF, models.ErrInvalidInput},
		{"delimited", []byte("a,b\n1,2"), models.FileTypeDelimited, models.ErrUnsupportedFile},
		{"unknown spreadsheet", []byte("not a workbook"), models.FileTypeXLSX, models.ErrDecode},
		{"garbage pdf", []byte("%PDF-1.4 garbage"), models.FileTypePDF, models.ErrDecode},
		{"garbage xls", append(append([]byte{}, oleMagic...), make([]byte, 64)...), models.FileTypeXLS, models.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dec.Read(ctx, tt.data, tt.kind, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPDFOpenErrorMapping(t *testing.T) {
	wrapped := fmt.Errorf("reader: %w", pdf.ErrInvalidPassword)
	if err := pdfOpenError(wrapped, ""); !errors.Is(err, models.ErrPasswordRequired) {
		t.Errorf("no password: %v", err)
	}
	if err := pdfOpenError(pdf.ErrInvalidPassword, "1234"); !errors.Is(err, models.ErrPasswordInvalid) {
		t.Errorf("wrong password: %v", err)
	}
	if err := pdfOpenError(errors.New("malformed xref"), ""); !errors.Is(err, models.ErrDecode) || models.IsPasswordError(err) {
		t.Errorf("other failure: %v", err)
	}
}

func TestSplitCells(t *testing.T) {
	line := []pdf.Text{
		{S: "GAVIRIA", X: 120, W: 40, FontSize: 9},
		{S: "01/10/2025", X: 20, W: 45, FontSize: 9},
		{S: "Para", X: 80, W: 18, FontSize: 9},
		{S: "BEATRIZ", X: 100, W: 18, FontSize: 9},
		{S: "$-3,600.00", X: 300, W: 50, FontSize: 9},
		{S: "$351,188.42", X: 400, W: 55, FontSize: 9},
	}
	got := splitCells(line, 20)
	want := []string{"01/10/2025", "Para BEATRIZ GAVIRIA", "$-3,600.00", "$351,188.42"}
	if len(got) != len(want) {
		t.Fatalf("cells = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %q, want %q", i, got[i], want[i])
		}
	}
	if line[0].S != "GAVIRIA" {
		t.Error("splitCells must not reorder its input")
	}
}

func TestEncryptedOOXMLSniff(t *testing.T) {
	data := append(append([]byte{}, oleMagic...), utf16le("EncryptionInfo")...)
	if !isEncryptedOOXML(data) {
		t.Error("expected encrypted container")
	}
	if isEncryptedOOXML(oleMagic) {
		t.Error("plain OLE file is not an encrypted workbook")
	}
}
