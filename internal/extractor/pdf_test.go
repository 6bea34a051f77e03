package extractor

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/rc4"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// pdfPad is the 32-byte padding string of the standard security handler.
var pdfPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// encryptedPDF builds a one-page PDF protected with a 40-bit RC4 user
// password (revision 2). The page shows one line at the left margin and
// one indented line.
func encryptedPDF(t *testing.T, password string) []byte {
	t.Helper()
	owner := bytes.Repeat([]byte{0x4F}, 32)
	id := []byte("0123456789abcdef")
	perms := uint32(0xFFFFFFFC) // /P -4

	h := md5.New()
	pw := []byte(password)
	h.Write(pw)
	h.Write(pdfPad[:32-len(pw)])
	h.Write(owner)
	h.Write([]byte{byte(perms), byte(perms >> 8), byte(perms >> 16), byte(perms >> 24)})
	h.Write(id)
	key := h.Sum(nil)[:5]

	user := make([]byte, 32)
	rc, err := rc4.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	rc.XORKeyStream(user, pdfPad)

	content := []byte("BT /F1 10 Tf 1 0 0 1 40 700 Tm (Extracto Nequi) Tj ET\n" +
		"BT /F1 10 Tf 1 0 0 1 120 680 Tm (SUCURSAL CENTRO) Tj ET\n")
	const contentObj = 4
	oh := md5.New()
	oh.Write(key)
	oh.Write([]byte{contentObj, 0, 0, 0, 0})
	sc, err := rc4.NewCipher(oh.Sum(nil))
	if err != nil {
		t.Fatal(err)
	}
	sc.XORKeyStream(content, content)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 6)
	obj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>")
	offsets[4] = buf.Len()
	fmt.Fprintf(&buf, "4 0 obj\n<< /Length %d >>\nstream\n", len(content))
	buf.Write(content)
	buf.WriteString("\nendstream\nendobj\n")
	obj(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	xref := buf.Len()
	buf.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for n := 1; n <= 5; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R /Encrypt << /Filter /Standard /V 1 /R 2 /Length 40 /P -4 /O <%s> /U <%s> >> /ID [<%s> <%s>] >>\n",
		hex.EncodeToString(owner), hex.EncodeToString(user), hex.EncodeToString(id), hex.EncodeToString(id))
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func TestReadEncryptedPDF(t *testing.T) {
	data := encryptedPDF(t, "1234")
	dec := NewDecoder()
	ctx := context.Background()

	if _, err := dec.Read(ctx, data, models.FileTypePDF, ""); !errors.Is(err, models.ErrPasswordRequired) {
		t.Errorf("no password: err = %v, want ErrPasswordRequired", err)
	}
	if _, err := dec.Read(ctx, data, models.FileTypePDF, "9999"); !errors.Is(err, models.ErrPasswordInvalid) {
		t.Errorf("wrong password: err = %v, want ErrPasswordInvalid", err)
	}

	sheets, err := dec.Read(ctx, data, models.FileTypePDF, "1234")
	if err != nil {
		t.Fatalf("right password: %v", err)
	}
	if len(sheets) != 1 || len(sheets[0].Rows) != 2 {
		t.Fatalf("sheets = %+v", sheets)
	}
	if got := sheets[0].Rows[0].Get(0); got != "Extracto Nequi" {
		t.Errorf("first row = %v", sheets[0].Rows[0])
	}
	indented := sheets[0].Rows[1]
	if indented.Get(0) != nil || indented.Get(1) != "SUCURSAL CENTRO" {
		t.Errorf("indented row = %#v", indented)
	}
}

func TestSplitCellsIndentedRow(t *testing.T) {
	line := []pdf.Text{
		{S: "SUCURSAL", X: 80, W: 30, FontSize: 9},
		{S: "CENTRO", X: 112, W: 25, FontSize: 9},
	}
	got := splitCells(line, 20)
	if len(got) != 2 || got[0] != "" || got[1] != "SUCURSAL CENTRO" {
		t.Errorf("cells = %q", got)
	}
	if got := splitCells(line, 78); len(got) != 1 {
		t.Errorf("row at the margin: cells = %q", got)
	}
}

func TestLeftMargin(t *testing.T) {
	lines := [][]pdf.Text{
		{{S: "Página 1", X: 300}},
		{{S: " ", X: 5}, {S: "01/10/2025", X: 20}},
		{{S: "SUCURSAL", X: 80}},
	}
	if got := leftMargin(lines); got != 20 {
		t.Errorf("leftMargin = %v, want 20", got)
	}
	if got := leftMargin(nil); got != 0 {
		t.Errorf("empty page margin = %v", got)
	}
}
