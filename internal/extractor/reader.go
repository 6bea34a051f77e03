// Package extractor decodes statement files into grids of normalized cells.
package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// Reader decodes a statement file into sheets. It is the only blocking step
// of statement parsing; everything downstream works on the returned grid.
type Reader interface {
	Read(ctx context.Context, data []byte, kind models.FileType, password string) ([]models.Sheet, error)
}

// Decoder is the default Reader. It handles PDF, XLSX and XLS files.
type Decoder struct{}

// NewDecoder returns a Decoder.
func NewDecoder() *Decoder { return &Decoder{} }

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Read decodes data according to kind. Spreadsheets are sniffed by content,
// so an old .xls saved with an .xlsx name still decodes. The decode runs on
// its own goroutine; when ctx ends first Read returns ctx.Err().
func (d *Decoder) Read(ctx context.Context, data []byte, kind models.FileType, password string) ([]models.Sheet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file: %w", models.ErrInvalidInput)
	}
	decode, err := d.pick(data, kind)
	if err != nil {
		return nil, err
	}

	type result struct {
		sheets []models.Sheet
		err    error
	}
	done := make(chan result, 1)
	go func() {
		sheets, err := decode(data, password)
		done <- result{sheets, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.sheets, r.err
	}
}

func (d *Decoder) pick(data []byte, kind models.FileType) (func([]byte, string) ([]models.Sheet, error), error) {
	switch kind {
	case models.FileTypePDF:
		return decodePDF, nil
	case models.FileTypeXLSX, models.FileTypeXLS:
		switch {
		case bytes.HasPrefix(data, zipMagic):
			return decodeXLSX, nil
		case bytes.HasPrefix(data, oleMagic) && isEncryptedOOXML(data):
			return decodeXLSX, nil
		case bytes.HasPrefix(data, oleMagic):
			return decodeXLS, nil
		}
		return nil, fmt.Errorf("%s file has an unknown signature: %w", kind, models.ErrDecode)
	}
	return nil, fmt.Errorf("file type %q: %w", kind, models.ErrUnsupportedFile)
}

// encryptionInfoName is "EncryptionInfo" in UTF-16LE, the stream name an
// agile- or standard-encrypted OOXML package stores in its OLE container.
var encryptionInfoName = utf16le("EncryptionInfo")

func isEncryptedOOXML(data []byte) bool {
	return bytes.HasPrefix(data, oleMagic) && bytes.Contains(data, encryptionInfoName)
}

func utf16le(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}
