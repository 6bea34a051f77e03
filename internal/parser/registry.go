package parser

import (
	"strings"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// sniffRows bounds how far content detection looks into each sheet.
const sniffRows = 20

// Confidence grades a bank detection.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// Detection is the bank a statement was attributed to and why.
type Detection struct {
	Bank       models.BankCode `json:"bankCode"`
	Confidence Confidence      `json:"confidence"`
	// Source is "metadata", "filename" or "content".
	Source string `json:"source"`
}

type bankKeywords struct {
	bank     models.BankCode
	keywords []string
}

// Nequi and Davivienda statements mention Bancolombia in their fine print,
// so the more specific banks are tried first.
var (
	fileNameKeywords = []bankKeywords{
		{models.BankNequi, []string{"nequi"}},
		{models.BankDavivienda, []string{"davivienda", "davi_ahorros"}},
		{models.BankBancolombia, []string{"bancolombia", "extracto_ahorros", "movimientos_bc"}},
	}
	contentIndicators = []bankKeywords{
		{models.BankNequi, []string{"nequi"}},
		{models.BankDavivienda, []string{"davivienda"}},
		{models.BankBancolombia, []string{"bancolombia"}},
	}
)

// Registry holds statement layouts in registration order. Several layouts
// may serve one bank; the first that accepts a file wins.
type Registry struct {
	extractors []Extractor
}

// NewRegistry returns a registry with the given extractors, or the built-in
// layouts when none are given.
func NewRegistry(extractors ...Extractor) *Registry {
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}
	return &Registry{extractors: extractors}
}

// DefaultExtractors returns the built-in layouts. The card layout precedes
// the savings layout because savings accepts any Bancolombia workbook.
func DefaultExtractors() []Extractor {
	return []Extractor{
		&BancolombiaCardExtractor{},
		&BancolombiaSavingsExtractor{},
		NewNequiExtractor(),
		NewDaviviendaExtractor(),
	}
}

// Extractors returns the registered layouts in order.
func (r *Registry) Extractors() []Extractor { return r.extractors }

// DetectBank attributes a statement to a bank: an explicit bank code first,
// then a file name keyword, then bank names in the first rows of each sheet.
// Sheets may be nil, in which case only metadata is used.
func (r *Registry) DetectBank(meta models.StatementMetadata, sheets []models.Sheet) (Detection, bool) {
	if meta.BankCode != "" {
		return Detection{Bank: meta.BankCode, Confidence: ConfidenceHigh, Source: "metadata"}, true
	}
	name := fold(meta.FileName)
	for _, b := range fileNameKeywords {
		for _, k := range b.keywords {
			if strings.Contains(name, k) {
				return Detection{Bank: b.bank, Confidence: ConfidenceHigh, Source: "filename"}, true
			}
		}
	}
	if len(sheets) == 0 {
		return Detection{}, false
	}
	var head strings.Builder
	for _, sheet := range sheets {
		for i, row := range sheet.Rows {
			if i >= sniffRows {
				break
			}
			head.WriteString(fold(row.Text()))
			head.WriteByte('\n')
		}
	}
	text := head.String()
	for _, b := range contentIndicators {
		for _, k := range b.keywords {
			if strings.Contains(text, k) {
				return Detection{Bank: b.bank, Confidence: ConfidenceMedium, Source: "content"}, true
			}
		}
	}
	return Detection{}, false
}

// Select returns the first layout for bank that handles the file type and
// accepts the file.
func (r *Registry) Select(bank models.BankCode, meta models.StatementMetadata, sheets []models.Sheet) (Extractor, bool) {
	ft := meta.ResolvedFileType()
	for _, e := range r.extractors {
		if e.Bank() == bank && acceptsType(e, ft) && e.Accepts(meta, sheets) {
			return e, true
		}
	}
	return nil, false
}

// CanParse reports whether some layout could read a file with this
// metadata. Without a bank code any layout for the file type counts.
func (r *Registry) CanParse(meta models.StatementMetadata) bool {
	ft := meta.ResolvedFileType()
	if ft == "" || ft == models.FileTypeDelimited {
		return false
	}
	bank := meta.BankCode
	if bank == "" {
		if d, ok := r.DetectBank(meta, nil); ok {
			bank = d.Bank
		}
	}
	for _, e := range r.extractors {
		if (bank == "" || e.Bank() == bank) && acceptsType(e, ft) {
			return true
		}
	}
	return false
}
