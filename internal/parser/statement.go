package parser

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/bank-transaction-extractor/internal/extractor"
	"github.com/insightdelivered/bank-transaction-extractor/internal/metrics"
	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// StatementError is a failed statement parse. It keeps the file name so
// callers can store the file for reprocessing.
type StatementError struct {
	FileName string
	Err      error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("parse statement %q: %v", e.FileName, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// StatementParser is the entry point for statement extraction: decode,
// detect the bank, pick a layout, extract.
type StatementParser struct {
	reader   extractor.Reader
	registry *Registry
	logger   *zap.Logger
	recorder metrics.Recorder
	timeout  time.Duration
	workers  int
}

// Option configures a StatementParser.
type Option func(*StatementParser)

// WithReader replaces the file decoder.
func WithReader(r extractor.Reader) Option {
	return func(p *StatementParser) {
		if r != nil {
			p.reader = r
		}
	}
}

// WithRegistry replaces the built-in layouts.
func WithRegistry(r *Registry) Option {
	return func(p *StatementParser) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithLogger sets the logger used for dispatch decisions.
func WithLogger(l *zap.Logger) Option {
	return func(p *StatementParser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *StatementParser) { p.recorder = metrics.OrNoOp(r) }
}

// WithDecodeTimeout bounds each decode. Zero disables the bound.
func WithDecodeTimeout(d time.Duration) Option {
	return func(p *StatementParser) { p.timeout = d }
}

// WithWorkers limits how many files ParseMultiple decodes at once.
func WithWorkers(n int) Option {
	return func(p *StatementParser) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewStatementParser returns a parser with the built-in decoder and layouts.
func NewStatementParser(opts ...Option) *StatementParser {
	p := &StatementParser{
		reader:   extractor.NewDecoder(),
		registry: NewRegistry(),
		logger:   zap.NewNop(),
		recorder: metrics.NoOpRecorder{},
		workers:  4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes and extracts one statement. Every failure is a
// *StatementError wrapping one of the models sentinel errors.
func (p *StatementParser) Parse(ctx context.Context, data []byte, meta models.StatementMetadata) (*models.StatementResult, error) {
	start := time.Now()
	ft := meta.ResolvedFileType()
	res, bank, err := p.parse(ctx, data, meta)

	n := 0
	if res != nil {
		n = len(res.Transactions)
	}
	p.recorder.RecordStatement(string(bank), string(ft), models.ClassifyError(err), time.Since(start), n)
	if err != nil {
		p.logger.Debug("statement parse failed",
			zap.String("file", meta.FileName),
			zap.String("bank", string(bank)),
			zap.Error(err),
		)
		return nil, &StatementError{FileName: meta.FileName, Err: err}
	}
	return res, nil
}

func (p *StatementParser) parse(ctx context.Context, data []byte, meta models.StatementMetadata) (*models.StatementResult, models.BankCode, error) {
	ft := meta.ResolvedFileType()
	switch {
	case meta.FileName == "":
		return nil, "", fmt.Errorf("missing file name: %w", models.ErrInvalidInput)
	case ft == "":
		return nil, "", fmt.Errorf("missing file type: %w", models.ErrInvalidInput)
	case len(data) == 0:
		return nil, "", fmt.Errorf("empty file: %w", models.ErrInvalidInput)
	case ft == models.FileTypeDelimited:
		return nil, "", fmt.Errorf("delimited files have no layout: %w", models.ErrUnsupportedFile)
	}
	if meta.BankCode != "" {
		if _, ok := models.LookupBank(meta.BankCode); !ok {
			return nil, "", fmt.Errorf("unknown bank code %q: %w", meta.BankCode, models.ErrInvalidInput)
		}
	}

	sheets, err := p.decode(ctx, data, ft, meta.Password)
	if err != nil {
		return nil, meta.BankCode, err
	}

	det, ok := p.registry.DetectBank(meta, sheets)
	if !ok {
		return nil, "", fmt.Errorf("bank not recognised: %w", models.ErrNoMatch)
	}
	p.logger.Debug("statement bank detected",
		zap.String("file", meta.FileName),
		zap.String("bank", string(det.Bank)),
		zap.String("confidence", string(det.Confidence)),
		zap.String("source", det.Source),
	)

	ext, ok := p.registry.Select(det.Bank, meta, sheets)
	if !ok {
		return nil, det.Bank, fmt.Errorf("no %s layout for %s files: %w", det.Bank, ft, models.ErrUnsupportedFile)
	}
	res, err := ext.Extract(sheets, meta)
	if err != nil {
		return nil, det.Bank, err
	}

	if info, ok := models.LookupBank(det.Bank); ok {
		res.Bank = info
	}
	if err := res.Reconcile(); err != nil {
		p.logger.Warn("statement does not reconcile",
			zap.String("file", meta.FileName),
			zap.String("layout", ext.Name()),
			zap.Error(err),
		)
	}
	p.logger.Debug("statement parsed",
		zap.String("file", meta.FileName),
		zap.String("layout", ext.Name()),
		zap.Int("transactions", len(res.Transactions)),
	)
	return res, det.Bank, nil
}

func (p *StatementParser) decode(ctx context.Context, data []byte, ft models.FileType, password string) ([]models.Sheet, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.reader.Read(ctx, data, ft, password)
}

// Input is one file for ParseMultiple.
type Input struct {
	Data     []byte
	Metadata models.StatementMetadata
}

// Outcome is the result for one file of a batch.
type Outcome struct {
	FileName string                  `json:"fileName"`
	Result   *models.StatementResult `json:"result,omitempty"`
	Err      error                   `json:"-"`
}

// ParseMultiple parses files in parallel. Outcomes come back in input
// order; one file failing does not stop the others.
func (p *StatementParser) ParseMultiple(ctx context.Context, inputs []Input) []Outcome {
	out := make([]Outcome, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, in := range inputs {
		g.Go(func() error {
			res, err := p.Parse(ctx, in.Data, in.Metadata)
			out[i] = Outcome{FileName: in.Metadata.FileName, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// CanParse reports whether a file with this metadata has a layout.
func (p *StatementParser) CanParse(meta models.StatementMetadata) bool {
	return p.registry.CanParse(meta)
}

// DetectBank attributes a file to a bank. With data it also sniffs the
// decoded content; decode failures fall back to metadata alone.
func (p *StatementParser) DetectBank(ctx context.Context, meta models.StatementMetadata, data []byte) (Detection, bool) {
	if d, ok := p.registry.DetectBank(meta, nil); ok || len(data) == 0 {
		return d, ok
	}
	sheets, err := p.decode(ctx, data, meta.ResolvedFileType(), meta.Password)
	if err != nil {
		return Detection{}, false
	}
	return p.registry.DetectBank(meta, sheets)
}
