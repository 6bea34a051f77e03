package message

import (
	"time"

	"go.uber.org/zap"

	"github.com/insightdelivered/bank-transaction-extractor/internal/fields"
	"github.com/insightdelivered/bank-transaction-extractor/internal/metrics"
	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// Registry holds one matcher per bank in registration order.
type Registry struct {
	matchers []*Matcher
}

// NewRegistry returns a registry with the given matchers, or the built-in
// catalogs when none are given.
func NewRegistry(matchers ...*Matcher) *Registry {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Registry{matchers: matchers}
}

// Matchers returns the registered matchers in order.
func (r *Registry) Matchers() []*Matcher { return r.matchers }

// FindParser returns the first matcher that accepts text.
func (r *Registry) FindParser(text string) (*Matcher, bool) {
	for _, m := range r.matchers {
		if m.CanParse(text) {
			return m, true
		}
	}
	return nil, false
}

// CanParse reports whether any registered bank recognises text.
func (r *Registry) CanParse(text string) bool {
	_, ok := r.FindParser(text)
	return ok
}

// Result is a successfully extracted message.
type Result struct {
	Bank        models.BankInfo          `json:"bank"`
	Transaction models.ParsedTransaction `json:"transaction"`
	// Merchant is the cleaned and categorised form of Transaction.Merchant.
	Merchant *fields.Merchant `json:"merchant,omitempty"`
	RawText  string           `json:"rawText"`
}

// TransactionParser is the entry point for message extraction.
type TransactionParser struct {
	registry *Registry
	logger   *zap.Logger
	recorder metrics.Recorder
	now      func() time.Time
}

// Option configures a TransactionParser.
type Option func(*TransactionParser)

// WithLogger sets the logger used for dispatch decisions.
func WithLogger(l *zap.Logger) Option {
	return func(p *TransactionParser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *TransactionParser) { p.recorder = metrics.OrNoOp(r) }
}

// WithClock sets the time source used for undated messages.
func WithClock(now func() time.Time) Option {
	return func(p *TransactionParser) {
		if now != nil {
			p.now = now
		}
	}
}

// NewTransactionParser wraps a registry. A nil registry means the built-in catalogs.
func NewTransactionParser(r *Registry, opts ...Option) *TransactionParser {
	if r == nil {
		r = NewRegistry()
	}
	p := &TransactionParser{
		registry: r,
		logger:   zap.NewNop(),
		recorder: metrics.NoOpRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CanParse reports whether any bank recognises text.
func (p *TransactionParser) CanParse(text string) bool {
	return p.registry.CanParse(text)
}

// Parse extracts a transaction from text. The sender is recorded on
// failures and in logs but does not influence which bank is chosen.
func (p *TransactionParser) Parse(text, sender string) (*Result, error) {
	m, ok := p.registry.FindParser(text)
	if !ok {
		p.logger.Debug("no bank matched message", zap.String("sender", sender))
		p.recorder.RecordMessage("", models.ClassifyError(models.ErrNoMatch))
		return nil, &ParseError{RawText: text, Sender: sender, Err: models.ErrNoMatch}
	}

	bank := m.Bank()
	tx, err := m.ParseAt(text, p.now())
	if err != nil {
		p.logger.Debug("message matched but extraction failed",
			zap.String("bank", string(bank.Code)),
			zap.String("sender", sender),
			zap.Error(err),
		)
		p.recorder.RecordMessage(string(bank.Code), models.ClassifyError(err))
		return nil, &ParseError{RawText: text, Sender: sender, Err: err}
	}

	if d, ok := fields.ExtractDescription(text); ok {
		tx.Description = &d
	}
	if ref, ok := fields.ExtractReference(text); ok {
		tx.Reference = &ref
	}
	res := &Result{Bank: bank, Transaction: *tx, RawText: text}
	if tx.Merchant != nil {
		if mer, ok := fields.ExtractMerchant(*tx.Merchant); ok {
			res.Merchant = &mer
		}
	}

	p.logger.Debug("message parsed",
		zap.String("bank", string(bank.Code)),
		zap.String("pattern", tx.Pattern),
		zap.String("type", string(tx.Type)),
		zap.Int64("amount", tx.Amount),
	)
	p.recorder.RecordMessage(string(bank.Code), models.ClassifyError(nil))
	return res, nil
}
