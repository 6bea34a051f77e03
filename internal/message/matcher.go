package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/insightdelivered/bank-transaction-extractor/internal/fields"
	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// Matcher holds the ordered pattern catalog of one bank.
type Matcher struct {
	bank     models.BankInfo
	patterns []Pattern
}

// NewMatcher builds a matcher. Patterns are tried in the given order.
func NewMatcher(code models.BankCode, patterns ...Pattern) *Matcher {
	info, ok := models.LookupBank(code)
	if !ok {
		panic(fmt.Sprintf("message: unknown bank %q", code))
	}
	return &Matcher{bank: info, patterns: patterns}
}

// Bank returns the bank this matcher belongs to.
func (m *Matcher) Bank() models.BankInfo { return m.bank }

// Patterns returns the catalog in declaration order.
func (m *Matcher) Patterns() []Pattern { return m.patterns }

// CanParse reports whether any pattern matches text.
func (m *Matcher) CanParse(text string) bool {
	for _, p := range m.patterns {
		if p.Shape.MatchString(text) {
			return true
		}
	}
	return false
}

// Parse commits to the first pattern that matches. Messages without a date
// are stamped with the current time.
func (m *Matcher) Parse(text string) (*models.ParsedTransaction, error) {
	return m.ParseAt(text, time.Now())
}

// ParseAt is Parse with an explicit "now" for undated messages.
func (m *Matcher) ParseAt(text string, now time.Time) (*models.ParsedTransaction, error) {
	for _, p := range m.patterns {
		match := p.Shape.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		return m.build(p, match, now)
	}
	return nil, models.ErrNoMatch
}

func (m *Matcher) build(p Pattern, match []string, now time.Time) (*models.ParsedTransaction, error) {
	raw, _ := p.capture(match, FieldAmount)
	amount, ok := fields.ExtractAmount(raw)
	if !ok {
		return nil, fmt.Errorf("%s/%s: amount %q: %w", m.bank.Code, p.Name, raw, models.ErrExtractionFailed)
	}

	tx := &models.ParsedTransaction{
		Type:    p.Type,
		Amount:  amount.Value,
		Pattern: p.Name,
	}
	if s, ok := p.capture(match, FieldBalance); ok {
		if b, ok := fields.ExtractAmount(s); ok {
			tx.BalanceAfter = &b.Value
		}
	}
	if s, ok := p.capture(match, FieldMerchant); ok {
		if s = strings.TrimSpace(s); s != "" {
			tx.Merchant = &s
		}
	}
	if s, ok := p.capture(match, FieldAccount); ok {
		tx.AccountLast4 = &s
	}

	tx.TransactionDate = now.In(fields.Bogota)
	tx.HasTime = true
	if ds, ok := p.capture(match, FieldDate); ok {
		ts, _ := p.capture(match, FieldTime)
		if d, ok := fields.ExtractDate(ds, ts); ok {
			tx.TransactionDate = d.Value
			tx.HasTime = d.HasTime
		}
	}
	return tx, nil
}
