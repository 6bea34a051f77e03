// Package message classifies and decomposes bank notification messages
// (SMS and push text) into transactions.
package message

import (
	"fmt"
	"regexp"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// Field names a logical value captured by a pattern. Patterns declare fields
// with named capture groups, e.g. (?P<amount>...).
type Field string

const (
	FieldAmount   Field = "amount"
	FieldMerchant Field = "merchant"
	FieldDate     Field = "date"
	FieldTime     Field = "time"
	FieldBalance  Field = "balance"
	FieldAccount  Field = "account"
)

var knownFields = map[Field]bool{
	FieldAmount: true, FieldMerchant: true, FieldDate: true,
	FieldTime: true, FieldBalance: true, FieldAccount: true,
}

// Pattern recognises one message shape of one bank.
type Pattern struct {
	Name   string
	Type   models.TransactionType
	Shape  *regexp.Regexp
	Fields map[Field]int // capture index per declared field
}

// NewPattern compiles a shape. It panics on an invalid expression, an
// unknown field name or a missing amount group, since catalogs are fixed
// at build time.
func NewPattern(name string, typ models.TransactionType, expr string) Pattern {
	re := regexp.MustCompile(expr)
	fields := make(map[Field]int)
	for i, n := range re.SubexpNames() {
		if n == "" {
			continue
		}
		f := Field(n)
		if !knownFields[f] {
			panic(fmt.Sprintf("message: pattern %s: unknown field %q", name, n))
		}
		fields[f] = i
	}
	if _, ok := fields[FieldAmount]; !ok {
		panic(fmt.Sprintf("message: pattern %s: no amount group", name))
	}
	if !typ.Valid() {
		panic(fmt.Sprintf("message: pattern %s: invalid type %q", name, typ))
	}
	return Pattern{Name: name, Type: typ, Shape: re, Fields: fields}
}

// capture returns the submatch for f. Undeclared or non-participating
// groups report false.
func (p Pattern) capture(match []string, f Field) (string, bool) {
	i, ok := p.Fields[f]
	if !ok || i >= len(match) || match[i] == "" {
		return "", false
	}
	return match[i], true
}
