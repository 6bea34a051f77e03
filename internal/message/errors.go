package message

import "fmt"

// ParseError is returned by TransactionParser.Parse. It keeps the raw input
// so callers can store it and reprocess once new shapes are added.
type ParseError struct {
	RawText string
	Sender  string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse message from %q: %v", e.Sender, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
