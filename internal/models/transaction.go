package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction. Amounts are always
// non-negative; the type carries the sign.
type TransactionType string

const (
	TypeIncome      TransactionType = "income"
	TypeExpense     TransactionType = "expense"
	TypeTransferIn  TransactionType = "transfer_in"
	TypeTransferOut TransactionType = "transfer_out"
)

// Valid reports whether t is one of the four known kinds.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransferIn, TypeTransferOut:
		return true
	}
	return false
}

// IsOutflow reports whether money leaves the account.
func (t TransactionType) IsOutflow() bool {
	return t == TypeExpense || t == TypeTransferOut
}

// ParsedTransaction is a transaction extracted from a single bank message.
// Pointer fields are nil when the message shape does not carry them.
type ParsedTransaction struct {
	Type            TransactionType `json:"type"`
	Amount          int64           `json:"amount"`
	BalanceAfter    *int64          `json:"balanceAfter,omitempty"`
	Merchant        *string         `json:"merchant,omitempty"`
	Description     *string         `json:"description,omitempty"`
	Reference       *string         `json:"reference,omitempty"`
	TransactionDate time.Time       `json:"transactionDate"`
	HasTime         bool            `json:"hasTime"`
	AccountLast4    *string         `json:"accountLast4,omitempty"`
	Pattern         string          `json:"pattern,omitempty"` // debug: which catalog entry matched
}

// StatementTransaction is a transaction taken from a statement file. Once
// reconciled, BalanceBefore and BalanceAfter are both set, except for card
// statements which carry no per-row balance.
type StatementTransaction struct {
	Type            TransactionType  `json:"type"`
	Amount          int64            `json:"amount"`
	BalanceBefore   *decimal.Decimal `json:"balanceBefore,omitempty"`
	BalanceAfter    *decimal.Decimal `json:"balanceAfter,omitempty"`
	Merchant        *string          `json:"merchant,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Reference       *string          `json:"reference,omitempty"`
	TransactionDate time.Time        `json:"transactionDate"`
	AccountLast4    *string          `json:"accountLast4,omitempty"`
	Currency        string           `json:"currency"`
}

// Signed returns the amount with the sign implied by the transaction type.
func (t StatementTransaction) Signed() int64 {
	if t.Type.IsOutflow() {
		return -t.Amount
	}
	return t.Amount
}
