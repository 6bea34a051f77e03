package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FileType is the container format of a statement file.
type FileType string

const (
	FileTypePDF       FileType = "pdf"
	FileTypeXLSX      FileType = "xlsx"
	FileTypeXLS       FileType = "xls"
	FileTypeDelimited FileType = "csv"
)

// InferFileType guesses the file type from a file name extension.
func InferFileType(fileName string) FileType {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return FileTypePDF
	case ".xlsx", ".xlsm":
		return FileTypeXLSX
	case ".xls":
		return FileTypeXLS
	case ".csv", ".txt", ".tsv":
		return FileTypeDelimited
	}
	return ""
}

// IsSpreadsheet reports whether the type decodes to native spreadsheet cells.
func (f FileType) IsSpreadsheet() bool {
	return f == FileTypeXLSX || f == FileTypeXLS
}

// StatementMetadata identifies an incoming statement file. A non-empty
// BankCode is authoritative.
type StatementMetadata struct {
	FileName string   `json:"fileName"`
	FileType FileType `json:"fileType"`
	BankCode BankCode `json:"bankCode,omitempty"`
	Password string   `json:"-"`
}

// ResolvedFileType returns FileType, falling back to the file name extension.
func (m StatementMetadata) ResolvedFileType() FileType {
	if m.FileType != "" {
		return FileType(strings.ToLower(string(m.FileType)))
	}
	return InferFileType(m.FileName)
}

// AccountType classifies the statement's account.
type AccountType string

const (
	AccountSavings    AccountType = "savings"
	AccountChecking   AccountType = "checking"
	AccountCreditCard AccountType = "credit_card"
	AccountDeposit    AccountType = "deposit"
)

// StatementAccountInfo holds account-level data from a statement.
type StatementAccountInfo struct {
	AccountNumber  string          `json:"accountNumber"`
	AccountType    AccountType     `json:"accountType"`
	HolderName     *string         `json:"holderName,omitempty"`
	PeriodStart    time.Time       `json:"periodStart"`
	PeriodEnd      time.Time       `json:"periodEnd"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	Currency       string          `json:"currency"`
}

// CardSummary is the per-currency summary block of a credit card statement.
type CardSummary struct {
	Currency        string          `json:"currency"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	Charges         decimal.Decimal `json:"charges"`
	Credits         decimal.Decimal `json:"credits"`
	TotalBalance    decimal.Decimal `json:"totalBalance"`
}

// DebugLine captures what the layout extractor did with each input row.
type DebugLine struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Text   string `json:"text"`
	Result string `json:"result"` // "section", "header", "info", "parsed", "continuation", "skipped", "end"
}

// StatementResult is the outcome of parsing one statement file.
type StatementResult struct {
	Bank         BankInfo               `json:"bank"`
	Account      StatementAccountInfo   `json:"account"`
	Transactions []StatementTransaction `json:"transactions"`
	CardSummary  []CardSummary          `json:"cardSummary,omitempty"`
	DebugLines   []DebugLine            `json:"debugLines,omitempty"`
}

// Reconcile checks the balance chain: every row's BalanceBefore equals the
// previous row's BalanceAfter, the first row opens at the account's opening
// balance and the last row closes at its closing balance. Statements without
// per-row balances only check the account totals when a summary is present.
func (r *StatementResult) Reconcile() error {
	var prev *StatementTransaction
	for i := range r.Transactions {
		t := &r.Transactions[i]
		if t.BalanceBefore == nil || t.BalanceAfter == nil {
			continue
		}
		if prev == nil {
			if !t.BalanceBefore.Equal(r.Account.OpeningBalance) {
				return fmt.Errorf("row %d opens at %s, account opens at %s", i, t.BalanceBefore, r.Account.OpeningBalance)
			}
		} else if !t.BalanceBefore.Equal(*prev.BalanceAfter) {
			return fmt.Errorf("row %d opens at %s, previous row closed at %s", i, t.BalanceBefore, prev.BalanceAfter)
		}
		prev = t
	}
	if prev != nil && !prev.BalanceAfter.Equal(r.Account.ClosingBalance) {
		return fmt.Errorf("last row closes at %s, account closes at %s", prev.BalanceAfter, r.Account.ClosingBalance)
	}
	for _, s := range r.CardSummary {
		want := s.PreviousBalance.Add(s.Charges).Sub(s.Credits)
		if !want.Equal(s.TotalBalance) {
			return fmt.Errorf("%s summary: %s + %s - %s != %s", s.Currency, s.PreviousBalance, s.Charges, s.Credits, s.TotalBalance)
		}
	}
	return nil
}
