package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// CSVWriter writes statement transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the statement to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, res *models.StatementResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, res); err != nil {
		return err
	}
	return f.Close()
}

// Write writes the statement in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, res *models.StatementResult) error {
	writer := csv.NewWriter(out)

	// Account metadata goes first as "# key,value" rows
	if w.IncludeHeader {
		acct := res.Account
		meta := [][2]string{
			{"# Bank", res.Bank.Name},
			{"# Account Number", acct.AccountNumber},
			{"# Account Type", string(acct.AccountType)},
			{"# Currency", acct.Currency},
		}
		if acct.HolderName != nil {
			meta = append(meta, [2]string{"# Account Holder", *acct.HolderName})
		}
		if !acct.PeriodStart.IsZero() || !acct.PeriodEnd.IsZero() {
			meta = append(meta, [2]string{"# Statement Period", formatDate(acct.PeriodStart) + " to " + formatDate(acct.PeriodEnd)})
		}
		meta = append(meta,
			[2]string{"# Opening Balance", acct.OpeningBalance.StringFixed(2)},
			[2]string{"# Closing Balance", acct.ClosingBalance.StringFixed(2)},
		)
		for _, m := range meta {
			if m[1] == "" {
				continue
			}
			if err := writer.Write([]string{m[0], sanitize(m[1])}); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	header := []string{"Date", "Type", "Description", "Merchant", "Reference", "Amount", "Currency", "Balance Before", "Balance After"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range res.Transactions {
		row := []string{
			formatDate(txn.TransactionDate),
			string(txn.Type),
			sanitize(deref(txn.Description)),
			sanitize(deref(txn.Merchant)),
			sanitize(deref(txn.Reference)),
			strconv.FormatInt(txn.Amount, 10),
			txn.Currency,
			formatBalance(txn.BalanceBefore),
			formatBalance(txn.BalanceAfter),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatBalance(b *decimal.Decimal) string {
	if b == nil {
		return ""
	}
	return b.StringFixed(2)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sanitize keeps spreadsheet programs from evaluating statement text as a
// formula. Descriptions come from third parties and can start with '='.
func sanitize(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
