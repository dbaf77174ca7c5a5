package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar-date format used in JSON and CSV output.
const DateLayout = "2006-01-02"

// Transaction represents a single bank statement transaction.
// Values are produced by the statement parser and never mutated afterwards.
type Transaction struct {
	Date         time.Time        `json:"date"`
	Description  string           `json:"description"`
	Amount       decimal.Decimal  `json:"amount"` // negative = debit
	Balance      *decimal.Decimal `json:"balance,omitempty"`
	OriginalText string           `json:"originalText,omitempty"`
	SourceBank   BankType         `json:"sourceBank,omitempty"`
}

// Valid reports whether the transaction carries a date and a description.
// Rows missing either are ignored by the detector.
func (t Transaction) Valid() bool {
	return !t.Date.IsZero() && t.Description != ""
}

// IsDebit reports whether money left the account.
func (t Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

type transactionJSON struct {
	Date         string           `json:"date"`
	Description  string           `json:"description"`
	Amount       decimal.Decimal  `json:"amount"`
	Balance      *decimal.Decimal `json:"balance,omitempty"`
	OriginalText string           `json:"originalText,omitempty"`
	SourceBank   BankType         `json:"sourceBank,omitempty"`
}

// MarshalJSON writes the date as YYYY-MM-DD.
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := transactionJSON{
		Description:  t.Description,
		Amount:       t.Amount,
		Balance:      t.Balance,
		OriginalText: t.OriginalText,
		SourceBank:   t.SourceBank,
	}
	if !t.Date.IsZero() {
		out.Date = t.Date.Format(DateLayout)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts YYYY-MM-DD or RFC 3339 dates. An empty date is left zero.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var in transactionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Transaction{
		Description:  in.Description,
		Amount:       in.Amount,
		Balance:      in.Balance,
		OriginalText: in.OriginalText,
		SourceBank:   in.SourceBank,
	}
	if in.Date == "" {
		return nil
	}
	d, err := time.Parse(DateLayout, in.Date)
	if err != nil {
		d, err = time.Parse(time.RFC3339, in.Date)
		if err != nil {
			return fmt.Errorf("parsing transaction date %q: %w", in.Date, err)
		}
	}
	t.Date = d
	return nil
}

// BankType identifies a bank parsing profile.
type BankType string

const (
	BankNatWest  BankType = "NatWest"
	BankBarclays BankType = "Barclays"
	BankHSBC     BankType = "HSBC"
	BankGeneric  BankType = "Generic"
	// BankUnknown is returned by identification when no marker matched.
	BankUnknown BankType = "Unknown"
)

// DateRange is an inclusive calendar period.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StatementMetadata holds account details extracted from the statement.
type StatementMetadata struct {
	AccountNumberMasked string     `json:"accountNumber,omitempty"`
	SortCode            string     `json:"sortCode,omitempty"`
	StatementPeriod     *DateRange `json:"statementPeriod,omitempty"`
}

// Statement is the result of ingesting one statement document.
type Statement struct {
	Bank         BankType          `json:"bank"`
	Metadata     StatementMetadata `json:"metadata"`
	Transactions []Transaction     `json:"transactions"`
	// Rejected counts token sequences that opened a row but never became a valid transaction.
	Rejected int `json:"rejected"`
}
