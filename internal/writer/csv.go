package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// CSVWriter writes statements and suggestions in CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes a statement's transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, st *models.Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, st)
}

// Write writes a statement's transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, st *models.Statement) error {
	writer := csv.NewWriter(out)

	// Metadata goes first as "# key,value" rows
	if w.IncludeHeader {
		meta := [][]string{{"# Bank", string(st.Bank)}}
		if st.Metadata.AccountNumberMasked != "" {
			meta = append(meta, []string{"# Account Number", st.Metadata.AccountNumberMasked})
		}
		if st.Metadata.SortCode != "" {
			meta = append(meta, []string{"# Sort Code", st.Metadata.SortCode})
		}
		if p := st.Metadata.StatementPeriod; p != nil {
			meta = append(meta, []string{"# Statement Period",
				p.Start.Format(models.DateLayout) + " to " + p.End.Format(models.DateLayout)})
		}
		if err := writer.WriteAll(meta); err != nil {
			return fmt.Errorf("failed to write CSV metadata: %w", err)
		}
	}

	header := []string{"Date", "Description", "Type", "Amount", "Balance"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range st.Transactions {
		row := []string{
			txn.Date.Format(models.DateLayout),
			txn.Description,
			txnType(txn),
			txn.Amount.StringFixed(2),
			formatBalance(txn.Balance),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSuggestions writes one row per recurring suggestion.
func (w *CSVWriter) WriteSuggestions(out io.Writer, suggestions []models.RecurringSuggestion) error {
	writer := csv.NewWriter(out)

	header := []string{
		"Payee", "Category", "Subcategory", "Frequency", "Confidence", "Occurrences",
		"Average Amount", "Last Date", "Next Expected", "Domain", "Matched Pattern", "Reason",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, s := range suggestions {
		next := ""
		if s.NextExpectedDate != nil {
			next = s.NextExpectedDate.Format(models.DateLayout)
		}
		category := s.Category
		if s.CategoryName != "" {
			category = s.CategoryName
		}
		row := []string{
			s.Payee,
			category,
			s.Subcategory,
			string(s.Frequency),
			strconv.FormatFloat(s.Confidence, 'f', 2, 64),
			strconv.Itoa(len(s.Occurrences)),
			s.AverageAmount.StringFixed(2),
			s.LastDate.Format(models.DateLayout),
			next,
			string(s.Domain),
			s.MatchedPattern,
			s.Reason,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func txnType(txn models.Transaction) string {
	if txn.IsDebit() {
		return "DEBIT"
	}
	return "CREDIT"
}

func formatBalance(b *decimal.Decimal) string {
	if b == nil {
		return ""
	}
	return b.StringFixed(2)
}
