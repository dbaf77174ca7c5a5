package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-insights/internal/ingest"
	"github.com/insightdelivered/statement-insights/internal/models"
	"github.com/insightdelivered/statement-insights/internal/parser"
	"github.com/insightdelivered/statement-insights/internal/writer"
)

func newParseCommand(e *env) *cobra.Command {
	var bank, output, format string
	var header bool

	cmd := &cobra.Command{
		Use:   "parse <statement> [statement ...]",
		Short: "Convert statements to CSV or JSON",
		Example: `  # Auto-detect bank and convert
  statement-insights parse statement.pdf

  # Specify bank explicitly and write JSON to stdout
  statement-insights parse --bank=hsbc --format=json --output=- statement.pdf

  # Convert multiple files, each next to its input
  statement-insights parse --bank=barclays jan.pdf feb.pdf mar.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hint, err := parser.ParseBankHint(bank)
			if err != nil {
				return err
			}
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q: use csv or json", format)
			}
			if output != "" && output != "-" && len(args) > 1 {
				return fmt.Errorf("--output names one file but %d statements were given", len(args))
			}

			ing := ingest.New(e.cfg.Decode.Timeout, e.cfg.Identify.ScanTokens)
			for _, path := range args {
				if err := runParse(cmd, ing, path, hint, output, format, header); err != nil {
					return fmt.Errorf("processing %s: %w", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "bank: natwest, hsbc, barclays, other (auto-detected if omitted)")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output path, "-" for stdout (defaults to the input name with the format's extension)`)
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	cmd.Flags().BoolVar(&header, "header", true, "include account metadata rows in CSV")

	return cmd
}

func runParse(cmd *cobra.Command, ing *ingest.Ingestor, path string, hint models.BankType, output, format string, header bool) error {
	st, err := ingestFile(cmd.Context(), ing, path, hint)
	if err != nil {
		return err
	}

	progress := cmd.OutOrStdout()
	if output == "-" {
		progress = cmd.ErrOrStderr()
	}
	fmt.Fprintf(progress, "%s: %s statement, %d transaction(s)", path, st.Bank, len(st.Transactions))
	if st.Rejected > 0 {
		fmt.Fprintf(progress, ", %d row(s) rejected", st.Rejected)
	}
	fmt.Fprintln(progress)
	if len(st.Transactions) == 0 {
		fmt.Fprintln(progress, "  Warning: no transactions found. Try --bank if auto-detection picked the wrong layout.")
	}

	if output == "-" {
		return writeStatement(cmd.OutOrStdout(), st, format, header)
	}
	if output == "" {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		output = base + "." + format
		// a JSON page dump converted to JSON must not overwrite itself
		if output == path {
			output = base + "-parsed." + format
		}
	}
	if err := writeStatementFile(output, st, format, header); err != nil {
		return err
	}
	fmt.Fprintf(progress, "  Output: %s\n", output)
	return nil
}

func writeStatement(out io.Writer, st *models.Statement, format string, header bool) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	w := &writer.CSVWriter{IncludeHeader: header}
	return w.Write(out, st)
}

func writeStatementFile(path string, st *models.Statement, format string, header bool) error {
	if format == "csv" {
		w := &writer.CSVWriter{IncludeHeader: header}
		return w.WriteToFile(path, st)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return writeStatement(f, st, format, header)
}

// ingestFile reads and ingests one statement document.
func ingestFile(ctx context.Context, ing *ingest.Ingestor, path string, hint models.BankType) (*models.Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	return ing.Ingest(ctx, data, hint)
}
