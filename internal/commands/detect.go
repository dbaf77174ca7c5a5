package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-insights/internal/category"
	"github.com/insightdelivered/statement-insights/internal/config"
	"github.com/insightdelivered/statement-insights/internal/detector"
	"github.com/insightdelivered/statement-insights/internal/ingest"
	"github.com/insightdelivered/statement-insights/internal/models"
	"github.com/insightdelivered/statement-insights/internal/parser"
	"github.com/insightdelivered/statement-insights/internal/rules"
	"github.com/insightdelivered/statement-insights/internal/writer"
)

func newDetectCommand(e *env) *cobra.Command {
	var bank, rulesPath, categoriesPath, query, format string
	var limit int

	cmd := &cobra.Command{
		Use:   "detect <statement> [statement ...]",
		Short: "Find recurring payments across one or more statements",
		Example: `  # Bills and subscriptions over a quarter of statements
  statement-insights detect jan.pdf feb.pdf mar.pdf

  # Live-style lookup for one payee
  statement-insights detect --query=netflix --limit=3 *.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hint, err := parser.ParseBankHint(bank)
			if err != nil {
				return err
			}
			switch format {
			case "table", "csv", "json":
			default:
				return fmt.Errorf("unknown format %q: use table, csv or json", format)
			}

			if rulesPath == "" {
				rulesPath = e.cfg.Rules.Path
			}
			if categoriesPath == "" {
				categoriesPath = e.cfg.Categories.Path
			}
			rs, err := loadRules(rulesPath)
			if err != nil {
				return err
			}
			tree, err := loadTree(categoriesPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ing := ingest.New(e.cfg.Decode.Timeout, e.cfg.Identify.ScanTokens)
			var txns []models.Transaction
			for _, path := range args {
				st, err := ingestFile(ctx, ing, path, hint)
				if err != nil {
					return fmt.Errorf("processing %s: %w", path, err)
				}
				txns = append(txns, st.Transactions...)
			}

			opts := detectorOptions(e.cfg)
			if limit > 0 {
				opts.SuggestionLimit = limit
			}
			d := detector.New(opts)

			var out []models.RecurringSuggestion
			if cmd.Flags().Changed("query") {
				out, err = d.Suggest(ctx, query, txns, rs)
			} else {
				out, err = d.Analyze(ctx, txns, rs, tree)
			}
			if err != nil {
				return err
			}
			return writeSuggestions(cmd.OutOrStdout(), out, format)
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "bank: natwest, hsbc, barclays, other (auto-detected if omitted)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "detection rules file (YAML); built-in rules when omitted")
	cmd.Flags().StringVar(&categoriesPath, "categories", "", "category tree file (YAML); suggestions that cannot be mapped are dropped")
	cmd.Flags().StringVar(&query, "query", "", "only consider rules matching this payee search term")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum suggestions for --query (config default when 0)")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, csv or json")

	return cmd
}

// loadRules reads a rule file, falling back to the built-in set when the
// path is empty or the file holds no active rules.
func loadRules(path string) (*models.RuleSet, error) {
	if path == "" {
		return rules.Default(), nil
	}
	rs, err := rules.Load(path)
	if err != nil {
		return nil, err
	}
	return rules.Select(rs, rules.Default()), nil
}

func loadTree(path string) ([]*models.CategoryNode, error) {
	if path == "" {
		return nil, nil
	}
	return category.LoadTree(path)
}

func detectorOptions(cfg *config.Config) detector.Options {
	opts := detector.DefaultOptions()
	opts.Threshold = cfg.Matcher.Threshold
	opts.AmountTolerance = cfg.Detector.AmountTolerance
	opts.MinConfidence = cfg.Detector.MinConfidence
	opts.SuggestionLimit = cfg.Detector.SuggestionLimit
	opts.ChunkSize = cfg.Detector.ChunkSize
	return opts
}

func writeSuggestions(out io.Writer, suggestions []models.RecurringSuggestion, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(suggestions)
	case "csv":
		return (&writer.CSVWriter{}).WriteSuggestions(out, suggestions)
	}

	if len(suggestions) == 0 {
		_, err := fmt.Fprintln(out, "No recurring payments found.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PAYEE\tCATEGORY\tFREQUENCY\tAVERAGE\tCOUNT\tNEXT\tCONFIDENCE")
	for _, s := range suggestions {
		next := "-"
		if s.NextExpectedDate != nil {
			next = s.NextExpectedDate.Format(models.DateLayout)
		}
		cat := s.Category
		if s.CategoryName != "" {
			cat = s.CategoryName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%.2f\n",
			s.Payee, cat, s.Frequency, s.AverageAmount.StringFixed(2), len(s.Occurrences), next, s.Confidence)
	}
	return tw.Flush()
}
