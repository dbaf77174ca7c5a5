package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-insights/internal/buildinfo"
	"github.com/insightdelivered/statement-insights/internal/config"
	"github.com/insightdelivered/statement-insights/internal/logger"
)

// env is the state shared by every subcommand once flags are parsed.
type env struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "statement-insights",
		Short: "Parse UK bank statements and detect recurring payments",
		Long: `Converts bank statement documents from NatWest, HSBC, Barclays and other
banks into transactions, and finds recurring bills and subscriptions in them.

Supported banks:
  natwest   - NatWest (DD Mon YY, balances marked O/D)
  hsbc      - HSBC UK (DD Mon YY, payment type codes, no per-row balance)
  barclays  - Barclays (DD/MM/YYYY or DD Mon YY)
  other     - any statement with one transaction per row`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(newParseCommand(e))
	rootCmd.AddCommand(newDetectCommand(e))
	rootCmd.AddCommand(newServeCommand(e))

	return rootCmd
}

func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
	}
	e.cfg = cfg
	e.log = logger.New(cfg.Log.Level)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithContext(ctx, e.log))
	return nil
}
