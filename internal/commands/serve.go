package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-insights/internal/api"
	"github.com/insightdelivered/statement-insights/internal/category"
	"github.com/insightdelivered/statement-insights/internal/detector"
	"github.com/insightdelivered/statement-insights/internal/ingest"
	"github.com/insightdelivered/statement-insights/internal/rules"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(e *env) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			h, err := newHandler(e)
			if err != nil {
				return err
			}
			app := api.NewApp(h, e.cfg.Server.BodyLimitMB)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				e.log.Info().Str("addr", addr).Msg("listening")
				errCh <- app.Listen(addr)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server: %w", err)
			case <-ctx.Done():
			}

			e.log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr from config)")

	return cmd
}

func newHandler(e *env) (*api.Handler, error) {
	rs, err := loadRules(e.cfg.Rules.Path)
	if err != nil {
		return nil, err
	}
	h := &api.Handler{
		Ingestor: ingest.New(e.cfg.Decode.Timeout, e.cfg.Identify.ScanTokens),
		Detector: detector.New(detectorOptions(e.cfg)),
		Rules:    &rules.StaticProvider{Fallback: rs},
		Logger:   e.log,
	}
	if e.cfg.Categories.Path != "" {
		tree, err := category.LoadTree(e.cfg.Categories.Path)
		if err != nil {
			return nil, err
		}
		h.Categories = category.StaticTree(tree)
	}
	return h, nil
}
