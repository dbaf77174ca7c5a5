// Package ingest turns statement documents into parsed statements.
package ingest

import (
	"context"
	"time"

	"github.com/insightdelivered/statement-insights/internal/extractor"
	"github.com/insightdelivered/statement-insights/internal/logger"
	"github.com/insightdelivered/statement-insights/internal/models"
	"github.com/insightdelivered/statement-insights/internal/parser"
)

// Ingestor runs decode, bank identification and parsing for one document.
type Ingestor struct {
	Decoder    *extractor.Decoder
	ScanTokens int
}

// New returns an ingestor with the given decode timeout and identification
// window.
func New(timeout time.Duration, scanTokens int) *Ingestor {
	return &Ingestor{Decoder: extractor.NewDecoder(timeout), ScanTokens: scanTokens}
}

// Ingest decodes data and parses it. A bank hint other than BankUnknown
// skips identification. Only decode failures and timeouts are errors;
// malformed rows are counted in the result's Rejected field.
func (i *Ingestor) Ingest(ctx context.Context, data []byte, hint models.BankType) (*models.Statement, error) {
	log := logger.FromContext(ctx)
	dec := i.Decoder
	if dec == nil {
		dec = extractor.NewDecoder(0)
	}

	start := time.Now()
	pages, err := dec.Decode(ctx, data)
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(data)).Msg("decode failed")
		return nil, err
	}
	return i.Parse(ctx, pages, hint, time.Since(start)), nil
}

// Parse identifies the bank (unless hinted) and parses already-decoded pages.
func (i *Ingestor) Parse(ctx context.Context, pages []extractor.Page, hint models.BankType, decodeTime time.Duration) *models.Statement {
	log := logger.FromContext(ctx)

	bank := hint
	if bank == "" || bank == models.BankUnknown {
		bank = parser.Identify(pages, i.ScanTokens)
	}
	st := parser.Parse(pages, bank)

	tokens := 0
	for _, p := range pages {
		tokens += len(p.Tokens)
	}
	log.Info().
		Int("pages", len(pages)).
		Int("tokens", tokens).
		Str("bank", string(st.Bank)).
		Int("transactions", len(st.Transactions)).
		Dur("decode", decodeTime).
		Msg("statement parsed")
	if st.Rejected > 0 {
		log.Debug().Int("rejected", st.Rejected).Msg("rows rejected")
	}
	return st
}
