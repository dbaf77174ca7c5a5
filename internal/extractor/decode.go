package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDecodeFailure means the document could not be turned into pages at all.
	ErrDecodeFailure = errors.New("document decode failed")
	// ErrTimeout means decoding exceeded the configured bound.
	ErrTimeout = errors.New("document decode timed out")
	// ErrUnsupportedDocument is a decode failure for bytes that are neither
	// a PDF nor a page JSON dump.
	ErrUnsupportedDocument = fmt.Errorf("%w: unsupported document format", ErrDecodeFailure)
)

// DefaultTimeout bounds decoding when a Decoder has no timeout set.
const DefaultTimeout = 10 * time.Second

// Source produces raw pages from document bytes.
type Source interface {
	Pages(data []byte) ([]RawPage, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(data []byte) ([]RawPage, error)

// Pages implements Source.
func (f SourceFunc) Pages(data []byte) ([]RawPage, error) { return f(data) }

// Decoder turns document bytes into token pages under a timeout.
type Decoder struct {
	Timeout time.Duration
	// Source overrides format sniffing when set.
	Source Source
}

// NewDecoder returns a sniffing decoder with the given timeout.
func NewDecoder(timeout time.Duration) *Decoder {
	return &Decoder{Timeout: timeout}
}

// Sniff picks a source from the leading bytes of data.
func Sniff(data []byte) (Source, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n\uFEFF")
	switch {
	case bytes.HasPrefix(trimmed, []byte("%PDF")):
		return PDFSource{}, nil
	case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
		return JSONSource{}, nil
	default:
		return nil, ErrUnsupportedDocument
	}
}

type decodeResult struct {
	pages []RawPage
	err   error
}

// Decode runs the source in its own goroutine and waits for it, the
// timeout, or ctx, whichever comes first. A source that never returns
// surfaces as ErrTimeout.
func (d *Decoder) Decode(ctx context.Context, data []byte) ([]Page, error) {
	src := d.Source
	if src == nil {
		var err error
		if src, err = Sniff(data); err != nil {
			return nil, err
		}
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan decodeResult, 1)
	go func() {
		pages, err := src.Pages(data)
		done <- decodeResult{pages: pages, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, res.err)
		}
		if len(res.pages) == 0 {
			return nil, fmt.Errorf("%w: document has no pages", ErrDecodeFailure)
		}
		return DecodePages(res.pages), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}
