package extractor

import (
	"net/url"
	"strings"
)

// TextRun is one positioned piece of text on a page. Text holds the
// percent-encoded payload as emitted by the document source.
type TextRun struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// RawPage is the structured content of one page before decoding.
type RawPage struct {
	Runs []TextRun
}

// Page is the ordered list of decoded tokens on one page.
type Page struct {
	Number int      `json:"number"`
	Tokens []string `json:"tokens"`
}

// DecodePages turns raw pages into decoded token pages. Run order is
// preserved, empty tokens are dropped and malformed percent-encoding falls
// back to the raw text. It never fails.
func DecodePages(raw []RawPage) []Page {
	pages := make([]Page, 0, len(raw))
	for i, rp := range raw {
		page := Page{Number: i + 1}
		for _, run := range rp.Runs {
			if tok := DecodeToken(run.Text); tok != "" {
				page.Tokens = append(page.Tokens, tok)
			}
		}
		pages = append(pages, page)
	}
	return pages
}

// DecodeToken percent-decodes a single run payload and normalizes whitespace.
func DecodeToken(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		decoded = s
	}
	decoded = strings.ReplaceAll(decoded, "\u00A0", " ")
	decoded = strings.ReplaceAll(decoded, "\u200B", "")
	return strings.Join(strings.Fields(decoded), " ")
}

// Flatten returns every token of every page in reading order.
func Flatten(pages []Page) []string {
	n := 0
	for _, p := range pages {
		n += len(p.Tokens)
	}
	tokens := make([]string, 0, n)
	for _, p := range pages {
		tokens = append(tokens, p.Tokens...)
	}
	return tokens
}

// encodeRun percent-encodes plain text so sources that yield decoded text
// share the TextRun contract.
func encodeRun(s string) string {
	return url.PathEscape(s)
}
