package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONSource reads pdf2json-style page dumps:
//
//	{"Pages":[{"Texts":[{"x":1.2,"y":3.4,"R":[{"T":"BRITISH%20GAS"}]}]}]}
//
// Older dumps nest pages under "formImage" and a bare array of pages is
// also accepted. Run payloads are already percent-encoded and are passed
// through untouched.
type JSONSource struct{}

type jsonDocument struct {
	Pages     []jsonPage `json:"Pages"`
	FormImage *struct {
		Pages []jsonPage `json:"Pages"`
	} `json:"formImage"`
}

type jsonPage struct {
	Texts []jsonText `json:"Texts"`
}

type jsonText struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Runs []struct {
		T string `json:"T"`
	} `json:"R"`
}

// Pages implements Source.
func (JSONSource) Pages(data []byte) ([]RawPage, error) {
	var src []jsonPage
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &src); err != nil {
			return nil, fmt.Errorf("parsing page JSON: %w", err)
		}
	} else {
		var doc jsonDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing page JSON: %w", err)
		}
		src = doc.Pages
		if len(src) == 0 && doc.FormImage != nil {
			src = doc.FormImage.Pages
		}
	}
	if len(src) == 0 {
		return nil, fmt.Errorf("page JSON has no pages")
	}

	pages := make([]RawPage, 0, len(src))
	for _, p := range src {
		var raw RawPage
		for _, t := range p.Texts {
			for _, r := range t.Runs {
				raw.Runs = append(raw.Runs, TextRun{X: t.X, Y: t.Y, Text: r.T})
			}
		}
		pages = append(pages, raw)
	}
	return pages, nil
}
