package extractor

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFSource reads positioned text from PDF bytes using ledongthuc/pdf.
//
// Glyph-level text objects are grouped into rows by Y coordinate, sorted by
// X, and merged into cell runs. A horizontal gap wider than ColumnGap font
// sizes starts a new run; smaller gaps become a single space.
type PDFSource struct {
	ColumnGap float64
}

// Pages implements Source.
func (s PDFSource) Pages(data []byte) (pages []RawPage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Content() keeps coordinates; GetTextByRow is the fallback for
	// documents whose content streams the library cannot position.
	pages = s.extractByContent(r, numPages)
	if countRuns(pages) > 0 {
		return pages, nil
	}
	pages = extractByRow(r, numPages)
	if countRuns(pages) > 0 {
		return pages, nil
	}
	return nil, fmt.Errorf("no readable text in PDF; the file may be image-based or scanned")
}

func (s PDFSource) columnGap() float64 {
	if s.ColumnGap > 0 {
		return s.ColumnGap
	}
	return 1.5
}

type glyph struct {
	x, w, size float64
	s          string
}

func (s PDFSource) extractByContent(r *pdf.Reader, numPages int) []RawPage {
	var pages []RawPage
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()

		// Group text by Y coordinate (row), rounding to absorb baseline jitter
		rowMap := make(map[int][]glyph)
		for _, t := range content.Text {
			if t.S == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], glyph{x: t.X, w: t.W, size: t.FontSize, s: t.S})
		}

		// PDF Y grows bottom-to-top
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var raw RawPage
		for _, y := range yKeys {
			raw.Runs = append(raw.Runs, s.mergeRow(rowMap[y], float64(y))...)
		}
		pages = append(pages, raw)
	}
	return pages
}

// mergeRow joins the glyphs of one row into cell runs.
func (s PDFSource) mergeRow(items []glyph, y float64) []TextRun {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].x < items[b].x
	})

	var runs []TextRun
	var cell strings.Builder
	var cellX, prevEnd float64
	pendingSpace := false

	flush := func() {
		if text := strings.TrimSpace(cell.String()); text != "" {
			runs = append(runs, TextRun{X: cellX, Y: y, Text: encodeRun(text)})
		}
		cell.Reset()
		pendingSpace = false
	}

	for _, g := range items {
		size := g.size
		if size <= 0 {
			size = 10
		}
		width := g.w
		if width <= 0 {
			width = float64(len([]rune(g.s))) * size * 0.5
		}

		if strings.TrimSpace(g.s) == "" {
			pendingSpace = cell.Len() > 0
			prevEnd = g.x + width
			continue
		}

		gap := g.x - prevEnd
		switch {
		case cell.Len() == 0:
			cellX = g.x
		case gap > s.columnGap()*size:
			flush()
			cellX = g.x
		case pendingSpace || gap > 0.2*size:
			cell.WriteByte(' ')
		}
		pendingSpace = false
		cell.WriteString(g.s)
		prevEnd = g.x + width
	}
	flush()
	return runs
}

// extractByRow uses the library's row grouping; each row becomes one run
// and the parser splits it back into date, description and amounts.
func extractByRow(r *pdf.Reader, numPages int) []RawPage {
	var pages []RawPage
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var raw RawPage
		for _, row := range rows {
			var words []string
			for _, word := range row.Content {
				if w := strings.TrimSpace(word.S); w != "" {
					words = append(words, w)
				}
			}
			if len(words) == 0 {
				continue
			}
			first := row.Content[0]
			raw.Runs = append(raw.Runs, TextRun{X: first.X, Y: first.Y, Text: encodeRun(strings.Join(words, " "))})
		}
		pages = append(pages, raw)
	}
	return pages
}

func countRuns(pages []RawPage) int {
	n := 0
	for _, p := range pages {
		n += len(p.Runs)
	}
	return n
}
