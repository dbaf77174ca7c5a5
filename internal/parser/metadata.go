package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/statement-insights/internal/models"
)

var (
	accountNumberPattern = regexp.MustCompile(`(?i)\baccount\s*(?:number|no\.?|num)\s*:?\s*(\d{4,}(?:[ -]\d{4,})?)`)
	sortCodePattern      = regexp.MustCompile(`(?i)\bsort\s*code\s*:?\s*(\d{2})[-\s]?(\d{2})[-\s]?(\d{2})\b`)
	// A period label followed by up to four words, "to", then the rest.
	periodPattern = regexp.MustCompile(`(?i)\bperiod\s*:?\s*(?:from\s+)?((?:\S+\s+){0,3}?\S+)\s+to\s+((?:\S+\s*){1,4})`)
)

// ExtractMetadata scans the whole token stream for labelled statement fields.
// Each field is optional and found independently of transaction parsing.
func ExtractMetadata(tokens []string, p *Profile) models.StatementMetadata {
	text := strings.Join(tokens, " ")

	var md models.StatementMetadata
	if m := accountNumberPattern.FindStringSubmatch(text); m != nil {
		md.AccountNumberMasked = MaskAccountNumber(m[1])
	}
	if m := sortCodePattern.FindStringSubmatch(text); m != nil {
		md.SortCode = m[1] + "-" + m[2] + "-" + m[3]
	}
	for _, m := range periodPattern.FindAllStringSubmatch(text, -1) {
		start, ok := p.leadingDate(strings.Fields(m[1]))
		if !ok {
			continue
		}
		end, ok := p.leadingDate(strings.Fields(m[2]))
		if !ok {
			continue
		}
		md.StatementPeriod = &models.DateRange{Start: start, End: end}
		break
	}
	return md
}

// MaskAccountNumber keeps the last four digits behind at least four asterisks,
// so a short number is never shown unmasked.
func MaskAccountNumber(number string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}
	tail := d[max(0, len(d)-4):]
	return strings.Repeat("*", max(4, len(d)-4)) + tail
}

// leadingDate parses the shortest run of up to four leading words that forms
// a date.
func (p *Profile) leadingDate(words []string) (time.Time, bool) {
	for n := 1; n <= len(words) && n <= 4; n++ {
		if d, ok := p.parseDate(strings.Join(words[:n], " ")); ok {
			return d, true
		}
	}
	return time.Time{}, false
}
