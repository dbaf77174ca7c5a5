package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// commonDateLayouts are tried first for every profile:
// DD/MM/YYYY, DD Mon YYYY, DD Month YYYY, then ISO.
var commonDateLayouts = []string{
	"2/1/2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006-01-02",
}

// Leading-date patterns used to split a token such as
// "15 Jan 2024 CARD PAYMENT" into its date and the rest.
var (
	// DD/MM/YYYY or DD/MM/YY
	datePatternSlash = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4})\s+(.+)$`)
	// DD Mon YYYY (e.g., 15 Jan 2024), month name matched case-insensitively
	datePatternText = regexp.MustCompile(`(?i)^(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4})\s+(.+)$`)
	// DD-Mon-YYYY or DD-Mon-YY
	datePatternDash = regexp.MustCompile(`(?i)^(\d{1,2}-(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*-\d{2,4})\s+(.+)$`)
	// YYYY-MM-DD
	datePatternISO = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(.+)$`)
)

var leadingDatePatterns = []*regexp.Regexp{datePatternSlash, datePatternText, datePatternDash, datePatternISO}

// amountTokenPattern matches a money amount with optional currency symbol,
// sign, parentheses and a trailing bank marker:
// "1,234.56", "-£85.50", "(12.00)", "85.50 DR", "1,234.56O/D", "20.00-".
var amountTokenPattern = regexp.MustCompile(
	`(?i)^(\()?\s*([-+])?\s*[£$€]?\s*([-+])?\s*((?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2})\s*(\))?\s*(O/D|OD|DR|CR|D|-)?$`,
)

// markerWord matches a bank marker printed as its own word after an amount.
var markerWord = regexp.MustCompile(`(?i)^(O/D|OD|DR|CR)$`)

// Marker is a bank sign marker attached to an amount.
type Marker string

const (
	MarkerNone      Marker = ""
	MarkerOverdrawn Marker = "OD"
	MarkerDebit     Marker = "DR"
	MarkerCredit    Marker = "CR"
)

// AmountToken is a recognized amount before a sign rule is applied.
type AmountToken struct {
	Value    decimal.Decimal // absolute value
	Negative bool            // literal minus sign or parentheses
	Marker   Marker
}

// Literal returns the amount with its printed sign.
func (a AmountToken) Literal() decimal.Decimal {
	if a.Negative {
		return a.Value.Neg()
	}
	return a.Value
}

// parseAmountToken recognizes an amount-shaped token.
func parseAmountToken(tok string) (AmountToken, bool) {
	tok = strings.TrimSpace(strings.ReplaceAll(tok, "\u00A0", " "))
	m := amountTokenPattern.FindStringSubmatch(tok)
	if m == nil {
		return AmountToken{}, false
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(m[4], ",", ""))
	if err != nil {
		return AmountToken{}, false
	}

	a := AmountToken{Value: value}
	suffix := strings.ToUpper(m[6])
	a.Negative = m[2] == "-" || m[3] == "-" || suffix == "-" || (m[1] != "" && m[5] != "")
	switch suffix {
	case "O/D", "OD":
		a.Marker = MarkerOverdrawn
	case "DR", "D":
		a.Marker = MarkerDebit
	case "CR":
		a.Marker = MarkerCredit
	}
	return a, true
}

// balanceValue applies the overdrawn/debit markers to a balance.
func balanceValue(a AmountToken) decimal.Decimal {
	switch a.Marker {
	case MarkerOverdrawn, MarkerDebit:
		return a.Value.Neg()
	case MarkerCredit:
		return a.Value
	}
	return a.Literal()
}

// literalSign keeps the printed sign unless a marker forces one.
func literalSign(a AmountToken, _ string) decimal.Decimal {
	switch a.Marker {
	case MarkerOverdrawn, MarkerDebit:
		return a.Value.Neg()
	case MarkerCredit:
		return a.Value
	}
	return a.Literal()
}

// debitDefault treats unsigned amounts as money out unless a marker or the
// description says otherwise.
func debitDefault(isCredit func(string) bool) SignRule {
	return func(a AmountToken, description string) decimal.Decimal {
		switch a.Marker {
		case MarkerOverdrawn, MarkerDebit:
			return a.Value.Neg()
		case MarkerCredit:
			return a.Value
		}
		if a.Negative {
			return a.Value.Neg()
		}
		if isCredit != nil && isCredit(description) {
			return a.Value
		}
		return a.Value.Neg()
	}
}

// isCreditDescription checks if a description indicates an incoming payment.
func isCreditDescription(desc string) bool {
	lower := " " + strings.ToLower(desc) + " "
	creditKeywords := []string{
		"direct credit", "credit from", " bgc ", "bank giro credit",
		"automated credit", "refund", "interest paid", "transfer from",
		"salary", "payment received", "cash deposit", " bac ",
	}
	for _, kw := range creditKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// splitToken breaks a row-shaped token ("15 Jan 2024 TESCO 25.99 1,234.56")
// into a leading date, the description and up to two trailing amounts.
// Tokens that are already a single date or amount are returned unchanged.
func (p *Profile) splitToken(tok string) []string {
	if _, ok := p.parseDate(tok); ok {
		return []string{tok}
	}
	if _, ok := parseAmountToken(tok); ok {
		return []string{tok}
	}

	var parts []string
	rest := tok
	for _, pat := range leadingDatePatterns {
		m := pat.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		if _, ok := p.parseDate(m[1]); ok {
			parts = append(parts, m[1])
			rest = m[2]
			break
		}
	}

	fields := strings.Fields(rest)
	var amounts []string
	for len(amounts) < 2 && len(fields) > 1 {
		last := fields[len(fields)-1]
		if markerWord.MatchString(last) && len(fields) > 2 {
			candidate := fields[len(fields)-2] + " " + last
			if _, ok := parseAmountToken(candidate); ok {
				amounts = append([]string{candidate}, amounts...)
				fields = fields[:len(fields)-2]
				continue
			}
		}
		if _, ok := parseAmountToken(last); !ok {
			break
		}
		amounts = append([]string{last}, amounts...)
		fields = fields[:len(fields)-1]
	}

	if len(fields) > 0 {
		parts = append(parts, strings.Join(fields, " "))
	}
	return append(parts, amounts...)
}

// isSummaryToken identifies balance summary rows that are never transactions.
func isSummaryToken(tok string) bool {
	lower := strings.ToLower(tok)
	summaryKeywords := []string{
		"start balance", "end balance", "opening balance", "closing balance",
		"brought forward", "carried forward", "previous balance", "new balance",
		"total paid in", "total paid out", "total payments", "total receipts",
	}
	for _, kw := range summaryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var headerTokens = map[string]bool{
	"date": true, "description": true, "details": true, "transaction": true,
	"transaction details": true, "payment type and details": true, "type": true,
	"paid out": true, "paid in": true, "money out": true, "money in": true,
	"withdrawn": true, "withdrawals": true, "deposits": true, "balance": true,
	"amount": true, "debit": true, "credit": true,
}

// isHeaderToken identifies column header cells repeated on every page.
func isHeaderToken(tok string) bool {
	lower := strings.ToLower(strings.TrimSpace(tok))
	lower = strings.TrimSpace(strings.TrimSuffix(lower, "(£)"))
	return headerTokens[lower]
}

var pageMarkerPattern = regexp.MustCompile(`(?i)^page\s+\d+(\s+of\s+\d+)?$`)

func isPageMarker(tok string) bool {
	return pageMarkerPattern.MatchString(strings.TrimSpace(tok))
}

// normalizeDescription collapses whitespace in joined description parts.
func normalizeDescription(parts []string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
