package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/extractor"
	"github.com/insightdelivered/statement-insights/internal/models"
)

// DefaultScanTokens is how many leading tokens Identify inspects.
const DefaultScanTokens = 60

// SignRule turns a recognized amount token into a signed amount, given the
// description accumulated for the row.
type SignRule func(a AmountToken, description string) decimal.Decimal

// Profile is a bank parsing profile. Every profile drives the same state
// machine through the same hook points.
type Profile struct {
	Bank models.BankType
	// Markers are lower-case substrings that identify the bank.
	Markers []string
	// DateLayouts are tried after the common layouts, in order.
	DateLayouts []string
	Sign        SignRule
	// HasBalance means an amount immediately following the row amount is
	// the running balance.
	HasBalance bool
	// CarryDate lets a description with no leading date reuse the last date,
	// for statements that print the date once per day.
	CarryDate bool
	// Skip reports bank-specific noise tokens that never belong to a row.
	Skip func(token string) bool
}

// identifyOrder is the scan order for bank markers.
var identifyOrder = []*Profile{&NatWestProfile, &BarclaysProfile, &HSBCProfile}

// ProfileFor returns the parsing profile for a bank label. Unknown and
// unrecognized labels use the generic profile.
func ProfileFor(bank models.BankType) *Profile {
	for _, p := range identifyOrder {
		if p.Bank == bank {
			return p
		}
	}
	return &GenericProfile
}

// ParseBankHint maps a user-supplied bank name to a bank label.
// An empty hint returns BankUnknown so the caller auto-detects.
func ParseBankHint(hint string) (models.BankType, error) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "":
		return models.BankUnknown, nil
	case "natwest", "nat west", "national westminster":
		return models.BankNatWest, nil
	case "barclays":
		return models.BankBarclays, nil
	case "hsbc":
		return models.BankHSBC, nil
	case "generic", "other":
		return models.BankGeneric, nil
	default:
		return "", fmt.Errorf("unknown bank %q: supported natwest, barclays, hsbc, generic", hint)
	}
}

// Identify scans the first scan tokens across all pages for a bank marker.
// The first token containing any bank's marker decides; ties within a token
// go to the earlier bank in scan order. Returns BankUnknown when nothing
// matches or there are no tokens.
func Identify(pages []extractor.Page, scan int) models.BankType {
	if scan <= 0 {
		scan = DefaultScanTokens
	}
	seen := 0
	for _, page := range pages {
		for _, tok := range page.Tokens {
			if seen >= scan {
				return models.BankUnknown
			}
			seen++
			lower := strings.ToLower(tok)
			for _, p := range identifyOrder {
				if containsAny(lower, p.Markers) {
					return p.Bank
				}
			}
		}
	}
	return models.BankUnknown
}

// Parse walks the flattened token stream with the profile for bank and
// extracts statement metadata. Rows that fail validation are counted in
// Rejected, never reported as errors.
func Parse(pages []extractor.Page, bank models.BankType) *models.Statement {
	p := ProfileFor(bank)
	tokens := extractor.Flatten(pages)

	m := newMachine(p)
	for _, tok := range tokens {
		m.feed(tok)
	}
	m.finish()

	return &models.Statement{
		Bank:         p.Bank,
		Metadata:     ExtractMetadata(tokens, p),
		Transactions: m.txns,
		Rejected:     m.rejected,
	}
}

// parseDate tries the common layouts and then the profile's own, returning
// the first success as a UTC calendar date.
func (p *Profile) parseDate(tok string) (time.Time, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" || tok[0] < '0' || tok[0] > '9' {
		return time.Time{}, false
	}
	for _, layouts := range [][]string{commonDateLayouts, p.DateLayouts} {
		for _, layout := range layouts {
			if d, err := time.Parse(layout, tok); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

func (p *Profile) skip(tok string) bool {
	if isHeaderToken(tok) || isPageMarker(tok) {
		return true
	}
	return p.Skip != nil && p.Skip(tok)
}

func containsAny(lower string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}
