package parser

import (
	"strings"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// BarclaysProfile parses Barclays current account statements. Dates are
// printed once per day; the balance column is filled on the last row of a day.
var BarclaysProfile = Profile{
	Bank:        models.BankBarclays,
	Markers:     []string{"barclays"},
	DateLayouts: []string{"2/1/06", "2 Jan 06"},
	Sign:        debitDefault(isBarclaysCredit),
	HasBalance:  true,
	CarryDate:   true,
	Skip:        isBarclaysNoise,
}

// isBarclaysCredit extends the shared credit heuristics with the Barclays
// payment codes for incoming money.
func isBarclaysCredit(desc string) bool {
	if isCreditDescription(desc) {
		return true
	}
	lower := strings.ToLower(desc)
	return strings.HasPrefix(lower, "bgc ") || strings.HasPrefix(lower, "bacs ") ||
		strings.Contains(lower, "faster payment received")
}

// isBarclaysNoise identifies foreign currency detail lines, footers and
// boilerplate. FX lines carry amounts but are not separate transactions:
//
//	"19.49 On 08 Dec at VISA Exchange Rate 1.33"
//	"The Final GBP Amount Includes A Non-Sterling Transaction Fee of £ 0.40"
func isBarclaysNoise(tok string) bool {
	return containsAny(strings.ToLower(tok), barclaysNoise)
}

var barclaysNoise = []string{
	"exchange rate",
	"non-sterling transaction fee",
	"final gbp amount",
	"at a glance",
	"your deposit is eligible",
	"compensation scheme",
	"your business current account",
	"issued on",
	"swiftbic",
	"iban gb",
	"anything wrong",
	"registered in",
	"authorised by",
	"financial conduct",
	"prudential regulation",
}
