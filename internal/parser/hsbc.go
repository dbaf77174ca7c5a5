package parser

import (
	"strings"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// HSBCProfile parses HSBC statements. Rows carry a payment type code
// (DD, SO, VIS, BP, CR, ATM, ")))" for contactless) and the balance column
// is printed only at the end of each day, so rows are committed on their
// amount and a following balance figure is ignored.
var HSBCProfile = Profile{
	Bank:        models.BankHSBC,
	Markers:     []string{"hsbc"},
	DateLayouts: []string{"2 Jan 06", "2-Jan-06", "2-Jan-2006"},
	Sign:        debitDefault(isHSBCCredit),
	HasBalance:  false,
	CarryDate:   true,
	Skip:        isHSBCNoise,
}

// hsbcCreditCodes are payment type codes for money in.
var hsbcCreditCodes = []string{"cr ", "bp credit", "dr credit"}

func isHSBCCredit(desc string) bool {
	if isCreditDescription(desc) {
		return true
	}
	lower := strings.ToLower(desc) + " "
	for _, code := range hsbcCreditCodes {
		if strings.HasPrefix(lower, code) {
			return true
		}
	}
	return false
}

// isHSBCNoise drops PDF artifacts and the contactless glyph run.
func isHSBCNoise(tok string) bool {
	t := strings.TrimSpace(tok)
	switch t {
	case ".", "-", "–", ")))":
		return true
	}
	lower := strings.ToLower(t)
	return containsAny(lower, []string{"your statement", "account summary", "hsbc uk bank plc"})
}
