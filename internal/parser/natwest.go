package parser

import (
	"strings"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// NatWestProfile parses NatWest statements (Date, Description, Paid In,
// Withdrawn, Balance). Overdrawn balances carry an "O/D" suffix.
var NatWestProfile = Profile{
	Bank:        models.BankNatWest,
	Markers:     []string{"natwest", "national westminster"},
	DateLayouts: []string{"2 Jan 06", "2/1/06"},
	Sign:        debitDefault(isCreditDescription),
	HasBalance:  true,
	CarryDate:   true,
	Skip:        isNatWestNoise,
}

func isNatWestNoise(tok string) bool {
	lower := strings.ToLower(tok)
	return containsAny(lower, []string{
		"national westminster bank plc",
		"registered office",
		"welcome to your natwest statement",
		"continued on next page",
	})
}
