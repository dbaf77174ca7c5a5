package parser

import "github.com/insightdelivered/statement-insights/internal/models"

// GenericProfile is used for unidentified banks: amounts keep their printed
// sign and every row must carry its own date.
var GenericProfile = Profile{
	Bank:        models.BankGeneric,
	DateLayouts: []string{"2/1/06", "2-Jan-2006", "2-Jan-06"},
	Sign:        literalSign,
	HasBalance:  true,
}
