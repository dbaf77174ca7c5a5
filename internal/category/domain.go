package category

import (
	"strings"
	"unicode"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// Bucket confidences. The fallback is deliberately below one half.
const (
	categoryConfidence = 0.9
	keywordConfidence  = 0.8
	fallbackConfidence = 0.3
)

type bucket struct {
	domain   models.Domain
	keywords []string
}

// buckets are tested in order; the first hit wins.
var buckets = []bucket{
	{models.DomainInsurance, []string{
		"insurance", "insure", "insurer", "assurance", "aviva", "direct line", "admiral",
		"legal general", "axa", "churchill", "hastings", "petplan", "policy",
	}},
	{models.DomainGovernment, []string{
		"council tax", "council", "ctax", "hmrc", "dvla", "tv licence", "tv licensing",
		"gov uk", "government", "tax",
	}},
	{models.DomainVehicles, []string{
		"car", "cars", "vehicle", "vehicles", "motor", "motors", "fuel", "petrol", "diesel",
		"parking", "mot", "garage", "tyres", "car wash", "rac", "aa",
	}},
	{models.DomainProperty, []string{
		"rent", "mortgage", "letting", "lettings", "landlord", "estate", "property", "housing",
		"water", "gas", "electricity", "energy", "british gas", "thames water", "octopus",
		"edf", "eon", "service charge", "ground rent", "bills",
	}},
	{models.DomainServices, []string{
		"netflix", "spotify", "disney", "subscription", "subscriptions", "broadband", "mobile",
		"phone", "sky", "bt", "virgin media", "vodafone", "ee", "o2", "gym", "amazon prime",
		"streaming", "telecoms", "internet", "membership", "health",
	}},
}

// Bucket assigns a coarse domain from the payee, the rule category and a
// description. A category naming a bucket outright scores highest; keyword
// hits score keywordConfidence; no hit falls back to finance.
func Bucket(payee, category, description string) (models.Domain, float64) {
	cat := words(category)
	for _, b := range buckets {
		if cat == string(b.domain) {
			return b.domain, categoryConfidence
		}
	}

	text := " " + words(payee+" "+category+" "+description) + " "
	for _, b := range buckets {
		for _, kw := range b.keywords {
			if strings.Contains(text, " "+kw+" ") {
				return b.domain, keywordConfidence
			}
		}
	}
	return models.DomainFinance, fallbackConfidence
}

// words lower-cases s and reduces it to space-separated alphanumeric words.
func words(s string) string {
	f := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(f, " ")
}
