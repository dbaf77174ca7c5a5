package rules

import "github.com/insightdelivered/statement-insights/internal/models"

func rule(name, category, subcategory, provider string, boost float64, freq models.Frequency, path []string, patterns ...string) models.DetectionRule {
	return models.DetectionRule{
		Name:              name,
		Patterns:          patterns,
		Category:          category,
		Subcategory:       subcategory,
		SubcategoryPath:   path,
		Provider:          provider,
		ConfidenceBoost:   boost,
		ExpectedFrequency: freq,
		Active:            true,
	}
}

// Default returns the built-in rule set used when a user has none. Each call
// returns a fresh copy.
func Default() *models.RuleSet {
	monthly, annually := models.FrequencyMonthly, models.FrequencyAnnually
	return &models.RuleSet{
		Name:      "default",
		IsDefault: true,
		Groups: []models.RuleGroup{
			{Name: GroupBill, Rules: []models.DetectionRule{
				rule("British Gas", "bills", "gas", "British Gas", 0.2, monthly,
					[]string{"Bills", "Energy", "Gas"}, "BRITISH GAS", "BG ENERGY"),
				rule("Octopus Energy", "bills", "electricity", "Octopus Energy", 0.2, monthly,
					[]string{"Bills", "Energy", "Electricity"}, "OCTOPUS ENERGY", "OCTOPUS"),
				rule("EDF Energy", "bills", "electricity", "EDF Energy", 0.2, monthly,
					[]string{"Bills", "Energy", "Electricity"}, "EDF ENERGY"),
				rule("E.ON", "bills", "electricity", "E.ON Next", 0.15, monthly,
					[]string{"Bills", "Energy", "Electricity"}, "EON NEXT", "E.ON"),
				rule("Thames Water", "bills", "water", "Thames Water", 0.2, monthly,
					[]string{"Bills", "Water"}, "THAMES WATER"),
				rule("Severn Trent", "bills", "water", "Severn Trent", 0.2, monthly,
					[]string{"Bills", "Water"}, "SEVERN TRENT"),
			}},
			{Name: GroupCouncilTax, Rules: []models.DetectionRule{
				rule("Council Tax", "council-tax", "", "", 0.2, monthly,
					[]string{"Bills", "Council Tax"}, "COUNCIL TAX", "CTAX", "BOROUGH COUNCIL", "CITY COUNCIL"),
			}},
			{Name: GroupInsurance, Rules: []models.DetectionRule{
				rule("Aviva", "insurance", "home", "Aviva", 0.15, monthly,
					[]string{"Insurance", "Home"}, "AVIVA"),
				rule("Direct Line", "insurance", "car", "Direct Line", 0.15, monthly,
					[]string{"Insurance", "Car"}, "DIRECT LINE"),
				rule("Admiral", "insurance", "car", "Admiral", 0.15, monthly,
					[]string{"Insurance", "Car"}, "ADMIRAL INSURANCE", "ADMIRAL"),
				rule("Legal & General", "insurance", "life", "Legal & General", 0.15, monthly,
					[]string{"Insurance", "Life"}, "LEGAL & GENERAL", "LEGAL AND GENERAL"),
				rule("Pet insurance", "insurance", "pet", "", 0.1, monthly,
					[]string{"Insurance", "Pet"}, "PETPLAN", "PET INSURANCE"),
			}},
			{Name: GroupSubscription, Rules: []models.DetectionRule{
				rule("Netflix", "subscriptions", "streaming", "Netflix", 0.2, monthly,
					[]string{"Subscriptions", "Streaming"}, "NETFLIX"),
				rule("Spotify", "subscriptions", "music", "Spotify", 0.2, monthly,
					[]string{"Subscriptions", "Music"}, "SPOTIFY"),
				rule("Disney+", "subscriptions", "streaming", "Disney+", 0.2, monthly,
					[]string{"Subscriptions", "Streaming"}, "DISNEY PLUS", "DISNEYPLUS"),
				rule("Amazon Prime", "subscriptions", "shopping", "Amazon Prime", 0.15, monthly,
					[]string{"Subscriptions", "Shopping"}, "AMAZON PRIME", "PRIME VIDEO"),
				rule("Apple", "subscriptions", "apps", "Apple", 0.1, monthly,
					[]string{"Subscriptions", "Apps"}, "APPLE.COM/BILL"),
			}},
			{Name: GroupTelecoms, Rules: []models.DetectionRule{
				rule("Sky", "telecoms", "tv", "Sky", 0.15, monthly,
					[]string{"Bills", "TV"}, "SKY DIGITAL", "SKY UK", "SKY BROADBAND"),
				rule("BT", "telecoms", "broadband", "BT", 0.15, monthly,
					[]string{"Bills", "Broadband"}, "BT GROUP", "BRITISH TELECOM"),
				rule("Virgin Media", "telecoms", "broadband", "Virgin Media", 0.15, monthly,
					[]string{"Bills", "Broadband"}, "VIRGIN MEDIA"),
				rule("Vodafone", "telecoms", "mobile", "Vodafone", 0.15, monthly,
					[]string{"Bills", "Mobile"}, "VODAFONE"),
				rule("EE", "telecoms", "mobile", "EE", 0.15, monthly,
					[]string{"Bills", "Mobile"}, "EE LIMITED", "EE MOBILE"),
				rule("O2", "telecoms", "mobile", "O2", 0.15, monthly,
					[]string{"Bills", "Mobile"}, "O2 UK", "TELEFONICA"),
			}},
			{Name: GroupGeneral, Rules: []models.DetectionRule{
				rule("TV Licence", "bills", "tv-licence", "TV Licensing", 0.15, "",
					[]string{"Bills", "TV Licence"}, "TV LICENCE", "TV LICENSING"),
				rule("Vehicle tax", "vehicles", "tax", "DVLA", 0.15, "",
					[]string{"Vehicles", "Tax"}, "DVLA", "VEHICLE TAX"),
				rule("Gym", "health", "gym", "", 0.1, monthly,
					[]string{"Health", "Gym"}, "PUREGYM", "THE GYM GROUP", "DAVID LLOYD"),
				rule("Rent", "housing", "rent", "", 0.05, monthly,
					[]string{"Housing", "Rent"}, "RENT PAYMENT", "LANDLORD"),
				rule("Mortgage", "housing", "mortgage", "", 0.1, monthly,
					[]string{"Housing", "Mortgage"}, "MORTGAGE"),
				rule("Annual membership", "subscriptions", "membership", "", 0.05, annually,
					[]string{"Subscriptions", "Membership"}, "MEMBERSHIP", "ANNUAL FEE"),
			}},
		},
	}
}
