package models

// Frequency labels the cadence of a recurring payment.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
	FrequencyIrregular Frequency = "irregular"
)

// DetectionRule describes one payee family the detector looks for.
type DetectionRule struct {
	Name        string   `yaml:"name" json:"name"`
	Patterns    []string `yaml:"patterns" json:"patterns"`
	Category    string   `yaml:"category" json:"category"`
	Subcategory string   `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`
	// SubcategoryPath is the name-path of the subcategory in a category tree,
	// e.g. ["Bills", "Energy", "Gas"].
	SubcategoryPath   []string  `yaml:"subcategory_path,omitempty" json:"subcategoryPath,omitempty"`
	Provider          string    `yaml:"provider,omitempty" json:"provider,omitempty"`
	ConfidenceBoost   float64   `yaml:"confidence_boost" json:"confidenceBoost"`
	MinOccurrences    int       `yaml:"min_occurrences,omitempty" json:"minOccurrences,omitempty"`
	ExpectedFrequency Frequency `yaml:"expected_frequency,omitempty" json:"expectedFrequency,omitempty"`
	Active            bool      `yaml:"active" json:"active"`
}

// RuleGroup is a named, ordered set of rules. Earlier groups win when
// several groups match the same transaction.
type RuleGroup struct {
	Name  string          `yaml:"name" json:"name"`
	Rules []DetectionRule `yaml:"rules" json:"rules"`
}

// RuleSet is the complete detection configuration for one user or the
// global default.
type RuleSet struct {
	Name      string      `yaml:"name" json:"name"`
	IsDefault bool        `yaml:"is_default" json:"isDefault"`
	Groups    []RuleGroup `yaml:"groups" json:"groups"`
}

// Empty reports whether the set holds no active rule.
func (rs *RuleSet) Empty() bool {
	if rs == nil {
		return true
	}
	for _, g := range rs.Groups {
		for _, r := range g.Rules {
			if r.Active && len(r.Patterns) > 0 {
				return false
			}
		}
	}
	return true
}
