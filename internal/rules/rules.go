// Package rules loads detection rule sets and supplies the built-in default.
package rules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// Canonical group names, in default priority order.
const (
	GroupBill         = "bill"
	GroupCouncilTax   = "council-tax"
	GroupInsurance    = "insurance"
	GroupSubscription = "subscription"
	GroupTelecoms     = "telecoms"
	GroupGeneral      = "general"
)

// groupAliases maps legacy group labels to current ones. It is consulted
// once, when a rule set is loaded.
var groupAliases = map[string]string{
	"utility":       GroupBill,
	"utilities":     GroupBill,
	"bills":         GroupBill,
	"counciltax":    GroupCouncilTax,
	"council_tax":   GroupCouncilTax,
	"council tax":   GroupCouncilTax,
	"subscriptions": GroupSubscription,
	"telecom":       GroupTelecoms,
	"telecomms":     GroupTelecoms,
}

// CanonicalGroup resolves a group label through the legacy alias table.
func CanonicalGroup(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := groupAliases[n]; ok {
		return alias
	}
	return n
}

// Provider supplies rule sets per user. A nil set with a nil error means the
// user has no rules of their own.
type Provider interface {
	RuleSet(ctx context.Context, userID string) (*models.RuleSet, error)
}

// Select returns user unless it holds no active rules, in which case it
// returns fallback. Either may be nil.
func Select(user, fallback *models.RuleSet) *models.RuleSet {
	if !user.Empty() {
		return user
	}
	return fallback
}

// StaticProvider serves fixed per-user rule sets with an explicit fallback.
type StaticProvider struct {
	Users    map[string]*models.RuleSet
	Fallback *models.RuleSet
}

// RuleSet implements Provider.
func (p *StaticProvider) RuleSet(_ context.Context, userID string) (*models.RuleSet, error) {
	return Select(p.Users[userID], p.Fallback), nil
}

// File is a rule set as written by hand, on disk as YAML or in an API
// request as JSON.
type File struct {
	Name      string  `yaml:"name" json:"name"`
	IsDefault bool    `yaml:"is_default" json:"isDefault"`
	Groups    []Group `yaml:"groups" json:"groups"`
}

// Group is one group of a File.
type Group struct {
	Name  string  `yaml:"name" json:"name"`
	Rules []Entry `yaml:"rules" json:"rules"`
}

// Entry is a rule as written. Active is a pointer so an omitted flag
// defaults to true.
type Entry struct {
	Name              string           `yaml:"name" json:"name"`
	Patterns          []string         `yaml:"patterns" json:"patterns"`
	Category          string           `yaml:"category" json:"category"`
	Subcategory       string           `yaml:"subcategory" json:"subcategory"`
	SubcategoryPath   []string         `yaml:"subcategory_path" json:"subcategoryPath"`
	Provider          string           `yaml:"provider" json:"provider"`
	ConfidenceBoost   float64          `yaml:"confidence_boost" json:"confidenceBoost"`
	MinOccurrences    int              `yaml:"min_occurrences" json:"minOccurrences"`
	ExpectedFrequency models.Frequency `yaml:"expected_frequency" json:"expectedFrequency"`
	Active            *bool            `yaml:"active" json:"active"`
}

func (e Entry) rule() models.DetectionRule {
	return models.DetectionRule{
		Name:              e.Name,
		Patterns:          e.Patterns,
		Category:          e.Category,
		Subcategory:       e.Subcategory,
		SubcategoryPath:   e.SubcategoryPath,
		Provider:          e.Provider,
		ConfidenceBoost:   e.ConfidenceBoost,
		MinOccurrences:    e.MinOccurrences,
		ExpectedFrequency: e.ExpectedFrequency,
		Active:            e.Active == nil || *e.Active,
	}
}

// RuleSet converts f and normalizes it.
func (f *File) RuleSet() (*models.RuleSet, error) {
	if f == nil {
		return nil, nil
	}
	rs := &models.RuleSet{Name: f.Name, IsDefault: f.IsDefault}
	for _, g := range f.Groups {
		group := models.RuleGroup{Name: g.Name}
		for _, e := range g.Rules {
			group.Rules = append(group.Rules, e.rule())
		}
		rs.Groups = append(rs.Groups, group)
	}
	return Normalize(rs)
}

// Load reads a YAML rule set from disk.
func Load(path string) (*models.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing rules %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes a YAML rule set and normalizes it.
func Parse(data []byte) (*models.RuleSet, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.RuleSet()
}

// Normalize returns a copy of rs with group labels canonicalized, groups
// that collapse to the same name merged in first-seen order, names and
// categories defaulted and rules without patterns reported. A nil set
// stays nil.
func Normalize(rs *models.RuleSet) (*models.RuleSet, error) {
	if rs == nil {
		return nil, nil
	}
	out := &models.RuleSet{Name: rs.Name, IsDefault: rs.IsDefault}
	index := make(map[string]int)
	var errs []error
	for gi, g := range rs.Groups {
		name := CanonicalGroup(g.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("group %d: missing name", gi))
			continue
		}
		pos, ok := index[name]
		if !ok {
			pos = len(out.Groups)
			index[name] = pos
			out.Groups = append(out.Groups, models.RuleGroup{Name: name})
		}
		for ri, rule := range g.Rules {
			rule.Name = strings.TrimSpace(rule.Name)
			rule.Category = strings.TrimSpace(rule.Category)
			rule.Subcategory = strings.TrimSpace(rule.Subcategory)
			rule.Provider = strings.TrimSpace(rule.Provider)
			if len(rule.Patterns) == 0 {
				errs = append(errs, fmt.Errorf("group %s rule %d (%s): no patterns", name, ri, rule.Name))
				continue
			}
			if rule.Name == "" {
				rule.Name = rule.Patterns[0]
			}
			if rule.Category == "" {
				rule.Category = name
			}
			out.Groups[pos].Rules = append(out.Groups[pos].Rules, rule)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}
