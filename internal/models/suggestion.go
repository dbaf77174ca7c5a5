package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Domain is a coarse life-area bucket independent of the user's category tree.
type Domain string

const (
	DomainProperty   Domain = "property"
	DomainVehicles   Domain = "vehicles"
	DomainInsurance  Domain = "insurance"
	DomainGovernment Domain = "government"
	DomainServices   Domain = "services"
	DomainFinance    Domain = "finance"
)

// RecurringSuggestion is a proposed recurring payment derived from one
// accepted cluster of transactions. It is read once by downstream consumers.
type RecurringSuggestion struct {
	ID             string        `json:"id"`
	Payee          string        `json:"payee"`
	Category       string        `json:"category"`
	Subcategory    string        `json:"subcategory,omitempty"`
	Frequency      Frequency     `json:"frequency"`
	Confidence     float64       `json:"confidence"`
	Occurrences    []Transaction `json:"occurrences"`
	Provider       string        `json:"provider,omitempty"`
	MatchedPattern string        `json:"matchedPattern"`
	Reason         string        `json:"reason"`
	RuleName       string        `json:"ruleName,omitempty"`
	RuleGroup      string        `json:"ruleGroup,omitempty"`

	AverageAmount    decimal.Decimal `json:"averageAmount"`
	LatestAmount     decimal.Decimal `json:"latestAmount"`
	FirstDate        time.Time       `json:"firstDate"`
	LastDate         time.Time       `json:"lastDate"`
	NextExpectedDate *time.Time      `json:"nextExpectedDate,omitempty"`

	// Set by category resolution when a tree is supplied.
	CategoryID   string `json:"categoryId,omitempty"`
	CategoryName string `json:"categoryName,omitempty"`

	Domain           Domain  `json:"domain,omitempty"`
	DomainConfidence float64 `json:"domainConfidence,omitempty"`
}

// CategoryNode is one node of a user's category tree.
type CategoryNode struct {
	ID       string          `yaml:"id" json:"id"`
	Name     string          `yaml:"name" json:"name"`
	ParentID string          `yaml:"parent_id,omitempty" json:"parentId,omitempty"`
	Children []*CategoryNode `yaml:"children,omitempty" json:"children,omitempty"`
}
