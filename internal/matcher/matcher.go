// Package matcher scores how closely a transaction description matches a
// set of payee patterns.
package matcher

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/cases"
)

// DefaultThreshold is the similarity at or above which a pattern matches.
const DefaultThreshold = 0.75

// unitCost counts a substitution as one edit so similarity stays within [0,1].
var unitCost = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Result is the best pattern score for one description.
type Result struct {
	Match   bool    `json:"match"`
	Score   float64 `json:"score"`
	Pattern string  `json:"matchedPattern,omitempty"`
}

// Matcher compares descriptions to patterns. The zero value uses
// DefaultThreshold.
type Matcher struct {
	Threshold float64
}

// New returns a matcher with the given threshold; non-positive values use
// the default.
func New(threshold float64) *Matcher {
	return &Matcher{Threshold: threshold}
}

func (m *Matcher) threshold() float64 {
	if m == nil || m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

// Match returns the best-scoring pattern for description. A pattern that
// contains or is contained by the description scores 1.0 and ends the scan.
// Otherwise the score is the normalized edit distance similarity and the
// best score is returned even when it is below the threshold.
func (m *Matcher) Match(description string, patterns []string) Result {
	desc := Normalize(description)
	if desc == "" {
		return Result{}
	}

	var best Result
	for _, pattern := range patterns {
		p := Normalize(pattern)
		if p == "" {
			continue
		}
		if strings.Contains(desc, p) || strings.Contains(p, desc) {
			return Result{Match: true, Score: 1, Pattern: pattern}
		}
		if score := Similarity(desc, p); score > best.Score || best.Pattern == "" {
			best = Result{Score: score, Pattern: pattern}
		}
	}
	best.Match = best.Pattern != "" && best.Score >= m.threshold()
	return best
}

// Similarity is (max(len1,len2) - distance) / max(len1,len2) over runes.
// Inputs are compared as given.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	dist := levenshtein.DistanceForStrings(ra, rb, unitCost)
	return float64(longest-dist) / float64(longest)
}

// Normalize case-folds s and collapses runs of whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}
