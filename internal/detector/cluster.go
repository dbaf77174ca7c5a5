package detector

import (
	"context"
	"runtime"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/matcher"
	"github.com/insightdelivered/statement-insights/internal/models"
)

// cluster is a tentative recurring series: every transaction matched the
// same rule.
type cluster struct {
	group    string
	rule     models.DetectionRule
	txns     []models.Transaction
	scores   []float64
	patterns map[string]int
}

// pattern returns the pattern matched most often, earliest on ties.
func (c *cluster) pattern() string {
	best, n := "", 0
	for _, p := range c.rule.Patterns {
		if c.patterns[p] > n {
			best, n = p, c.patterns[p]
		}
	}
	return best
}

func (c *cluster) patternScore() float64 {
	if len(c.scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.scores {
		sum += s
	}
	return sum / float64(len(c.scores))
}

func (c *cluster) amounts() []decimal.Decimal {
	out := make([]decimal.Decimal, len(c.txns))
	for i, t := range c.txns {
		out[i] = t.Amount
	}
	return out
}

type ruleKey struct{ group, rule int }

// clusterTransactions assigns each valid transaction to the first group, in
// set order, holding a matching rule; within that group the best-scoring rule
// wins. Unmatched and invalid transactions are left out. Work is done in
// chunks, yielding between them.
func clusterTransactions(ctx context.Context, txns []models.Transaction, rs *models.RuleSet, m *matcher.Matcher, chunk int) ([]*cluster, error) {
	index := make(map[ruleKey]*cluster)
	var order []*cluster

	for start := 0; start < len(txns); start += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if start > 0 {
			runtime.Gosched()
		}
		end := min(start+chunk, len(txns))
		for _, txn := range txns[start:end] {
			if !txn.Valid() {
				continue
			}
			key, res, ok := bestRule(txn.Description, rs, m)
			if !ok {
				continue
			}
			c := index[key]
			if c == nil {
				c = &cluster{
					group:    rs.Groups[key.group].Name,
					rule:     rs.Groups[key.group].Rules[key.rule],
					patterns: make(map[string]int),
				}
				index[key] = c
				order = append(order, c)
			}
			c.txns = append(c.txns, txn)
			c.scores = append(c.scores, res.Score)
			c.patterns[res.Pattern]++
		}
	}
	return order, nil
}

func bestRule(description string, rs *models.RuleSet, m *matcher.Matcher) (ruleKey, matcher.Result, bool) {
	for gi, g := range rs.Groups {
		var (
			best  matcher.Result
			bestI = -1
		)
		for ri, r := range g.Rules {
			if !r.Active {
				continue
			}
			res := m.Match(description, r.Patterns)
			if res.Match && res.Score > best.Score {
				best, bestI = res, ri
			}
		}
		if bestI >= 0 {
			return ruleKey{gi, bestI}, best, true
		}
	}
	return ruleKey{}, matcher.Result{}, false
}

// rejection explains why a cluster is not a recurring series. Empty means
// accepted.
func rejection(c *cluster, tolerance float64) string {
	need := max(2, c.rule.MinOccurrences)
	if len(c.txns) < need {
		return "too few occurrences"
	}
	if !withinTolerance(c.amounts(), tolerance) {
		return "amount variance"
	}
	return ""
}

// withinTolerance reports whether every absolute amount lies within
// tolerance*mean of the mean absolute amount.
func withinTolerance(amounts []decimal.Decimal, tolerance float64) bool {
	if len(amounts) == 0 {
		return false
	}
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a.Abs())
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(amounts))))
	limit := mean.Mul(decimal.NewFromFloat(tolerance))
	for _, a := range amounts {
		if a.Abs().Sub(mean).Abs().GreaterThan(limit) {
			return false
		}
	}
	return true
}
