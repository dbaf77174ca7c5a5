// Package detector finds recurring payments in a transaction list.
package detector

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/insightdelivered/statement-insights/internal/category"
	"github.com/insightdelivered/statement-insights/internal/logger"
	"github.com/insightdelivered/statement-insights/internal/matcher"
	"github.com/insightdelivered/statement-insights/internal/models"
)

// Detector clusters transactions by rule and scores each cluster. It holds
// no state between calls; every result is a function of the arguments.
type Detector struct {
	opts    Options
	matcher *matcher.Matcher
}

// New returns a detector; unset options take their defaults.
func New(opts Options) *Detector {
	opts = opts.withDefaults()
	return &Detector{opts: opts, matcher: matcher.New(opts.Threshold)}
}

// Options returns the effective options.
func (d *Detector) Options() Options { return d.opts }

// candidate pairs a suggestion with the rule that produced it.
type candidate struct {
	suggestion models.RecurringSuggestion
	rule       models.DetectionRule
}

// Detect returns every recurring suggestion, sorted by confidence,
// untruncated. A nil or empty rule set yields no suggestions. The only
// error is ctx's.
func (d *Detector) Detect(ctx context.Context, txns []models.Transaction, rs *models.RuleSet) ([]models.RecurringSuggestion, error) {
	cands, err := d.run(ctx, txns, rs)
	if err != nil {
		return nil, err
	}
	return suggestions(cands), nil
}

// Suggest is the live entry point: rules are narrowed to those whose
// patterns or name match term, and the result is truncated to the
// suggestion limit. An empty term keeps every rule.
func (d *Detector) Suggest(ctx context.Context, term string, txns []models.Transaction, rs *models.RuleSet) ([]models.RecurringSuggestion, error) {
	cands, err := d.run(ctx, txns, d.narrow(term, rs))
	if err != nil {
		return nil, err
	}
	out := suggestions(cands)
	if len(out) > d.opts.SuggestionLimit {
		out = out[:d.opts.SuggestionLimit]
	}
	return out, nil
}

// Analyze is the bulk import entry point. Every suggestion gets a domain
// bucket. When tree is non-empty each suggestion is also mapped to a
// category node, and suggestions that cannot be mapped are dropped.
func (d *Detector) Analyze(ctx context.Context, txns []models.Transaction, rs *models.RuleSet, tree []*models.CategoryNode) ([]models.RecurringSuggestion, error) {
	cands, err := d.run(ctx, txns, rs)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	out := make([]models.RecurringSuggestion, 0, len(cands))
	for _, c := range cands {
		s := c.suggestion
		latest := s.Occurrences[len(s.Occurrences)-1].Description
		s.Domain, s.DomainConfidence = category.Bucket(s.Payee, s.Category, latest)

		if len(tree) > 0 {
			node, ok := category.Resolve(tree, c.rule.Category, category.RulePath(c.rule))
			if !ok {
				log.Debug().Str("payee", s.Payee).Str("category", c.rule.Category).
					Msg("dropping suggestion with no category mapping")
				continue
			}
			s.CategoryID, s.CategoryName = node.ID, node.Name
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *Detector) run(ctx context.Context, txns []models.Transaction, rs *models.RuleSet) ([]candidate, error) {
	log := logger.FromContext(ctx)
	if rs.Empty() {
		log.Debug().Msg("no rules available")
		return nil, nil
	}

	clusters, err := clusterTransactions(ctx, txns, rs, d.matcher, d.opts.ChunkSize)
	if err != nil {
		return nil, err
	}

	var cands []candidate
	for _, c := range clusters {
		if why := rejection(c, d.opts.AmountTolerance); why != "" {
			log.Debug().Str("rule", c.rule.Name).Int("count", len(c.txns)).Str("reason", why).
				Msg("cluster rejected")
			continue
		}
		s := d.build(c)
		if s.Confidence < d.opts.MinConfidence {
			log.Debug().Str("rule", c.rule.Name).Float64("confidence", s.Confidence).
				Msg("cluster below minimum confidence")
			continue
		}
		logCluster(log, s)
		cands = append(cands, candidate{suggestion: s, rule: c.rule})
	}

	slices.SortStableFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(b.suggestion.Confidence, a.suggestion.Confidence); c != 0 {
			return c
		}
		if c := cmp.Compare(len(b.suggestion.Occurrences), len(a.suggestion.Occurrences)); c != 0 {
			return c
		}
		return strings.Compare(a.suggestion.Payee, b.suggestion.Payee)
	})
	return cands, nil
}

func logCluster(log zerolog.Logger, s models.RecurringSuggestion) {
	log.Debug().
		Str("payee", s.Payee).
		Str("frequency", string(s.Frequency)).
		Int("count", len(s.Occurrences)).
		Float64("confidence", s.Confidence).
		Msg("recurring payment detected")
}

// narrow keeps the active rules whose patterns or name match term.
func (d *Detector) narrow(term string, rs *models.RuleSet) *models.RuleSet {
	if strings.TrimSpace(term) == "" || rs == nil {
		return rs
	}
	out := &models.RuleSet{Name: rs.Name, IsDefault: rs.IsDefault}
	for _, g := range rs.Groups {
		kept := models.RuleGroup{Name: g.Name}
		for _, r := range g.Rules {
			if !r.Active {
				continue
			}
			if d.matcher.Match(term, append(slices.Clone(r.Patterns), r.Name)).Match {
				kept.Rules = append(kept.Rules, r)
			}
		}
		if len(kept.Rules) > 0 {
			out.Groups = append(out.Groups, kept)
		}
	}
	return out
}

func (d *Detector) build(c *cluster) models.RecurringSuggestion {
	txns := slices.Clone(c.txns)
	slices.SortStableFunc(txns, func(a, b models.Transaction) int { return a.Date.Compare(b.Date) })

	dates := make([]time.Time, len(txns))
	sum := decimal.Zero
	for i, t := range txns {
		dates[i] = t.Date
		sum = sum.Add(t.Amount)
	}
	first, last := txns[0], txns[len(txns)-1]

	cls := Classify(dates)
	confidence := d.opts.Weights.Score(Signals{
		PatternScore:         c.patternScore(),
		FrequencyConsistency: cls.Consistency,
		AmountConsistency:    amountConsistency(c.amounts()),
		Occurrences:          len(txns),
		RuleBoost:            c.rule.ConfidenceBoost,
	})

	pattern := c.pattern()
	return models.RecurringSuggestion{
		ID:               suggestionID(c.group, c.rule.Name, first.Date, last.Date, len(txns)),
		Payee:            payeeName(c.rule, pattern),
		Category:         c.rule.Category,
		Subcategory:      c.rule.Subcategory,
		Frequency:        cls.Frequency,
		Confidence:       confidence,
		Occurrences:      txns,
		Provider:         c.rule.Provider,
		MatchedPattern:   pattern,
		Reason:           reason(c, cls, len(txns), pattern),
		RuleName:         c.rule.Name,
		RuleGroup:        c.group,
		AverageAmount:    sum.Div(decimal.NewFromInt(int64(len(txns)))).Round(2),
		LatestAmount:     last.Amount,
		FirstDate:        first.Date,
		LastDate:         last.Date,
		NextExpectedDate: nextExpected(last.Date, cls.Frequency),
	}
}

// suggestionID is stable for the same series so repeated analyses of one
// statement produce the same IDs.
func suggestionID(group, rule string, first, last time.Time, n int) string {
	key := fmt.Sprintf("recurring/%s/%s/%s/%s/%d", group, rule,
		first.Format(models.DateLayout), last.Format(models.DateLayout), n)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func reason(c *cluster, cls Classification, n int, pattern string) string {
	r := fmt.Sprintf("%d %s payments matching %q (rule %q in %s)", n, cls.Frequency, pattern, c.rule.Name, c.group)
	if c.rule.ExpectedFrequency != "" && c.rule.ExpectedFrequency != cls.Frequency {
		r += fmt.Sprintf("; rule expects %s", c.rule.ExpectedFrequency)
	}
	return r
}

// payeeName prefers the rule's provider, otherwise title-cases the matched
// pattern. Words of two letters or fewer stay upper case (BT, EE, O2).
func payeeName(rule models.DetectionRule, pattern string) string {
	if rule.Provider != "" {
		return rule.Provider
	}
	caser := cases.Title(language.English)
	words := strings.Fields(pattern)
	for i, w := range words {
		if len([]rune(w)) > 2 {
			words[i] = caser.String(strings.ToLower(w))
		} else {
			words[i] = strings.ToUpper(w)
		}
	}
	return strings.Join(words, " ")
}

func suggestions(cands []candidate) []models.RecurringSuggestion {
	out := make([]models.RecurringSuggestion, len(cands))
	for i, c := range cands {
		out[i] = c.suggestion
	}
	return out
}
