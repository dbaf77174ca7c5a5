package detector

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-insights/internal/models"
	"github.com/insightdelivered/statement-insights/internal/rules"
)

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func txn(date, desc, amount string) models.Transaction {
	return models.Transaction{
		Date:        day(date),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
	}
}

func britishGasRules() *models.RuleSet {
	return &models.RuleSet{Groups: []models.RuleGroup{{
		Name: "bill",
		Rules: []models.DetectionRule{{
			Name:            "British Gas",
			Patterns:        []string{"BRITISH GAS", "BG ENERGY"},
			Category:        "bills",
			Subcategory:     "gas",
			ConfidenceBoost: 0.2,
			Active:          true,
		}},
	}}}
}

func britishGasTxns() []models.Transaction {
	return []models.Transaction{
		txn("2023-08-15", "BRITISH GAS DD", "-85.50"),
		txn("2023-09-15", "BRITISH GAS DD", "-85.50"),
		txn("2023-10-15", "BRITISH GAS DD", "-87.00"),
	}
}

func TestDetect_BritishGas(t *testing.T) {
	d := New(DefaultOptions())

	got, err := d.Detect(context.Background(), britishGasTxns(), britishGasRules())
	require.NoError(t, err)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "British Gas", s.Payee)
	assert.Equal(t, "bills", s.Category)
	assert.Equal(t, "gas", s.Subcategory)
	assert.Equal(t, models.FrequencyMonthly, s.Frequency)
	assert.Greater(t, s.Confidence, 0.8)
	assert.LessOrEqual(t, s.Confidence, 1.0)
	assert.Len(t, s.Occurrences, 3)
	assert.Equal(t, "BRITISH GAS", s.MatchedPattern)
	assert.Equal(t, "-86.00", s.AverageAmount.StringFixed(2))
	assert.Equal(t, "-87.00", s.LatestAmount.StringFixed(2))
	assert.Equal(t, day("2023-08-15"), s.FirstDate)
	assert.Equal(t, day("2023-10-15"), s.LastDate)
	require.NotNil(t, s.NextExpectedDate)
	assert.Equal(t, day("2023-11-15"), *s.NextExpectedDate)
	assert.Contains(t, s.Reason, "3 monthly payments")
	assert.NotEmpty(t, s.ID)
}

func TestDetect_StableIDs(t *testing.T) {
	d := New(DefaultOptions())
	a, err := d.Detect(context.Background(), britishGasTxns(), britishGasRules())
	require.NoError(t, err)
	b, err := d.Detect(context.Background(), britishGasTxns(), britishGasRules())
	require.NoError(t, err)
	assert.Equal(t, a[0].ID, b[0].ID)
}

func TestDetect_AmountVarianceRejected(t *testing.T) {
	txns := []models.Transaction{
		txn("2023-08-15", "BRITISH GAS DD", "-50.00"),
		txn("2023-09-15", "BRITISH GAS DD", "-75.00"),
		txn("2023-10-15", "BRITISH GAS DD", "-100.00"),
	}
	got, err := New(DefaultOptions()).Detect(context.Background(), txns, britishGasRules())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDetect_SingleTransaction(t *testing.T) {
	txns := []models.Transaction{txn("2023-08-15", "BRITISH GAS", "-85.50")}
	got, err := New(DefaultOptions()).Detect(context.Background(), txns, britishGasRules())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDetect_MinOccurrences(t *testing.T) {
	rs := britishGasRules()
	rs.Groups[0].Rules[0].MinOccurrences = 4

	got, err := New(DefaultOptions()).Detect(context.Background(), britishGasTxns(), rs)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDetect_EmptyInputs(t *testing.T) {
	d := New(DefaultOptions())

	got, err := d.Detect(context.Background(), nil, britishGasRules())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = d.Detect(context.Background(), britishGasTxns(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = d.Detect(context.Background(), britishGasTxns(), &models.RuleSet{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDetect_MalformedTransactionsExcluded(t *testing.T) {
	txns := append(britishGasTxns(),
		models.Transaction{Description: "BRITISH GAS DD", Amount: decimal.RequireFromString("-85.50")},
		txn("2023-11-15", "", "-85.50"),
	)
	got, err := New(DefaultOptions()).Detect(context.Background(), txns, britishGasRules())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Occurrences, 3)
}

func TestDetect_InactiveRulesIgnored(t *testing.T) {
	rs := britishGasRules()
	rs.Groups[0].Rules[0].Active = false
	got, err := New(DefaultOptions()).Detect(context.Background(), britishGasTxns(), rs)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDetect_GroupPriority(t *testing.T) {
	rs := &models.RuleSet{Groups: []models.RuleGroup{
		{Name: "subscription", Rules: []models.DetectionRule{
			{Name: "Sky", Patterns: []string{"SKY"}, Category: "subscriptions", Active: true},
		}},
		{Name: "telecoms", Rules: []models.DetectionRule{
			{Name: "Sky Broadband", Patterns: []string{"SKY BROADBAND"}, Category: "telecoms", Active: true},
		}},
	}}
	txns := []models.Transaction{
		txn("2023-08-01", "SKY BROADBAND", "-30.00"),
		txn("2023-09-01", "SKY BROADBAND", "-30.00"),
		txn("2023-10-01", "SKY BROADBAND", "-30.00"),
	}

	got, err := New(DefaultOptions()).Detect(context.Background(), txns, rs)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "subscription", got[0].RuleGroup)
	assert.Equal(t, "Sky", got[0].Payee)
}

func TestDetect_MinConfidenceDiscards(t *testing.T) {
	opts := DefaultOptions()
	opts.MinConfidence = 0.99
	rs := britishGasRules()
	rs.Groups[0].Rules[0].ConfidenceBoost = 0

	got, err := New(opts).Detect(context.Background(), britishGasTxns(), rs)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDetect_SortedByConfidence(t *testing.T) {
	rs := &models.RuleSet{Groups: []models.RuleGroup{{
		Name: "subscription",
		Rules: []models.DetectionRule{
			{Name: "Spotify", Patterns: []string{"SPOTIFY"}, Category: "subscriptions", Active: true},
			{Name: "Netflix", Patterns: []string{"NETFLIX"}, Category: "subscriptions", ConfidenceBoost: 0.2, Active: true},
		},
	}}}
	txns := []models.Transaction{
		txn("2023-08-01", "SPOTIFY P1234", "-10.99"),
		txn("2023-08-03", "NETFLIX.COM", "-15.99"),
		txn("2023-09-01", "SPOTIFY P1234", "-10.99"),
		txn("2023-09-03", "NETFLIX.COM", "-15.99"),
		txn("2023-10-01", "SPOTIFY P1234", "-10.99"),
		txn("2023-10-03", "NETFLIX.COM", "-15.99"),
	}

	got, err := New(DefaultOptions()).Detect(context.Background(), txns, rs)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Netflix", got[0].Payee)
	assert.Equal(t, "Spotify", got[1].Payee)
	assert.GreaterOrEqual(t, got[0].Confidence, got[1].Confidence)
}

func TestDetect_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultOptions()).Detect(ctx, britishGasTxns(), britishGasRules())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetect_Chunked(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 1
	got, err := New(opts).Detect(context.Background(), britishGasTxns(), britishGasRules())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Occurrences, 3)
}

func TestSuggest(t *testing.T) {
	rs := rules.Default()
	var txns []models.Transaction
	for _, m := range []string{"2023-07", "2023-08", "2023-09", "2023-10"} {
		txns = append(txns,
			txn(m+"-15", "BRITISH GAS DD", "-85.50"),
			txn(m+"-03", "NETFLIX.COM", "-15.99"),
			txn(m+"-20", "SPOTIFY UK", "-10.99"),
		)
	}
	d := New(DefaultOptions())

	got, err := d.Suggest(context.Background(), "netflix", txns, rs)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Netflix", got[0].Payee)

	got, err = d.Suggest(context.Background(), "", txns, rs)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = d.Suggest(context.Background(), "zzzz", txns, rs)
	require.NoError(t, err)
	assert.Empty(t, got)

	opts := DefaultOptions()
	opts.SuggestionLimit = 2
	got, err = New(opts).Suggest(context.Background(), "", txns, rs)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAnalyze(t *testing.T) {
	tree := []*models.CategoryNode{
		{ID: "bills", Name: "Bills", Children: []*models.CategoryNode{
			{ID: "energy", Name: "Energy", ParentID: "bills", Children: []*models.CategoryNode{
				{ID: "gas", Name: "Gas", ParentID: "energy"},
			}},
		}},
	}
	rs := britishGasRules()
	rs.Groups[0].Rules[0].SubcategoryPath = []string{"Bills", "Energy", "Gas"}
	rs.Groups[0].Rules = append(rs.Groups[0].Rules, models.DetectionRule{
		Name: "Netflix", Patterns: []string{"NETFLIX"}, Category: "subscriptions", ConfidenceBoost: 0.2, Active: true,
	})
	txns := append(britishGasTxns(),
		txn("2023-08-03", "NETFLIX.COM", "-15.99"),
		txn("2023-09-03", "NETFLIX.COM", "-15.99"),
		txn("2023-10-03", "NETFLIX.COM", "-15.99"),
	)
	d := New(DefaultOptions())

	got, err := d.Analyze(context.Background(), txns, rs, tree)
	require.NoError(t, err)
	require.Len(t, got, 1, "netflix has no category mapping and is dropped")
	assert.Equal(t, "gas", got[0].CategoryID)
	assert.Equal(t, "Gas", got[0].CategoryName)
	assert.Equal(t, models.DomainProperty, got[0].Domain)

	got, err = d.Analyze(context.Background(), txns, rs, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, s := range got {
		assert.NotEmpty(t, s.Domain)
		assert.Empty(t, s.CategoryID)
	}
}

func TestDetect_UnevenGapsAreIrregular(t *testing.T) {
	txns := []models.Transaction{
		txn("2023-08-15", "BRITISH GAS DD", "-86.00"),
		txn("2023-09-22", "BRITISH GAS DD", "-86.00"),
		txn("2023-10-07", "BRITISH GAS DD", "-86.00"),
	}
	got, err := New(DefaultOptions()).Detect(context.Background(), txns, britishGasRules())
	require.NoError(t, err)
	for _, s := range got {
		assert.Equal(t, models.FrequencyIrregular, s.Frequency)
		assert.Nil(t, s.NextExpectedDate)
	}
}
