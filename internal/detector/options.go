package detector

import "github.com/insightdelivered/statement-insights/internal/matcher"

// Defaults for Options. They are starting values, not constants the
// algorithms consult directly.
const (
	DefaultAmountTolerance = 0.15
	DefaultMinConfidence   = 0.70
	DefaultSuggestionLimit = 5
	DefaultChunkSize       = 250
)

// Weights are the confidence blend coefficients.
type Weights struct {
	Pattern   float64 `json:"pattern"`
	Frequency float64 `json:"frequency"`
	Amount    float64 `json:"amount"`
	// RegularAmount is added when amount consistency reaches RegularAmountAt.
	RegularAmount   float64 `json:"regularAmount"`
	RegularAmountAt float64 `json:"regularAmountAt"`
	// Occurrence is added per occurrence above two, up to OccurrenceCap times.
	Occurrence    float64 `json:"occurrence"`
	OccurrenceCap int     `json:"occurrenceCap"`
}

// DefaultWeights returns the standard blend, dominated by the pattern score.
func DefaultWeights() Weights {
	return Weights{
		Pattern:         0.50,
		Frequency:       0.15,
		Amount:          0.10,
		RegularAmount:   0.05,
		RegularAmountAt: 0.95,
		Occurrence:      0.02,
		OccurrenceCap:   6,
	}
}

// Options configure a Detector.
type Options struct {
	// Threshold is the fuzzy match threshold.
	Threshold float64
	// AmountTolerance is the largest allowed deviation of any member's
	// absolute amount from the group mean, as a fraction of the mean.
	AmountTolerance float64
	// MinConfidence discards suggestions scoring below it.
	MinConfidence float64
	// SuggestionLimit truncates live suggestion results.
	SuggestionLimit int
	// ChunkSize is how many transactions are matched between yields.
	ChunkSize int
	Weights   Weights
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:       matcher.DefaultThreshold,
		AmountTolerance: DefaultAmountTolerance,
		MinConfidence:   DefaultMinConfidence,
		SuggestionLimit: DefaultSuggestionLimit,
		ChunkSize:       DefaultChunkSize,
		Weights:         DefaultWeights(),
	}
}

// withDefaults fills zero or negative fields from DefaultOptions. Zero means
// unset here, which is why config validation rejects it.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Threshold <= 0 {
		o.Threshold = d.Threshold
	}
	if o.AmountTolerance <= 0 {
		o.AmountTolerance = d.AmountTolerance
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = d.MinConfidence
	}
	if o.SuggestionLimit <= 0 {
		o.SuggestionLimit = d.SuggestionLimit
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.Weights == (Weights{}) {
		o.Weights = d.Weights
	}
	return o
}
