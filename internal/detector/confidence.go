package detector

import (
	"math"

	"github.com/shopspring/decimal"
)

// Signals are the inputs to the confidence score.
type Signals struct {
	PatternScore         float64
	FrequencyConsistency float64
	AmountConsistency    float64
	Occurrences          int
	RuleBoost            float64
}

// Score blends the signals into a confidence in [0,1]. More occurrences
// never lower the score.
func (w Weights) Score(s Signals) float64 {
	score := w.Pattern*s.PatternScore +
		w.Frequency*s.FrequencyConsistency +
		w.Amount*s.AmountConsistency +
		s.RuleBoost

	if s.AmountConsistency >= w.RegularAmountAt {
		score += w.RegularAmount
	}
	if extra := s.Occurrences - 2; extra > 0 {
		score += w.Occurrence * float64(min(extra, w.OccurrenceCap))
	}
	return clamp01(score)
}

// amountConsistency is one minus the coefficient of variation of the
// absolute amounts, floored at zero.
func amountConsistency(amounts []decimal.Decimal) float64 {
	if len(amounts) == 0 {
		return 0
	}
	abs := make([]float64, len(amounts))
	var sum float64
	for i, a := range amounts {
		abs[i] = a.Abs().InexactFloat64()
		sum += abs[i]
	}
	mean := sum / float64(len(abs))
	if mean == 0 {
		return 1
	}
	var sq float64
	for _, a := range abs {
		sq += (a - mean) * (a - mean)
	}
	cv := math.Sqrt(sq/float64(len(abs))) / mean
	return 1 - math.Min(1, cv)
}
