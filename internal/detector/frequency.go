package detector

import (
	"math"
	"slices"
	"time"

	"github.com/insightdelivered/statement-insights/internal/models"
)

// band is the accepted range of gaps, in days, for one frequency. The mean
// gap and every single gap must fall inside it.
type band struct {
	freq     models.Frequency
	min, max float64
	period   float64
}

// bands are wide enough for weekday and month-length drift and far enough
// apart that neighbours never overlap.
var bands = []band{
	{models.FrequencyWeekly, 5, 9, 7},
	{models.FrequencyMonthly, 26, 35, 30},
	{models.FrequencyQuarterly, 80, 100, 91},
	{models.FrequencyAnnually, 350, 380, 365},
}

// consistencyScale is the mean deviation from the canonical period, as a
// fraction of the period, at which consistency reaches zero.
const consistencyScale = 0.5

// Classification is the result of classifying a date series.
type Classification struct {
	Frequency models.Frequency `json:"frequency"`
	MeanGap   float64          `json:"meanGap"`
	// Consistency is how tightly gaps cluster around the canonical period,
	// in [0,1]. Irregular series score zero.
	Consistency float64 `json:"consistency"`
}

// Classify labels the cadence of dates. Fewer than two dates are irregular.
func Classify(dates []time.Time) Classification {
	gaps := dayGaps(dates)
	if len(gaps) == 0 {
		return Classification{Frequency: models.FrequencyIrregular}
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))

	c := Classification{Frequency: models.FrequencyIrregular, MeanGap: mean}
	for _, b := range bands {
		if mean < b.min || mean > b.max {
			continue
		}
		if slices.ContainsFunc(gaps, func(g float64) bool { return g < b.min || g > b.max }) {
			break
		}
		var dev float64
		for _, g := range gaps {
			dev += math.Abs(g - b.period)
		}
		dev /= float64(len(gaps))
		c.Frequency = b.freq
		c.Consistency = clamp01(1 - dev/(b.period*consistencyScale))
		break
	}
	return c
}

// dayGaps returns whole-day gaps between consecutive sorted dates.
func dayGaps(dates []time.Time) []float64 {
	if len(dates) < 2 {
		return nil
	}
	sorted := slices.Clone(dates)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, math.Round(sorted[i].Sub(sorted[i-1]).Hours()/24))
	}
	return gaps
}

// nextExpected projects the next payment date after last.
func nextExpected(last time.Time, freq models.Frequency) *time.Time {
	var next time.Time
	switch freq {
	case models.FrequencyWeekly:
		next = last.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		next = last.AddDate(0, 1, 0)
	case models.FrequencyQuarterly:
		next = last.AddDate(0, 3, 0)
	case models.FrequencyAnnually:
		next = last.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &next
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
