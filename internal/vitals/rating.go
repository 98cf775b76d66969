package vitals

import "vitals-app/internal/domain"

// Threshold holds the upper bounds of the good and needs-improvement bands.
type Threshold struct {
	Good float64
	Poor float64
}

var thresholds = map[domain.MetricName]Threshold{
	domain.LCP:  {Good: 2500, Poor: 4000},
	domain.FID:  {Good: 100, Poor: 300},
	domain.CLS:  {Good: 0.1, Poor: 0.25},
	domain.FCP:  {Good: 1800, Poor: 3000},
	domain.TTFB: {Good: 800, Poor: 1800},
	domain.INP:  {Good: 200, Poor: 500},
}

// ThresholdFor returns the rating bounds for name.
func ThresholdFor(name domain.MetricName) (Threshold, bool) {
	t, ok := thresholds[name]
	return t, ok
}

// Rate classifies value for the named metric. Unknown metrics are rated good.
func Rate(name domain.MetricName, value float64) domain.Rating {
	t, ok := thresholds[name]
	if !ok {
		return domain.RatingGood
	}
	switch {
	case value <= t.Good:
		return domain.RatingGood
	case value <= t.Poor:
		return domain.RatingNeedsImprovement
	default:
		return domain.RatingPoor
	}
}
