package vitals

import "vitals-app/internal/domain"

// Penalty weights of the performance score. TTFB is reported but not scored.
var scoreWeights = []struct {
	name   domain.MetricName
	weight float64
}{
	{domain.LCP, 25},
	{domain.FID, 10},
	{domain.CLS, 25},
	{domain.INP, 30},
	{domain.FCP, 10},
}

const maxScore = 100.0

// Score rates snap on a 0–100 scale. Each weighted metric costs half its
// weight when it needs improvement and its full weight when it is poor;
// missing metrics cost nothing. Severity inside a band is not considered.
func Score(snap domain.Snapshot) float64 {
	score := maxScore
	for _, w := range scoreWeights {
		v, ok := snap.Get(w.name)
		if !ok {
			continue
		}
		switch Rate(w.name, v) {
		case domain.RatingNeedsImprovement:
			score -= w.weight / 2
		case domain.RatingPoor:
			score -= w.weight
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// Ratings returns the rating of every metric present in snap.
func Ratings(snap domain.Snapshot) map[domain.MetricName]domain.Rating {
	out := make(map[domain.MetricName]domain.Rating)
	for _, name := range domain.AllMetrics {
		if v, ok := snap.Get(name); ok {
			out[name] = Rate(name, v)
		}
	}
	return out
}
