package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vitals-app/internal/domain"
)

func TestScore(t *testing.T) {
	var empty domain.Snapshot

	tests := []struct {
		name string
		snap domain.Snapshot
		want float64
	}{
		{"no metrics", empty, 100},
		{"all good", empty.With(domain.LCP, 2000).With(domain.CLS, 0.05), 100},
		{"poor LCP", empty.With(domain.LCP, 5000), 75},
		{"poor LCP and INP", empty.With(domain.LCP, 5000).With(domain.INP, 600), 45},
		{"LCP needs improvement", empty.With(domain.LCP, 3000), 87.5},
		{"FID and FCP need improvement", empty.With(domain.FID, 200).With(domain.FCP, 2000), 90},
		{"TTFB is not scored", empty.With(domain.TTFB, 5000), 100},
		{
			"everything poor",
			empty.With(domain.LCP, 9000).With(domain.FID, 900).With(domain.CLS, 1).
				With(domain.INP, 900).With(domain.FCP, 9000),
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.snap))
		})
	}
}

func TestRatings(t *testing.T) {
	var snap domain.Snapshot
	snap = snap.With(domain.CLS, 0.3).With(domain.TTFB, 900)

	got := Ratings(snap)
	assert.Equal(t, map[domain.MetricName]domain.Rating{
		domain.CLS:  domain.RatingPoor,
		domain.TTFB: domain.RatingNeedsImprovement,
	}, got)
}
