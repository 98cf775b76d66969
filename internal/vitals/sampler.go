package vitals

import (
	"sort"

	"vitals-app/internal/domain"
)

// InteractionSampler keeps every qualifying interaction duration and
// estimates the 98th percentile from them.
type InteractionSampler struct {
	durations []float64
	entries   []domain.Entry
}

// Add records e if it carries an interaction id and returns the updated
// estimate. ok is false when e does not qualify.
func (s *InteractionSampler) Add(e domain.Entry) (value float64, ok bool) {
	if e.InteractionID == 0 {
		return 0, false
	}
	s.durations = append(s.durations, e.Duration)
	s.entries = append(s.entries, e)
	return s.Value(), true
}

// Value returns the duration at rank floor(n/50) of the samples sorted in
// descending order, or zero with no samples.
func (s *InteractionSampler) Value() float64 {
	n := len(s.durations)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), s.durations...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	idx := n / 50
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

func (s *InteractionSampler) Len() int { return len(s.durations) }

// Entries returns the recorded entries in arrival order.
func (s *InteractionSampler) Entries() []domain.Entry {
	return append([]domain.Entry(nil), s.entries...)
}

func (s *InteractionSampler) Reset() {
	s.durations = nil
	s.entries = nil
}
