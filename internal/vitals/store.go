package vitals

import (
	"sync"

	"vitals-app/internal/domain"
)

// Store holds the latest value of each metric for one page lifetime.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[domain.MetricName]float64
}

func NewStore() *Store {
	return &Store{values: make(map[domain.MetricName]float64)}
}

// Put stores or replaces the value for name.
func (s *Store) Put(name domain.MetricName, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

func (s *Store) Get(name domain.MetricName) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Snapshot returns a copy of the current values. Later writes to the store
// do not affect it.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var snap domain.Snapshot
	for name, v := range s.values {
		snap = snap.With(name, v)
	}
	return snap
}

// Reset drops every stored value.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[domain.MetricName]float64)
}
