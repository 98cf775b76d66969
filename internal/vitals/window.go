package vitals

import "vitals-app/internal/domain"

const (
	sessionGapMs  = 1000
	sessionSpanMs = 5000
)

// SessionWindow groups layout shifts into bursts and remembers the largest
// burst seen so far.
type SessionWindow struct {
	value   float64
	entries []domain.Entry

	best        float64
	bestEntries []domain.Entry
}

// Add folds e into the current window. It reports true, together with the
// new maximum, only when the current window now exceeds every earlier one.
// Entries caused by recent user input are ignored.
func (w *SessionWindow) Add(e domain.Entry) (float64, bool) {
	if e.HadRecentInput {
		return w.best, false
	}

	if n := len(w.entries); n > 0 {
		first, last := w.entries[0], w.entries[n-1]
		if e.StartTime-last.StartTime < sessionGapMs && e.StartTime-first.StartTime < sessionSpanMs {
			w.value += e.Value
			w.entries = append(w.entries, e)
		} else {
			w.value = e.Value
			w.entries = []domain.Entry{e}
		}
	} else {
		w.value = e.Value
		w.entries = []domain.Entry{e}
	}

	if w.value > w.best {
		w.best = w.value
		w.bestEntries = append([]domain.Entry(nil), w.entries...)
		return w.best, true
	}
	return w.best, false
}

// Value returns the largest session total observed.
func (w *SessionWindow) Value() float64 { return w.best }

// Entries returns a copy of the members of the largest session.
func (w *SessionWindow) Entries() []domain.Entry {
	return append([]domain.Entry(nil), w.bestEntries...)
}

func (w *SessionWindow) Reset() {
	*w = SessionWindow{}
}
