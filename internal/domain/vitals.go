package domain

import "context"

type MetricName string

const (
	LCP  MetricName = "LCP"
	FID  MetricName = "FID"
	CLS  MetricName = "CLS"
	FCP  MetricName = "FCP"
	TTFB MetricName = "TTFB"
	INP  MetricName = "INP"
)

// AllMetrics lists every reportable metric in snapshot order.
var AllMetrics = []MetricName{LCP, FID, CLS, FCP, TTFB, INP}

type Rating string

const (
	RatingGood             Rating = "good"
	RatingNeedsImprovement Rating = "needs-improvement"
	RatingPoor             Rating = "poor"
)

type EntryType string

const (
	EntryPaint                  EntryType = "paint"
	EntryNavigation             EntryType = "navigation"
	EntryLargestContentfulPaint EntryType = "largest-contentful-paint"
	EntryFirstInput             EntryType = "first-input"
	EntryLayoutShift            EntryType = "layout-shift"
	EntryEvent                  EntryType = "event"
	EntryLongTask               EntryType = "longtask"
)

// Entry is a raw performance-entry record as delivered by the platform.
// Only the fields relevant to its EntryType are populated.
type Entry struct {
	EntryType       EntryType `json:"entry_type" validate:"required"`
	Name            string    `json:"name,omitempty"`
	StartTime       float64   `json:"start_time" validate:"gte=0"`
	Duration        float64   `json:"duration,omitempty" validate:"gte=0"`
	ProcessingStart float64   `json:"processing_start,omitempty"`
	RequestStart    float64   `json:"request_start,omitempty"`
	ResponseStart   float64   `json:"response_start,omitempty"`
	Value           float64   `json:"value,omitempty" validate:"gte=0"`
	HadRecentInput  bool      `json:"had_recent_input,omitempty"`
	InteractionID   uint64    `json:"interaction_id,omitempty"`
}

// Sample is one finalized measurement of a metric. A new Sample is built
// every time an observer fires; samples are never mutated.
type Sample struct {
	Name           MetricName `json:"name"`
	Value          float64    `json:"value"`
	Rating         Rating     `json:"rating"`
	Delta          float64    `json:"delta"`
	ID             string     `json:"id"`
	NavigationType string     `json:"navigation_type"`
	Entries        []Entry    `json:"entries,omitempty"`
}

// Snapshot is the beacon body: the latest value of each metric, if any.
type Snapshot struct {
	LCP  *float64 `json:"lcp,omitempty" validate:"omitempty,gte=0"`
	FID  *float64 `json:"fid,omitempty" validate:"omitempty,gte=0"`
	CLS  *float64 `json:"cls,omitempty" validate:"omitempty,gte=0"`
	FCP  *float64 `json:"fcp,omitempty" validate:"omitempty,gte=0"`
	TTFB *float64 `json:"ttfb,omitempty" validate:"omitempty,gte=0"`
	INP  *float64 `json:"inp,omitempty" validate:"omitempty,gte=0"`
}

// Get returns the value recorded for name and whether one is present.
func (s Snapshot) Get(name MetricName) (float64, bool) {
	var v *float64
	switch name {
	case LCP:
		v = s.LCP
	case FID:
		v = s.FID
	case CLS:
		v = s.CLS
	case FCP:
		v = s.FCP
	case TTFB:
		v = s.TTFB
	case INP:
		v = s.INP
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// With returns a copy of s with name set to v. Unknown names are ignored.
func (s Snapshot) With(name MetricName, v float64) Snapshot {
	switch name {
	case LCP:
		s.LCP = &v
	case FID:
		s.FID = &v
	case CLS:
		s.CLS = &v
	case FCP:
		s.FCP = &v
	case TTFB:
		s.TTFB = &v
	case INP:
		s.INP = &v
	}
	return s
}

func (s Snapshot) IsEmpty() bool {
	for _, name := range AllMetrics {
		if _, ok := s.Get(name); ok {
			return false
		}
	}
	return true
}

// Report is a snapshot received by the collector.
type Report struct {
	ID             int64   `json:"id"`
	Timestamp      int64   `json:"timestamp"`
	Page           string  `json:"page"`
	NavigationType string  `json:"navigation_type"`
	Score          float64 `json:"score"`
	Snapshot
}

// Summary aggregates reports over a time range.
type Summary struct {
	Start    int64    `json:"start"`
	End      int64    `json:"end"`
	Count    int      `json:"count"`
	Averages Snapshot `json:"averages"`
}

type ReportStore interface {
	Init() error
	StoreReport(ctx context.Context, report Report) (int64, error)
	GetReports(ctx context.Context, startTime, endTime int64, limit, offset int) ([]Report, error)
	GetSummary(ctx context.Context, startTime, endTime int64) (Summary, error)
	Close() error
}
