package vitals

import (
	"encoding/json"
	"math"

	"go.uber.org/zap"

	"vitals-app/internal/domain"
)

// BeaconPath is where the page-hide snapshot is delivered.
const BeaconPath = "/api/analytics/vitals"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// EventParams are the parameters attached to an analytics event.
type EventParams struct {
	// Value is the rounded metric value; CLS is scaled to per-mille first.
	Value          int64
	MetricValue    float64
	MetricID       string
	MetricRating   domain.Rating
	NavigationType string
}

// AnalyticsSink receives one event per reported sample in production.
type AnalyticsSink interface {
	TrackEvent(name domain.MetricName, params EventParams)
}

// Beacon sends body to path without waiting for, or reporting, the outcome.
type Beacon interface {
	Send(path string, body []byte)
}

// NoopAnalytics discards every event.
type NoopAnalytics struct{}

func (NoopAnalytics) TrackEvent(domain.MetricName, EventParams) {}

// Reporter dispatches samples to the development log or the analytics sink,
// and flushes snapshots to the beacon on page hide.
type Reporter struct {
	production bool
	logger     *zap.Logger
	analytics  AnalyticsSink
	beacon     Beacon
	path       string
}

func NewReporter(env string, logger *zap.Logger, analytics AnalyticsSink, beacon Beacon) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if analytics == nil {
		analytics = NoopAnalytics{}
	}
	return &Reporter{
		production: env == EnvProduction,
		logger:     logger,
		analytics:  analytics,
		beacon:     beacon,
		path:       BeaconPath,
	}
}

func (r *Reporter) Production() bool { return r.production }

// Report handles one finalized sample.
func (r *Reporter) Report(s domain.Sample) {
	if !r.production {
		r.logger.Info("web vital",
			zap.String("name", string(s.Name)),
			zap.Float64("value", s.Value),
			zap.String("rating", string(s.Rating)),
			zap.Float64("delta", s.Delta),
			zap.String("id", s.ID),
			zap.String("navigation_type", s.NavigationType),
			zap.Int("entries", len(s.Entries)),
		)
		return
	}
	r.analytics.TrackEvent(s.Name, EventParams{
		Value:          eventValue(s.Name, s.Value),
		MetricValue:    s.Value,
		MetricID:       s.ID,
		MetricRating:   s.Rating,
		NavigationType: s.NavigationType,
	})
}

// Flush hands snap to the beacon. It only sends in production, only when
// snap holds at least one metric, and never reports delivery failures.
func (r *Reporter) Flush(snap domain.Snapshot) {
	if !r.production || r.beacon == nil || snap.IsEmpty() {
		return
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return
	}
	r.beacon.Send(r.path, body)
}

// LongTask logs a task that blocked the main thread.
func (r *Reporter) LongTask(e domain.Entry) {
	if r.production {
		return
	}
	r.logger.Info("long task detected",
		zap.Float64("duration", e.Duration),
		zap.Float64("start_time", e.StartTime),
	)
}

func eventValue(name domain.MetricName, v float64) int64 {
	if name == domain.CLS {
		v *= 1000
	}
	return int64(math.Round(v))
}
