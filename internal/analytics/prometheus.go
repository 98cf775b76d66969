// Package analytics records web-vital events and collector reports as
// Prometheus metrics.
package analytics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"vitals-app/internal/domain"
	"vitals-app/internal/vitals"
)

const namespace = "web_vitals"

// Report sources.
const (
	SourceBeacon  = "beacon"
	SourceEntries = "entries"
)

// Prometheus is a vitals.AnalyticsSink backed by its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	events       *prometheus.CounterVec
	values       *prometheus.HistogramVec
	reportsTotal *prometheus.CounterVec
	scores       *prometheus.HistogramVec
}

var _ vitals.AnalyticsSink = (*Prometheus)(nil)

// metric values are recorded in their event units: milliseconds, or CLS in
// thousandths.
var valueBuckets = []float64{25, 50, 100, 200, 300, 500, 800, 1000, 1800, 2500, 3000, 4000, 6000, 10000}

func NewPrometheus() *Prometheus {
	p := &Prometheus{registry: prometheus.NewRegistry()}

	p.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Web vital samples reported, by metric and rating.",
		},
		[]string{"metric", "rating", "navigation_type"},
	)
	p.values = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_value",
			Help:      "Rounded web vital sample values (CLS scaled by 1000).",
			Buckets:   valueBuckets,
		},
		[]string{"metric"},
	)
	p.reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Snapshots stored by the collector, by source.",
		},
		[]string{"source"},
	)
	p.scores = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Performance score of stored snapshots.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		},
		[]string{"source"},
	)

	p.registry.MustRegister(
		p.events,
		p.values,
		p.reportsTotal,
		p.scores,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) TrackEvent(name domain.MetricName, params vitals.EventParams) {
	p.events.WithLabelValues(string(name), string(params.MetricRating), params.NavigationType).Inc()
	p.values.WithLabelValues(string(name)).Observe(float64(params.Value))
}

// ObserveReport records a stored report and its score.
func (p *Prometheus) ObserveReport(source string, report domain.Report) {
	p.reportsTotal.WithLabelValues(source).Inc()
	p.scores.WithLabelValues(source).Observe(report.Score)
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *Prometheus) Gather() ([]*dto.MetricFamily, error) {
	return p.registry.Gather()
}
