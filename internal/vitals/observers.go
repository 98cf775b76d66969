package vitals

import (
	"sync"

	"vitals-app/internal/domain"
)

const firstContentfulPaint = "first-contentful-paint"

type measurement struct {
	value   float64
	entries []domain.Entry
}

// metricObserver describes how one metric is read off one entry type.
// An empty metric marks a diagnostic-only observer.
type metricObserver struct {
	metric     domain.MetricName
	entryType  domain.EntryType
	opts       ObserveOptions
	singleShot bool
	measure    func(s *Session, entries []domain.Entry) []measurement
}

var observers = []metricObserver{
	{
		metric:    domain.LCP,
		entryType: domain.EntryLargestContentfulPaint,
		opts:      ObserveOptions{Buffered: true},
		measure:   measureLCP,
	},
	{
		metric:     domain.FID,
		entryType:  domain.EntryFirstInput,
		opts:       ObserveOptions{Buffered: true},
		singleShot: true,
		measure:    measureFID,
	},
	{
		metric:    domain.CLS,
		entryType: domain.EntryLayoutShift,
		opts:      ObserveOptions{Buffered: true},
		measure:   measureCLS,
	},
	{
		metric:     domain.FCP,
		entryType:  domain.EntryPaint,
		opts:       ObserveOptions{Buffered: true},
		singleShot: true,
		measure:    measureFCP,
	},
	{
		metric:     domain.TTFB,
		entryType:  domain.EntryNavigation,
		opts:       ObserveOptions{Buffered: true},
		singleShot: true,
		measure:    measureTTFB,
	},
	{
		metric:    domain.INP,
		entryType: domain.EntryEvent,
		opts:      ObserveOptions{Buffered: true},
		measure:   measureINP,
	},
	{
		entryType: domain.EntryLongTask,
	},
}

func measureLCP(_ *Session, entries []domain.Entry) []measurement {
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.StartTime > latest.StartTime {
			latest = e
		}
	}
	return []measurement{{value: latest.StartTime, entries: []domain.Entry{latest}}}
}

func measureFID(_ *Session, entries []domain.Entry) []measurement {
	e := entries[0]
	return []measurement{{value: nonNegative(e.ProcessingStart - e.StartTime), entries: []domain.Entry{e}}}
}

func measureFCP(_ *Session, entries []domain.Entry) []measurement {
	for _, e := range entries {
		if e.Name == firstContentfulPaint {
			return []measurement{{value: e.StartTime, entries: []domain.Entry{e}}}
		}
	}
	return nil
}

func measureTTFB(_ *Session, entries []domain.Entry) []measurement {
	e := entries[0]
	return []measurement{{value: nonNegative(e.ResponseStart - e.RequestStart), entries: []domain.Entry{e}}}
}

func measureCLS(s *Session, entries []domain.Entry) []measurement {
	var out []measurement
	for _, e := range entries {
		if best, improved := s.cls.Add(e); improved {
			out = append(out, measurement{value: best, entries: s.cls.Entries()})
		}
	}
	return out
}

func measureINP(s *Session, entries []domain.Entry) []measurement {
	var out []measurement
	for _, e := range entries {
		if v, ok := s.inp.Add(e); ok {
			out = append(out, measurement{value: v, entries: []domain.Entry{e}})
		}
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// observation tracks one live subscription. A single-shot observer may stop
// before Observe has returned its handle; attach disconnects it then.
type observation struct {
	mu     sync.Mutex
	handle Handle
	done   bool
}

func (o *observation) attach(h Handle) {
	o.mu.Lock()
	o.handle = h
	done := o.done
	o.mu.Unlock()
	if done {
		h.Disconnect()
	}
}

func (o *observation) stop() {
	o.mu.Lock()
	o.done = true
	h := o.handle
	o.mu.Unlock()
	if h != nil {
		h.Disconnect()
	}
}

func (o *observation) stopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}
