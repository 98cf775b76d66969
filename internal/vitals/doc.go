// Package vitals collects Core Web Vitals from a stream of performance
// entries.
//
// A Session subscribes per-metric observers to a Source, turns raw entries
// into domain.Sample values, keeps the latest value of each metric and hands
// every sample to a Reporter. CLS is grouped into session windows and INP is
// estimated from the interaction sample set; the rest are single values read
// straight off an entry.
//
// Rate and Score are pure functions and may be used without a Session.
package vitals
