package vitals

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vitals-app/internal/domain"
)

type trackedEvent struct {
	name   domain.MetricName
	params EventParams
}

type fakeAnalytics struct {
	events []trackedEvent
}

func (f *fakeAnalytics) TrackEvent(name domain.MetricName, params EventParams) {
	f.events = append(f.events, trackedEvent{name, params})
}

type sentBeacon struct {
	path string
	body []byte
}

type fakeBeacon struct {
	sent []sentBeacon
}

func (f *fakeBeacon) Send(path string, body []byte) {
	f.sent = append(f.sent, sentBeacon{path, body})
}

type brokenSource struct{ *ReplaySource }

func (b brokenSource) Observe(t domain.EntryType, opts ObserveOptions, fn func([]domain.Entry)) (Handle, error) {
	if t == domain.EntryEvent {
		return nil, ErrUnsupportedEntryType
	}
	return b.ReplaySource.Observe(t, opts, fn)
}

func newTestSession(src Source, env string) (*Session, *[]domain.Sample) {
	var samples []domain.Sample
	s := NewSession(src, Options{
		Env:      env,
		OnSample: func(sample domain.Sample) { samples = append(samples, sample) },
	})
	return s, &samples
}

func TestSession_CapabilityProbe(t *testing.T) {
	src := NewReplaySource(domain.EntryPaint, domain.EntryLayoutShift)
	s, _ := newTestSession(src, EnvDevelopment)

	assert.Equal(t, []domain.EntryType{domain.EntryLayoutShift, domain.EntryPaint}, s.Capabilities())
	assert.Equal(t, []domain.MetricName{domain.CLS, domain.FCP}, s.Init())
}

func TestSession_InitIsIdempotent(t *testing.T) {
	src := NewReplaySource()
	s, _ := newTestSession(src, EnvDevelopment)

	first := s.Init()
	subs := src.Subscribers()
	second := s.Init()

	assert.Equal(t, first, second)
	assert.Equal(t, subs, src.Subscribers())
	assert.Len(t, first, 6)
}

func TestSession_ObserverFailureIsTolerated(t *testing.T) {
	s, _ := newTestSession(brokenSource{NewReplaySource()}, EnvDevelopment)

	got := s.Init()
	assert.NotContains(t, got, domain.INP)
	assert.Len(t, got, 5)
}

func TestSession_NilSourceObservesNothing(t *testing.T) {
	s, _ := newTestSession(nil, EnvDevelopment)
	assert.Empty(t, s.Capabilities())
	assert.Empty(t, s.Init())
	assert.True(t, s.Snapshot().IsEmpty())
}

func TestSession_CLSWindows(t *testing.T) {
	src := NewReplaySource()
	s, samples := newTestSession(src, EnvDevelopment)
	s.Init()

	src.Dispatch(shift(0, 0.05))
	src.Dispatch(shift(500, 0.05))
	cls, ok := s.Snapshot().Get(domain.CLS)
	require.True(t, ok)
	assert.InDelta(t, 0.10, cls, 1e-9)

	src.Dispatch(shift(6000, 0.2))
	cls, _ = s.Snapshot().Get(domain.CLS)
	assert.InDelta(t, 0.2, cls, 1e-9)

	require.Len(t, *samples, 3)
	last := (*samples)[2]
	assert.Equal(t, domain.CLS, last.Name)
	assert.Equal(t, domain.RatingNeedsImprovement, last.Rating)
	assert.InDelta(t, 0.1, last.Delta, 1e-9)
	assert.Len(t, last.Entries, 1)
	assert.Equal(t, (*samples)[0].ID, last.ID, "one id per metric per page")
}

func TestSession_INPFromInteractions(t *testing.T) {
	src := NewReplaySource()
	s, samples := newTestSession(src, EnvDevelopment)
	s.Init()

	for i := 1; i <= 100; i++ {
		src.Dispatch(interaction(uint64(i), float64(i)))
	}
	inp, ok := s.Snapshot().Get(domain.INP)
	require.True(t, ok)
	assert.Equal(t, 98.0, inp)
	assert.Len(t, *samples, 100, "every interaction is sampled, however short")

	// events without an interaction id are not interactions
	src.Dispatch(domain.Entry{EntryType: domain.EntryEvent, Name: "pointermove", Duration: 900})
	assert.Len(t, *samples, 100)
}

func TestSession_SingleValueMetrics(t *testing.T) {
	src := NewReplaySource()
	s, samples := newTestSession(src, EnvDevelopment)
	s.Init()

	src.Dispatch(
		domain.Entry{EntryType: domain.EntryNavigation, RequestStart: 20, ResponseStart: 320},
		domain.Entry{EntryType: domain.EntryPaint, Name: "first-paint", StartTime: 900},
		domain.Entry{EntryType: domain.EntryPaint, Name: "first-contentful-paint", StartTime: 1200},
		domain.Entry{EntryType: domain.EntryLargestContentfulPaint, StartTime: 1500},
		domain.Entry{EntryType: domain.EntryLargestContentfulPaint, StartTime: 2600},
		domain.Entry{EntryType: domain.EntryFirstInput, StartTime: 3000, ProcessingStart: 3080},
	)

	snap := s.Snapshot()
	ttfb, _ := snap.Get(domain.TTFB)
	fcp, _ := snap.Get(domain.FCP)
	lcp, _ := snap.Get(domain.LCP)
	fid, _ := snap.Get(domain.FID)
	assert.Equal(t, 300.0, ttfb)
	assert.Equal(t, 1200.0, fcp)
	assert.Equal(t, 2600.0, lcp)
	assert.Equal(t, 80.0, fid)
	assert.Len(t, *samples, 4)
	assert.Equal(t, 87.5, s.Score())

	// single-shot observers have stopped; LCP keeps listening
	src.Dispatch(
		domain.Entry{EntryType: domain.EntryPaint, Name: "first-contentful-paint", StartTime: 5000},
		domain.Entry{EntryType: domain.EntryFirstInput, StartTime: 6000, ProcessingStart: 6900},
		domain.Entry{EntryType: domain.EntryLargestContentfulPaint, StartTime: 4200},
	)
	snap = s.Snapshot()
	fcp, _ = snap.Get(domain.FCP)
	fid, _ = snap.Get(domain.FID)
	lcp, _ = snap.Get(domain.LCP)
	assert.Equal(t, 1200.0, fcp)
	assert.Equal(t, 80.0, fid)
	assert.Equal(t, 4200.0, lcp)
	assert.Len(t, *samples, 5)
}

func TestSession_BufferedEntriesBeforeInit(t *testing.T) {
	src := NewReplaySource()
	src.Dispatch(
		domain.Entry{EntryType: domain.EntryPaint, Name: "first-contentful-paint", StartTime: 700},
		domain.Entry{EntryType: domain.EntryNavigation, RequestStart: 10, ResponseStart: 110},
	)

	s, samples := newTestSession(src, EnvDevelopment)
	s.Init()

	assert.Len(t, *samples, 2)
	fcp, ok := s.Snapshot().Get(domain.FCP)
	assert.True(t, ok)
	assert.Equal(t, 700.0, fcp)

	src.Dispatch(domain.Entry{EntryType: domain.EntryPaint, Name: "first-contentful-paint", StartTime: 900})
	assert.Len(t, *samples, 2, "FCP observer stopped after its buffered entry")
}

func TestSession_DisconnectTwice(t *testing.T) {
	src := NewReplaySource()
	s, samples := newTestSession(src, EnvDevelopment)
	s.Init()

	src.Dispatch(shift(0, 0.05))
	require.Len(t, *samples, 1)

	assert.NotPanics(t, func() {
		s.Disconnect()
		s.Disconnect()
	})
	assert.Equal(t, 0, src.Subscribers())

	src.Dispatch(shift(100, 0.3))
	assert.Len(t, *samples, 1)
	cls, _ := s.Snapshot().Get(domain.CLS)
	assert.InDelta(t, 0.05, cls, 1e-9, "stored values survive disconnect")
}

func TestSession_Reset(t *testing.T) {
	src := NewReplaySource()
	s, samples := newTestSession(src, EnvDevelopment)
	s.Init()

	src.Dispatch(shift(0, 0.3))
	s.Reset()
	assert.True(t, s.Snapshot().IsEmpty())

	src.Dispatch(shift(10000, 0.02))
	cls, ok := s.Snapshot().Get(domain.CLS)
	require.True(t, ok)
	assert.InDelta(t, 0.02, cls, 1e-9)
	assert.NotEqual(t, (*samples)[0].ID, (*samples)[1].ID)
}

func TestSession_DevelopmentLogsSamples(t *testing.T) {
	// the default collector log level
	core, logs := observer.New(zapcore.InfoLevel)
	analytics := &fakeAnalytics{}
	beacon := &fakeBeacon{}
	src := NewReplaySource()
	s := NewSession(src, Options{
		Env:       EnvDevelopment,
		Logger:    zap.New(core),
		Analytics: analytics,
		Beacon:    beacon,
	})
	s.Init()

	src.Dispatch(
		domain.Entry{EntryType: domain.EntryLargestContentfulPaint, StartTime: 1800},
		domain.Entry{EntryType: domain.EntryLongTask, StartTime: 50, Duration: 120},
	)
	s.VisibilityHidden()

	vitals := logs.FilterMessage("web vital").All()
	require.Len(t, vitals, 1)
	assert.Equal(t, "LCP", vitals[0].ContextMap()["name"])
	longTasks := logs.FilterMessage("long task detected").All()
	require.Len(t, longTasks, 1)
	assert.Equal(t, zapcore.InfoLevel, longTasks[0].Level)
	assert.Equal(t, 120.0, longTasks[0].ContextMap()["duration"])
	assert.Empty(t, analytics.events)
	assert.Empty(t, beacon.sent, "no beacon outside production")
}

func TestSession_ProductionReportsAndFlushes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	analytics := &fakeAnalytics{}
	beacon := &fakeBeacon{}
	src := NewReplaySource()
	s := NewSession(src, Options{
		Env:            EnvProduction,
		NavigationType: "reload",
		Logger:         zap.New(core),
		Analytics:      analytics,
		Beacon:         beacon,
	})
	s.Init()

	s.VisibilityHidden()
	assert.Empty(t, beacon.sent, "empty snapshot is not sent")

	src.Dispatch(shift(0, 0.1234), domain.Entry{EntryType: domain.EntryLargestContentfulPaint, StartTime: 2400.6})
	s.VisibilityHidden()

	assert.Equal(t, 0, logs.Len())
	require.Len(t, analytics.events, 2)

	byName := map[domain.MetricName]EventParams{}
	for _, e := range analytics.events {
		byName[e.name] = e.params
	}
	assert.Equal(t, int64(123), byName[domain.CLS].Value)
	assert.InDelta(t, 0.1234, byName[domain.CLS].MetricValue, 1e-9)
	assert.Equal(t, domain.RatingNeedsImprovement, byName[domain.CLS].MetricRating)
	assert.Equal(t, "reload", byName[domain.CLS].NavigationType)
	assert.NotEmpty(t, byName[domain.CLS].MetricID)
	assert.Equal(t, int64(2401), byName[domain.LCP].Value)

	require.Len(t, beacon.sent, 1)
	assert.Equal(t, BeaconPath, beacon.sent[0].path)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(beacon.sent[0].body, &snap))
	lcp, _ := snap.Get(domain.LCP)
	assert.Equal(t, 2400.6, lcp)
	_, hasFID := snap.Get(domain.FID)
	assert.False(t, hasFID)
}

func TestSession_SnapshotIsImmutable(t *testing.T) {
	src := NewReplaySource()
	s, _ := newTestSession(src, EnvDevelopment)
	s.Init()

	src.Dispatch(domain.Entry{EntryType: domain.EntryLargestContentfulPaint, StartTime: 1000})
	snap := s.Snapshot()
	src.Dispatch(domain.Entry{EntryType: domain.EntryLargestContentfulPaint, StartTime: 3000})

	lcp, _ := snap.Get(domain.LCP)
	assert.Equal(t, 1000.0, lcp)
}

func TestSession_ConcurrentDispatchKeepsLargestCLS(t *testing.T) {
	var (
		mu      sync.Mutex
		largest float64
	)
	src := NewReplaySource()
	s := NewSession(src, Options{
		Env: EnvProduction,
		OnSample: func(sample domain.Sample) {
			mu.Lock()
			defer mu.Unlock()
			if sample.Value > largest {
				largest = sample.Value
			}
		},
	})
	s.Init()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				src.Dispatch(domain.Entry{
					EntryType: domain.EntryLayoutShift,
					StartTime: float64(g*100000 + i*300),
					Value:     float64(g+1) * 0.001,
				})
			}
		}(g)
	}
	wg.Wait()

	cls, ok := s.Snapshot().Get(domain.CLS)
	require.True(t, ok)
	assert.Equal(t, largest, cls, "the stored CLS is the largest value ever sampled")
	assert.Equal(t, s.cls.Value(), cls)
}
