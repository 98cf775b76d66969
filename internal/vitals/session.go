package vitals

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vitals-app/internal/domain"
)

const defaultNavigationType = "navigate"

type Options struct {
	// Env is EnvDevelopment or EnvProduction. Anything else counts as
	// development.
	Env            string
	NavigationType string
	Logger         *zap.Logger
	Analytics      AnalyticsSink
	Beacon         Beacon
	// OnSample is called after the reporter for every sample.
	OnSample func(domain.Sample)
}

// Session monitors one page lifetime. It owns the metric store and the
// observer handles; create one per page load.
type Session struct {
	source         Source
	reporter       *Reporter
	store          *Store
	logger         *zap.Logger
	navigationType string
	onSample       func(domain.Sample)
	capabilities   map[domain.EntryType]bool

	mu           sync.Mutex
	initialized  bool
	observations []*observation
	established  []domain.MetricName

	stateMu sync.Mutex
	cls     SessionWindow
	inp     InteractionSampler
	last    map[domain.MetricName]float64
	ids     map[domain.MetricName]string
}

// NewSession probes src for the entry types the observers need. Nothing is
// subscribed until Init.
func NewSession(src Source, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	nav := opts.NavigationType
	if nav == "" {
		nav = defaultNavigationType
	}

	caps := make(map[domain.EntryType]bool, len(observers))
	for _, ob := range observers {
		if src != nil && src.Supports(ob.entryType) {
			caps[ob.entryType] = true
		}
	}

	return &Session{
		source:         src,
		reporter:       NewReporter(opts.Env, logger, opts.Analytics, opts.Beacon),
		store:          NewStore(),
		logger:         logger,
		navigationType: nav,
		onSample:       opts.OnSample,
		capabilities:   caps,
		last:           make(map[domain.MetricName]float64),
		ids:            make(map[domain.MetricName]string),
	}
}

// Capabilities returns the entry types the source was found to support.
func (s *Session) Capabilities() []domain.EntryType {
	var out []domain.EntryType
	for _, ob := range observers {
		if s.capabilities[ob.entryType] {
			out = append(out, ob.entryType)
		}
	}
	return out
}

// Init subscribes every supported observer and returns the metrics that are
// being observed. Later calls are no-ops returning the same list.
func (s *Session) Init() []domain.MetricName {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return append([]domain.MetricName(nil), s.established...)
	}
	s.initialized = true

	for _, ob := range observers {
		if !s.capabilities[ob.entryType] {
			continue
		}
		ob := ob
		o := &observation{}
		h, err := s.source.Observe(ob.entryType, ob.opts, func(entries []domain.Entry) {
			s.handle(ob, o, entries)
		})
		if err != nil || h == nil {
			s.logger.Debug("observer not established",
				zap.String("entry_type", string(ob.entryType)), zap.Error(err))
			continue
		}
		o.attach(h)
		s.observations = append(s.observations, o)
		if ob.metric != "" {
			s.established = append(s.established, ob.metric)
		}
	}
	return append([]domain.MetricName(nil), s.established...)
}

func (s *Session) handle(ob metricObserver, o *observation, entries []domain.Entry) {
	if o.stopped() || len(entries) == 0 {
		return
	}
	if ob.metric == "" {
		for _, e := range entries {
			s.reporter.LongTask(e)
		}
		return
	}

	// Values reach the store in measurement order even when batches are
	// dispatched from several goroutines.
	s.stateMu.Lock()
	measured := ob.measure(s, entries)
	samples := make([]domain.Sample, 0, len(measured))
	for _, m := range measured {
		sample := s.newSample(ob.metric, m)
		s.store.Put(sample.Name, sample.Value)
		samples = append(samples, sample)
	}
	s.stateMu.Unlock()

	if len(samples) == 0 {
		return
	}
	if ob.singleShot {
		o.stop()
	}
	for _, sample := range samples {
		s.reporter.Report(sample)
		if s.onSample != nil {
			s.onSample(sample)
		}
	}
}

// newSample must be called with stateMu held.
func (s *Session) newSample(name domain.MetricName, m measurement) domain.Sample {
	id, ok := s.ids[name]
	if !ok {
		id = uuid.NewString()
		s.ids[name] = id
	}
	delta := m.value - s.last[name]
	s.last[name] = m.value
	return domain.Sample{
		Name:           name,
		Value:          m.value,
		Rating:         Rate(name, m.value),
		Delta:          delta,
		ID:             id,
		NavigationType: s.navigationType,
		Entries:        m.entries,
	}
}

// Snapshot returns an immutable copy of the latest metric values.
func (s *Session) Snapshot() domain.Snapshot {
	return s.store.Snapshot()
}

// Score computes the performance score from the current values.
func (s *Session) Score() float64 {
	return Score(s.store.Snapshot())
}

// Disconnect stops every observer. Stored values are kept. Calling it more
// than once is harmless.
func (s *Session) Disconnect() {
	s.mu.Lock()
	obs := s.observations
	s.observations = nil
	s.mu.Unlock()

	for _, o := range obs {
		o.stop()
	}
}

// Reset forgets every stored value and accumulator state, as after a
// navigation. Observers stay subscribed.
func (s *Session) Reset() {
	s.stateMu.Lock()
	s.cls.Reset()
	s.inp.Reset()
	s.last = make(map[domain.MetricName]float64)
	s.ids = make(map[domain.MetricName]string)
	s.stateMu.Unlock()
	s.store.Reset()
}

// VisibilityHidden flushes the current snapshot through the reporter. Call
// it when the page becomes hidden.
func (s *Session) VisibilityHidden() {
	s.reporter.Flush(s.store.Snapshot())
}
