package vitals

import (
	"errors"
	"sync"

	"vitals-app/internal/domain"
)

var ErrUnsupportedEntryType = errors.New("entry type not supported by source")

// ObserveOptions mirrors the subset of observer options the metrics need.
type ObserveOptions struct {
	// Buffered replays entries dispatched before the subscription.
	Buffered bool
	// DurationThreshold drops event entries shorter than this many ms.
	DurationThreshold float64
}

// Handle stops a subscription. Disconnect is idempotent.
type Handle interface {
	Disconnect()
}

// Source is the platform's performance-entry stream.
type Source interface {
	// Supports reports whether entries of type t can be observed at all.
	Supports(t domain.EntryType) bool
	// Observe subscribes fn to entries of type t. fn receives entries in
	// batches, in delivery order.
	Observe(t domain.EntryType, opts ObserveOptions, fn func([]domain.Entry)) (Handle, error)
}

// ReplaySource is a Source fed by its caller. Dispatch delivers entries to
// current subscribers synchronously; buffered subscribers also receive the
// entries dispatched before they subscribed.
type ReplaySource struct {
	mu        sync.Mutex
	supported map[domain.EntryType]bool
	buffer    map[domain.EntryType][]domain.Entry
	subs      map[*subscription]struct{}
}

type subscription struct {
	src       *ReplaySource
	entryType domain.EntryType
	opts      ObserveOptions
	fn        func([]domain.Entry)

	mu     sync.Mutex
	active bool
}

// NewReplaySource returns a source supporting the given entry types, or every
// known type when none are given.
func NewReplaySource(types ...domain.EntryType) *ReplaySource {
	if len(types) == 0 {
		types = []domain.EntryType{
			domain.EntryPaint,
			domain.EntryNavigation,
			domain.EntryLargestContentfulPaint,
			domain.EntryFirstInput,
			domain.EntryLayoutShift,
			domain.EntryEvent,
			domain.EntryLongTask,
		}
	}
	supported := make(map[domain.EntryType]bool, len(types))
	for _, t := range types {
		supported[t] = true
	}
	return &ReplaySource{
		supported: supported,
		buffer:    make(map[domain.EntryType][]domain.Entry),
		subs:      make(map[*subscription]struct{}),
	}
}

func (r *ReplaySource) Supports(t domain.EntryType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supported[t]
}

func (r *ReplaySource) Observe(t domain.EntryType, opts ObserveOptions, fn func([]domain.Entry)) (Handle, error) {
	r.mu.Lock()
	if !r.supported[t] {
		r.mu.Unlock()
		return nil, ErrUnsupportedEntryType
	}
	sub := &subscription{src: r, entryType: t, opts: opts, fn: fn, active: true}
	r.subs[sub] = struct{}{}
	var backlog []domain.Entry
	if opts.Buffered {
		backlog = append(backlog, r.buffer[t]...)
	}
	r.mu.Unlock()

	sub.deliver(backlog)
	return sub, nil
}

// Dispatch delivers entries, grouped per entry type, to every subscriber.
// Entries of unsupported types are dropped.
func (r *ReplaySource) Dispatch(entries ...domain.Entry) {
	var order []domain.EntryType
	batches := make(map[domain.EntryType][]domain.Entry)

	r.mu.Lock()
	for _, e := range entries {
		if !r.supported[e.EntryType] {
			continue
		}
		if _, seen := batches[e.EntryType]; !seen {
			order = append(order, e.EntryType)
		}
		batches[e.EntryType] = append(batches[e.EntryType], e)
		r.buffer[e.EntryType] = append(r.buffer[e.EntryType], e)
	}
	subs := make([]*subscription, 0, len(r.subs))
	for s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, t := range order {
		for _, s := range subs {
			if s.entryType == t {
				s.deliver(batches[t])
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (r *ReplaySource) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func (s *subscription) deliver(entries []domain.Entry) {
	if s.entryType == domain.EntryEvent && s.opts.DurationThreshold > 0 {
		kept := make([]domain.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Duration >= s.opts.DurationThreshold {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active {
		s.fn(entries)
	}
}

func (s *subscription) Disconnect() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	s.src.mu.Lock()
	delete(s.src.subs, s)
	s.src.mu.Unlock()
}
