package realtime

import (
	"sync"

	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
)

const defaultSubscriberBuffer = 1

// Hub fans change events out to subscribers. Delivery never blocks: when a
// subscriber's buffer is full the event is dropped, which is safe because an
// undelivered event is already queued and the consumer re-fetches in full.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
	closed bool
}

// Subscription receives the events matching its filter
type Subscription struct {
	id     uint64
	filter Filter
	ch     chan ChangeEvent
	hub    *Hub
	once   sync.Once
}

// NewHub creates a hub whose subscribers buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{subs: make(map[uint64]*Subscription), buffer: buffer}
}

// Subscribe registers a subscriber. A nil filter matches everything.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	if filter == nil {
		filter = All
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Subscription{id: h.nextID, filter: filter, ch: make(chan ChangeEvent, h.buffer), hub: h}
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s.id] = s
	metrics.ChangeSubscribers.Set(float64(len(h.subs)))
	return s
}

// Publish delivers ev to every matching subscriber and returns how many got it
func (h *Hub) Publish(ev ChangeEvent) int {
	metrics.ChangeEventsReceived.WithLabelValues(ev.Table, ev.Op).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, s := range h.subs {
		if !s.filter(ev) {
			continue
		}
		select {
		case s.ch <- ev:
			delivered++
		default:
			metrics.ChangeEventsDropped.Inc()
		}
	}
	return delivered
}

// Len returns the number of live subscriptions
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are born closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		s.once.Do(func() { close(s.ch) })
	}
	metrics.ChangeSubscribers.Set(0)
}

// Events is closed when the subscription ends
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.ch
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if _, ok := s.hub.subs[s.id]; ok {
		delete(s.hub.subs, s.id)
		metrics.ChangeSubscribers.Set(float64(len(s.hub.subs)))
	}
	s.once.Do(func() { close(s.ch) })
}
