package stream

import (
	"sync"
	"sync/atomic"
)

// Subscriber is one consumer of live run events — typically an SSE
// connection on the API. Delivery is credit-based: each delivered event
// spends one credit and a subscriber with no credits left is skipped
// until the consumer replenishes them. Combined with the non-blocking
// buffered channel this means a stalled consumer loses events instead
// of stalling the run that produced them; the persisted run log is the
// durable record, the stream is best-effort.
type Subscriber struct {
	id string
	ch chan *Event

	credits atomic.Int64
	dropped atomic.Int64

	mu     sync.RWMutex
	topics map[string]struct{}

	// filter, when set, drops events the predicate rejects before
	// they cost a credit.
	filter func(*Event) bool

	closed atomic.Bool
}

// NewSubscriber creates a subscriber with the given channel buffer size
// and initial credit balance.
func NewSubscriber(id string, bufferSize int, initialCredits int64) *Subscriber {
	s := &Subscriber{
		id:     id,
		ch:     make(chan *Event, bufferSize),
		topics: make(map[string]struct{}),
	}
	s.credits.Store(initialCredits)
	return s
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() string { return s.id }

// C returns the read-only event channel.
func (s *Subscriber) C() <-chan *Event { return s.ch }

// AddCredits replenishes the credit balance.
func (s *Subscriber) AddCredits(n int64) { s.credits.Add(n) }

// Credits returns the remaining credit balance.
func (s *Subscriber) Credits() int64 { return s.credits.Load() }

// Dropped returns how many events were not delivered to this subscriber
// because of exhausted credits, a full buffer, or the filter.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

// SetFilter installs an event predicate. Only events the predicate
// accepts are delivered. Set it before the subscriber receives traffic;
// the field is not synchronized.
func (s *Subscriber) SetFilter(fn func(*Event) bool) { s.filter = fn }

// Topics returns a copy of the subscribed topic names.
func (s *Subscriber) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

func (s *Subscriber) addTopic(topic string) {
	s.mu.Lock()
	s.topics[topic] = struct{}{}
	s.mu.Unlock()
}

func (s *Subscriber) removeTopic(topic string) {
	s.mu.Lock()
	delete(s.topics, topic)
	s.mu.Unlock()
}

// send attempts to deliver an event. It returns false when the event was
// dropped: subscriber closed, filter rejected it, credits exhausted, or
// the channel buffer full. A credit is only spent on actual delivery.
func (s *Subscriber) send(evt *Event) bool {
	if s.closed.Load() {
		return false
	}

	if s.filter != nil && !s.filter(evt) {
		s.dropped.Add(1)
		return false
	}

	for {
		remaining := s.credits.Load()
		if remaining <= 0 {
			s.dropped.Add(1)
			return false
		}
		if s.credits.CompareAndSwap(remaining, remaining-1) {
			break
		}
	}

	select {
	case s.ch <- evt:
		return true
	default:
		// Buffer full: refund the credit taken above.
		s.credits.Add(1)
		s.dropped.Add(1)
		return false
	}
}

// Close closes the event channel. Safe to call more than once.
func (s *Subscriber) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.ch)
	}
}
