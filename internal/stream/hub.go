// Package stream is the in-process change-stream: one logical topic per
// (couple, category), delivering row-level insert/update events in publish
// order. Delivery to clients is at-least-once overall — the authoring client
// typically holds an optimistic copy of the row it just wrote before the
// streamed echo arrives — and the hub never deduplicates; that is the view
// reconciler's job.
package stream

import (
	"sync"

	"togethermiles-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Action is the kind of row change carried by an event.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
)

// Event is one server-observed row change.
type Event struct {
	Action   Action          `json:"action"`
	Category models.Category `json:"category"`
	Record   models.Record   `json:"record"`
}

type topicKey struct {
	coupleID string
	category models.Category
}

// Hub routes events to subscriptions. All methods are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	topics map[topicKey]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[topicKey]map[*Subscription]struct{})}
}

// Subscription is a handle to one topic subscription. Cancel is idempotent
// and stops delivery immediately: an event racing with Cancel is dropped.
type Subscription struct {
	hub *Hub
	key topicKey
	fn  func(Event)

	mu        sync.Mutex
	cancelled bool
}

// Subscribe registers fn for every future event on (coupleID, category).
// fn is invoked synchronously in publish order; it must not block and must
// not call Cancel on its own subscription (spawn a goroutine for teardown).
func (h *Hub) Subscribe(coupleID string, category models.Category, fn func(Event)) *Subscription {
	sub := &Subscription{
		hub: h,
		key: topicKey{coupleID: coupleID, category: category},
		fn:  fn,
	}

	h.mu.Lock()
	subs, ok := h.topics[sub.key]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[sub.key] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	log.Debug().
		Str("couple_id", coupleID).
		Str("category", string(category)).
		Msg("Stream subscription opened")
	return sub
}

// Publish delivers the event to every live subscription of its topic.
// Holding the read lock for the whole fan-out keeps per-topic delivery in
// commit order relative to other publishers.
func (h *Hub) Publish(coupleID string, event Event) {
	key := topicKey{coupleID: coupleID, category: event.Category}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[key] {
		sub.deliver(event)
	}
}

// Cancel removes the subscription. After Cancel returns no further events are
// delivered: taking the hub write lock waits out any publish already in
// flight, and later publishes see the cancelled flag or the removed entry.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.mu.Unlock()

	h := s.hub
	h.mu.Lock()
	if subs, ok := h.topics[s.key]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.topics, s.key)
		}
	}
	h.mu.Unlock()
}

// deliver invokes the callback unless the subscription is cancelled. The
// cancelled check runs under the subscription mutex but the callback does
// not, so a callback may block briefly without wedging Cancel.
func (s *Subscription) deliver(event Event) {
	s.mu.Lock()
	cancelled := s.cancelled
	s.mu.Unlock()
	if cancelled {
		return
	}
	s.fn(event)
}
