// Package events provides the in-process pub/sub hub behind the live
// detection feed. Delivery is best-effort: slow subscribers drop events
// rather than block the detection path.
package events

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subscriberBuffer = 64

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_events_published_total",
			Help: "Total events published to the detection feed hub",
		},
		[]string{"type"},
	)

	eventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_events_dropped_total",
			Help: "Events dropped because a subscriber buffer was full",
		},
	)
)

const TypeDetection = "detection"

// Event is one detection outcome broadcast to feed subscribers.
type Event struct {
	Type        string    `json:"type"`
	CommunityID string    `json:"community_id"`
	SiteID      string    `json:"site_id,omitempty"`
	Plate       string    `json:"plate"`
	Decision    string    `json:"decision"`
	Reason      string    `json:"reason"`
	GateOpened  bool      `json:"gate_opened"`
	Timestamp   time.Time `json:"timestamp"`
}

type subscriber struct {
	ch          chan Event
	communityID string
}

// Hub fans events out to websocket feed subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe registers a feed for one community (empty means all). The
// returned cancel func must be called to release the subscription.
func (h *Hub) Subscribe(communityID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	sub := &subscriber{
		ch:          make(chan Event, subscriberBuffer),
		communityID: communityID,
	}
	h.subs[id] = sub

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Publish delivers an event to every matching subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	eventsPublished.WithLabelValues(ev.Type).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.communityID != "" && sub.communityID != ev.CommunityID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			eventsDropped.Inc()
		}
	}
}

// Close drops every subscription. Used on server shutdown; publishing
// after Close is a no-op delivery-wise.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// SubscriberCount reports the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
