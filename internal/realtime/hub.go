// Package realtime fans check-in and registration updates out to dashboard
// WebSocket connections, with a Redis pub/sub bridge so every server
// instance sees every update.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
)

const (
	// EventNewCheckin carries the refreshed checked-in count for an event.
	EventNewCheckin = "newCheckin"
	// EventNewRegistration announces a registration as it is created.
	EventNewRegistration = "newRegistration"
)

// Hub maintains eventID -> set of connections and broadcasts messages.
// Delivery is fire and forget: sends never block (full client buffers are
// skipped) because a dropped count is superseded by the next broadcast.
type Hub struct {
	// eventID -> map[clientID]*Client
	rooms  map[string]map[string]*Client
	subs   map[string]func() // cancel Redis subscription per event
	mu     sync.RWMutex
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber
}

// Publisher publishes to Redis for cross-instance broadcast.
type Publisher interface {
	PublishEventUpdate(eventID, event string, payload []byte) error
}

// Subscriber subscribes to an event's channel and invokes handler for
// incoming updates from other instances.
type Subscriber interface {
	SubscribeEvent(eventID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a dashboard hub. pub and sub may be nil for single-instance
// deployments.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[string]map[string]*Client),
		subs:   make(map[string]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a client to an event room. Starts the Redis subscription for
// the event when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.EventID] == nil {
		h.rooms[c.EventID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeEvent(c.EventID, func(event string, payload []byte) {
				h.Broadcast(c.EventID, event, json.RawMessage(payload))
			})
			if err != nil {
				// Local broadcasts still work; only cross-instance updates
				// for this event are missing until the room is re-created.
				h.logger.Warn("redis subscribe failed",
					zap.String("event_id", c.EventID), zap.Error(err))
			} else {
				h.subs[c.EventID] = cancel
			}
		}
	}
	h.rooms[c.EventID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("dashboard joined", zap.String("client_id", c.ID), zap.String("event_id", c.EventID))
}

// Unregister removes a client. Cancels the Redis subscription when the last
// client for the event leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.EventID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.EventID)
			if cancel, ok := h.subs[c.EventID]; ok {
				cancel()
				delete(h.subs, c.EventID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("dashboard left", zap.String("client_id", c.ID), zap.String("event_id", c.EventID))
}

// Broadcast sends a message to all local clients watching an event.
func (h *Hub) Broadcast(eventID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	// The read lock is held across the send loop so Register/Unregister
	// cannot mutate the room mid-iteration. Sends never block (select with
	// default), so the lock is never held across a blocking op.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[eventID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip; the next broadcast supersedes this one
		}
	}
}

// BroadcastAndPublish sends to local clients and publishes to Redis for
// other instances.
func (h *Hub) BroadcastAndPublish(eventID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.Broadcast(eventID, event, json.RawMessage(data))
	if h.pub != nil {
		// Decoupled from the caller: the check-in path must not wait on the
		// bus, and a lost update is superseded by the next one.
		go func() {
			if err := h.pub.PublishEventUpdate(eventID, event, data); err != nil {
				h.logger.Warn("redis publish failed", zap.String("event_id", eventID), zap.Error(err))
			}
		}()
	}
}

// PublishCheckIn notifies dashboards of the refreshed checked-in count after
// a successful transition.
func (h *Hub) PublishCheckIn(eventID string, checkedInCount int) {
	h.BroadcastAndPublish(eventID, EventNewCheckin, map[string]interface{}{
		"event_id":         eventID,
		"checked_in_count": checkedInCount,
	})
}

// PublishRegistration notifies dashboards of a newly created registration.
func (h *Hub) PublishRegistration(eventID string, reg *models.Registration) {
	h.BroadcastAndPublish(eventID, EventNewRegistration, map[string]interface{}{
		"event_id":     eventID,
		"registration": reg,
	})
}

// WatcherCount returns the number of connected dashboards for an event.
func (h *Hub) WatcherCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}
