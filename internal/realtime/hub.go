package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sgs-visits/backend/internal/checkin"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Publisher publishes arrival events to Redis for cross-instance broadcast.
type Publisher interface {
	PublishArrival(payload []byte) error
}

// Subscriber subscribes to the arrivals channel and invokes handler for
// incoming events.
type Subscriber interface {
	SubscribeArrivals(handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains the set of dashboard connections watching the live arrivals
// feed. There is a single room; every successful check-in is fanned out to
// all connected clients. Redis pub/sub carries events across instances.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
	pub     Publisher
	sub     Subscriber
	cancel  func()
}

// NewHub creates the arrivals hub.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		pub:     pub,
		sub:     sub,
	}
}

// Register adds a client. The Redis subscription starts with the first
// client and stops with the last.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if len(h.clients) == 0 && h.sub != nil {
		cancel, err := h.sub.SubscribeArrivals(func(event string, payload []byte) {
			h.broadcast(event, json.RawMessage(payload))
		})
		if err != nil {
			h.logger.Warn("arrivals subscribe failed", zap.Error(err))
		} else {
			h.cancel = cancel
		}
	}
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("feed client joined", zap.String("client_id", c.ID))
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	if len(h.clients) == 0 && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.mu.Unlock()
	h.logger.Debug("feed client left", zap.String("client_id", c.ID))
}

// Arrival fans a successful check-in out to the feed. With Redis configured
// the event is published only, and the subscriber callback performs the one
// broadcast for every instance including this one, so local clients never
// see duplicates. Implements the feed the check-in handler notifies.
func (h *Hub) Arrival(res *checkin.Result) {
	payload, err := json.Marshal(map[string]any{
		"visitId":     res.ID,
		"childName":   res.ChildName,
		"phoneNumber": res.PhoneNumber,
		"visitedAt":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if h.pub != nil {
		err := h.pub.PublishArrival(payload)
		if err == nil {
			return
		}
		h.logger.Warn("arrival publish failed", zap.Error(err))
	}
	h.broadcast("arrival", json.RawMessage(payload))
}

// ClientCount returns the number of connected feed clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
