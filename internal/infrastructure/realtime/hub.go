package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/grapeapp/grape-backend/internal/logger"
)

// PresenceTracker is told about every connection opened or closed on this
// instance so that presence can be shared between instances.
type PresenceTracker interface {
	Connected(ctx context.Context, userID uuid.UUID) error
	Disconnected(ctx context.Context, userID uuid.UUID) error
}

// Hub keeps the websocket clients of this instance keyed by user id.
// A user may hold several connections at once.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	tracker PresenceTracker
}

func NewHub(tracker PresenceTracker) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		tracker: tracker,
	}
}

// Attach registers conn for userID and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, userID uuid.UUID) *Client {
	c := newClient(h, conn, userID)
	h.register(c)
	go c.writePump()
	go c.readPump()
	return c
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	total := len(set)
	h.mu.Unlock()

	if h.tracker != nil {
		if err := h.tracker.Connected(context.Background(), c.userID); err != nil {
			logger.Warn("failed to record presence", "user_id", c.userID, "error", err)
		}
	}
	logger.Debug("websocket client registered", "user_id", c.userID, "connections", total)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	h.mu.Unlock()

	if h.tracker != nil {
		if err := h.tracker.Disconnected(context.Background(), c.userID); err != nil {
			logger.Warn("failed to clear presence", "user_id", c.userID, "error", err)
		}
	}
	logger.Debug("websocket client unregistered", "user_id", c.userID)
}

// Deliver writes a raw frame to every local connection of userID and
// reports how many connections accepted it. Slow clients are dropped.
func (h *Hub) Deliver(userID uuid.UUID, frame []byte) int {
	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- frame:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("dropping slow websocket client", "user_id", userID)
		h.unregister(c)
	}
	return delivered
}

// sendTo queues a frame for a single client if it is still registered.
func (h *Hub) sendTo(c *Client, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.userID][c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// Publish delivers ev to the local connections of userID.
func (h *Hub) Publish(ctx context.Context, userID uuid.UUID, ev Event) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	h.Deliver(userID, frame)
	return nil
}

func (h *Hub) Online(ctx context.Context, userID uuid.UUID) (bool, error) {
	return h.ConnectionCount(userID) > 0, nil
}

func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.unregister(c)
	}
}
