// Package websocket fans task domain events out to connected devices so
// dashboards converge without polling.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/screenquest/screenquest/internal/task"
)

// Hub maintains the set of active WebSocket clients and broadcasts task
// events to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a task event to all connected clients. Satisfies
// task.EventFunc: it never blocks on a slow client.
func (h *Hub) Broadcast(e task.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("marshal event", "type", e.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop rather than block the broadcaster
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
