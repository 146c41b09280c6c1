// Package stream fans candle updates out to dashboard WebSocket clients.
package stream

import (
	"encoding/json"
	"sync"

	"SimTape/internal/domain/models"
	domrepo "SimTape/internal/domain/repository"
	"SimTape/pkg/logger"
)

// Hub tracks connected clients and broadcasts candle updates. Slow clients
// are disconnected rather than allowed to stall the fan-out.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     *logger.Logger
	metrics domrepo.Metrics
}

func NewHub(log *logger.Logger, metrics domrepo.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log,
		metrics: metrics,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("ws client connected", logger.Int("clients", n))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("ws client disconnected", logger.Int("clients", n))
}

// Broadcast sends a candle update to every subscribed client.
func (h *Hub) Broadcast(c *models.Candle) {
	payload, err := json.Marshal(wsEvent{Type: "candle", Data: c})
	if err != nil {
		h.metrics.RecordError("ws_marshal")
		return
	}

	h.mu.RLock()
	var stale []*Client
	for cl := range h.clients {
		if !cl.wants(c.Symbol) {
			continue
		}
		select {
		case cl.send <- payload:
		default:
			// client cannot keep up
			stale = append(stale, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range stale {
		h.metrics.RecordError("ws_slow_client")
		h.unregister(cl)
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type wsEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var _ domrepo.Broadcaster = (*Hub)(nil)
