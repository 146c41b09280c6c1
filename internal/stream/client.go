package stream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SimTape/internal/service/ratelimit"
	"SimTape/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// inbound control messages per client
	inboundBurst   = 10
	inboundPerSec  = 2
	sendBufferSize = 256
)

// Client is one dashboard WebSocket connection. An empty subscription set
// means "all symbols".
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *ratelimit.Limiter
	key     string

	mu      sync.RWMutex
	symbols map[string]struct{}
}

// NewClient attaches a connection to the hub and starts its pumps.
func NewClient(hub *Hub, conn *websocket.Conn, limiter *ratelimit.Limiter) *Client {
	c := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: limiter,
		key:     conn.RemoteAddr().String(),
		symbols: make(map[string]struct{}),
	}
	hub.register(c)
	go c.writePump()
	go c.readPump()
	return c
}

func (c *Client) wants(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.symbols) == 0 {
		return true
	}
	_, ok := c.symbols[symbol]
	return ok
}

type inboundMsg struct {
	Type    string   `json:"type"` // subscribe | unsubscribe
	Symbols []string `json:"symbols"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("ws read error", logger.Error(err))
			}
			return
		}
		if c.limiter != nil && !c.limiter.Allow(c.key, inboundBurst, inboundPerSec) {
			c.hub.metrics.RecordError("ws_inbound_throttle")
			continue
		}
		var msg inboundMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg inboundMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.Type {
	case "subscribe":
		for _, s := range msg.Symbols {
			c.symbols[s] = struct{}{}
		}
	case "unsubscribe":
		for _, s := range msg.Symbols {
			delete(c.symbols, s)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
