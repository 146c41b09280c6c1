package api

import (
	"context"
	"net/http"
	"time"

	domrepo "SimTape/internal/domain/repository"
	"SimTape/internal/service/ratelimit"
	"SimTape/internal/stream"
	xhttp "SimTape/pkg/http"
	xlogger "SimTape/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// dashboard is served from another origin in dev
	CheckOrigin: func(*http.Request) bool { return true },
}

// Connected reports whether the upstream candle source is live.
type Connected interface {
	IsConnected() bool
}

// StreamEchoHandler serves the WebSocket feed and operational endpoints.
type StreamEchoHandler struct {
	logger    *xlogger.Logger
	hub       *stream.Hub
	limiter   *ratelimit.Limiter
	storage   domrepo.Storage
	collector Connected
}

func NewStreamEchoHandler(logger *xlogger.Logger, hub *stream.Hub, storage domrepo.Storage, collector Connected) *StreamEchoHandler {
	return &StreamEchoHandler{
		logger:    logger,
		hub:       hub,
		limiter:   ratelimit.New(),
		storage:   storage,
		collector: collector,
	}
}

func (h *StreamEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
	e.GET("/health", h.Health)
}

// Serve upgrades the connection and hands it to the hub.
func (h *StreamEchoHandler) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", xlogger.Error(err))
		return nil // upgrader already wrote the error response
	}
	stream.NewClient(h.hub, conn, h.limiter)
	return nil
}

type healthStatus struct {
	Status    string `json:"status"`
	Stream    bool   `json:"stream"`
	Storage   string `json:"storage"`
	WSClients int    `json:"wsClients"`
}

func (h *StreamEchoHandler) Health(c echo.Context) error {
	st := healthStatus{
		Status:    "ok",
		Stream:    h.collector != nil && h.collector.IsConnected(),
		Storage:   "ok",
		WSClients: h.hub.ClientCount(),
	}
	if h.storage != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.storage.Health(ctx); err != nil {
			st.Status = "degraded"
			st.Storage = err.Error()
		}
	}
	if !st.Stream {
		st.Status = "degraded"
	}
	return xhttp.DataResponse(c, http.StatusOK, st)
}
