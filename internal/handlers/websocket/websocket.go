// internal/handlers/websocket/websocket.go
package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"carbon-portal/internal/domain/identity"
	wstypes "carbon-portal/internal/domain/websocket"
	"carbon-portal/internal/pkg/response"
	ws "carbon-portal/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header (non-browser tools)
// and browser requests from the portal's own host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// SessionViewer returns the current session as shown to views.
type SessionViewer interface {
	View(ctx context.Context) identity.SessionView
}

type WebSocketHandler struct {
	hub      *ws.Hub
	sessions SessionViewer
	logger   *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, sessions SessionViewer, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleConnection upgrades GET /ws/session and streams session events.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, h.logger)
	if err := h.hub.Attach(client); err != nil {
		h.logger.Warn("websocket hub unavailable", zap.Error(err))
		conn.Close()
		return
	}

	// current state first, so a fresh view does not wait for the next event
	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeSessionState, h.sessions.View(c.Request.Context())))

	go client.WritePump()
	go client.ReadPump()
}

// GetStats returns WebSocket connection statistics
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, "websocket stats", gin.H{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now().UTC(),
	})
}
