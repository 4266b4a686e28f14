// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	wstypes "carbon-portal/internal/domain/websocket"
	"carbon-portal/internal/navigation"
	"carbon-portal/internal/service/session"

	"go.uber.org/zap"
)

// Hub fans session events out to every open portal view. The portal serves a
// single user, so there is no per-identity routing.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	// registration and unregistration
	register   chan *Client
	unregister chan *Client

	broadcast chan *wstypes.WSMessage
	done      chan struct{}

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *wstypes.WSMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

// Attach hands a new client to the running hub.
func (h *Hub) Attach(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("view connected",
		zap.String("client_id", client.id),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]any{
		"client_id": client.id,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()

		h.logger.Debug("view disconnected",
			zap.String("client_id", client.id),
			zap.Int("total", len(h.clients)),
		)
	}
}

// BroadcastMessage sends msg to every connected view.
func (h *Hub) BroadcastMessage(msg *wstypes.WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.SendMessage(msg)
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// publish queues msg without blocking the caller.
func (h *Hub) publish(msg *wstypes.WSMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("broadcast queue full, dropping event", zap.String("type", string(msg.Type)))
	}
}

// Navigate tells every open view to go to path.
func (h *Hub) Navigate(_ context.Context, path string) {
	h.publish(wstypes.NewMessage(wstypes.EventTypeNavigate, wstypes.NavigateData{Path: path}))
}

// OnSessionEvent relays a provider event to the connected views.
func (h *Hub) OnSessionEvent(ev session.Event) {
	data := wstypes.SessionEventData{Identity: ev.Identity, Reason: ev.Reason}
	if ev.Identity != nil {
		data.Home = navigation.LandingFor(ev.Identity)
	}

	var eventType wstypes.EventType
	switch ev.Type {
	case session.EventReady:
		eventType = wstypes.EventTypeSessionReady
	case session.EventLogin:
		eventType = wstypes.EventTypeLogin
	case session.EventLogout:
		eventType = wstypes.EventTypeLogout
	case session.EventForceLogout:
		eventType = wstypes.EventTypeForceLogout
	default:
		return
	}
	h.publish(wstypes.NewMessage(eventType, data))
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}
