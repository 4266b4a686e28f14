// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"carbon-portal/internal/domain/identity"

	"github.com/oklog/ulid/v2"
)

// EventType represents the real-time event types pushed to portal views
type EventType string

const (
	// Connection events
	EventTypePing      EventType = "ping"
	EventTypePong      EventType = "pong"
	EventTypeConnected EventType = "connected"
	EventTypeError     EventType = "error"

	// Session events (server -> client)
	EventTypeSessionState EventType = "session:state"
	EventTypeSessionReady EventType = "session:ready"
	EventTypeLogin        EventType = "session:login"
	EventTypeLogout       EventType = "session:logout"
	EventTypeForceLogout  EventType = "session:force_logout"

	// Navigation (server -> client)
	EventTypeNavigate EventType = "navigate"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id,omitempty"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SessionEventData for session events
type SessionEventData struct {
	Identity *identity.Identity `json:"identity,omitempty"`
	Home     string             `json:"home,omitempty"`
	Reason   string             `json:"reason,omitempty"`
}

// NavigateData tells every open view to move to Path
type NavigateData struct {
	Path string `json:"path"`
}

func NewMessage(eventType EventType, data any) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
