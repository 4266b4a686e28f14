package websocket

import (
	"context"
	"testing"
	"time"

	"carbon-portal/internal/domain/identity"
	wstypes "carbon-portal/internal/domain/websocket"
	"carbon-portal/internal/service/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func nextMessage(t *testing.T, h *Hub) *wstypes.WSMessage {
	t.Helper()
	select {
	case msg := <-h.broadcast:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message published")
		return nil
	}
}

func TestHub_OnSessionEvent(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))

	h.OnSessionEvent(session.Event{
		Type:     session.EventLogin,
		Identity: &identity.Identity{ID: "u3", Role: identity.RoleVerifier},
	})
	msg := nextMessage(t, h)
	assert.Equal(t, wstypes.EventTypeLogin, msg.Type)
	data, ok := msg.Data.(wstypes.SessionEventData)
	require.True(t, ok)
	assert.Equal(t, "/cva/dashboard", data.Home)

	h.OnSessionEvent(session.Event{Type: session.EventForceLogout, Reason: "expired"})
	msg = nextMessage(t, h)
	assert.Equal(t, wstypes.EventTypeForceLogout, msg.Type)
	assert.Equal(t, "expired", msg.Data.(wstypes.SessionEventData).Reason)

	h.OnSessionEvent(session.Event{Type: "session:unknown"})
	select {
	case msg := <-h.broadcast:
		t.Fatalf("unexpected message %s", msg.Type)
	default:
	}
}

func TestHub_Navigate(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	h.Navigate(context.Background(), "/login")

	msg := nextMessage(t, h)
	assert.Equal(t, wstypes.EventTypeNavigate, msg.Type)
	assert.Equal(t, wstypes.NavigateData{Path: "/login"}, msg.Data)
	assert.NotEmpty(t, msg.ID)
}

func TestHub_AttachAfterShutdown(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	err := h.Attach(NewClient(h, nil, zaptest.NewLogger(t)))
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.Zero(t, h.TotalClients())

	// publishing to a stopped hub must not block
	h.Navigate(context.Background(), "/login")
}

func TestHub_Attach(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	client := NewClient(h, nil, zaptest.NewLogger(t))
	require.NoError(t, h.Attach(client))
	assert.Eventually(t, func() bool { return h.TotalClients() == 1 }, time.Second, 10*time.Millisecond)

	select {
	case raw := <-client.send:
		assert.Contains(t, string(raw), string(wstypes.EventTypeConnected))
	case <-time.After(time.Second):
		t.Fatal("attached client got no greeting")
	}
}
