package activity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfmark/internal/domain"
	"pdfmark/internal/middleware"
	"pdfmark/internal/pkg/jwt"
)

func TestHub_PublishDelivers(t *testing.T) {
	hub := NewHub()
	c := hub.register(1)

	hub.Publish(Event{Type: EventFileUploaded, ActorID: 2, File: &domain.FileRecord{ID: 7}})

	select {
	case payload := <-c.send:
		var e Event
		require.NoError(t, json.Unmarshal(payload, &e))
		assert.Equal(t, EventFileUploaded, e.Type)
		assert.Equal(t, int64(7), e.File.ID)
		assert.False(t, e.At.IsZero())
	default:
		t.Fatal("expected an event")
	}
}

func TestHub_SlowClientDropsEvents(t *testing.T) {
	hub := NewHub()
	c := hub.register(1)

	for i := 0; i < sendBuffer+5; i++ {
		hub.Publish(Event{Type: EventFileEdited})
	}

	assert.Len(t, c.send, sendBuffer)
}

func TestHub_UnregisterAndClose(t *testing.T) {
	hub := NewHub()
	a := hub.register(1)
	b := hub.register(2)
	assert.Equal(t, 2, hub.GetOnlineCount())

	hub.unregister(a)
	hub.unregister(a)
	assert.Equal(t, 1, hub.GetOnlineCount())

	hub.Close()
	_, open := <-b.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.GetOnlineCount())

	late := hub.register(3)
	_, open = <-late.send
	assert.False(t, open)
}

func TestHandler_StreamsToAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := jwt.New("secret", time.Hour)
	hub := NewHub()
	defer hub.Close()

	r := gin.New()
	admin := r.Group("/api/admin", middleware.QueryTokenAuth(verifier), middleware.RequireAdmin())
	NewHandler(hub, nil).RegisterRoutes(admin)

	srv := httptest.NewServer(r)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/admin/events?token="

	userToken, err := verifier.GenerateToken(domain.Identity{UserID: 2, Username: "bob", Role: domain.RoleUser})
	require.NoError(t, err)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL+userToken, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminToken, err := verifier.GenerateToken(domain.Identity{UserID: 1, Username: "root", Role: domain.RoleAdmin})
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+adminToken, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.GetOnlineCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(Event{Type: EventFileEdited, ActorID: 1, File: &domain.FileRecord{ID: 42}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e Event
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, EventFileEdited, e.Type)
	assert.Equal(t, int64(42), e.File.ID)
}
