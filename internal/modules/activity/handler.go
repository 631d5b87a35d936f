package activity

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pdfmark/internal/logger"
	"pdfmark/internal/middleware"
	"pdfmark/internal/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler accepts websocket connections from the given origins. An empty
// list accepts any origin.
func NewHandler(hub *Hub, origins []string) *Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// RegisterRoutes mounts GET /events. The group must already authenticate
// the caller and require the admin role.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/events", h.HandleWebSocket)
}

// HandleWebSocket streams activity events.
// @Summary		Admin activity feed
// @Tags		Admin
// @Param		token	query	string	true	"Access token"
// @Success		101	"Switching protocols"
// @Failure		401	{object}		map[string]interface{} "Unauthorized"
// @Failure		403	{object}		map[string]interface{} "Admin only"
// @Router		/admin/events [GET]
func (h *Handler) HandleWebSocket(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warnw("websocket upgrade failed", "user_id", id.UserID, "error", err)
		return
	}

	cl := h.hub.register(id.UserID)
	logger.Log.Infow("activity feed connected", "user_id", id.UserID)

	go writeLoop(conn, cl)
	readLoop(conn)

	h.hub.unregister(cl)
	logger.Log.Infow("activity feed disconnected", "user_id", id.UserID)
}

// readLoop discards client messages and keeps the read deadline fresh.
func readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debugw("activity feed read error", "error", err)
			}
			return
		}
	}
}

func writeLoop(conn *websocket.Conn, cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case payload, ok := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
