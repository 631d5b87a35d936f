// Package activity pushes file events to connected admin dashboards.
package activity

import (
	"encoding/json"
	"sync"
	"time"

	"pdfmark/internal/domain"
	"pdfmark/internal/logger"
)

const (
	EventFileUploaded = "file_uploaded"
	EventFileEdited   = "file_edited"
)

type Event struct {
	Type    string             `json:"type"`
	ActorID int64              `json:"actor_id"`
	File    *domain.FileRecord `json:"file"`
	At      time.Time          `json:"at"`
}

const sendBuffer = 16

type client struct {
	userID int64
	send   chan []byte
}

// Hub fans events out to every connected client. Publish never blocks: a
// client whose buffer is full misses the event.
type Hub struct {
	clients map[*client]struct{}
	mutex   sync.RWMutex
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) register(userID int64) *client {
	c := &client{userID: userID, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		close(c.send)
		return c
	}
	h.clients[c] = struct{}{}
	return c
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		logger.Log.Errorw("activity event marshal failed", "type", e.Type, "error", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			logger.Log.Warnw("activity event dropped for slow client", "user_id", c.userID, "type", e.Type)
		}
	}
}

func (h *Hub) GetOnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

// Close disconnects every client. Later registrations are closed at once.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.closed = true
}
