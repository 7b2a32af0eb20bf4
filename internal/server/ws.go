package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/projecto/internal/stage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler broadcasts stage changes and action feedback to UI
// clients over WebSocket. It implements stage.Notifier.
type EventsHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewEventsHandler creates an EventsHandler with no clients.
func NewEventsHandler() *EventsHandler {
	return &EventsHandler{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// StageChanged implements stage.Notifier.
func (h *EventsHandler) StageChanged(old, new stage.State) {
	h.send(map[string]any{
		"type":      "stage_changed",
		"old":       old,
		"new":       new,
		"timestamp": time.Now().UnixMilli(),
	})
}

// ActionFeedback implements stage.Notifier.
func (h *EventsHandler) ActionFeedback(action string) {
	h.send(map[string]any{
		"type":      "action_feedback",
		"action":    action,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (h *EventsHandler) send(payload map[string]any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		// Best effort: a dead client is reaped by its read loop.
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}
