package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const maxConnections = 64

// Hub pushes engine events to connected dashboard WebSockets. Connections
// live in a mutex-guarded set; writes that fail evict the connection.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]bool),
		logger: logger,
	}
}

// Add registers a dashboard connection.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.conns) >= maxConnections {
		h.logger.Warnf("Max dashboard connections reached, rejecting new socket")
		_ = conn.Close()
		return
	}
	h.conns[conn] = true
	h.logger.Infof("Dashboard connected (total: %d)", len(h.conns))
}

// Remove drops a dashboard connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	h.logger.Infof("Dashboard disconnected (remaining: %d)", len(h.conns))
}

// Publish broadcasts the event to all connected dashboards.
func (h *Hub) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Errorf("Marshal event %s failed: %v", ev.Name, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Errorf("WebSocket write failed, dropping connection: %v", err)
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}
