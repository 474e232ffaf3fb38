package stubserver

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/realtime"
)

// Hub tracks the live notification sockets per organisation, the stub's
// counterpart to the platform's connection manager.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]string
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]string),
		logger: logger,
	}
}

// Register adds a socket for the organisation.
func (h *Hub) Register(orgID string, conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = orgID
	h.mu.Unlock()
	h.logger.Info("notification socket connected", zap.String("org_id", orgID))
}

// Unregister drops the socket.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	orgID, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if ok {
		h.logger.Info("notification socket disconnected", zap.String("org_id", orgID))
	}
}

// Broadcast pushes a message to every socket of the organisation. Write
// failures are logged and the socket is left for its read loop to reap.
func (h *Hub) Broadcast(orgID string, msg realtime.Message) {
	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.conns))
	for conn, id := range h.conns {
		if id == orgID {
			targets = append(targets, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range targets {
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Warn("failed to push notification", zap.Error(err))
		}
	}
}
