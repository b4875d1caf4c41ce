// internal/handler/event_bus.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// EventBus pushes reconciled events to connected WebSocket clients. It is
// registered as a sink on the reconciler, so clients see events in the same
// order state was mutated in.
type EventBus struct {
	mutex   sync.RWMutex
	clients map[*websocket.Conn]bool
	logger  *zap.Logger
}

// NewEventBus creates an empty bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger.With(zap.String("component", "event-bus")),
	}
}

// Register adds a WebSocket client.
func (b *EventBus) Register(conn *websocket.Conn) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.clients[conn] = true
	b.logger.Info("WebSocket client registered",
		zap.String("remote", conn.RemoteAddr().String()),
		zap.Int("clients", len(b.clients)))
}

// Unregister removes a WebSocket client.
func (b *EventBus) Unregister(conn *websocket.Conn) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if _, ok := b.clients[conn]; !ok {
		return
	}
	delete(b.clients, conn)
	b.logger.Info("WebSocket client unregistered",
		zap.String("remote", conn.RemoteAddr().String()),
		zap.Int("clients", len(b.clients)))
}

// Publish implements events.Sink. Clients that fail the write are dropped.
func (b *EventBus) Publish(event model.Event) {
	message := WSMessage{
		Type:      "event",
		Event:     &event,
		Timestamp: time.Now(),
	}

	b.mutex.RLock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for conn := range b.clients {
		conns = append(conns, conn)
	}
	b.mutex.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(message); err != nil {
			b.logger.Warn("WebSocket write failed, dropping client",
				zap.String("remote", conn.RemoteAddr().String()),
				zap.Error(err))
			conn.Close()
			b.Unregister(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *EventBus) ClientCount() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.clients)
}

// WSMessage is the envelope for every frame sent to WebSocket clients.
type WSMessage struct {
	Type      string       `json:"type"`
	Event     *model.Event `json:"event,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
