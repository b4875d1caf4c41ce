// internal/handler/websocket_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler upgrades clients onto the event stream.
type WebSocketHandler struct {
	bus      *EventBus
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler creates the WebSocket handler.
func NewWebSocketHandler(bus *EventBus, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With(zap.String("component", "websocket-handler")),
	}
}

// HandleConnection upgrades the request and keeps the client subscribed
// until it disconnects.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.bus.Register(conn)
	defer func() {
		h.bus.Unregister(conn)
		conn.Close()
	}()

	welcome := WSMessage{Type: "connected", Timestamp: time.Now()}
	if err := conn.WriteJSON(welcome); err != nil {
		h.logger.Warn("Failed to send welcome frame", zap.Error(err))
		return
	}

	// Drain the read side to detect client close. Inbound frames carry no
	// commands; the REST API does that.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
