// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness and build information.
type HealthHandler struct {
	version   string
	startedAt time.Time
	bus       *EventBus
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(version string, bus *EventBus) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startedAt: time.Now(),
		bus:       bus,
	}
}

// Health reports service liveness.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		WSClients:     h.bus.ClientCount(),
	})
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	WSClients     int    `json:"ws_clients"`
}
