// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/handler"
	"github.com/shashwatxx/zebra-printer-utility/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Printer   *handler.PrinterHandler
	WebSocket *handler.WebSocketHandler
	Health    *handler.HealthHandler
}

// Setup builds the gin engine with middleware and all routes mounted.
func Setup(h Handlers, corsOrigins []string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogging(logger))
	router.Use(middleware.CORS(corsOrigins))

	router.GET("/health", h.Health.Health)
	router.GET("/ws", h.WebSocket.HandleConnection)

	v1 := router.Group("/api/v1")
	{
		discovery := v1.Group("/discovery")
		{
			discovery.POST("/start", h.Printer.StartDiscovery)
			discovery.POST("/stop", h.Printer.StopDiscovery)
			discovery.GET("/session", h.Printer.GetDiscoverySession)
		}

		printers := v1.Group("/printers")
		{
			printers.GET("", h.Printer.ListPrinters)
			printers.GET("/connected", h.Printer.GetConnectedPrinter)
			printers.GET("/status", h.Printer.GetConnectionStatus)
			printers.POST("/connect", h.Printer.Connect)
			printers.POST("/disconnect", h.Printer.Disconnect)
		}

		v1.POST("/print", h.Printer.Print)
		v1.GET("/jobs", h.Printer.ListJobs)
		v1.GET("/jobs/:id", h.Printer.GetJob)

		settings := v1.Group("/settings")
		{
			settings.POST("/darkness", h.Printer.SetDarkness)
			settings.POST("/media", h.Printer.SetMediaType)
			settings.POST("/calibrate", h.Printer.Calibrate)
			settings.POST("/raw", h.Printer.SendSettings)
			settings.DELETE("/preferences", h.Printer.ForgetPreferences)
		}
	}

	return router
}
