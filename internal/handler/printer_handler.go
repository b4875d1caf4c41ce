// internal/handler/printer_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
	"github.com/shashwatxx/zebra-printer-utility/internal/printer"
)

// PrinterHandler exposes discovery, connection and print operations over
// REST.
type PrinterHandler struct {
	service *printer.Service
	logger  *zap.Logger
}

// NewPrinterHandler creates the printer handler.
func NewPrinterHandler(service *printer.Service, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		service: service,
		logger:  logger.With(zap.String("component", "printer-handler")),
	}
}

// StartDiscovery begins a discovery session.
// POST /api/v1/discovery/start
func (h *PrinterHandler) StartDiscovery(c *gin.Context) {
	session, err := h.service.StartDiscovery(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: session})
}

// StopDiscovery ends the running session early.
// POST /api/v1/discovery/stop
func (h *PrinterHandler) StopDiscovery(c *gin.Context) {
	h.service.StopDiscovery()
	c.JSON(http.StatusOK, APIResponse{Success: true})
}

// GetDiscoverySession returns the most recent session.
// GET /api/v1/discovery/session
func (h *PrinterHandler) GetDiscoverySession(c *gin.Context) {
	session, ok := h.service.DiscoverySession()
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "no discovery session has run"})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: session})
}

// ListPrinters returns every printer the registry knows.
// GET /api/v1/printers
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.service.Devices()})
}

// GetConnectedPrinter returns the selected printer.
// GET /api/v1/printers/connected
func (h *PrinterHandler) GetConnectedPrinter(c *gin.Context) {
	device, ok := h.service.ConnectedPrinter()
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "no printer is connected"})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: device})
}

// Connect connects to a printer, or disconnects when the address is the
// connected one.
// POST /api/v1/printers/connect
func (h *PrinterHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Family == "" {
		req.Family = model.FamilySmart
	}

	connected, err := h.service.Connect(c.Request.Context(), req.Address, req.Family)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: ConnectResponse{Connected: connected, Address: req.Address}})
}

// Disconnect releases the active connection.
// POST /api/v1/printers/disconnect
func (h *PrinterHandler) Disconnect(c *gin.Context) {
	if err := h.service.Disconnect(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true})
}

// GetConnectionStatus probes the connection for liveness.
// GET /api/v1/printers/status
func (h *PrinterHandler) GetConnectionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: StatusResponse{Connected: h.service.IsConnected()}})
}

// Print sends a payload to the connected printer.
// POST /api/v1/print
func (h *PrinterHandler) Print(c *gin.Context) {
	var req PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	jobID, err := h.service.Print(c.Request.Context(), []byte(req.Data))
	if err != nil {
		h.failWithJob(c, jobID, err)
		return
	}

	job, _ := h.service.Job(jobID)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: job})
}

// ListJobs returns all print jobs, newest first.
// GET /api/v1/jobs
func (h *PrinterHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.service.Jobs()})
}

// GetJob returns one print job.
// GET /api/v1/jobs/:id
func (h *PrinterHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid job id"})
		return
	}
	job, ok := h.service.Job(id)
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "job not found"})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: job})
}

// SetDarkness adjusts print darkness.
// POST /api/v1/settings/darkness
func (h *PrinterHandler) SetDarkness(c *gin.Context) {
	var req DarknessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}
	if err := h.service.SetDarkness(req.Darkness); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true})
}

// SetMediaType configures media sensing.
// POST /api/v1/settings/media
func (h *PrinterHandler) SetMediaType(c *gin.Context) {
	var req MediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}
	if err := h.service.SetMediaType(printer.MediaType(req.Media)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true})
}

// Calibrate runs a media calibration pass.
// POST /api/v1/settings/calibrate
func (h *PrinterHandler) Calibrate(c *gin.Context) {
	if err := h.service.Calibrate(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true})
}

// SendSettings writes a raw settings string to the printer.
// POST /api/v1/settings/raw
func (h *PrinterHandler) SendSettings(c *gin.Context) {
	var req RawSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}
	if err := h.service.SendSettings(req.Settings); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true})
}

// ForgetPreferences drops the remembered printer and settings.
// DELETE /api/v1/settings/preferences
func (h *PrinterHandler) ForgetPreferences(c *gin.Context) {
	if err := h.service.ForgetPreferences(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true})
}

func (h *PrinterHandler) fail(c *gin.Context, err error) {
	h.failWithJob(c, uuid.Nil, err)
}

func (h *PrinterHandler) failWithJob(c *gin.Context, jobID uuid.UUID, err error) {
	status := statusForError(err)
	resp := APIResponse{Success: false, Error: err.Error()}
	if jobID != uuid.Nil {
		if job, ok := h.service.Job(jobID); ok {
			resp.Data = job
		}
	}
	h.logger.Warn("Request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err))
	c.JSON(status, resp)
}

func statusForError(err error) int {
	switch model.KindOf(err) {
	case model.ErrValidation:
		return http.StatusBadRequest
	case model.ErrPermissionDenied:
		return http.StatusForbidden
	case model.ErrAlreadyScanning, model.ErrNotConnected:
		return http.StatusConflict
	case model.ErrTimeout:
		return http.StatusGatewayTimeout
	case model.ErrConnectionFailed, model.ErrConnectionLost, model.ErrPrintFault:
		return http.StatusBadGateway
	case model.ErrDisposed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// APIResponse is the envelope for every REST response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ConnectRequest asks to connect to (or toggle off) a printer.
type ConnectRequest struct {
	Address string              `json:"address" binding:"required"`
	Family  model.PrinterFamily `json:"family"`
}

// ConnectResponse reports the post-call connection state.
type ConnectResponse struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address"`
}

// StatusResponse reports connection liveness.
type StatusResponse struct {
	Connected bool `json:"connected"`
}

// PrintRequest carries the raw print payload.
type PrintRequest struct {
	Data string `json:"data" binding:"required"`
}

// DarknessRequest sets print darkness.
type DarknessRequest struct {
	Darkness int `json:"darkness"`
}

// MediaRequest sets the media type.
type MediaRequest struct {
	Media string `json:"media" binding:"required"`
}

// RawSettingsRequest carries a raw settings string.
type RawSettingsRequest struct {
	Settings string `json:"settings" binding:"required"`
}
