// internal/discovery/coordinator.go
package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// Coordinator runs discovery sessions. A session fans out to every
// registered source, dedupes announcements by address, and finishes when
// all sources finish, a source fails, the timeout fires, or the caller
// stops it. Whichever happens first wins; the others become no-ops.
type Coordinator struct {
	sources []Source
	bus     Publisher
	timeout time.Duration
	logger  *zap.Logger

	mutex     sync.Mutex
	session   *model.DiscoverySession
	announced map[string]bool
	active    int
	timer     *time.Timer
}

// NewCoordinator creates a coordinator over the given sources.
func NewCoordinator(sources []Source, bus Publisher, timeout time.Duration, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		sources: sources,
		bus:     bus,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "discovery")),
	}
}

// Start begins a new discovery session. Returns an AlreadyScanning error
// when a session is still running.
func (c *Coordinator) Start(ctx context.Context) (model.DiscoverySession, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session != nil && !c.session.IsTerminal() {
		return model.DiscoverySession{}, model.NewError(model.ErrAlreadyScanning, "discovery is already running")
	}

	session := &model.DiscoverySession{
		ID:        uuid.New(),
		Status:    model.SessionScanning,
		StartedAt: time.Now(),
	}
	c.session = session
	c.announced = make(map[string]bool)
	c.active = len(c.sources)

	c.logger.Info("Discovery session started",
		zap.String("session_id", session.ID.String()),
		zap.Int("sources", c.active))

	sessionID := session.ID
	for _, source := range c.sources {
		c.startSource(ctx, source, sessionID)
	}

	c.timer = time.AfterFunc(c.timeout, func() {
		c.logger.Info("Discovery session timeout reached",
			zap.String("session_id", sessionID.String()))
		c.stopSources()
		c.finalizeTimedOut(sessionID)
	})

	return *session, nil
}

func (c *Coordinator) startSource(ctx context.Context, source Source, sessionID uuid.UUID) {
	cb := Callbacks{
		Found: func(device model.Device) {
			c.handleFound(sessionID, device)
		},
		Gone: func(address string) {
			c.handleGone(sessionID, address)
		},
		Finished: func() {
			c.handleFinished(sessionID, source.Name())
		},
		Error: func(code int, message string) {
			c.handleError(sessionID, source.Name(), code, message)
		},
	}

	if err := source.Start(ctx, cb); err != nil {
		c.logger.Error("Discovery source failed to start",
			zap.String("source", source.Name()),
			zap.Error(err))
		// Treat a synchronous start failure like an async source error.
		go cb.Error(model.DiscoveryErrorGeneral, err.Error())
	}
}

// Stop ends the running session early. Safe to call when idle.
func (c *Coordinator) Stop() {
	c.mutex.Lock()
	if c.session == nil || c.session.IsTerminal() {
		c.mutex.Unlock()
		return
	}
	sessionID := c.session.ID
	c.mutex.Unlock()

	c.logger.Info("Discovery session stop requested",
		zap.String("session_id", sessionID.String()))
	c.stopSources()
	c.finalizeCompleted(sessionID)
}

// Session returns a copy of the most recent session, false when none ran.
func (c *Coordinator) Session() (model.DiscoverySession, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.session == nil {
		return model.DiscoverySession{}, false
	}
	return *c.session, true
}

// IsScanning reports whether a session is currently running.
func (c *Coordinator) IsScanning() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.session != nil && !c.session.IsTerminal()
}

func (c *Coordinator) handleFound(sessionID uuid.UUID, device model.Device) {
	c.mutex.Lock()
	if !c.sessionActive(sessionID) {
		c.mutex.Unlock()
		return
	}
	if device.Address == "" || c.announced[device.Address] {
		c.mutex.Unlock()
		return
	}
	c.announced[device.Address] = true
	c.session.Devices = append(c.session.Devices, device)
	c.mutex.Unlock()

	c.bus.Publish(model.Event{
		Kind:      model.EventPrinterFound,
		Device:    &device,
		Address:   device.Address,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
}

func (c *Coordinator) handleGone(sessionID uuid.UUID, address string) {
	c.mutex.Lock()
	if !c.sessionActive(sessionID) || !c.announced[address] {
		c.mutex.Unlock()
		return
	}
	delete(c.announced, address)
	for i, d := range c.session.Devices {
		if d.Address == address {
			c.session.Devices = append(c.session.Devices[:i], c.session.Devices[i+1:]...)
			break
		}
	}
	c.mutex.Unlock()

	c.bus.Publish(model.Event{
		Kind:      model.EventPrinterRemoved,
		Address:   address,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
}

func (c *Coordinator) handleFinished(sessionID uuid.UUID, sourceName string) {
	c.mutex.Lock()
	if !c.sessionActive(sessionID) {
		c.mutex.Unlock()
		return
	}
	c.active--
	remaining := c.active
	c.mutex.Unlock()

	c.logger.Debug("Discovery source finished",
		zap.String("source", sourceName),
		zap.Int("remaining", remaining))

	if remaining <= 0 {
		c.finalizeCompleted(sessionID)
	}
}

func (c *Coordinator) handleError(sessionID uuid.UUID, sourceName string, code int, message string) {
	c.logger.Error("Discovery source error",
		zap.String("source", sourceName),
		zap.Int("code", code),
		zap.String("message", message))
	c.stopSources()
	c.finalizeError(sessionID, code, message)
}

// sessionActive must be called with the mutex held.
func (c *Coordinator) sessionActive(sessionID uuid.UUID) bool {
	return c.session != nil && c.session.ID == sessionID && !c.session.IsTerminal()
}

// finalizeTimedOut closes a session that ran out the clock. A scan that
// found nothing by the deadline is an error, not an empty success.
func (c *Coordinator) finalizeTimedOut(sessionID uuid.UUID) {
	c.mutex.Lock()
	empty := c.sessionActive(sessionID) && len(c.session.Devices) == 0
	c.mutex.Unlock()

	if empty {
		c.finalizeError(sessionID, model.DiscoveryErrorGeneral, "no devices found")
		return
	}
	c.finalizeCompleted(sessionID)
}

func (c *Coordinator) finalizeCompleted(sessionID uuid.UUID) {
	c.mutex.Lock()
	if !c.sessionActive(sessionID) {
		c.mutex.Unlock()
		return
	}
	now := time.Now()
	c.session.Status = model.SessionCompleted
	c.session.CompletedAt = &now
	found := len(c.session.Devices)
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mutex.Unlock()

	c.logger.Info("Discovery session completed",
		zap.String("session_id", sessionID.String()),
		zap.Int("devices_found", found))

	c.bus.Publish(model.Event{
		Kind:      model.EventDiscoveryDone,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
}

func (c *Coordinator) finalizeError(sessionID uuid.UUID, code int, message string) {
	c.mutex.Lock()
	if !c.sessionActive(sessionID) {
		c.mutex.Unlock()
		return
	}
	now := time.Now()
	c.session.Status = model.SessionError
	c.session.CompletedAt = &now
	c.session.ErrorCode = code
	c.session.ErrorMessage = message
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mutex.Unlock()

	c.bus.Publish(model.Event{
		Kind:      model.EventDiscoveryError,
		SessionID: sessionID,
		ErrorCode: code,
		ErrorText: message,
		Timestamp: time.Now(),
	})
}

func (c *Coordinator) stopSources() {
	for _, source := range c.sources {
		source.Stop()
	}
}
