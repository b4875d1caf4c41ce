// internal/printer/manager.go
package printer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
	"github.com/shashwatxx/zebra-printer-utility/internal/transport"
)

// Publisher enqueues events for the reconcile loop.
type Publisher interface {
	Publish(event model.Event)
}

// TransportOpener builds transports by printer address. Satisfied by
// transport.Opener.
type TransportOpener interface {
	For(address string, family model.PrinterFamily) transport.Transport
}

// connectProbe is written to the open transport to check liveness. Printers
// ignore unknown plain text outside a format.
var connectProbe = []byte("Test")

// Manager owns the single active printer connection. Connecting to the
// address that is already connected disconnects instead, so one entry point
// serves as a toggle. At most one connection attempt runs at a time.
type Manager struct {
	opener           TransportOpener
	bus              Publisher
	connectTimeout   time.Duration
	disconnectSettle time.Duration
	logger           *zap.Logger

	mutex      sync.Mutex
	current    transport.Transport
	address    string
	family     model.PrinterFamily
	connecting bool
}

// NewManager creates a connection manager.
func NewManager(opener TransportOpener, bus Publisher, connectTimeout, disconnectSettle time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		opener:           opener,
		bus:              bus,
		connectTimeout:   connectTimeout,
		disconnectSettle: disconnectSettle,
		logger:           logger.With(zap.String("component", "connection-manager")),
	}
}

// Connect establishes a connection to the printer at address. When address
// is the currently connected printer, the call disconnects it instead and
// returns with connected=false.
func (m *Manager) Connect(ctx context.Context, address string, family model.PrinterFamily) (connected bool, err error) {
	if address == "" {
		return false, model.NewError(model.ErrValidation, "printer address is empty")
	}
	if !family.Valid() {
		return false, model.NewError(model.ErrValidation, "unknown printer family: "+string(family))
	}

	m.mutex.Lock()
	if m.connecting {
		m.mutex.Unlock()
		return false, model.NewError(model.ErrValidation, "a connection attempt is already in progress")
	}

	if m.current != nil && m.address == address {
		m.mutex.Unlock()
		return false, m.Disconnect()
	}

	var previous string
	if m.current != nil {
		// Switching printers: drop the old connection first.
		previous = m.address
		m.closeCurrentLocked()
	}
	m.connecting = true
	m.mutex.Unlock()

	if previous != "" {
		m.publishStatus(previous, "Disconnected", model.SeverityDisconnected)
		// The printer needs the settle pause to free the channel before
		// the next dial, same as a plain disconnect.
		time.Sleep(m.disconnectSettle)
	}

	defer func() {
		m.mutex.Lock()
		m.connecting = false
		m.mutex.Unlock()
	}()

	m.publishStatus(address, "Connecting", model.SeverityConnecting)
	m.logger.Info("Connecting to printer",
		zap.String("address", address),
		zap.String("family", string(family)))

	t := m.opener.For(address, family)

	dialCtx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	if err := t.Open(dialCtx); err != nil {
		m.publishStatus(address, "Disconnected", model.SeverityDisconnected)
		if errors.Is(err, context.DeadlineExceeded) {
			return false, model.WrapError(model.ErrTimeout, "connection to "+address+" timed out", err)
		}
		return false, model.WrapError(model.ErrConnectionFailed, "failed to connect to "+address, err)
	}

	m.mutex.Lock()
	m.current = t
	m.address = address
	m.family = family
	m.mutex.Unlock()

	m.publishStatus(address, "Connected", model.SeverityConnected)
	m.logger.Info("Printer connected", zap.String("address", address))
	return true, nil
}

// Disconnect tears down the active connection. A settle pause follows the
// close so the printer frees the channel before any reconnect. Safe to call
// when nothing is connected.
func (m *Manager) Disconnect() error {
	m.mutex.Lock()
	if m.current == nil {
		m.mutex.Unlock()
		return nil
	}
	address := m.address
	err := m.closeCurrentLocked()
	m.mutex.Unlock()

	time.Sleep(m.disconnectSettle)

	m.publishStatus(address, "Disconnected", model.SeverityDisconnected)
	m.logger.Info("Printer disconnected", zap.String("address", address))
	return err
}

// closeCurrentLocked must be called with the mutex held.
func (m *Manager) closeCurrentLocked() error {
	err := m.current.Close()
	if err != nil {
		m.logger.Warn("Error closing transport",
			zap.String("address", m.address), zap.Error(err))
	}
	m.current = nil
	m.address = ""
	m.family = ""
	return err
}

// IsConnected probes the connection by writing a short test payload. A
// failed write demotes the connection to disconnected.
func (m *Manager) IsConnected() bool {
	m.mutex.Lock()
	t := m.current
	address := m.address
	m.mutex.Unlock()

	if t == nil {
		return false
	}

	if _, err := t.Write(connectProbe); err != nil {
		m.logger.Warn("Connection probe failed, demoting",
			zap.String("address", address), zap.Error(err))
		m.demote(address, t)
		return false
	}
	return true
}

// Current returns the active transport and its identity.
func (m *Manager) Current() (transport.Transport, string, model.PrinterFamily, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.current == nil {
		return nil, "", "", false
	}
	return m.current, m.address, m.family, true
}

// Address returns the connected printer address, empty when none.
func (m *Manager) Address() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.address
}

// demote drops a connection that failed mid-use.
func (m *Manager) demote(address string, t transport.Transport) {
	m.mutex.Lock()
	if m.current == t {
		m.closeCurrentLocked()
	}
	m.mutex.Unlock()
	m.publishStatus(address, "Disconnected", model.SeverityDisconnected)
}

func (m *Manager) publishStatus(address, status string, severity model.StatusSeverity) {
	m.bus.Publish(model.Event{
		Kind:      model.EventStatusChanged,
		Address:   address,
		Status:    status,
		Severity:  severity,
		Timestamp: time.Now(),
	})
}
