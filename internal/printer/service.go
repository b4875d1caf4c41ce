// internal/printer/service.go
package printer

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/discovery"
	"github.com/shashwatxx/zebra-printer-utility/internal/events"
	"github.com/shashwatxx/zebra-printer-utility/internal/model"
	"github.com/shashwatxx/zebra-printer-utility/internal/registry"
	"github.com/shashwatxx/zebra-printer-utility/internal/storage"
)

// Service is the facade over discovery, connection management and printing.
// Handlers and the CLI talk to this type only.
type Service struct {
	coordinator  *discovery.Coordinator
	manager      *Manager
	executor     *Executor
	configurator *Configurator
	registry     *registry.Registry
	jobs         *events.JobStore
	store        storage.Store
	logger       *zap.Logger

	mutex    sync.Mutex
	disposed bool
}

// NewService wires the facade together.
func NewService(
	coordinator *discovery.Coordinator,
	manager *Manager,
	executor *Executor,
	configurator *Configurator,
	reg *registry.Registry,
	jobs *events.JobStore,
	store storage.Store,
	logger *zap.Logger,
) *Service {
	return &Service{
		coordinator:  coordinator,
		manager:      manager,
		executor:     executor,
		configurator: configurator,
		registry:     reg,
		jobs:         jobs,
		store:        store,
		logger:       logger.With(zap.String("component", "printer-service")),
	}
}

// StartDiscovery begins a discovery session.
func (s *Service) StartDiscovery(ctx context.Context) (model.DiscoverySession, error) {
	if err := s.guard(); err != nil {
		return model.DiscoverySession{}, err
	}
	return s.coordinator.Start(ctx)
}

// StopDiscovery ends the running session early. Safe when idle.
func (s *Service) StopDiscovery() {
	s.coordinator.Stop()
}

// DiscoverySession returns the most recent session.
func (s *Service) DiscoverySession() (model.DiscoverySession, bool) {
	return s.coordinator.Session()
}

// Devices lists all printers known to the registry.
func (s *Service) Devices() []model.Device {
	return s.registry.List()
}

// Connect connects to the printer at address, or disconnects when address
// is already connected. On success the printer becomes the selected target
// and is remembered for the next start.
func (s *Service) Connect(ctx context.Context, address string, family model.PrinterFamily) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}

	connected, err := s.manager.Connect(ctx, address, family)
	if err != nil {
		return false, err
	}

	if connected {
		s.registry.Select(address)
		s.persist(func(prefs *storage.Preferences) {
			prefs.LastAddress = address
			prefs.LastFamily = family
		})
	} else {
		// Toggle path: the printer was connected and is now released.
		s.registry.ClearSelection()
	}
	return connected, nil
}

// Disconnect releases the active connection.
func (s *Service) Disconnect() error {
	err := s.manager.Disconnect()
	s.registry.ClearSelection()
	return err
}

// IsConnected probes the active connection for liveness.
func (s *Service) IsConnected() bool {
	return s.manager.IsConnected()
}

// ConnectedPrinter returns the selected printer, when one is connected.
func (s *Service) ConnectedPrinter() (model.Device, bool) {
	address := s.manager.Address()
	if address == "" {
		return model.Device{}, false
	}
	if device, ok := s.registry.Get(address); ok {
		return device, true
	}
	// Connected out of band, never discovered.
	return model.Device{
		Address:     address,
		Name:        address,
		IsWifi:      !model.IsBluetoothAddress(address),
		Status:      "Connected",
		Severity:    model.SeverityConnected,
		IsConnected: true,
	}, true
}

// Print sends a payload to the connected printer.
func (s *Service) Print(ctx context.Context, payload []byte) (uuid.UUID, error) {
	if err := s.guard(); err != nil {
		return uuid.Nil, err
	}
	return s.executor.Print(ctx, payload)
}

// SetDarkness adjusts print darkness and remembers the value.
func (s *Service) SetDarkness(darkness int) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.configurator.SetDarkness(darkness); err != nil {
		return err
	}
	s.persist(func(prefs *storage.Preferences) {
		d := darkness
		prefs.Darkness = &d
	})
	return nil
}

// SetMediaType configures media sensing and remembers the value.
func (s *Service) SetMediaType(media MediaType) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.configurator.SetMediaType(media); err != nil {
		return err
	}
	s.persist(func(prefs *storage.Preferences) {
		prefs.MediaType = string(media)
	})
	return nil
}

// Calibrate runs a media calibration pass on the connected printer.
func (s *Service) Calibrate() error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.configurator.Calibrate()
}

// SendSettings writes a raw settings string to the connected printer.
func (s *Service) SendSettings(settings string) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.configurator.SendSettings(settings)
}

// Jobs lists all print jobs, newest first.
func (s *Service) Jobs() []model.PrintJob {
	return s.jobs.List()
}

// Job returns one print job by ID.
func (s *Service) Job(id uuid.UUID) (model.PrintJob, bool) {
	return s.jobs.Get(id)
}

// LastPreferences returns the persisted printer preferences.
func (s *Service) LastPreferences() (storage.Preferences, error) {
	return s.store.Load()
}

// ForgetPreferences drops the persisted printer preferences.
func (s *Service) ForgetPreferences() error {
	return s.store.Clear()
}

// Reconnect connects to the printer remembered from the last run. A no-op
// when nothing was remembered.
func (s *Service) Reconnect(ctx context.Context) error {
	prefs, err := s.store.Load()
	if err != nil {
		return err
	}
	if prefs.LastAddress == "" {
		return nil
	}

	family := prefs.LastFamily
	if !family.Valid() {
		family = model.FamilySmart
	}
	s.logger.Info("Reconnecting to remembered printer",
		zap.String("address", prefs.LastAddress),
		zap.String("family", string(family)))

	if _, err := s.Connect(ctx, prefs.LastAddress, family); err != nil {
		return err
	}
	return nil
}

// Shutdown stops discovery, releases the connection and disposes the
// service. Further operations fail with a disposed error.
func (s *Service) Shutdown() {
	s.mutex.Lock()
	if s.disposed {
		s.mutex.Unlock()
		return
	}
	s.disposed = true
	s.mutex.Unlock()

	s.coordinator.Stop()
	if err := s.manager.Disconnect(); err != nil {
		s.logger.Warn("Disconnect during shutdown failed", zap.Error(err))
	}
	s.logger.Info("Printer service shut down")
}

func (s *Service) guard() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.disposed {
		return model.NewError(model.ErrDisposed, "printer service is shut down")
	}
	return nil
}

func (s *Service) persist(mutate func(*storage.Preferences)) {
	prefs, err := s.store.Load()
	if err != nil {
		s.logger.Warn("Cannot load preferences", zap.Error(err))
		prefs = storage.Preferences{}
	}
	mutate(&prefs)
	if err := s.store.Save(prefs); err != nil {
		s.logger.Warn("Cannot save preferences", zap.Error(err))
	}
}
