// internal/discovery/bluetooth/scanner.go
package bluetooth

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/shashwatxx/zebra-printer-utility/internal/discovery"
	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// Scanner discovers printers over the Bluetooth radio. Devices are
// announced by MAC address; the scan runs until stopped or the context
// ends.
type Scanner struct {
	adapter *bluetooth.Adapter
	logger  *zap.Logger

	mutex   sync.Mutex
	running bool
}

// NewScanner creates a Bluetooth scanner on the default adapter.
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{
		adapter: bluetooth.DefaultAdapter,
		logger:  logger.With(zap.String("source", "bluetooth")),
	}
}

// Name identifies the source.
func (s *Scanner) Name() string {
	return "bluetooth"
}

// Start enables the adapter and begins scanning in the background.
func (s *Scanner) Start(ctx context.Context, cb discovery.Callbacks) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	if err := s.adapter.Enable(); err != nil {
		pe := classifyAdapterError(err)
		go cb.Error(errorCode(pe), pe.Error())
		return nil
	}
	s.running = true

	go s.scan(ctx, cb)
	return nil
}

func (s *Scanner) scan(ctx context.Context, cb discovery.Callbacks) {
	context.AfterFunc(ctx, func() { s.Stop() })

	seen := make(map[string]bool)
	err := s.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		address := result.Address.String()
		if address == "" || seen[address] {
			return
		}
		seen[address] = true

		name := result.LocalName()
		if name == "" {
			name = address
		}

		s.logger.Debug("Bluetooth device found",
			zap.String("address", address),
			zap.String("name", name),
			zap.Int16("rssi", result.RSSI))

		cb.Found(model.Device{
			Address:  address,
			Name:     name,
			IsWifi:   false,
			Status:   "Disconnected",
			Severity: model.SeverityDisconnected,
		})
	})

	s.mutex.Lock()
	s.running = false
	s.mutex.Unlock()

	if err != nil {
		pe := classifyAdapterError(err)
		cb.Error(errorCode(pe), pe.Error())
		return
	}
	cb.Finished()
}

// Stop ends the scan. The Scan call unblocks and Finished is delivered.
func (s *Scanner) Stop() {
	s.mutex.Lock()
	running := s.running
	s.mutex.Unlock()

	if !running {
		return
	}
	if err := s.adapter.StopScan(); err != nil {
		s.logger.Warn("Failed to stop bluetooth scan", zap.Error(err))
	}
}

// errorCode maps a classified adapter error onto a discovery error code.
func errorCode(err error) int {
	if model.KindOf(err) == model.ErrPermissionDenied {
		return model.DiscoveryErrorLocation
	}
	return model.DiscoveryErrorBluetooth
}

// classifyAdapterError maps adapter failures onto the error taxonomy. The
// BlueZ and WinRT backends both surface a radio-off condition by message.
func classifyAdapterError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "bluetooth radio is currently disabled"),
		strings.Contains(msg, "powered off"),
		strings.Contains(msg, "adapter not available"):
		return model.WrapError(model.ErrValidation, "Bluetooth radio is currently disabled", err)
	case strings.Contains(msg, "permission"), strings.Contains(msg, "access denied"),
		strings.Contains(msg, "not authorized"):
		return model.WrapError(model.ErrPermissionDenied, "bluetooth access denied", err)
	default:
		return model.WrapError(model.ErrValidation, "bluetooth adapter error", err)
	}
}
