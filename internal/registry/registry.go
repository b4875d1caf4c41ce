// internal/registry/registry.go
package registry

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// Registry is the in-memory table of discovered printers, keyed by address.
// One printer at a time may be selected as the connection target.
type Registry struct {
	mutex    sync.RWMutex
	devices  map[string]model.Device
	selected string
	logger   *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		devices: make(map[string]model.Device),
		logger:  logger.With(zap.String("component", "registry")),
	}
}

// Upsert adds or refreshes a device. Returns true when the address was not
// previously known.
func (r *Registry) Upsert(device model.Device) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, known := r.devices[device.Address]
	if known {
		// Preserve connection state across re-announcements.
		existing := r.devices[device.Address]
		device.IsConnected = existing.IsConnected
		device.Status = existing.Status
		device.Severity = existing.Severity
	}
	r.devices[device.Address] = device

	if !known {
		r.logger.Debug("Device registered",
			zap.String("address", device.Address),
			zap.String("name", device.Name),
			zap.Bool("is_wifi", device.IsWifi))
	}
	return !known
}

// Remove deletes a device. When the removed device was selected, the
// selection is cleared. Returns true when the address was known.
func (r *Registry) Remove(address string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, known := r.devices[address]; !known {
		return false
	}
	delete(r.devices, address)
	if r.selected == address {
		r.selected = ""
	}
	r.logger.Debug("Device removed", zap.String("address", address))
	return true
}

// UpdateStatus sets the status line of a known device. Unknown addresses
// are ignored.
func (r *Registry) UpdateStatus(address, status string, severity model.StatusSeverity) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	device, known := r.devices[address]
	if !known {
		return false
	}
	device.Status = status
	device.Severity = severity
	device.IsConnected = severity == model.SeverityConnected
	r.devices[address] = device
	return true
}

// Select marks a device as the connection target. Unknown addresses may be
// selected: a caller can connect to a printer it knows out of band.
func (r *Registry) Select(address string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.selected = address
}

// ClearSelection drops the current selection.
func (r *Registry) ClearSelection() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.selected = ""
}

// SelectedAddress returns the currently selected address, empty when none.
func (r *Registry) SelectedAddress() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.selected
}

// Get returns a device by address.
func (r *Registry) Get(address string) (model.Device, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	device, ok := r.devices[address]
	return device, ok
}

// List returns all known devices sorted by address.
func (r *Registry) List() []model.Device {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]model.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Count returns the number of known devices.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.devices)
}

// Clear empties the registry and drops the selection.
func (r *Registry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.devices = make(map[string]model.Device)
	r.selected = ""
}
