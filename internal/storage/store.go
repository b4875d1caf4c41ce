// internal/storage/store.go
package storage

import (
	"time"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// Preferences holds the operator settings that survive restarts: the last
// connected printer and the device settings last applied to it.
type Preferences struct {
	LastAddress string              `json:"last_address,omitempty"`
	LastFamily  model.PrinterFamily `json:"last_family,omitempty"`
	Darkness    *int                `json:"darkness,omitempty"`
	MediaType   string              `json:"media_type,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Store persists printer preferences.
type Store interface {
	// Load reads the saved preferences. A store with nothing saved returns
	// empty preferences and no error.
	Load() (Preferences, error)

	// Save writes the preferences, replacing whatever was stored.
	Save(prefs Preferences) error

	// Clear forgets the saved preferences. Clearing an empty store is a
	// no-op.
	Clear() error
}
