// internal/transport/transport.go
package transport

import (
	"context"
	"time"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// Transport is a byte channel to a physical printer. Implementations are
// safe for concurrent use; Write and QueryStatus serialize internally.
type Transport interface {
	// Open establishes the channel. Opening an already-open transport is an
	// error; callers own the open/close lifecycle.
	Open(ctx context.Context) error

	// Close tears the channel down. Closing a closed transport is a no-op.
	Close() error

	// Write sends raw bytes to the printer.
	Write(data []byte) (int, error)

	// QueryStatus asks the printer for its host status telemetry. Returns
	// an error when the device does not answer within the context deadline.
	QueryStatus(ctx context.Context) (*HostStatus, error)

	// IsOpen reports whether the channel is currently established.
	IsOpen() bool

	// Kind identifies the underlying channel type.
	Kind() model.TransportKind

	// Address returns the printer address this transport targets.
	Address() string

	// Stats returns a snapshot of transfer counters.
	Stats() Stats
}

// Stats holds transfer counters for a transport.
type Stats struct {
	BytesWritten int64     `json:"bytes_written"`
	WriteCount   int64     `json:"write_count"`
	OpenedAt     time.Time `json:"opened_at"`
	LastActivity time.Time `json:"last_activity"`
}
