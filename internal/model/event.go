// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventKind tags an asynchronous notification arriving from a discovery
// source, the connection manager, or the print executor.
type EventKind string

const (
	EventPrinterFound   EventKind = "PRINTER_FOUND"
	EventPrinterRemoved EventKind = "PRINTER_REMOVED"
	EventStatusChanged  EventKind = "STATUS_CHANGED"
	EventDiscoveryDone  EventKind = "DISCOVERY_DONE"
	EventDiscoveryError EventKind = "DISCOVERY_ERROR"
	EventPrintComplete  EventKind = "PRINT_COMPLETE"
	EventPrintError     EventKind = "PRINT_ERROR"
)

// Event is the single envelope for all asynchronous signals. Producers only
// enqueue events; the reconciler applies them to shared state in arrival
// order.
type Event struct {
	Kind      EventKind      `json:"kind"`
	Device    *Device        `json:"device,omitempty"`
	Address   string         `json:"address,omitempty"`
	Status    string         `json:"status,omitempty"`
	Severity  StatusSeverity `json:"severity,omitempty"`
	SessionID uuid.UUID      `json:"session_id,omitempty"`
	JobID     uuid.UUID      `json:"job_id,omitempty"`
	Verified  bool           `json:"verified,omitempty"`
	ErrorCode int            `json:"error_code,omitempty"`
	ErrorText string         `json:"error_text,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
