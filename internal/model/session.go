// internal/model/session.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a discovery session.
type SessionStatus string

const (
	SessionIdle      SessionStatus = "IDLE"
	SessionScanning  SessionStatus = "SCANNING"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionError     SessionStatus = "ERROR"
)

// DiscoverySession tracks one logical discovery run. Terminal states are
// final for a given session ID; a new start creates a new session.
type DiscoverySession struct {
	ID           uuid.UUID     `json:"id"`
	Status       SessionStatus `json:"status"`
	Devices      []Device      `json:"devices"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	ErrorCode    int           `json:"error_code,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// IsTerminal reports whether the session has reached a final state.
func (s *DiscoverySession) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionError
}

// Discovery error codes, matching the wire-level codes reported to callers.
const (
	DiscoveryErrorGeneral   = -1
	DiscoveryErrorBluetooth = -2
	DiscoveryErrorLocation  = -3
)
