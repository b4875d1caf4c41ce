// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a print job.
type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobPrinting  JobStatus = "PRINTING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// PrintJob represents one print request and its outcome. A job is immutable
// once it reaches a terminal status.
type PrintJob struct {
	ID           uuid.UUID     `json:"id"`
	Payload      []byte        `json:"-"`
	PayloadSize  int           `json:"payload_size"`
	Family       PrinterFamily `json:"family"`
	Status       JobStatus     `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`

	// StatusVerified is false when the job completed without post-write
	// telemetry confirmation (status query unavailable).
	StatusVerified bool `json:"status_verified"`
}

// IsTerminal reports whether the job has reached a final status.
func (j *PrintJob) IsTerminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed || j.Status == JobCancelled
}
