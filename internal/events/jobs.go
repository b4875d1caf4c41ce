// internal/events/jobs.go
package events

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// JobStore tracks print jobs in memory. Terminal jobs are immutable.
type JobStore struct {
	mutex sync.RWMutex
	jobs  map[uuid.UUID]*model.PrintJob
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uuid.UUID]*model.PrintJob)}
}

// Create registers a new queued job for the given payload.
func (s *JobStore) Create(payload []byte, family model.PrinterFamily) *model.PrintJob {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job := &model.PrintJob{
		ID:          uuid.New(),
		Payload:     payload,
		PayloadSize: len(payload),
		Family:      family,
		Status:      model.JobQueued,
		CreatedAt:   time.Now(),
	}
	s.jobs[job.ID] = job
	return job
}

// Get returns a copy of the job with the given ID.
func (s *JobStore) Get(id uuid.UUID) (model.PrintJob, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return model.PrintJob{}, false
	}
	return *job, true
}

// List returns copies of all jobs, newest first.
func (s *JobStore) List() []model.PrintJob {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]model.PrintJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// MarkPrinting transitions a queued job to printing.
func (s *JobStore) MarkPrinting(id uuid.UUID) error {
	return s.transition(id, func(job *model.PrintJob) error {
		if job.Status != model.JobQueued {
			return fmt.Errorf("job %s is %s, not queued", id, job.Status)
		}
		job.Status = model.JobPrinting
		return nil
	})
}

// Complete finalizes a job as successful. Verified records whether success
// was confirmed by device telemetry or assumed.
func (s *JobStore) Complete(id uuid.UUID, verified bool) error {
	return s.transition(id, func(job *model.PrintJob) error {
		if job.IsTerminal() {
			return fmt.Errorf("job %s already terminal: %s", id, job.Status)
		}
		now := time.Now()
		job.Status = model.JobCompleted
		job.CompletedAt = &now
		job.StatusVerified = verified
		return nil
	})
}

// Fail finalizes a job with an error message.
func (s *JobStore) Fail(id uuid.UUID, message string) error {
	return s.transition(id, func(job *model.PrintJob) error {
		if job.IsTerminal() {
			return fmt.Errorf("job %s already terminal: %s", id, job.Status)
		}
		now := time.Now()
		job.Status = model.JobFailed
		job.CompletedAt = &now
		job.ErrorMessage = message
		return nil
	})
}

// Cancel finalizes a job as cancelled, used when the service shuts down
// with jobs still queued.
func (s *JobStore) Cancel(id uuid.UUID) error {
	return s.transition(id, func(job *model.PrintJob) error {
		if job.IsTerminal() {
			return fmt.Errorf("job %s already terminal: %s", id, job.Status)
		}
		now := time.Now()
		job.Status = model.JobCancelled
		job.CompletedAt = &now
		return nil
	})
}

func (s *JobStore) transition(id uuid.UUID, apply func(*model.PrintJob) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("unknown job: %s", id)
	}
	return apply(job)
}
