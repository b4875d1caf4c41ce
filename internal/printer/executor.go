// internal/printer/executor.go
package printer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/events"
	"github.com/shashwatxx/zebra-printer-utility/internal/model"
	"github.com/shashwatxx/zebra-printer-utility/internal/transport"
)

// Executor runs print jobs against the connected printer. Jobs execute one
// at a time; completion is announced through the event stream, which also
// finalizes the job record.
type Executor struct {
	manager      *Manager
	verifiers    *VerifierRegistry
	jobs         *events.JobStore
	bus          Publisher
	printTimeout time.Duration
	logger       *zap.Logger
}

// NewExecutor creates a print executor.
func NewExecutor(manager *Manager, verifiers *VerifierRegistry, jobs *events.JobStore, bus Publisher, printTimeout time.Duration, logger *zap.Logger) *Executor {
	return &Executor{
		manager:      manager,
		verifiers:    verifiers,
		jobs:         jobs,
		bus:          bus,
		printTimeout: printTimeout,
		logger:       logger.With(zap.String("component", "print-executor")),
	}
}

// Print writes the payload to the connected printer and runs the family's
// completion protocol. The returned job ID tracks the outcome; the job
// record is finalized through the event stream.
func (e *Executor) Print(ctx context.Context, payload []byte) (uuid.UUID, error) {
	if len(payload) == 0 {
		return uuid.Nil, model.NewError(model.ErrValidation, "print payload is empty")
	}

	t, address, family, ok := e.manager.Current()
	if !ok {
		return uuid.Nil, model.NewError(model.ErrNotConnected, "no printer is connected")
	}

	job := e.jobs.Create(payload, family)
	if err := e.jobs.MarkPrinting(job.ID); err != nil {
		return job.ID, err
	}

	e.logger.Info("Print started",
		zap.String("job_id", job.ID.String()),
		zap.String("address", address),
		zap.String("family", string(family)),
		zap.Int("payload_size", len(payload)))

	printCtx, cancel := context.WithTimeout(ctx, e.printTimeout)
	defer cancel()

	verified, err := e.run(printCtx, t, family, payload)
	if err != nil {
		e.failJob(job.ID, address, err)
		return job.ID, err
	}

	e.bus.Publish(model.Event{
		Kind:      model.EventPrintComplete,
		JobID:     job.ID,
		Address:   address,
		Verified:  verified,
		Timestamp: time.Now(),
	})
	e.logger.Info("Print completed",
		zap.String("job_id", job.ID.String()),
		zap.Bool("verified", verified))
	return job.ID, nil
}

func (e *Executor) run(ctx context.Context, t transport.Transport, family model.PrinterFamily, payload []byte) (bool, error) {
	verifier, err := e.verifiers.Create(family, e.logger)
	if err != nil {
		return false, model.WrapError(model.ErrValidation, "unsupported printer family", err)
	}

	if _, err := t.Write(payload); err != nil {
		return false, model.WrapError(model.ErrConnectionLost, "payload write failed", err)
	}

	return verifier.Complete(ctx, t)
}

func (e *Executor) failJob(jobID uuid.UUID, address string, cause error) {
	e.logger.Error("Print failed",
		zap.String("job_id", jobID.String()),
		zap.String("address", address),
		zap.Error(cause))

	if model.KindOf(cause) == model.ErrConnectionLost {
		// The channel is gone; demote so callers see a clean disconnect.
		if t, addr, _, ok := e.manager.Current(); ok && addr == address {
			e.manager.demote(address, t)
		}
	}

	e.bus.Publish(model.Event{
		Kind:      model.EventPrintError,
		JobID:     jobID,
		Address:   address,
		ErrorText: cause.Error(),
		Timestamp: time.Now(),
	})
}
