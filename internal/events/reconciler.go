// internal/events/reconciler.go
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
	"github.com/shashwatxx/zebra-printer-utility/internal/registry"
)

// Sink receives events after the reconciler has applied them to state.
type Sink interface {
	Publish(event model.Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event model.Event)

// Publish calls the function.
func (f SinkFunc) Publish(event model.Event) { f(event) }

// Reconciler is the single consumer of the event stream. Discovery sources,
// the connection manager and the print executor only enqueue events; this
// loop applies them to the registry and job store in arrival order, then
// fans them out to sinks. Serializing mutations here keeps producers free
// of shared-state locking.
type Reconciler struct {
	events   chan model.Event
	registry *registry.Registry
	jobs     *JobStore
	sinks    []Sink
	logger   *zap.Logger

	mutex   sync.Mutex
	running bool
	done    chan struct{}
}

// NewReconciler creates a reconciler over the given registry and job store.
func NewReconciler(reg *registry.Registry, jobs *JobStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		events:   make(chan model.Event, 100),
		registry: reg,
		jobs:     jobs,
		logger:   logger.With(zap.String("component", "reconciler")),
	}
}

// AddSink registers an event sink. Must be called before Start.
func (r *Reconciler) AddSink(sink Sink) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sinks = append(r.sinks, sink)
}

// Publish enqueues an event. When the queue is full the event is dropped
// with a warning rather than blocking the producer. Events arriving after
// Stop are dropped silently; late source callbacks are expected.
func (r *Reconciler) Publish(event model.Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.running {
		r.logger.Debug("Event after shutdown dropped",
			zap.String("kind", string(event.Kind)))
		return
	}
	select {
	case r.events <- event:
	default:
		r.logger.Warn("Event queue full, dropping event",
			zap.String("kind", string(event.Kind)),
			zap.String("address", event.Address))
	}
}

// Start launches the reconcile loop.
func (r *Reconciler) Start() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.done = make(chan struct{})
	go r.run()
	r.logger.Info("Reconciler started")
}

// Stop drains the loop and waits for it to exit.
func (r *Reconciler) Stop() {
	r.mutex.Lock()
	if !r.running {
		r.mutex.Unlock()
		return
	}
	r.running = false
	done := r.done
	r.mutex.Unlock()

	close(r.events)
	<-done
	r.logger.Info("Reconciler stopped")
}

func (r *Reconciler) run() {
	defer close(r.done)
	for event := range r.events {
		if r.apply(event) {
			r.fanOut(event)
		}
	}
}

// apply mutates shared state for the event and reports whether the event
// should be forwarded to sinks.
func (r *Reconciler) apply(event model.Event) bool {
	switch event.Kind {
	case model.EventPrinterFound:
		if event.Device == nil {
			r.logger.Warn("Found event without device payload")
			return false
		}
		added := r.registry.Upsert(*event.Device)
		if added && r.registry.SelectedAddress() == event.Device.Address {
			// The printer was connected before the scan announced it.
			r.registry.UpdateStatus(event.Device.Address, "Connected", model.SeverityConnected)
		}
		return added

	case model.EventPrinterRemoved:
		return r.registry.Remove(event.Address)

	case model.EventStatusChanged:
		r.registry.UpdateStatus(event.Address, event.Status, event.Severity)
		if event.Severity == model.SeverityDisconnected && r.registry.SelectedAddress() == event.Address {
			// A dropped or demoted connection releases the selection, so
			// discovery completion cannot restamp a dead printer.
			r.registry.ClearSelection()
		}
		// Status events are forwarded even for unknown addresses: the
		// selected printer may never have gone through discovery.
		return true

	case model.EventPrintComplete:
		if err := r.jobs.Complete(event.JobID, event.Verified); err != nil {
			r.logger.Warn("Cannot complete job", zap.String("job_id", event.JobID.String()), zap.Error(err))
			return false
		}
		return true

	case model.EventPrintError:
		if err := r.jobs.Fail(event.JobID, event.ErrorText); err != nil {
			r.logger.Warn("Cannot fail job", zap.String("job_id", event.JobID.String()), zap.Error(err))
			return false
		}
		return true

	case model.EventDiscoveryDone:
		// A connect that finished mid-scan settles here: restamp the
		// selected printer so the registry row reflects the live state.
		if selected := r.registry.SelectedAddress(); selected != "" {
			r.registry.UpdateStatus(selected, "Connected", model.SeverityConnected)
		}
		return true

	case model.EventDiscoveryError:
		return true

	default:
		r.logger.Warn("Unknown event kind", zap.String("kind", string(event.Kind)))
		return false
	}
}

func (r *Reconciler) fanOut(event model.Event) {
	for _, sink := range r.sinks {
		sink.Publish(event)
	}
}
