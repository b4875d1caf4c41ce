// internal/discovery/coordinator_test.go
package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// fakeSource hands its callbacks to the test so results can be injected.
type fakeSource struct {
	name     string
	startErr error

	mutex   sync.Mutex
	cb      Callbacks
	started bool
	stopped bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Start(ctx context.Context, cb Callbacks) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.cb = cb
	f.started = true
	return nil
}

func (f *fakeSource) Stop() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.stopped = true
}

func (f *fakeSource) wasStopped() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.stopped
}

// captureBus records published events and lets tests wait for a kind.
type captureBus struct {
	mutex  sync.Mutex
	events []model.Event
}

func (b *captureBus) Publish(event model.Event) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.events = append(b.events, event)
}

func (b *captureBus) count(kind model.EventKind) int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (b *captureBus) waitFor(t *testing.T, kind model.EventKind) model.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.mutex.Lock()
		for _, e := range b.events {
			if e.Kind == kind {
				b.mutex.Unlock()
				return e
			}
		}
		b.mutex.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("event %s never published", kind)
	return model.Event{}
}

func device(address, name string) model.Device {
	return model.Device{Address: address, Name: name, Severity: model.SeverityDisconnected}
}

func newTestCoordinator(timeout time.Duration, sources ...Source) (*Coordinator, *captureBus) {
	bus := &captureBus{}
	return NewCoordinator(sources, bus, timeout, zap.NewNop()), bus
}

func TestStartRejectsConcurrentSession(t *testing.T) {
	radio := &fakeSource{name: "radio"}
	c, _ := newTestCoordinator(time.Minute, radio)

	session, err := c.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if session.Status != model.SessionScanning {
		t.Errorf("session status = %s, want scanning", session.Status)
	}

	if _, err := c.Start(context.Background()); model.KindOf(err) != model.ErrAlreadyScanning {
		t.Errorf("second Start() error = %v, want already-scanning", err)
	}
}

func TestFoundDedupedAcrossSources(t *testing.T) {
	radio := &fakeSource{name: "radio"}
	lan := &fakeSource{name: "lan"}
	c, bus := newTestCoordinator(time.Minute, radio, lan)

	if _, err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	radio.cb.Found(device("00:07:4D:C9:52:88", "ZQ320"))
	lan.cb.Found(device("00:07:4D:C9:52:88", "ZQ320"))
	lan.cb.Found(device("192.168.1.50", "ZD420"))

	if got := bus.count(model.EventPrinterFound); got != 2 {
		t.Errorf("found events = %d, want 2", got)
	}

	session, _ := c.Session()
	if len(session.Devices) != 2 {
		t.Errorf("session devices = %d, want 2", len(session.Devices))
	}
}

func TestGoneRemovesAndAllowsReAnnounce(t *testing.T) {
	radio := &fakeSource{name: "radio"}
	c, bus := newTestCoordinator(time.Minute, radio)

	c.Start(context.Background())
	radio.cb.Found(device("00:07:4D:C9:52:88", "ZQ320"))
	radio.cb.Gone("00:07:4D:C9:52:88")

	if got := bus.count(model.EventPrinterRemoved); got != 1 {
		t.Errorf("removed events = %d, want 1", got)
	}
	session, _ := c.Session()
	if len(session.Devices) != 0 {
		t.Errorf("session devices = %d after gone", len(session.Devices))
	}

	// Out of range and back again must announce a second time.
	radio.cb.Found(device("00:07:4D:C9:52:88", "ZQ320"))
	if got := bus.count(model.EventPrinterFound); got != 2 {
		t.Errorf("found events = %d, want 2", got)
	}

	// Gone for an address that was never announced is dropped.
	radio.cb.Gone("10.0.0.9")
	if got := bus.count(model.EventPrinterRemoved); got != 1 {
		t.Errorf("removed events = %d after unknown gone", got)
	}
}

func TestSessionCompletesWhenAllSourcesFinish(t *testing.T) {
	radio := &fakeSource{name: "radio"}
	lan := &fakeSource{name: "lan"}
	c, bus := newTestCoordinator(time.Minute, radio, lan)

	c.Start(context.Background())
	radio.cb.Finished()

	if session, _ := c.Session(); session.IsTerminal() {
		t.Error("session must stay open until every source finishes")
	}

	lan.cb.Finished()
	bus.waitFor(t, model.EventDiscoveryDone)

	session, _ := c.Session()
	if session.Status != model.SessionCompleted || session.CompletedAt == nil {
		t.Errorf("unexpected session: %+v", session)
	}

	// A finished session releases the slot for the next one.
	if _, err := c.Start(context.Background()); err != nil {
		t.Errorf("restart after completion failed: %v", err)
	}
}

func TestSourceErrorFinalizesSession(t *testing.T) {
	radio := &fakeSource{name: "radio"}
	lan := &fakeSource{name: "lan"}
	c, bus := newTestCoordinator(time.Minute, radio, lan)

	c.Start(context.Background())
	radio.cb.Error(model.DiscoveryErrorBluetooth, "Bluetooth radio is currently disabled")

	event := bus.waitFor(t, model.EventDiscoveryError)
	if event.ErrorCode != model.DiscoveryErrorBluetooth {
		t.Errorf("error code = %d, want %d", event.ErrorCode, model.DiscoveryErrorBluetooth)
	}

	session, _ := c.Session()
	if session.Status != model.SessionError || session.ErrorCode != model.DiscoveryErrorBluetooth {
		t.Errorf("unexpected session: %+v", session)
	}
	if !lan.wasStopped() {
		t.Error("remaining sources must be stopped on error")
	}
}

func TestLateCallbacksDroppedAfterTerminal(t *testing.T) {
	radio := &fakeSource{name: "radio"}
	c, bus := newTestCoordinator(time.Minute, radio)

	c.Start(context.Background())
	radio.cb.Finished()
	bus.waitFor(t, model.EventDiscoveryDone)

	radio.cb.Found(device("192.168.1.50", "ZD420"))
	if got := bus.count(model.EventPrinterFound); got != 0 {
		t.Errorf("late found forwarded: %d events", got)
	}
	if got := bus.count(model.EventDiscoveryDone); got != 1 {
		t.Errorf("done published %d times", got)
	}
}

func TestStopFinalizesAndIsIdempotent(t *testing.T) {
	radio := &fakeSource{name: "radio"}
	c, bus := newTestCoordinator(time.Minute, radio)

	c.Stop() // nothing running

	c.Start(context.Background())
	c.Stop()
	c.Stop()

	bus.waitFor(t, model.EventDiscoveryDone)
	if !radio.wasStopped() {
		t.Error("stop must reach the sources")
	}
	session, _ := c.Session()
	if session.Status != model.SessionCompleted {
		t.Errorf("session status = %s, want completed", session.Status)
	}
	if got := bus.count(model.EventDiscoveryDone); got != 1 {
		t.Errorf("done published %d times", got)
	}
}

func TestTimeoutFinalizesSession(t *testing.T) {
	radio := &fakeSource{name: "radio"}
	c, bus := newTestCoordinator(20*time.Millisecond, radio)

	c.Start(context.Background())
	radio.cb.Found(device("00:07:4D:C9:52:88", "ZQ320"))

	bus.waitFor(t, model.EventDiscoveryDone)
	session, _ := c.Session()
	if session.Status != model.SessionCompleted {
		t.Errorf("session status = %s, want completed", session.Status)
	}
	if !radio.wasStopped() {
		t.Error("timeout must stop the sources")
	}
	if len(session.Devices) != 1 {
		t.Errorf("devices found before timeout lost: %d", len(session.Devices))
	}
}

func TestTimeoutWithoutDevicesErrors(t *testing.T) {
	radio := &fakeSource{name: "radio"}
	lan := &fakeSource{name: "lan"}
	c, bus := newTestCoordinator(20*time.Millisecond, radio, lan)

	c.Start(context.Background())

	event := bus.waitFor(t, model.EventDiscoveryError)
	if event.ErrorCode != model.DiscoveryErrorGeneral {
		t.Errorf("error code = %d, want %d", event.ErrorCode, model.DiscoveryErrorGeneral)
	}
	if event.ErrorText != "no devices found" {
		t.Errorf("error text = %q", event.ErrorText)
	}

	session, _ := c.Session()
	if session.Status != model.SessionError {
		t.Errorf("session status = %s, want error", session.Status)
	}
	if bus.count(model.EventDiscoveryDone) != 0 {
		t.Error("empty timed-out session must not report completion")
	}
}

func TestSynchronousStartFailure(t *testing.T) {
	broken := &fakeSource{name: "broken", startErr: context.DeadlineExceeded}
	c, bus := newTestCoordinator(time.Minute, broken)

	c.Start(context.Background())
	event := bus.waitFor(t, model.EventDiscoveryError)
	if event.ErrorCode != model.DiscoveryErrorGeneral {
		t.Errorf("error code = %d, want %d", event.ErrorCode, model.DiscoveryErrorGeneral)
	}
}
