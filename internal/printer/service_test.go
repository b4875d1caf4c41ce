// internal/printer/service_test.go
package printer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/discovery"
	"github.com/shashwatxx/zebra-printer-utility/internal/events"
	"github.com/shashwatxx/zebra-printer-utility/internal/model"
	"github.com/shashwatxx/zebra-printer-utility/internal/registry"
	"github.com/shashwatxx/zebra-printer-utility/internal/storage"
	"github.com/shashwatxx/zebra-printer-utility/internal/transport"
)

// scriptedSource announces a fixed device list and finishes.
type scriptedSource struct {
	devices []model.Device

	mutex   sync.Mutex
	stopped bool
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) Start(ctx context.Context, cb discovery.Callbacks) error {
	go func() {
		for _, d := range s.devices {
			cb.Found(d)
		}
		cb.Finished()
	}()
	return nil
}

func (s *scriptedSource) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stopped = true
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newServiceFixture(t *testing.T, source discovery.Source, opener TransportOpener) (*Service, *events.Reconciler) {
	t.Helper()

	logger := zap.NewNop()
	reg := registry.New(logger)
	jobs := events.NewJobStore()
	reconciler := events.NewReconciler(reg, jobs, logger)
	reconciler.Start()
	t.Cleanup(reconciler.Stop)

	coordinator := discovery.NewCoordinator([]discovery.Source{source}, reconciler, time.Minute, logger)
	manager := NewManager(opener, reconciler, 100*time.Millisecond, time.Millisecond, logger)
	executor := NewExecutor(manager, fastVerifiers(), jobs, reconciler, time.Second, logger)
	configurator := NewConfigurator(manager, logger)
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "printers.json"), logger)

	return NewService(coordinator, manager, executor, configurator, reg, jobs, store, logger), reconciler
}

func TestServiceDiscoverConnectPrint(t *testing.T) {
	mac := "00:07:4D:C9:52:88"
	source := &scriptedSource{devices: []model.Device{{
		Address:  mac,
		Name:     "ZQ320",
		Status:   "Disconnected",
		Severity: model.SeverityDisconnected,
	}}}

	opener := newFakeOpener()
	opener.add(mac, &fakeTransport{status: &transport.HostStatus{}})

	s, _ := newServiceFixture(t, source, opener)

	session, err := s.StartDiscovery(context.Background())
	if err != nil {
		t.Fatalf("StartDiscovery() error: %v", err)
	}
	if session.Status != model.SessionScanning {
		t.Errorf("session status = %s", session.Status)
	}

	waitUntil(t, "device in registry", func() bool { return len(s.Devices()) == 1 })
	waitUntil(t, "session completion", func() bool {
		got, ok := s.DiscoverySession()
		return ok && got.Status == model.SessionCompleted
	})

	connected, err := s.Connect(context.Background(), mac, model.FamilySmart)
	if err != nil || !connected {
		t.Fatalf("Connect() = %v, %v", connected, err)
	}

	device, ok := s.ConnectedPrinter()
	if !ok || device.Address != mac {
		t.Fatalf("ConnectedPrinter() = %+v, %v", device, ok)
	}
	waitUntil(t, "registry shows connected", func() bool {
		devices := s.Devices()
		return len(devices) == 1 && devices[0].IsConnected
	})

	jobID, err := s.Print(context.Background(), []byte("^XA^FDHello^XZ"))
	if err != nil {
		t.Fatalf("Print() error: %v", err)
	}
	waitUntil(t, "job completion", func() bool {
		job, ok := s.Job(jobID)
		return ok && job.Status == model.JobCompleted
	})
	job, _ := s.Job(jobID)
	if !job.StatusVerified {
		t.Error("telemetry-confirmed print must be verified")
	}

	prefs, err := s.LastPreferences()
	if err != nil {
		t.Fatalf("LastPreferences() error: %v", err)
	}
	if prefs.LastAddress != mac || prefs.LastFamily != model.FamilySmart {
		t.Errorf("preferences = %+v", prefs)
	}

	if err := s.Disconnect(); err != nil {
		t.Errorf("Disconnect() error: %v", err)
	}
	if _, ok := s.ConnectedPrinter(); ok {
		t.Error("disconnect must clear the connected printer")
	}
}

func TestServiceConnectToggleClearsSelection(t *testing.T) {
	mac := "00:07:4D:C9:52:88"
	opener := newFakeOpener()
	s, _ := newServiceFixture(t, &scriptedSource{}, opener)

	if _, err := s.Connect(context.Background(), mac, model.FamilySmart); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	connected, err := s.Connect(context.Background(), mac, model.FamilySmart)
	if err != nil {
		t.Fatalf("toggle Connect() error: %v", err)
	}
	if connected {
		t.Error("toggle must report not connected")
	}
	if _, ok := s.ConnectedPrinter(); ok {
		t.Error("toggle must clear the connected printer")
	}
}

func TestServiceSettingsPersisted(t *testing.T) {
	opener := newFakeOpener()
	s, _ := newServiceFixture(t, &scriptedSource{}, opener)

	if _, err := s.Connect(context.Background(), "192.168.1.50", model.FamilySmart); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := s.SetDarkness(100); err != nil {
		t.Fatalf("SetDarkness() error: %v", err)
	}
	if err := s.SetMediaType(MediaLabel); err != nil {
		t.Fatalf("SetMediaType() error: %v", err)
	}

	prefs, err := s.LastPreferences()
	if err != nil {
		t.Fatalf("LastPreferences() error: %v", err)
	}
	if prefs.Darkness == nil || *prefs.Darkness != 100 {
		t.Errorf("darkness not persisted: %+v", prefs)
	}
	if prefs.MediaType != string(MediaLabel) {
		t.Errorf("media type not persisted: %+v", prefs)
	}
}

func TestServiceReconnect(t *testing.T) {
	mac := "00:07:4D:C9:52:88"
	opener := newFakeOpener()
	s, _ := newServiceFixture(t, &scriptedSource{}, opener)

	// Nothing remembered yet: no-op.
	if err := s.Reconnect(context.Background()); err != nil {
		t.Fatalf("Reconnect() on empty store: %v", err)
	}
	if _, ok := s.ConnectedPrinter(); ok {
		t.Fatal("reconnect with no preferences must not connect")
	}

	if _, err := s.Connect(context.Background(), mac, model.FamilySmart); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	s.Disconnect()

	if err := s.Reconnect(context.Background()); err != nil {
		t.Fatalf("Reconnect() error: %v", err)
	}
	device, ok := s.ConnectedPrinter()
	if !ok || device.Address != mac {
		t.Errorf("reconnect target = %+v, %v", device, ok)
	}

	s.Disconnect()
	if err := s.ForgetPreferences(); err != nil {
		t.Fatalf("ForgetPreferences() error: %v", err)
	}
	if err := s.Reconnect(context.Background()); err != nil {
		t.Fatalf("Reconnect() after forget: %v", err)
	}
	if _, ok := s.ConnectedPrinter(); ok {
		t.Error("forgotten printer must not be reconnected")
	}
}

func TestServiceDisposed(t *testing.T) {
	s, _ := newServiceFixture(t, &scriptedSource{}, newFakeOpener())

	s.Shutdown()
	s.Shutdown() // idempotent

	if _, err := s.StartDiscovery(context.Background()); model.KindOf(err) != model.ErrDisposed {
		t.Errorf("StartDiscovery after shutdown = %v", err)
	}
	if _, err := s.Print(context.Background(), []byte("x")); model.KindOf(err) != model.ErrDisposed {
		t.Errorf("Print after shutdown = %v", err)
	}
	if err := s.SetDarkness(50); model.KindOf(err) != model.ErrDisposed {
		t.Errorf("SetDarkness after shutdown = %v", err)
	}
}
