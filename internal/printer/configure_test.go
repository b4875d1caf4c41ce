// internal/printer/configure_test.go
package printer

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

func TestValidDarkness(t *testing.T) {
	tests := []struct {
		darkness int
		want     bool
	}{
		{0, true},
		{25, true},
		{200, true},
		{-30, true},
		{30, true},
		{-15, true},
		{15, true},
		{-31, false},
		{31, false},
		{99, false},
		{201, false},
		{124, false},
	}

	for _, tt := range tests {
		if got := ValidDarkness(tt.darkness); got != tt.want {
			t.Errorf("ValidDarkness(%d) = %v, want %v", tt.darkness, got, tt.want)
		}
	}
}

func TestDarknessCommand(t *testing.T) {
	want := "! U1 setvar \"print.tone\" \"50\"\r\n"
	if got := DarknessCommand(50); got != want {
		t.Errorf("DarknessCommand(50) = %q, want %q", got, want)
	}
	if got := DarknessCommand(-10); !strings.Contains(got, "\"-10\"") {
		t.Errorf("DarknessCommand(-10) = %q", got)
	}
}

func TestMediaCommand(t *testing.T) {
	label, err := MediaCommand(MediaLabel)
	if err != nil {
		t.Fatalf("MediaCommand(label) error: %v", err)
	}
	if !strings.Contains(label, "\"media.type\" \"label\"") ||
		!strings.Contains(label, "\"media.sense_mode\" \"gap\"") ||
		!strings.HasSuffix(label, calibrateCommand) {
		t.Errorf("label command = %q", label)
	}

	blackMark, err := MediaCommand(MediaBlackMark)
	if err != nil {
		t.Fatalf("MediaCommand(black mark) error: %v", err)
	}
	if !strings.Contains(blackMark, "\"media.sense_mode\" \"bar\"") ||
		!strings.HasSuffix(blackMark, calibrateCommand) {
		t.Errorf("black mark command = %q", blackMark)
	}

	journal, err := MediaCommand(MediaJournal)
	if err != nil {
		t.Fatalf("MediaCommand(journal) error: %v", err)
	}
	if !strings.Contains(journal, "\"media.type\" \"journal\"") ||
		strings.Contains(journal, calibrateCommand) {
		t.Errorf("journal command = %q", journal)
	}

	if _, err := MediaCommand(MediaType("FANFOLD")); model.KindOf(err) != model.ErrValidation {
		t.Errorf("unknown media error = %v", err)
	}
}

func TestConfiguratorRequiresConnection(t *testing.T) {
	c := NewConfigurator(newTestManager(newFakeOpener(), &captureBus{}), zap.NewNop())

	if err := c.SetDarkness(50); model.KindOf(err) != model.ErrNotConnected {
		t.Errorf("SetDarkness error = %v", err)
	}
	if err := c.Calibrate(); model.KindOf(err) != model.ErrNotConnected {
		t.Errorf("Calibrate error = %v", err)
	}
}

func TestConfiguratorWritesCommands(t *testing.T) {
	opener := newFakeOpener()
	tr := &fakeTransport{}
	opener.add("192.168.1.50", tr)
	m := newTestManager(opener, &captureBus{})
	if _, err := m.Connect(context.Background(), "192.168.1.50", model.FamilySmart); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	c := NewConfigurator(m, zap.NewNop())

	if err := c.SetDarkness(75); err != nil {
		t.Fatalf("SetDarkness() error: %v", err)
	}
	if err := c.SetMediaType(MediaJournal); err != nil {
		t.Fatalf("SetMediaType() error: %v", err)
	}
	if err := c.Calibrate(); err != nil {
		t.Fatalf("Calibrate() error: %v", err)
	}
	if err := c.SendSettings("! U1 setvar \"device.languages\" \"zpl\"\r\n"); err != nil {
		t.Fatalf("SendSettings() error: %v", err)
	}

	writes := tr.recorded()
	if len(writes) != 4 {
		t.Fatalf("expected 4 writes, got %d", len(writes))
	}
	if string(writes[0]) != DarknessCommand(75) {
		t.Errorf("darkness write = %q", writes[0])
	}
	if string(writes[2]) != calibrateCommand {
		t.Errorf("calibrate write = %q", writes[2])
	}
}

func TestConfiguratorRejectsInvalidDarkness(t *testing.T) {
	c := NewConfigurator(newTestManager(newFakeOpener(), &captureBus{}), zap.NewNop())
	// Validation runs before the connection check.
	if err := c.SetDarkness(999); model.KindOf(err) != model.ErrValidation {
		t.Errorf("invalid darkness error = %v", err)
	}
	if err := c.SendSettings(""); model.KindOf(err) != model.ErrValidation {
		t.Errorf("empty settings error = %v", err)
	}
}
