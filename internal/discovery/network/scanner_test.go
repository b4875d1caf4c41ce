// internal/discovery/network/scanner_test.go
package network

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/discovery"
	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

func TestProbeFinishesAfterRounds(t *testing.T) {
	s := NewScanner(49201, 10*time.Millisecond, 2, zap.NewNop())

	done := make(chan struct{})
	cb := discovery.Callbacks{
		Found:    func(model.Device) {},
		Gone:     func(string) {},
		Finished: func() { close(done) },
		Error:    func(int, string) {},
	}
	if err := s.Start(context.Background(), cb); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("probe loop did not finish after its rounds")
	}
}

func TestExtractPrinterName(t *testing.T) {
	tests := []struct {
		name string
		resp []byte
		want string
	}{
		{
			name: "nul padded fields",
			resp: []byte("\x02\x00\x00ZTC ZD420-203dpi ZPL\x00\x00\x0042J183301456\x00"),
			want: "ZTC ZD420-203dpi ZPL",
		},
		{
			name: "short runs ignored",
			resp: []byte("\x01ab\x00cd\x02"),
			want: "",
		},
		{
			name: "all binary",
			resp: []byte{0x00, 0x01, 0x02, 0x03},
			want: "",
		},
		{
			name: "trailing whitespace trimmed",
			resp: []byte("\x00ZQ320 Printer  \x00"),
			want: "ZQ320 Printer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPrinterName(tt.resp); got != tt.want {
				t.Errorf("extractPrinterName() = %q, want %q", got, tt.want)
			}
		})
	}
}
