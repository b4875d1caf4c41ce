// internal/transport/bluetooth.go
package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// BluetoothTransport talks to a paired Bluetooth printer through the RFCOMM
// serial device the OS exposes for the bond. The printer is addressed by
// MAC; the byte channel is the bound tty.
type BluetoothTransport struct {
	mac        string
	devicePath string
	baudRate   int
	port       serial.Port
	isOpen     bool
	mutex      sync.Mutex
	stats      Stats
	logger     *zap.Logger

	statusReadTimeout time.Duration
}

// NewBluetoothTransport creates a Bluetooth transport for the given MAC,
// backed by the RFCOMM device at devicePath.
func NewBluetoothTransport(mac, devicePath string, baudRate int, logger *zap.Logger) *BluetoothTransport {
	return &BluetoothTransport{
		mac:               mac,
		devicePath:        devicePath,
		baudRate:          baudRate,
		logger:            logger.With(zap.String("transport", "bluetooth"), zap.String("mac", mac), zap.String("device", devicePath)),
		statusReadTimeout: 5 * time.Second,
	}
}

// Open opens the RFCOMM serial device.
func (t *BluetoothTransport) Open(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.isOpen {
		return fmt.Errorf("bluetooth transport to %s already open", t.mac)
	}

	mode := &serial.Mode{
		BaudRate: t.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(t.devicePath, mode)
	if err != nil {
		return fmt.Errorf("failed to open rfcomm device %s: %w", t.devicePath, err)
	}

	t.port = port
	t.isOpen = true
	t.stats = Stats{OpenedAt: time.Now(), LastActivity: time.Now()}

	t.logger.Info("Bluetooth transport opened")
	return nil
}

// Close closes the serial device. Safe to call on a closed transport.
func (t *BluetoothTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.isOpen {
		return nil
	}

	err := t.port.Close()
	t.port = nil
	t.isOpen = false

	t.logger.Info("Bluetooth transport closed",
		zap.Int64("bytes_written", t.stats.BytesWritten))
	if err != nil {
		return fmt.Errorf("failed to close rfcomm device: %w", err)
	}
	return nil
}

// Write sends raw bytes to the printer.
func (t *BluetoothTransport) Write(data []byte) (int, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.isOpen {
		return 0, fmt.Errorf("bluetooth transport to %s is not open", t.mac)
	}

	n, err := t.port.Write(data)
	if n > 0 {
		t.stats.BytesWritten += int64(n)
		t.stats.WriteCount++
		t.stats.LastActivity = time.Now()
	}
	if err != nil {
		return n, fmt.Errorf("bluetooth write failed: %w", err)
	}

	if err := t.port.Drain(); err != nil {
		return n, fmt.Errorf("bluetooth drain failed: %w", err)
	}
	return n, nil
}

// QueryStatus sends ~HS and parses the telemetry response.
func (t *BluetoothTransport) QueryStatus(ctx context.Context) (*HostStatus, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.isOpen {
		return nil, fmt.Errorf("bluetooth transport to %s is not open", t.mac)
	}

	timeout := t.statusReadTimeout
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, ctx.Err()
	}

	if _, err := t.port.Write([]byte(HostStatusCommand)); err != nil {
		return nil, fmt.Errorf("failed to send status query: %w", err)
	}
	t.stats.LastActivity = time.Now()

	if err := t.port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	buf := make([]byte, 512)
	var resp []byte
	for {
		n, err := t.port.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to read status response: %w", err)
		}
		if n == 0 {
			// Read timeout expired.
			if len(resp) > 0 {
				break
			}
			return nil, fmt.Errorf("status query to %s timed out", t.mac)
		}
		resp = append(resp, buf[:n]...)
		if statusResponseComplete(resp) {
			break
		}
	}

	return ParseHostStatus(resp)
}

// IsOpen reports whether the serial device is open.
func (t *BluetoothTransport) IsOpen() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.isOpen
}

// Kind identifies this transport as Bluetooth.
func (t *BluetoothTransport) Kind() model.TransportKind {
	return model.TransportBluetooth
}

// Address returns the printer MAC.
func (t *BluetoothTransport) Address() string {
	return t.mac
}

// Stats returns a snapshot of transfer counters.
func (t *BluetoothTransport) Stats() Stats {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.stats
}
