// internal/transport/tcp.go
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// TCPTransport talks to a network printer over a raw TCP socket.
type TCPTransport struct {
	host   string
	port   int
	conn   net.Conn
	isOpen bool
	mutex  sync.Mutex
	stats  Stats
	logger *zap.Logger

	statusReadTimeout time.Duration
}

// NewTCPTransport creates a TCP transport for the given host and port.
func NewTCPTransport(host string, port int, logger *zap.Logger) *TCPTransport {
	return &TCPTransport{
		host:              host,
		port:              port,
		logger:            logger.With(zap.String("transport", "tcp"), zap.String("host", host), zap.Int("port", port)),
		statusReadTimeout: 5 * time.Second,
	}
}

// Open dials the printer. The context deadline bounds the dial.
func (t *TCPTransport) Open(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.isOpen {
		return fmt.Errorf("tcp transport to %s already open", t.Address())
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port)))
	if err != nil {
		return fmt.Errorf("failed to dial %s:%d: %w", t.host, t.port, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
		tcpConn.SetNoDelay(true)
	}

	t.conn = conn
	t.isOpen = true
	t.stats = Stats{OpenedAt: time.Now(), LastActivity: time.Now()}

	t.logger.Info("TCP transport opened")
	return nil
}

// Close shuts the socket down. Safe to call on a closed transport.
func (t *TCPTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.isOpen {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.isOpen = false

	t.logger.Info("TCP transport closed",
		zap.Int64("bytes_written", t.stats.BytesWritten))
	if err != nil {
		return fmt.Errorf("failed to close tcp connection: %w", err)
	}
	return nil
}

// Write sends raw bytes to the printer.
func (t *TCPTransport) Write(data []byte) (int, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.isOpen {
		return 0, fmt.Errorf("tcp transport to %s is not open", t.Address())
	}

	n, err := t.conn.Write(data)
	if n > 0 {
		t.stats.BytesWritten += int64(n)
		t.stats.WriteCount++
		t.stats.LastActivity = time.Now()
	}
	if err != nil {
		return n, fmt.Errorf("tcp write failed: %w", err)
	}
	return n, nil
}

// QueryStatus sends ~HS and parses the telemetry response.
func (t *TCPTransport) QueryStatus(ctx context.Context) (*HostStatus, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.isOpen {
		return nil, fmt.Errorf("tcp transport to %s is not open", t.Address())
	}

	deadline := time.Now().Add(t.statusReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if _, err := t.conn.Write([]byte(HostStatusCommand)); err != nil {
		return nil, fmt.Errorf("failed to send status query: %w", err)
	}
	t.stats.LastActivity = time.Now()

	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	defer t.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 512)
	var resp []byte
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			resp = append(resp, buf[:n]...)
			if statusResponseComplete(resp) {
				break
			}
		}
		if err != nil {
			if len(resp) > 0 {
				break
			}
			return nil, fmt.Errorf("failed to read status response: %w", err)
		}
	}

	return ParseHostStatus(resp)
}

// statusResponseComplete reports whether the buffered response contains the
// two framed strings the parser needs.
func statusResponseComplete(resp []byte) bool {
	count := 0
	for _, b := range resp {
		if b == 0x03 {
			count++
		}
	}
	return count >= 2
}

// IsOpen reports whether the socket is established.
func (t *TCPTransport) IsOpen() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.isOpen
}

// Kind identifies this transport as TCP.
func (t *TCPTransport) Kind() model.TransportKind {
	return model.TransportTCP
}

// Address returns host:port.
func (t *TCPTransport) Address() string {
	return fmt.Sprintf("%s:%d", t.host, t.port)
}

// Stats returns a snapshot of transfer counters.
func (t *TCPTransport) Stats() Stats {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.stats
}
