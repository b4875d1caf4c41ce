// internal/discovery/network/scanner.go
package network

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/discovery"
	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// discoveryBeacon is the probe understood by ZebraNet print servers. Any
// unit on the subnet answers with an identification packet.
var discoveryBeacon = []byte{0x2e, 0x2c, 0x3a, 0x01, 0x00, 0x00}

// Scanner discovers network printers by broadcasting a discovery beacon and
// collecting responses for a bounded number of probe rounds, then finishes
// on its own. The underlying socket cannot be interrupted mid-read, so Stop
// sets a flag and late responses are filtered out.
type Scanner struct {
	port          int
	probeInterval time.Duration
	rounds        int
	logger        *zap.Logger

	mutex   sync.Mutex
	running bool
	stopped bool
	conn    net.PacketConn
}

// NewScanner creates a network scanner broadcasting on the given port. Each
// of the rounds lasts one probe interval.
func NewScanner(port int, probeInterval time.Duration, rounds int, logger *zap.Logger) *Scanner {
	return &Scanner{
		port:          port,
		probeInterval: probeInterval,
		rounds:        rounds,
		logger:        logger.With(zap.String("source", "network")),
	}
}

// Name identifies the source.
func (s *Scanner) Name() string {
	return "network"
}

// Start opens the broadcast socket and begins probing in the background.
func (s *Scanner) Start(ctx context.Context, cb discovery.Callbacks) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return err
	}

	s.conn = conn
	s.running = true
	s.stopped = false

	go s.probe(ctx, conn, cb)
	return nil
}

func (s *Scanner) probe(ctx context.Context, conn net.PacketConn, cb discovery.Callbacks) {
	defer func() {
		conn.Close()
		s.mutex.Lock()
		s.running = false
		s.mutex.Unlock()
		cb.Finished()
	}()

	broadcast := &net.UDPAddr{IP: net.IPv4bcast, Port: s.port}
	seen := make(map[string]bool)
	buf := make([]byte, 1024)

	for round := 0; round < s.rounds; round++ {
		if s.isStopped() || ctx.Err() != nil {
			return
		}

		if _, err := conn.WriteTo(discoveryBeacon, broadcast); err != nil {
			s.logger.Warn("Broadcast probe failed", zap.Error(err))
		}

		deadline := time.Now().Add(s.probeInterval)
		for time.Now().Before(deadline) {
			conn.SetReadDeadline(deadline)
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				break
			}
			if s.isStopped() {
				return
			}

			udpAddr, ok := addr.(*net.UDPAddr)
			if !ok || n == 0 {
				continue
			}
			host := udpAddr.IP.String()
			if seen[host] {
				continue
			}
			seen[host] = true

			name := extractPrinterName(buf[:n])
			if name == "" {
				name = host
			}

			s.logger.Debug("Network printer found",
				zap.String("host", host),
				zap.String("name", name))

			cb.Found(model.Device{
				Address:  host,
				Name:     name,
				IsWifi:   true,
				Status:   "Disconnected",
				Severity: model.SeverityDisconnected,
			})
		}

		if s.isStopped() {
			return
		}

		// Pace out the full probe window when the read loop bailed early.
		if remaining := time.Until(deadline); remaining > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(remaining):
			}
		}
	}
}

// Stop requests an early end to the probe loop.
func (s *Scanner) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.running {
		return
	}
	s.stopped = true
	if s.conn != nil {
		// Unblocks a pending read.
		s.conn.SetReadDeadline(time.Now())
	}
}

func (s *Scanner) isStopped() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stopped
}

// extractPrinterName pulls the model/name field out of an identification
// packet. Fields are NUL padded; the name is the longest printable run.
func extractPrinterName(resp []byte) string {
	var best, current strings.Builder
	flush := func() {
		if current.Len() > best.Len() {
			best.Reset()
			best.WriteString(current.String())
		}
		current.Reset()
	}
	for _, b := range resp {
		if b >= 0x20 && b < 0x7f {
			current.WriteByte(b)
		} else {
			flush()
		}
	}
	flush()
	if best.Len() < 4 {
		return ""
	}
	return strings.TrimSpace(best.String())
}
