// internal/transport/opener.go
package transport

import (
	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// Opener builds the right transport for a printer address. Addresses with
// colons are Bluetooth MACs; everything else is a network host.
type Opener struct {
	zebraPort       int
	genericPort     int
	bluetoothDevice string
	bluetoothBaud   int
	logger          *zap.Logger
}

// OpenerConfig holds the port and device settings the opener needs.
type OpenerConfig struct {
	ZebraTCPPort    int
	GenericTCPPort  int
	BluetoothDevice string
	BluetoothBaud   int
}

// NewOpener creates a transport opener.
func NewOpener(cfg OpenerConfig, logger *zap.Logger) *Opener {
	return &Opener{
		zebraPort:       cfg.ZebraTCPPort,
		genericPort:     cfg.GenericTCPPort,
		bluetoothDevice: cfg.BluetoothDevice,
		bluetoothBaud:   cfg.BluetoothBaud,
		logger:          logger,
	}
}

// For returns an unopened transport for the given address and family. Smart
// network printers listen on the Zebra raw port; generic socket printers on
// the conventional JetDirect port.
func (o *Opener) For(address string, family model.PrinterFamily) Transport {
	if model.IsBluetoothAddress(address) {
		return NewBluetoothTransport(address, o.bluetoothDevice, o.bluetoothBaud, o.logger)
	}

	port := o.zebraPort
	if family == model.FamilyGenericSocket {
		port = o.genericPort
	}
	return NewTCPTransport(address, port, o.logger)
}
