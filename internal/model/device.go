// internal/model/device.go
package model

import "strings"

// PrinterFamily selects the write/verification strategy used for a printer.
type PrinterFamily string

const (
	// FamilySmart is a status-aware printer: print success is verified by
	// querying device telemetry after the payload is written.
	FamilySmart PrinterFamily = "SMART"
	// FamilyGenericSocket is a raw socket printer with no telemetry: success
	// is inferred from the connection surviving the write.
	FamilyGenericSocket PrinterFamily = "GENERIC_SOCKET"
)

// Valid reports whether the family is one of the known strategies.
func (f PrinterFamily) Valid() bool {
	return f == FamilySmart || f == FamilyGenericSocket
}

// StatusSeverity classifies a device status line for display purposes.
type StatusSeverity string

const (
	SeverityDisconnected StatusSeverity = "DISCONNECTED"
	SeverityConnecting   StatusSeverity = "CONNECTING"
	SeverityConnected    StatusSeverity = "CONNECTED"
)

// TransportKind identifies the byte channel used to reach a printer.
type TransportKind string

const (
	TransportBluetooth TransportKind = "BLUETOOTH"
	TransportTCP       TransportKind = "TCP"
)

// Device represents one discovered printer. Address is the unique key:
// a Bluetooth MAC for radio printers, a host/IP for network printers.
type Device struct {
	Address     string         `json:"address"`
	Name        string         `json:"name"`
	IsWifi      bool           `json:"is_wifi"`
	Status      string         `json:"status"`
	Severity    StatusSeverity `json:"severity"`
	IsConnected bool           `json:"is_connected"`
}

// IsBluetoothAddress reports whether an address names a Bluetooth printer.
// MAC addresses contain colons; network printers are addressed by host/IP.
func IsBluetoothAddress(address string) bool {
	return strings.Contains(address, ":")
}

// TransportKindFor returns the transport kind implied by an address.
func TransportKindFor(address string) TransportKind {
	if IsBluetoothAddress(address) {
		return TransportBluetooth
	}
	return TransportTCP
}
