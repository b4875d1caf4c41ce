// internal/transport/hoststatus.go
package transport

import (
	"fmt"
	"strings"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// HostStatusCommand is the ZPL command that requests host status telemetry.
const HostStatusCommand = "~HS"

// HostStatus holds the fault flags parsed from a ~HS response.
type HostStatus struct {
	PaperOut   bool
	Paused     bool
	HeadCold   bool
	HeadTooHot bool
	HeadOpen   bool
	RibbonOut  bool
}

// IsReadyToPrint reports whether no fault flag is set.
func (s *HostStatus) IsReadyToPrint() bool {
	return !s.PaperOut && !s.Paused && !s.HeadCold && !s.HeadTooHot &&
		!s.HeadOpen && !s.RibbonOut
}

// FirstFault returns the highest-priority active fault. Priority follows the
// order operators are expected to clear faults in: media before mechanics,
// mechanics before thermal.
func (s *HostStatus) FirstFault() (model.FaultKind, bool) {
	switch {
	case s.PaperOut:
		return model.FaultPaperOut, true
	case s.HeadOpen:
		return model.FaultHeadOpen, true
	case s.Paused:
		return model.FaultPaused, true
	case s.HeadTooHot:
		return model.FaultHeadTooHot, true
	case s.HeadCold:
		return model.FaultHeadCold, true
	case s.RibbonOut:
		return model.FaultRibbonOut, true
	default:
		return model.FaultNotReady, false
	}
}

// ParseHostStatus parses the raw ~HS response. The printer answers with up
// to three strings, each framed as STX ... ETX and terminated by CR LF.
func ParseHostStatus(raw []byte) (*HostStatus, error) {
	lines := splitStatusStrings(raw)
	if len(lines) < 2 {
		return nil, fmt.Errorf("host status response too short: %d strings", len(lines))
	}

	first := strings.Split(lines[0], ",")
	second := strings.Split(lines[1], ",")
	if len(first) < 12 {
		return nil, fmt.Errorf("host status string 1 malformed: %d fields", len(first))
	}
	if len(second) < 4 {
		return nil, fmt.Errorf("host status string 2 malformed: %d fields", len(second))
	}

	return &HostStatus{
		PaperOut:   first[1] == "1",
		Paused:     first[2] == "1",
		HeadCold:   first[10] == "1",
		HeadTooHot: first[11] == "1",
		HeadOpen:   second[2] == "1",
		RibbonOut:  second[3] == "1",
	}, nil
}

func splitStatusStrings(raw []byte) []string {
	var out []string
	for _, line := range strings.Split(string(raw), "\r\n") {
		line = strings.Trim(line, "\x02\x03\r\n ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
