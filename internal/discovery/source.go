// internal/discovery/source.go
package discovery

import (
	"context"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
)

// Callbacks receive results from a running discovery source. A source calls
// Found and Gone zero or more times, then exactly one of Finished or Error.
// All callbacks may arrive from the source's own goroutine.
type Callbacks struct {
	Found    func(device model.Device)
	Gone     func(address string)
	Finished func()
	Error    func(code int, message string)
}

// Source is one strategy for finding printers. Start launches the scan in
// the background and returns immediately; Stop requests an early end, after
// which the source still delivers its Finished callback.
type Source interface {
	Name() string
	Start(ctx context.Context, cb Callbacks) error
	Stop()
}

// Publisher enqueues events for the reconcile loop.
type Publisher interface {
	Publish(event model.Event)
}
