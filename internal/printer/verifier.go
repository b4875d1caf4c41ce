// internal/printer/verifier.go
package printer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/model"
	"github.com/shashwatxx/zebra-printer-utility/internal/transport"
)

// cutSequence feeds the paper and triggers a partial cut on generic socket
// printers.
var cutSequence = []byte{0x0a, 0x0a, 0x1d, 0x56, 0x01}

// Verifier finishes a print after the payload write: it runs the family's
// settle protocol and determines whether the print succeeded. Verified is
// true only when success was confirmed by device telemetry.
type Verifier interface {
	Complete(ctx context.Context, t transport.Transport) (verified bool, err error)
}

// VerifierFactory builds a verifier for one printer family.
type VerifierFactory func(logger *zap.Logger) Verifier

// VerifierRegistry maps printer families to their verification strategy.
type VerifierRegistry struct {
	factories map[model.PrinterFamily]VerifierFactory
}

// NewVerifierRegistry creates a registry with both built-in families.
func NewVerifierRegistry() *VerifierRegistry {
	r := &VerifierRegistry{factories: make(map[model.PrinterFamily]VerifierFactory)}
	r.Register(model.FamilySmart, func(logger *zap.Logger) Verifier {
		return NewSmartVerifier(logger)
	})
	r.Register(model.FamilyGenericSocket, func(logger *zap.Logger) Verifier {
		return NewGenericVerifier(logger)
	})
	return r
}

// Register adds or replaces the factory for a family.
func (r *VerifierRegistry) Register(family model.PrinterFamily, factory VerifierFactory) {
	r.factories[family] = factory
}

// Create builds a verifier for the family.
func (r *VerifierRegistry) Create(family model.PrinterFamily, logger *zap.Logger) (Verifier, error) {
	factory, ok := r.factories[family]
	if !ok {
		return nil, fmt.Errorf("no verifier registered for family %s", family)
	}
	return factory(logger), nil
}

// Families lists the registered families.
func (r *VerifierRegistry) Families() []model.PrinterFamily {
	out := make([]model.PrinterFamily, 0, len(r.factories))
	for family := range r.factories {
		out = append(out, family)
	}
	return out
}

// SmartVerifier verifies prints on status-aware printers. After the write
// it waits for the engine to take the job, then queries host status and
// maps any fault to its error. An unanswerable query counts as success:
// older firmware drops the status channel while printing.
type SmartVerifier struct {
	Settle         time.Duration
	BluetoothExtra time.Duration
	logger         *zap.Logger
}

// NewSmartVerifier creates a smart verifier with production settle times.
func NewSmartVerifier(logger *zap.Logger) *SmartVerifier {
	return &SmartVerifier{
		Settle:         1500 * time.Millisecond,
		BluetoothExtra: 500 * time.Millisecond,
		logger:         logger.With(zap.String("verifier", "smart")),
	}
}

// Complete implements Verifier.
func (v *SmartVerifier) Complete(ctx context.Context, t transport.Transport) (bool, error) {
	settle := v.Settle
	if t.Kind() == model.TransportBluetooth {
		settle += v.BluetoothExtra
	}
	if err := sleepCtx(ctx, settle); err != nil {
		return false, err
	}

	status, err := t.QueryStatus(ctx)
	if err != nil {
		v.logger.Warn("Status query unavailable, assuming success", zap.Error(err))
		return false, nil
	}

	if fault, faulted := status.FirstFault(); faulted {
		return false, model.NewFaultError(fault)
	}
	if !status.IsReadyToPrint() {
		return false, model.NewFaultError(model.FaultNotReady)
	}
	return true, nil
}

// GenericVerifier finishes prints on raw socket printers: it feeds and cuts
// the paper with a settle pause either side of the cut. These printers have
// no telemetry; the only success signal is the connection still being open
// after each settle, so success is never verified.
type GenericVerifier struct {
	CutSettle time.Duration
	logger    *zap.Logger
}

// NewGenericVerifier creates a generic verifier with production settle times.
func NewGenericVerifier(logger *zap.Logger) *GenericVerifier {
	return &GenericVerifier{
		CutSettle: 100 * time.Millisecond,
		logger:    logger.With(zap.String("verifier", "generic")),
	}
}

// Complete implements Verifier.
func (v *GenericVerifier) Complete(ctx context.Context, t transport.Transport) (bool, error) {
	if err := sleepCtx(ctx, v.CutSettle); err != nil {
		return false, err
	}
	if !t.IsOpen() {
		return false, model.NewError(model.ErrConnectionLost, "printer connection lost before cut")
	}
	if _, err := t.Write(cutSequence); err != nil {
		return false, model.WrapError(model.ErrConnectionLost, "failed to send cut sequence", err)
	}
	if err := sleepCtx(ctx, v.CutSettle); err != nil {
		return false, err
	}
	if !t.IsOpen() {
		return false, model.NewError(model.ErrConnectionLost, "printer connection lost after cut")
	}
	return false, nil
}

// sleepCtx pauses for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return model.WrapError(model.ErrTimeout, "print timed out", ctx.Err())
	case <-timer.C:
		return nil
	}
}
