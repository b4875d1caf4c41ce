// internal/model/errors.go
package model

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes operation failures so callers can distinguish
// retryable transport errors from validation and precondition failures.
type ErrorKind string

const (
	ErrPermissionDenied ErrorKind = "PERMISSION_DENIED"
	ErrAlreadyScanning  ErrorKind = "ALREADY_SCANNING"
	ErrValidation       ErrorKind = "VALIDATION_ERROR"
	ErrTimeout          ErrorKind = "TIMEOUT"
	ErrConnectionFailed ErrorKind = "CONNECTION_FAILED"
	ErrConnectionLost   ErrorKind = "CONNECTION_LOST"
	ErrNotConnected     ErrorKind = "NOT_CONNECTED"
	ErrPrintFault       ErrorKind = "PRINT_FAULT"
	ErrDisposed         ErrorKind = "DISPOSED"
)

// FaultKind identifies a specific printer fault reported by telemetry.
type FaultKind string

const (
	FaultPaperOut   FaultKind = "PAPER_OUT"
	FaultHeadOpen   FaultKind = "HEAD_OPEN"
	FaultPaused     FaultKind = "PAUSED"
	FaultHeadTooHot FaultKind = "HEAD_TOO_HOT"
	FaultHeadCold   FaultKind = "HEAD_COLD"
	FaultRibbonOut  FaultKind = "RIBBON_OUT"
	FaultNotReady   FaultKind = "NOT_READY"
)

// FaultMessage returns the human-readable message for a printer fault.
func FaultMessage(f FaultKind) string {
	switch f {
	case FaultPaperOut:
		return "Paper out"
	case FaultHeadOpen:
		return "Printer head open"
	case FaultPaused:
		return "Printer paused"
	case FaultHeadTooHot:
		return "Printer head too hot"
	case FaultHeadCold:
		return "Printer head too cold"
	case FaultRibbonOut:
		return "Ribbon out"
	default:
		return "Printer not ready"
	}
}

// PrinterError is the structured error returned by all core operations.
type PrinterError struct {
	Kind    ErrorKind
	Fault   FaultKind
	Message string
	Err     error
}

func (e *PrinterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PrinterError) Unwrap() error {
	return e.Err
}

// NewError creates a PrinterError with the given kind and message.
func NewError(kind ErrorKind, message string) *PrinterError {
	return &PrinterError{Kind: kind, Message: message}
}

// WrapError creates a PrinterError wrapping an underlying cause.
func WrapError(kind ErrorKind, message string, err error) *PrinterError {
	return &PrinterError{Kind: kind, Message: message, Err: err}
}

// NewFaultError creates a PrintFault error for a specific printer fault.
func NewFaultError(fault FaultKind) *PrinterError {
	return &PrinterError{Kind: ErrPrintFault, Fault: fault, Message: FaultMessage(fault)}
}

// KindOf extracts the error kind, or empty string for untyped errors.
func KindOf(err error) ErrorKind {
	var pe *PrinterError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
