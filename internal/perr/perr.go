// Package perr defines the tagged error taxonomy used across every layer of
// the Phoenix control plane, from the transport up through the device
// façade. Callers match on Kind rather than sentinel values.
package perr

import "fmt"

// Kind discriminates the class of failure. See spec §7 for the taxonomy.
type Kind string

const (
	KindDeviceNotFound       Kind = "DEVICE_NOT_FOUND"
	KindTransportError       Kind = "TRANSPORT_ERROR"
	KindPecError             Kind = "PEC_ERROR"
	KindTimeout              Kind = "TIMEOUT"
	KindInvalidArgument      Kind = "INVALID_ARGUMENT"
	KindUnsupportedOperation Kind = "UNSUPPORTED_OPERATION"
	KindPartialWrite         Kind = "PARTIAL_WRITE"
	KindUnknownHandle        Kind = "UNKNOWN_HANDLE"
)

// TransportKind sub-classifies a KindTransportError.
type TransportKind string

const (
	TransportNak             TransportKind = "NAK"
	TransportBusError        TransportKind = "BUS_ERROR"
	TransportFramingError    TransportKind = "FRAMING_ERROR"
	TransportAdapterNotFound TransportKind = "ADAPTER_NOT_FOUND"
	TransportAdapterBusy     TransportKind = "ADAPTER_BUSY"
)

// Error is the structured error type returned by every Phoenix layer.
// Kind and Message are always populated so external surfaces (HTTP, CLI, UI)
// can render both a machine-readable code and a human message without
// inspecting the wrapped chain.
type Error struct {
	Kind          Kind
	TransportKind TransportKind // populated only when Kind == KindTransportError
	Message       string
	Err           error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the transport layer should retry this error.
// NAK is never retried; BusError and FramingError are transient.
func (e *Error) Retryable() bool {
	if e.Kind != KindTransportError {
		return false
	}
	switch e.TransportKind {
	case TransportBusError, TransportFramingError:
		return true
	default:
		return false
	}
}

// DeviceNotFound builds a KindDeviceNotFound error for a probe that got no ACK.
func DeviceNotFound(addr byte) *Error {
	return &Error{Kind: KindDeviceNotFound, Message: fmt.Sprintf("no device responded at address 0x%02x", addr)}
}

// Transport builds a KindTransportError with the given sub-kind and context.
func Transport(kind TransportKind, context string, cause error) *Error {
	return &Error{Kind: KindTransportError, TransportKind: kind, Message: context, Err: cause}
}

// PEC builds a KindPecError describing a PEC mismatch.
func PEC(expected, computed byte) *Error {
	return &Error{
		Kind:    KindPecError,
		Message: fmt.Sprintf("PEC mismatch: expected 0x%02x, computed 0x%02x", expected, computed),
	}
}

// Timeout builds a KindTimeout error naming the operation that exceeded its deadline.
func Timeout(op string) *Error {
	return &Error{Kind: KindTimeout, Message: fmt.Sprintf("%s: deadline exceeded", op)}
}

// InvalidArgument builds a KindInvalidArgument error — a programmer error, never retried.
func InvalidArgument(reason string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: reason}
}

// Unsupported builds a KindUnsupportedOperation error for firmware-unimplemented features.
func Unsupported(name string) *Error {
	return &Error{Kind: KindUnsupportedOperation, Message: fmt.Sprintf("%s is not supported by current firmware", name)}
}

// PartialWrite builds a KindPartialWrite error for an RMW interrupted between read and write.
func PartialWrite(addr uint32) *Error {
	return &Error{Kind: KindPartialWrite, Message: fmt.Sprintf("read-modify-write interrupted at register 0x%04x", addr)}
}

// UnknownHandle builds a KindUnknownHandle error for a registry lookup miss.
func UnknownHandle(handle uint32) *Error {
	return &Error{Kind: KindUnknownHandle, Message: fmt.Sprintf("no device registered for handle %d", handle)}
}

// Wrap adds operation context to a lower-layer error as it crosses a layer
// boundary, preserving Kind/TransportKind if the cause is already a *Error.
func Wrap(op string, cause error) error {
	if cause == nil {
		return nil
	}
	if pe, ok := cause.(*Error); ok {
		return &Error{Kind: pe.Kind, TransportKind: pe.TransportKind, Message: op + ": " + pe.Message, Err: pe.Err}
	}
	return fmt.Errorf("%s: %w", op, cause)
}
