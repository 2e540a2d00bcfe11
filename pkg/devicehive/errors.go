package devicehive

import "fmt"

// ErrorKind classifies a Fault by cause rather than by concrete type,
// matching the error taxonomy both transports report through.
type ErrorKind uint8

const (
	// TransportError indicates the underlying stream/HTTP/WebSocket
	// failed before the operation could complete.
	TransportError ErrorKind = iota

	// Cancelled indicates the operation was aborted by the caller or
	// by service teardown and will not be retried.
	Cancelled

	// Timeout indicates a per-request or liveness deadline elapsed.
	Timeout

	// ProtocolFault indicates a well-formed reply whose semantic
	// status was not success, or a parse failure on received JSON.
	ProtocolFault

	// BadChecksum indicates a transceiver frame failed checksum
	// validation. The transceiver drains these silently; this kind
	// exists for callers that want to surface them as diagnostics.
	BadChecksum

	// ValidationError indicates a caller-side mistake: an empty
	// device ID, a duplicate equipment code, a frame payload too
	// large to encode, and similar.
	ValidationError
)

// String returns the error kind's name.
func (k ErrorKind) String() string {
	switch k {
	case TransportError:
		return "TransportError"
	case Cancelled:
		return "Cancelled"
	case Timeout:
		return "Timeout"
	case ProtocolFault:
		return "ProtocolFault"
	case BadChecksum:
		return "BadChecksum"
	case ValidationError:
		return "ValidationError"
	default:
		return "Unknown"
	}
}

// Fault is the error type both device services return. Op names the
// operation that failed (e.g. "register", "subscribe") for
// diagnostics; Err, if non-nil, is the underlying cause and is
// reachable through errors.Unwrap/errors.Is/errors.As.
type Fault struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements error.
func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("devicehive: %s: %s: %v", f.Op, f.Kind, f.Err)
	}
	return fmt.Sprintf("devicehive: %s: %s", f.Op, f.Kind)
}

// Unwrap returns the underlying cause, if any.
func (f *Fault) Unwrap() error { return f.Err }

// NewFault builds a Fault for op with the given kind and cause.
func NewFault(op string, kind ErrorKind, err error) *Fault {
	return &Fault{Op: op, Kind: kind, Err: err}
}
