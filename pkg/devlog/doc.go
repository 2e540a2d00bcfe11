// Package devlog defines the protocol/session logging surface consumed
// by pkg/httpservice and pkg/wsservice: a small Logger interface the
// application implements (or leaves nil for NoopLogger), an Event type
// describing what happened at which layer, and ready-made sinks
// (multi-fan-out, log/slog bridge, CBOR-encoded file)
// an application can wire up instead of writing its own.
//
// Logging is entirely optional and out of the device↔cloud session
// layer's hot path: a nil or NoopLogger costs nothing beyond a single
// interface check.
package devlog
