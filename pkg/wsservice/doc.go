// Package wsservice implements DeviceService over a single full-duplex
// WebSocket connection: every operation is a JSON action correlated by
// requestId, commands arrive unsolicited, and an idle connection is
// proven alive by pkg/liveness's PING/PONG state machine.
package wsservice
