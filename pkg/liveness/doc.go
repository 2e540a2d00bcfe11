// Package liveness implements the WebSocket device service's PING/PONG
// liveness state machine: an idle timer that sends a PING once the
// connection has been silent for too long, a bounded number of
// PING/PONG retries, and a single failure report to the owning
// service if the peer never answers.
//
// Any inbound frame — text, binary, PING, or PONG — counts as
// liveness evidence and resets the idle timer, matching the state
// diagram the WebSocket device service is built against: IDLE-WAIT,
// SEND PING, WAIT-PONG, and the terminal FAIL state.
package liveness
