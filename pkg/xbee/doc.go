// Package xbee implements the Digi XBee API frame payloads the binary
// transceiver exchanges once it is wired to a ZigBee radio module:
// AT command request/response, ZigBee transmit request/status, and
// ZigBee receive packet, plus the frame-type codes for the remote AT
// command variants.
//
// Every payload type in this package embeds its own leading frame-type
// byte and is otherwise a fixed-or-trailing-variable-length binary
// record; none of them carry a length prefix of their own since the
// enclosing frame.Codec already delimits the payload.
package xbee
