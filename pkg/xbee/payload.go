package xbee

import "errors"

// Frame type bytes, the first byte of every XBee API payload.
const (
	ATCommandRequestType        = 0x08
	ATCommandResponseType       = 0x88
	RemoteATCommandRequestType  = 0x17
	RemoteATCommandResponseType = 0x97
	ZBTransmitRequestType       = 0x10
	ZBTransmitStatusType        = 0x8B
	ZBReceivePacketType         = 0x90
)

// Broadcast addresses NewZBTransmitRequest uses as a request's default
// destination.
const (
	BroadcastAddr64 = 0xFFFF
	BroadcastAddr16 = 0xFFFE
)

// ErrShortPayload is returned by Parse when buf ends before a fixed
// field has been fully read.
var ErrShortPayload = errors.New("xbee: payload too short")

// ErrWrongType is returned by Parse when the leading frame-type byte
// does not match the payload being parsed into.
var ErrWrongType = errors.New("xbee: unexpected frame type byte")

// Payload is implemented by every XBee API payload in this package.
type Payload interface {
	// FrameType returns the leading frame-type byte this payload uses.
	FrameType() byte

	// Format encodes the payload, including its leading frame-type byte.
	Format() []byte

	// Parse decodes buf into the receiver. buf must start with the
	// matching FrameType byte.
	Parse(buf []byte) error
}
