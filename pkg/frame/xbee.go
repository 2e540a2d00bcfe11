package frame

import "encoding/binary"

const (
	xbeeSignature = 0x7E
	xbeeHeaderLen = 3 // signature + length(2)
	xbeeFooterLen = 1 // checksum
	xbeeMaxLen    = 0xFFFF
)

// XBeeCodec implements the Digi XBee API frame used when the gateway
// is attached to a ZigBee radio module:
//
//	signature(1=0x7E) length(2, big-endian) payload(length) checksum(1)
//
// Unlike SimpleCodec there is no separate intent field: the XBee API
// frame type lives inside the first payload byte (see package xbee),
// so Parse always reports intent 0 and checksum covers the payload
// only, not the header.
type XBeeCodec struct{}

// Parse implements Codec.
func (XBeeCodec) Parse(buf []byte) (payload []byte, intent int, consumed int, result ParseResult) {
	p := 0
	for p < len(buf) && buf[p] != xbeeSignature {
		p++
	}
	if p >= len(buf) {
		return nil, 0, p, Incomplete
	}

	remaining := len(buf) - p
	if remaining < xbeeHeaderLen+xbeeFooterLen {
		return nil, 0, p, Incomplete
	}

	length := int(binary.BigEndian.Uint16(buf[p+1 : p+3]))
	total := xbeeHeaderLen + length + xbeeFooterLen
	if remaining < total {
		return nil, 0, p, Incomplete
	}

	body := buf[p+xbeeHeaderLen : p+xbeeHeaderLen+length]
	want := buf[p+xbeeHeaderLen+length]
	if checksum8(body) != want {
		return nil, 0, p + 1, BadChecksum
	}

	out := make([]byte, length)
	copy(out, body)
	return out, 0, p + total, Success
}

// Format implements Codec.
func (XBeeCodec) Format(_ int, payload []byte) ([]byte, error) {
	if len(payload) > xbeeMaxLen {
		return nil, ErrPayloadTooLarge
	}

	buf := make([]byte, xbeeHeaderLen+len(payload)+xbeeFooterLen)
	buf[0] = xbeeSignature
	binary.BigEndian.PutUint16(buf[1:3], uint16(len(payload)))
	copy(buf[xbeeHeaderLen:], payload)
	buf[len(buf)-1] = checksum8(payload)
	return buf, nil
}

var _ Codec = XBeeCodec{}
