package frame

import "encoding/binary"

const (
	simpleSignature = 0xFC
	simpleHeaderLen = 4 // signature + length + intent(2)
	simpleFooterLen = 1 // checksum
	simpleMaxLen    = 0xFF
)

// SimpleCodec implements the hive gateway's own binary frame:
//
//	signature(1=0xFC) length(1) intent(2, little-endian) payload(length) checksum(1)
//
// checksum is 0xFF minus the sum, modulo 256, of every byte from the
// signature through the end of the payload (the checksum byte itself
// is never included in its own sum).
type SimpleCodec struct{}

// Parse implements Codec.
func (SimpleCodec) Parse(buf []byte) (payload []byte, intent int, consumed int, result ParseResult) {
	p := 0
	for p < len(buf) && buf[p] != simpleSignature {
		p++
	}
	if p >= len(buf) {
		return nil, 0, p, Incomplete
	}

	remaining := len(buf) - p
	if remaining < simpleHeaderLen+simpleFooterLen {
		return nil, 0, p, Incomplete
	}

	length := int(buf[p+1])
	total := simpleHeaderLen + length + simpleFooterLen
	if remaining < total {
		return nil, 0, p, Incomplete
	}

	frameIntent := int(binary.LittleEndian.Uint16(buf[p+2 : p+4]))
	body := buf[p : p+simpleHeaderLen+length]
	want := buf[p+simpleHeaderLen+length]
	if checksum8(body) != want {
		return nil, 0, p + 1, BadChecksum
	}

	out := make([]byte, length)
	copy(out, buf[p+simpleHeaderLen:p+simpleHeaderLen+length])
	return out, frameIntent, p + total, Success
}

// Format implements Codec.
func (SimpleCodec) Format(intent int, payload []byte) ([]byte, error) {
	if len(payload) > simpleMaxLen {
		return nil, ErrPayloadTooLarge
	}

	buf := make([]byte, simpleHeaderLen+len(payload)+simpleFooterLen)
	buf[0] = simpleSignature
	buf[1] = byte(len(payload))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(intent))
	copy(buf[simpleHeaderLen:], payload)
	buf[len(buf)-1] = checksum8(buf[:len(buf)-1])
	return buf, nil
}

var _ Codec = SimpleCodec{}
