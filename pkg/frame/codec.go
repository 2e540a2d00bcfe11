package frame

import "errors"

// ParseResult describes the outcome of a single Parse call.
type ParseResult uint8

const (
	// Incomplete indicates buf does not yet hold a full frame; no bytes
	// were consumed except possibly leading noise before a signature.
	Incomplete ParseResult = iota

	// Success indicates a complete, checksum-valid frame was parsed.
	Success

	// BadChecksum indicates a complete frame was found at the current
	// position but its checksum did not validate. Any noise before it
	// plus exactly one byte (the signature) is consumed so the caller
	// can resync.
	BadChecksum
)

// String returns a human-readable result name.
func (r ParseResult) String() string {
	switch r {
	case Incomplete:
		return "INCOMPLETE"
	case Success:
		return "SUCCESS"
	case BadChecksum:
		return "BAD_CHECKSUM"
	default:
		return "UNKNOWN"
	}
}

// ErrPayloadTooLarge is returned by Format when a payload exceeds what
// the codec's length field can encode.
var ErrPayloadTooLarge = errors.New("frame: payload exceeds codec length limit")

// Codec parses and formats frames of one wire shape.
//
// Parse inspects buf starting at offset 0 and returns:
//   - the payload bytes of the frame with any header/checksum stripped
//     (nil unless result is Success),
//   - consumed, the number of leading bytes of buf that can be dropped
//     regardless of result (always 0 on Incomplete unless noise bytes
//     preceded the signature; the noise plus exactly 1 on BadChecksum;
//     the noise plus the full frame length on Success),
//   - the ParseResult.
//
// Implementations never consume bytes belonging to a frame that has
// not been fully validated, so a caller can always safely retry Parse
// once more bytes have arrived.
type Codec interface {
	Parse(buf []byte) (payload []byte, intent int, consumed int, result ParseResult)
	Format(intent int, payload []byte) ([]byte, error)
}

// checksum8 sums the bytes modulo 256 and returns 0xFF minus that sum,
// the checksum scheme shared by both frame variants.
func checksum8(b []byte) byte {
	var sum int
	for _, c := range b {
		sum += int(c)
	}
	return byte(0xFF - (sum & 0xFF))
}
