// Package frame implements the two binary frame codecs used to carry
// DeviceHive protocol payloads over a raw byte stream: the "simple"
// frame used by the hive gateway's own binary protocol, and the XBee
// API frame used when the gateway is attached to a ZigBee radio.
//
// Both codecs share the same parsing contract: each Parse call looks at
// the next frame boundary in buf only and reports whether it found a
// complete frame, needs more bytes, or found a frame whose checksum
// didn't match; callers loop to drain several frames. A bad checksum
// never drops more than any leading noise and the signature byte, so
// the stream resyncs
// one byte at a time rather than discarding an entire frame's worth of
// data on corruption.
package frame
