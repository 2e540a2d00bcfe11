// Package transceiver implements the generic framed-stream engine that
// turns a byte-oriented transport into a sequence of typed,
// checksum-validated frames, the engine behind an XBee-style API:
// a single outstanding read at a time, a FIFO single-writer send
// queue, and completion callbacks that are always posted to an
// Executor rather than invoked inline from the I/O goroutine, so a
// callback that itself calls back into the Transceiver never
// reenters a lock still held by the code that's calling it.
package transceiver
