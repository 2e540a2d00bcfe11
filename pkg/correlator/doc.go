// Package correlator implements the request/response correlation the
// WebSocket device service uses (the HTTP service pairs each reply
// with its own HTTP request and does not need it): each outbound request
// is allocated a monotonically increasing ID, the continuation for
// that ID is resolved at most once when the matching reply arrives,
// and any request ID the server doesn't recognize is silently
// ignored rather than treated as an error.
package correlator
