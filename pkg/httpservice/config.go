package httpservice

import (
	"time"

	"github.com/devicehive/devicehive-go/pkg/devicehive"
	"github.com/devicehive/devicehive-go/pkg/devlog"
)

// DefaultPollTimeout is the request timeout applied to the long-poll
// command endpoint, per the protocol's 60s default.
const DefaultPollTimeout = 60 * time.Second

// DefaultRequestTimeout is the request timeout applied to every other
// REST call.
const DefaultRequestTimeout = 60 * time.Second

// DefaultPollRetryDelay is how long the long-poll loop waits before
// retrying after a transport error.
const DefaultPollRetryDelay = 5 * time.Second

// Config configures a Service.
type Config struct {
	// BaseURL is the server's REST API root, e.g.
	// "https://playground.devicehive.com/api".
	BaseURL string

	// DeviceKey is the fallback credential for any device whose own
	// Key field is empty.
	DeviceKey string

	// RequestTimeout bounds every call except the command poll.
	// Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration

	// PollTimeout bounds each long-poll request. Defaults to
	// DefaultPollTimeout.
	PollTimeout time.Duration

	// PollRetryDelay is how long the long-poll loop waits before
	// retrying after a transport error. Defaults to DefaultPollRetryDelay.
	PollRetryDelay time.Duration

	Events devicehive.DeviceServiceEvents

	// Logger receives session events (every REST call, each poll
	// iteration, registration/subscription state changes). Nil
	// disables logging.
	Logger devlog.Logger
}
