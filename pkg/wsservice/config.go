package wsservice

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/devicehive/devicehive-go/pkg/devicehive"
	"github.com/devicehive/devicehive-go/pkg/devlog"
	"github.com/devicehive/devicehive-go/pkg/liveness"
)

// DefaultWriteTimeout bounds how long a single WebSocket write (data
// frame or control frame) may block.
const DefaultWriteTimeout = 10 * time.Second

// DefaultCallTimeout bounds how long a Service method waits for its
// reply when the caller's context carries no deadline.
const DefaultCallTimeout = 30 * time.Second

// Config configures a Service.
type Config struct {
	// URL is the WebSocket endpoint, e.g.
	// "wss://playground.devicehive.com/api/websocket".
	URL string

	// DeviceKey is the fallback credential for any device whose own
	// Key field is empty.
	DeviceKey string

	// Dialer overrides the WebSocket dialer. Defaults to
	// websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Liveness configures the PING/PONG monitor. Zero value selects
	// liveness.DefaultConfig; set Liveness.Disabled to suppress PING
	// scheduling entirely while the rest of the service functions
	// normally.
	Liveness liveness.Config

	// WriteTimeout bounds each WebSocket write. Defaults to
	// DefaultWriteTimeout.
	WriteTimeout time.Duration

	// CallTimeout bounds a request/reply round trip when ctx has no
	// deadline of its own. Defaults to DefaultCallTimeout.
	CallTimeout time.Duration

	Events devicehive.DeviceServiceEvents

	// Logger receives session events (connect/disconnect, every
	// action, liveness ping/pong). Nil disables logging.
	Logger devlog.Logger
}

func (c *Config) dialer() *websocket.Dialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	return websocket.DefaultDialer
}
