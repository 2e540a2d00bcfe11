package devicehive

import (
	"context"
	"time"

	"github.com/devicehive/devicehive-go/pkg/model"
)

// DeviceService is the observable contract both the HTTP and WebSocket
// transports implement: register a device, keep its record in sync,
// subscribe for commands, report command results, and push
// notifications. All methods are safe to call from any goroutine.
// Each method blocks until its request completes and returns the
// outcome (and, for ServerInfo, the reply) to its caller; unsolicited
// events — inbound commands and asynchronous failures — are delivered
// through the Events callbacks.
//
// Every device-scoped method takes the application's own
// *model.Device. The service holds that pointer, non-owning, for as
// long as it is actively tracking the device (subscribed, or awaiting
// a correlated update) and hands the same pointer back through
// Events.OnInsertCommand, so the application never has to re-resolve
// an ID to its own object. The application owns the device and must
// keep it alive while tracked.
type DeviceService interface {
	// Connect establishes the transport (dials the WebSocket, or, for
	// the HTTP transport, fetches server info to check that the server
	// is reachable) and reports the outcome via Events.OnConnected as
	// well as returning it.
	Connect(ctx context.Context) error

	// Register sends dev's full state to the server (PUT /device/{id}
	// or the device/save action) and, on success, absorbs any
	// server-assigned fields back into dev in place.
	Register(ctx context.Context, dev *model.Device) error

	// GetDeviceData fetches the server's current record for dev and
	// absorbs it into dev in place, preserving dev's Key.
	GetDeviceData(ctx context.Context, dev *model.Device) error

	// UpdateDeviceData sends dev's populated fields as a partial
	// update for an already registered device.
	UpdateDeviceData(ctx context.Context, dev *model.Device) error

	// Subscribe begins delivering inbound commands for dev to
	// Events.OnInsertCommand, adding dev to the service's device
	// tracking set. since, if non-zero, asks the server to replay
	// commands issued at or after that time.
	Subscribe(ctx context.Context, dev *model.Device, since time.Time) error

	// Unsubscribe stops command delivery for dev and removes it from
	// the service's device tracking set.
	Unsubscribe(ctx context.Context, dev *model.Device) error

	// UpdateCommand reports the outcome of a previously received
	// command back to the server.
	UpdateCommand(ctx context.Context, dev *model.Device, commandID int, update model.CommandUpdate) error

	// InsertNotification pushes a device-originated event to the
	// server.
	InsertNotification(ctx context.Context, dev *model.Device, n model.Notification) error

	// ServerInfo fetches the server's identity and API version.
	ServerInfo(ctx context.Context) (*model.ServerInfo, error)

	// CancelAll abandons the service's outstanding work and the
	// transport's live state. Over WebSocket it resolves every
	// outstanding request with a Cancelled Fault, clears the device
	// tracking set, and force-closes the connection. Over HTTP it stops
	// every poll loop; HTTP calls already in flight (Register,
	// UpdateCommand, ...) are not interrupted and finish under their
	// own ctx. The service remains usable: a subsequent Connect starts
	// fresh, but the application must re-issue any subscriptions itself.
	CancelAll()

	// Close tears down the transport. A closed DeviceService cannot be
	// reused; construct a new one to reconnect.
	Close() error
}

// DeviceServiceEvents are the callbacks a DeviceService delivers
// events through. Every field is optional; a nil callback is simply
// not invoked. Implementations must never call back into the
// DeviceService synchronously from within one of these callbacks
// without documenting the reentrancy behavior, since some transports
// dispatch them from the connection's single I/O goroutine.
type DeviceServiceEvents struct {
	// OnConnected reports the outcome of Connect. err is nil on
	// success.
	OnConnected func(err error)

	// OnInsertCommand delivers a command addressed to dev — the same
	// *model.Device the application passed to Subscribe, so no ID
	// re-resolution is needed.
	OnInsertCommand func(dev *model.Device, cmd model.Command)

	// OnActionFailed reports an asynchronous failure not tied to a
	// specific call the application made — most commonly a liveness
	// timeout, which is reported once before the connection is force
	// closed.
	OnActionFailed func(err error)
}
