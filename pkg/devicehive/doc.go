// Package devicehive defines the DeviceService contract shared by the
// HTTP and WebSocket transports: the operations an application drives
// (register, update, send notification, poll/subscribe for commands,
// update a command's result) and the events it receives back
// (connected, command received, action failed), plus the error kinds
// both transports report through.
package devicehive
