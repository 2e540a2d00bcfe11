// Package model implements the DeviceHive entity types exchanged over
// both the HTTP and WebSocket device services — Network, DeviceClass,
// Equipment, Device, Command, Notification, and ServerInfo — along
// with their JSON mapping.
//
// The mapping is deliberately asymmetric in places: some fields the
// server assigns (Command.ID, Notification.ID) are never present on an
// outbound insert, and some fields the device assigns are never echoed
// back by the server.
package model
