package model

import (
	"encoding/json"
	"time"
)

// Notification is a device-originated event sent to the server. ID is
// assigned by the server and must be left unset (zero) on a
// notification the device constructs to send.
type Notification struct {
	ID           int             `json:"id,omitempty"`
	Notification string          `json:"notification"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
	Timestamp    time.Time       `json:"timestamp,omitempty"`
}

// NewNotification builds an outbound Notification with no ID set, the
// shape the device sends on notification/insert.
func NewNotification(name string, parameters json.RawMessage) Notification {
	return Notification{Notification: name, Parameters: parameters}
}
