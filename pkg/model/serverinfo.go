package model

import "time"

// ServerInfo is returned by the server/info action/endpoint and
// describes the API the device is talking to. Each transport
// advertises the other one's URL as its alternative: the REST endpoint
// reports webSocketServerUrl, the WebSocket endpoint reports
// restServerUrl.
type ServerInfo struct {
	APIVersion         string    `json:"apiVersion"`
	ServerTimestamp    time.Time `json:"serverTimestamp"`
	WebSocketServerURL string    `json:"webSocketServerUrl,omitempty"`
	RestServerURL      string    `json:"restServerUrl,omitempty"`
}
