package wsservice

import (
	"encoding/json"
	"time"

	"github.com/devicehive/devicehive-go/pkg/model"
)

// Action names in the catalogue.
const (
	actionServerInfo         = "server/info"
	actionDeviceSave         = "device/save"
	actionDeviceGet          = "device/get"
	actionCommandSubscribe   = "command/subscribe"
	actionCommandUnsubscribe = "command/unsubscribe"
	actionCommandUpdate      = "command/update"
	actionNotificationInsert = "notification/insert"
	actionCommandInsert      = "command/insert" // S->C only
)

const statusSuccess = "success"

// outbound is the envelope every client-initiated action shares. Only
// the fields relevant to a given action are populated; json omits the
// rest via omitempty.
type outbound struct {
	Action       string              `json:"action"`
	RequestID    uint64              `json:"requestId"`
	DeviceID     string              `json:"deviceId,omitempty"`
	DeviceKey    string              `json:"deviceKey,omitempty"`
	Device       *model.Device       `json:"device,omitempty"`
	Timestamp    string              `json:"timestamp,omitempty"`
	CommandID    int                 `json:"commandId,omitempty"`
	Command      *commandUpdate      `json:"command,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
}

// commandUpdate is the wire shape of command/update's "command" field:
// status, result, and flags, distinct from model.CommandUpdate which
// has no flags field.
type commandUpdate struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Flags  int             `json:"flags,omitempty"`
}

// inbound is the envelope every reply or server-initiated action is
// decoded into. Fields not relevant to the action received are left
// zero.
type inbound struct {
	Action       string          `json:"action"`
	RequestID    uint64          `json:"requestId"`
	Status       string          `json:"status,omitempty"`
	Info         *serverInfoWire `json:"info,omitempty"`
	Device       *model.Device   `json:"device,omitempty"`
	Command      *model.Command  `json:"command,omitempty"`
	DeviceGUID   string          `json:"deviceGuid,omitempty"`
}

type serverInfoWire struct {
	APIVersion      string    `json:"apiVersion"`
	ServerTimestamp time.Time `json:"serverTimestamp"`
	RestServerURL   string    `json:"restServerUrl,omitempty"`
}

func (s *serverInfoWire) toModel() *model.ServerInfo {
	if s == nil {
		return nil
	}
	return &model.ServerInfo{
		APIVersion:      s.APIVersion,
		ServerTimestamp: s.ServerTimestamp,
		RestServerURL:   s.RestServerURL,
	}
}
