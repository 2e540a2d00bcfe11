package model

import "encoding/json"

// Equipment describes one piece of hardware exposed by a device, such
// as a sensor or actuator.
//
// Code must be unique within the device that owns it; DeviceService
// implementations reject a Device carrying duplicate equipment codes
// (see Device.Validate).
type Equipment struct {
	Code string          `json:"code"`
	Name string          `json:"name"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}
