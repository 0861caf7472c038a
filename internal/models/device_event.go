package models

import "time"

// Event types recorded in the journal.
const (
	EventModeChange         = "MODE_CHANGE"
	EventCalibrationRequest = "CALIBRATION_REQUEST"
	EventZeroCommand        = "ZERO_COMMAND"
	EventSensorError        = "SENSOR_ERROR"
	EventPublishFailed      = "PUBLISH_FAILED"
)

// DeviceEvent is a single journal entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // MODE_CHANGE | CALIBRATION_REQUEST | ZERO_COMMAND | SENSOR_ERROR | PUBLISH_FAILED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
