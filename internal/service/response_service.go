package service

import "time"

// LogFilter selects journal entries by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "MODE_CHANGE", "CALIBRATION_REQUEST", "ZERO_COMMAND", "SENSOR_ERROR", "PUBLISH_FAILED"
}

// CalibrationAck is returned when a remote zero calibration was queued.
type CalibrationAck struct {
	Source  string    `json:"source"`
	ClockMS uint32    `json:"clock_ms"`
	Queued  time.Time `json:"queued_at"`
}
