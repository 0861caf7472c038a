package models

import "time"

// DeviceState is the latest status snapshot of the indicator.
type DeviceState struct {
	ID              int       `json:"id"`
	Mode            Mode      `json:"mode"`
	ProgressPercent int       `json:"progress_percent"`        // warm-up / zero calibration only
	CO2             int       `json:"co2_ppm,omitempty"`       // last good sample
	TemperatureC    float64   `json:"temperature_c,omitempty"` // °C
	Band            string    `json:"band,omitempty"`          // EXCELLENT .. CRITICAL
	Color           [3]uint8  `json:"color"`                   // unscaled RGB
	WifiUp          bool      `json:"wifi_up"`
	DBUp            bool      `json:"db_up"`
	UplinkEnabled   bool      `json:"uplink_enabled"`
	ErrorCodes      []string  `json:"error_codes,omitempty"` // e.g. ["SENSOR_TIMEOUT"]
	UpdatedAt       time.Time `json:"updated_at"`
}
