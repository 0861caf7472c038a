package models

// Mode is the externally visible name of the device mode.
type Mode string

const (
	ModeInitialization  Mode = "INITIALIZATION"
	ModeZeroCalibration Mode = "ZERO_CALIBRATION"
	ModeMeasurement     Mode = "MEASUREMENT"
)

// Valid reports whether m is one of the three defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeInitialization, ModeZeroCalibration, ModeMeasurement:
		return true
	}
	return false
}
