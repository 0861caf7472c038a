package models

// SensorCode is the status of the last sensor transaction.
// Numbering follows the MH-Z19 driver library.
type SensorCode uint8

const (
	SensorNull SensorCode = iota
	SensorOK
	SensorTimeout
	SensorMatch
	SensorCRC
	SensorFilter
	SensorFailed
)

func (c SensorCode) String() string {
	switch c {
	case SensorNull:
		return "NULL"
	case SensorOK:
		return "OK"
	case SensorTimeout:
		return "TIMEOUT"
	case SensorMatch:
		return "MATCH"
	case SensorCRC:
		return "CRC"
	case SensorFilter:
		return "FILTER"
	default:
		return "FAILED"
	}
}

// Measurement is one sensor sample. CO2 == 0 marks a failed read.
type Measurement struct {
	CO2          uint16     `json:"co2_ppm"`
	TemperatureC float64    `json:"temperature_c"`
	Code         SensorCode `json:"-"`
}

// OK reports whether the sample is usable.
func (m Measurement) OK() bool {
	return m.CO2 > 0
}
