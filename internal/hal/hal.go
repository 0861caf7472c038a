// Package hal opens the device peripherals: the CO₂ sensor, the pixel strip,
// the calibration button and the Wi-Fi station. Simulate swaps every one of
// them for an in-process stand-in.
package hal

import (
	"io"

	"co2_ampel/internal/button"
	"co2_ampel/internal/config"
	"co2_ampel/internal/indicator"
	"co2_ampel/internal/logger"
	"co2_ampel/internal/sensor"
	"co2_ampel/internal/uplink"
)

// Devices is the set of opened peripherals.
type Devices struct {
	Sensor  sensor.Driver
	Strip   indicator.Strip
	Station uplink.Station
	// Button is nil when no pin is configured or the host has none.
	Button    button.EdgePin
	Simulated bool

	closers []io.Closer
}

// Open returns real hardware unless cfg.Hardware.Simulate is set.
func Open(cfg *config.Config, log *logger.Logger) (*Devices, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Hardware.Simulate {
		return openSimulated(cfg.Hardware, cfg.Wifi.AccessPoints, log), nil
	}
	return openReal(cfg.Hardware, log)
}

// Close releases the peripherals in reverse opening order. The strip is
// blanked before its port closes.
func (d *Devices) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	d.closers = nil
	return first
}

func (d *Devices) track(c io.Closer) {
	if c != nil {
		d.closers = append(d.closers, c)
	}
}
