package hal

import (
	"co2_ampel/internal/config"
	"co2_ampel/internal/indicator"
	"co2_ampel/internal/logger"
	"co2_ampel/internal/sensor"
	"co2_ampel/internal/uplink"
)

const simSwingPPM = 450

// openSimulated can reach every configured access point.
func openSimulated(cfg config.HardwareConfig, aps []uplink.AccessPoint, log *logger.Logger) *Devices {
	base := float64(cfg.SimBasePPM)
	if base <= 0 {
		base = 650
	}
	ssids := make([]string, 0, len(aps))
	for _, ap := range aps {
		ssids = append(ssids, ap.SSID)
	}
	d := &Devices{
		Sensor:    sensor.NewSimulated(base, simSwingPPM, cfg.SimFailEvery),
		Strip:     indicator.NewMemoryStrip(cfg.PixelCount),
		Station:   uplink.NewSimulatedStation(ssids...),
		Simulated: true,
	}
	log.Infow("running with simulated hardware",
		"base_ppm", base,
		"fail_every", cfg.SimFailEvery,
		"pixels", cfg.PixelCount)
	return d
}
