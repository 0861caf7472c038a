package hal

import (
	"co2_ampel/internal/button"
	"co2_ampel/internal/config"
	"co2_ampel/internal/indicator"
	"co2_ampel/internal/logger"
	"co2_ampel/internal/sensor"
	"co2_ampel/internal/uplink"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func openReal(cfg config.HardwareConfig, log *logger.Logger) (*Devices, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	d := &Devices{}

	drv, port, err := sensor.OpenMHZ19(cfg.SensorPort, cfg.SensorBaud)
	if err != nil {
		return nil, err
	}
	d.Sensor = drv
	d.track(port)

	spiPort, err := spireg.Open(cfg.PixelSPI)
	if err != nil {
		_ = d.Close()
		return nil, errors.Wrapf(err, "open spi port %q", cfg.PixelSPI)
	}
	d.track(spiPort)

	strip, err := indicator.NewNRZStrip(spiPort, cfg.PixelCount)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.Strip = strip
	d.track(strip)

	if cfg.ButtonPin != "" {
		pin, err := button.OpenPin(cfg.ButtonPin)
		if err != nil {
			// the signal watcher still covers calibration requests
			log.Warnw("button pin unavailable", "pin", cfg.ButtonPin, "err", err)
		} else {
			d.Button = pin
		}
	}

	d.Station = uplink.NewNMCLIStation(cfg.WifiInterface, nil)
	log.Infow("hardware opened",
		"sensor", cfg.SensorPort,
		"spi", cfg.PixelSPI,
		"pixels", cfg.PixelCount,
		"button", cfg.ButtonPin)
	return d, nil
}
