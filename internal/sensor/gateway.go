package sensor

import (
	"context"
	"errors"
	"sync"

	"co2_ampel/internal/logger"
	"co2_ampel/internal/models"
)

// Driver errors. Drivers wrap these so the gateway can map them to codes.
var (
	ErrTimeout  = errors.New("sensor: response timeout")
	ErrMismatch = errors.New("sensor: response does not match command")
	ErrChecksum = errors.New("sensor: checksum mismatch")
	ErrFiltered = errors.New("sensor: value filtered")
)

// Driver talks to an NDIR CO₂ sensor.
type Driver interface {
	SetAutoCalibration(on bool) error
	CalibrateZero() error
	Read() (co2 uint16, tempC float64, err error)
}

// Gateway owns the sensor link and turns driver errors into sensor codes.
type Gateway struct {
	drv Driver
	log *logger.Logger

	mu   sync.Mutex
	last models.SensorCode
}

// NewGateway wraps drv.
func NewGateway(drv Driver, log *logger.Logger) *Gateway {
	return &Gateway{drv: drv, log: log, last: models.SensorNull}
}

// Init enables the sensor's auto calibration, which takes the lowest value
// seen in 24h as the 400 ppm baseline.
func (g *Gateway) Init(ctx context.Context) error {
	err := g.drv.SetAutoCalibration(true)
	g.setCode(err)
	return err
}

// RequestZeroCalibration sends the zero point command. The sensor decides
// when the new baseline takes effect.
func (g *Gateway) RequestZeroCalibration(ctx context.Context) error {
	err := g.drv.CalibrateZero()
	g.setCode(err)
	return err
}

// Read blocks for one sensor round trip. A failed read comes back with
// CO2 == 0 and a non-OK code.
func (g *Gateway) Read(ctx context.Context) models.Measurement {
	if err := ctx.Err(); err != nil {
		g.setCode(err)
		return models.Measurement{Code: g.LastCode()}
	}
	co2, temp, err := g.drv.Read()
	if err == nil && co2 == 0 {
		err = ErrFiltered
	}
	code := g.setCode(err)
	if err != nil {
		if g.log != nil {
			g.log.Debugw("sensor_read_failed", "code", code.String(), "err", err)
		}
		return models.Measurement{Code: code}
	}
	return models.Measurement{CO2: co2, TemperatureC: temp, Code: code}
}

// LastCode is the code of the most recent transaction.
func (g *Gateway) LastCode() models.SensorCode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func (g *Gateway) setCode(err error) models.SensorCode {
	code := codeFor(err)
	g.mu.Lock()
	g.last = code
	g.mu.Unlock()
	return code
}

func codeFor(err error) models.SensorCode {
	switch {
	case err == nil:
		return models.SensorOK
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.SensorTimeout
	case errors.Is(err, ErrMismatch):
		return models.SensorMatch
	case errors.Is(err, ErrChecksum):
		return models.SensorCRC
	case errors.Is(err, ErrFiltered):
		return models.SensorFilter
	default:
		return models.SensorFailed
	}
}
