package uplink

import (
	"context"
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
)

// Point schema. Downstream dashboards depend on these names.
const (
	MeasurementName  = "Sensoren"
	TagLocation      = "location"
	FieldCO2         = "co2"
	FieldTemperature = "temperature"
)

const defaultDBTimeout = 5 * time.Second

// Database is the time-series store a sample is written to.
type Database interface {
	Ping(ctx context.Context) error
	Write(ctx context.Context, co2 int, temperatureC float64) error
	URL() string
}

// InfluxConfig holds the InfluxDB 1.x connection parameters.
type InfluxConfig struct {
	URL      string        `mapstructure:"url"`
	Database string        `mapstructure:"database"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Influx writes points over the InfluxDB 1.x HTTP API.
type Influx struct {
	c        client.Client
	url      string
	database string
	location string
	timeout  time.Duration
}

// NewInflux creates a client for cfg. location becomes the constant tag of every point.
func NewInflux(cfg InfluxConfig, location string) (*Influx, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDBTimeout
	}
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("influxdb client for %q: %w", cfg.URL, err)
	}
	return &Influx{
		c:        c,
		url:      cfg.URL,
		database: cfg.Database,
		location: location,
		timeout:  cfg.Timeout,
	}, nil
}

func (i *Influx) URL() string { return i.url }

// Ping checks the server is reachable.
func (i *Influx) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := i.c.Ping(i.timeout); err != nil {
		return fmt.Errorf("ping %s: %w", i.url, err)
	}
	return nil
}

// Write sends one point. The timestamp is left to the server.
func (i *Influx) Write(ctx context.Context, co2 int, temperatureC float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: i.database})
	if err != nil {
		return fmt.Errorf("new batch: %w", err)
	}
	pt, err := client.NewPoint(
		MeasurementName,
		map[string]string{TagLocation: i.location},
		map[string]interface{}{
			FieldCO2:         co2,
			FieldTemperature: temperatureC,
		},
	)
	if err != nil {
		return fmt.Errorf("new point: %w", err)
	}
	bp.AddPoint(pt)
	if err := i.c.Write(bp); err != nil {
		return fmt.Errorf("write to %s/%s: %w", i.url, i.database, err)
	}
	return nil
}

// Close releases idle connections.
func (i *Influx) Close() error {
	return i.c.Close()
}
