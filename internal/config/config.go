package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"co2_ampel/internal/uplink"

	"github.com/spf13/viper"
)

// Config is the full device configuration read from configs/config.yml.
type Config struct {
	Log      LogConfig           `mapstructure:"log"`
	Location string              `mapstructure:"location"`
	Hardware HardwareConfig      `mapstructure:"hardware"`
	Wifi     WifiConfig          `mapstructure:"wifi"`
	InfluxDB uplink.InfluxConfig `mapstructure:"influxdb"`
	Timing   TimingConfig        `mapstructure:"timing"`
	DB       DBConfig            `mapstructure:"db"`
	HTTP     HTTPConfig          `mapstructure:"http"`
	Auth     AuthConfig          `mapstructure:"auth"`
}

// LogConfig selects the level and the diagnostic sink.
type LogConfig struct {
	Level string `mapstructure:"level"`
	// Console is a serial device for diagnostics (e.g. /dev/ttyGS0); empty means stdout.
	Console     string `mapstructure:"console"`
	ConsoleBaud int    `mapstructure:"console_baud"`
}

// HardwareConfig wires the sensor, the pixel and the button.
type HardwareConfig struct {
	Simulate      bool   `mapstructure:"simulate"`
	SensorPort    string `mapstructure:"sensor_port"`
	SensorBaud    int    `mapstructure:"sensor_baud"`
	PixelSPI      string `mapstructure:"pixel_spi"`
	PixelCount    int    `mapstructure:"pixel_count"`
	Brightness    int    `mapstructure:"brightness"`
	ButtonPin     string `mapstructure:"button_pin"`
	WifiInterface string `mapstructure:"wifi_interface"`
	ClockOffsetMS uint32 `mapstructure:"clock_offset_ms"`
	SimFailEvery  int    `mapstructure:"sim_fail_every"`
	SimBasePPM    int    `mapstructure:"sim_base_ppm"`
}

// WifiConfig lists up to three access points in priority order.
type WifiConfig struct {
	AccessPoints []uplink.AccessPoint `mapstructure:"access_points"`
}

// TimingConfig overrides the controller timings. Zero keeps the default.
type TimingConfig struct {
	WarmupMS          uint32        `mapstructure:"warmup_ms"`
	ZeroCalibrationMS uint32        `mapstructure:"zero_calibration_ms"`
	SampleIntervalMS  uint32        `mapstructure:"sample_interval_ms"`
	Frame             time.Duration `mapstructure:"frame"`
}

// DBConfig points at the sqlite journal. The default keeps it in memory.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// HTTPConfig controls the status API.
type HTTPConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            string        `mapstructure:"port"`
	RateLimitPerSec float64       `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

// AuthConfig is the operator allowed to trigger calibration remotely.
// An empty username disables authentication.
type AuthConfig struct {
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"`
	SigningKey   string        `mapstructure:"signing_key"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

const (
	defaultConfigDir  = "configs"
	defaultConfigName = "config"
	// MemoryDSN keeps the journal in RAM; nothing survives a reboot.
	MemoryDSN = "file::memory:?cache=shared"
)

var (
	errTooManyAPs   = fmt.Errorf("at most %d wifi access points are supported", uplink.MaxAccessPoints)
	errEmptySSID    = errors.New("wifi access point without ssid")
	errBrightness   = errors.New("hardware.brightness must be between 0 and 255")
	errPixelCount   = errors.New("hardware.pixel_count must be at least 1")
	errNoDatabase   = errors.New("influxdb.database is required when influxdb.url is set")
	errNoSigningKey = errors.New("auth.signing_key is required when auth.username is set")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console_baud", 9600)
	v.SetDefault("location", "default")
	v.SetDefault("hardware.simulate", true)
	v.SetDefault("hardware.sensor_port", "/dev/serial0")
	v.SetDefault("hardware.sensor_baud", 9600)
	v.SetDefault("hardware.pixel_spi", "")
	v.SetDefault("hardware.pixel_count", 1)
	v.SetDefault("hardware.brightness", 5)
	v.SetDefault("hardware.button_pin", "GPIO0")
	v.SetDefault("hardware.sim_base_ppm", 650)
	v.SetDefault("influxdb.timeout", 5*time.Second)
	v.SetDefault("timing.frame", 10*time.Millisecond)
	v.SetDefault("db.path", MemoryDSN)
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.rate_limit_per_sec", 0.2)
	v.SetDefault("http.rate_limit_burst", 1)
	v.SetDefault("http.cache_ttl", 2*time.Second)
	v.SetDefault("auth.token_ttl", time.Hour)
}

// Load reads the config file. An empty path means configs/config.yml.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(defaultConfigDir)
		v.SetConfigName(defaultConfigName)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(v)
}

// LoadReader is Load for an in-memory YAML document.
func LoadReader(yaml string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if len(c.Wifi.AccessPoints) > uplink.MaxAccessPoints {
		return errTooManyAPs
	}
	for _, ap := range c.Wifi.AccessPoints {
		if strings.TrimSpace(ap.SSID) == "" {
			return errEmptySSID
		}
	}
	if c.Hardware.Brightness < 0 || c.Hardware.Brightness > 255 {
		return errBrightness
	}
	if c.Hardware.PixelCount < 1 {
		return errPixelCount
	}
	if c.InfluxDB.URL != "" && c.InfluxDB.Database == "" {
		return errNoDatabase
	}
	if c.Auth.Username != "" && c.Auth.SigningKey == "" {
		return errNoSigningKey
	}
	return nil
}

// UplinkConfigured reports whether samples should be published.
func (c *Config) UplinkConfigured() bool {
	return c.InfluxDB.URL != ""
}
