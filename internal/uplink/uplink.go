package uplink

import (
	"context"
	"time"

	"co2_ampel/internal/logger"
	"co2_ampel/internal/models"
)

const (
	// WifiConnectTimeout bounds one BringUp call across all APs.
	WifiConnectTimeout = 10 * time.Second

	// MaxAccessPoints is how many APs may be configured.
	MaxAccessPoints = 3
)

// Policy says whether samples are published at all.
type Policy int

const (
	Disabled Policy = iota
	Active
)

func (p Policy) String() string {
	if p == Active {
		return "active"
	}
	return "disabled"
}

// State is the result of the last link check.
type State struct {
	WifiUp bool `json:"wifi_up"`
	DBUp   bool `json:"db_up"`
}

// Ready reports whether a publish may be attempted.
func (s State) Ready() bool { return s.WifiUp && s.DBUp }

// Uplink combines the Wi-Fi association and the database connection.
type Uplink struct {
	policy  Policy
	aps     []AccessPoint
	station Station
	db      Database
	timeout time.Duration
	log     *logger.Logger
}

// New builds the uplink. Without a database there is nothing to publish to,
// so the policy is Disabled. Without APs the host network is managed
// elsewhere and Wi-Fi counts as up.
func New(aps []AccessPoint, station Station, db Database, log *logger.Logger) *Uplink {
	if log == nil {
		log = logger.Nop()
	}
	u := &Uplink{
		aps:     aps,
		station: station,
		db:      db,
		timeout: WifiConnectTimeout,
		log:     log,
	}
	if db != nil {
		u.policy = Active
	}
	return u
}

// NewDisabled returns an uplink that never publishes.
func NewDisabled() *Uplink {
	return &Uplink{policy: Disabled, log: logger.Nop()}
}

// Policy returns whether publishing is enabled.
func (u *Uplink) Policy() Policy { return u.policy }

// Enabled is shorthand for Policy() == Active.
func (u *Uplink) Enabled() bool { return u.policy == Active }

// BringUp makes sure the radio is associated with one of the configured APs,
// trying them in priority order within the connect timeout.
func (u *Uplink) BringUp(ctx context.Context) bool {
	if !u.Enabled() {
		return false
	}
	if len(u.aps) == 0 || u.station == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if cur, err := u.station.Current(ctx); err == nil && u.known(cur) {
		u.log.Infof("Connected to wireless network '%s'", cur)
		return true
	}

	for _, ap := range u.aps {
		if ctx.Err() != nil {
			break
		}
		if err := u.station.Connect(ctx, ap); err != nil {
			u.log.Debugw("wifi_connect_failed", "ssid", ap.SSID, "err", err)
			continue
		}
		u.log.Infof("Connected to wireless network '%s'", ap.SSID)
		return true
	}
	u.log.Warnf("Could not connect to WiFi")
	return false
}

// Validate checks the database endpoint.
func (u *Uplink) Validate(ctx context.Context) bool {
	if !u.Enabled() {
		return false
	}
	if err := u.db.Ping(ctx); err != nil {
		u.log.Warnf("InfluxDB connection failed: %v", err)
		return false
	}
	u.log.Infof("Connected to InfluxDB: %s", u.db.URL())
	return true
}

// Publish writes one sample. No retry, no buffering.
func (u *Uplink) Publish(ctx context.Context, m models.Measurement) bool {
	if !u.Enabled() {
		return false
	}
	if err := u.db.Write(ctx, int(m.CO2), m.TemperatureC); err != nil {
		u.log.Warnf("InfluxDB write failed: %v", err)
		return false
	}
	u.log.Infof("Send OK")
	return true
}

func (u *Uplink) known(ssid string) bool {
	if ssid == "" {
		return false
	}
	for _, ap := range u.aps {
		if ap.SSID == ssid {
			return true
		}
	}
	return false
}
