package service

import (
	"context"
	"time"

	"co2_ampel/internal/clock"
	"co2_ampel/internal/config"
	"co2_ampel/internal/logger"
	"co2_ampel/internal/models"
	"co2_ampel/internal/repository"
)

type Authorization interface {
	Enabled() bool
	Seed(ctx context.Context) error
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Calibration queues remote zero calibration requests.
type Calibration interface {
	Request(ctx context.Context, source string) (CalibrationAck, error)
}

// Monitoring exposes the read-only device state.
type Monitoring interface {
	GetState(ctx context.Context) (models.DeviceState, error)
}

// EventLog exposes the journal with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Controller runs the device main loop until ctx is canceled.
type Controller interface {
	Run(ctx context.Context, frame time.Duration)
}

type Service struct {
	Calibration
	Monitoring
	EventLog
	Controller
	Authorization
}

// Deps are the device collaborators the controller drives.
type Deps struct {
	Clock   clock.Clock
	Sensor  SensorGateway
	Display Display
	Uplink  Publisher
	Mailbox interface {
		EventSource
		Poster
	}
	Timings Timings
	Auth    config.AuthConfig
	Log     *logger.Logger
}

// NewService wires the repositories and device collaborators into services.
func NewService(repos *repository.Repository, d Deps) *Service {
	return &Service{
		Calibration: NewCalibrationService(d.Clock, d.Mailbox),
		Monitoring:  NewMonitoringService(repos.StateRepo),
		EventLog:    NewEventLogService(repos.EventRepo),
		Controller: NewControllerService(ControllerDeps{
			Clock:   d.Clock,
			Sensor:  d.Sensor,
			Display: d.Display,
			Uplink:  d.Uplink,
			Events:  d.Mailbox,
			States:  repos.StateRepo,
			Journal: repos.EventRepo,
			Timings: d.Timings,
			Log:     d.Log,
		}),
		Authorization: NewAuthService(repos.Operators, d.Auth),
	}
}
