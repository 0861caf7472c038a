package service

import (
	"context"
	"time"

	"co2_ampel/internal/models"
	"co2_ampel/internal/repository"
)

type MonitoringService struct {
	stateRepo repository.StateRepo
}

func NewMonitoringService(stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo}
}

// GetState returns the latest persisted device state.
// Before the controller saved anything it returns a baseline INITIALIZATION snapshot.
func (s *MonitoringService) GetState(ctx context.Context) (models.DeviceState, error) {
	state, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.DeviceState{}, err
	}
	if state.ID == 0 {
		return s.baselineState(), nil
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	return state, nil
}

func (s *MonitoringService) baselineState() models.DeviceState {
	return models.DeviceState{
		ID:        1, // single-row state, id=1
		Mode:      models.ModeInitialization,
		UpdatedAt: time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
