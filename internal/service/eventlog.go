package service

import (
	"context"
	"errors"
	"strings"

	"co2_ampel/internal/models"
	"co2_ampel/internal/repository"
)

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// EventLogService reads the device journal.
type EventLogService struct {
	journal repository.EventRepo
}

func NewEventLogService(journal repository.EventRepo) *EventLogService {
	return &EventLogService{journal: journal}
}

// normalized returns f with both bounds in UTC and the type upper-cased.
// Zero bounds stay zero.
func (f LogFilter) normalized() (LogFilter, error) {
	if !f.From.IsZero() {
		f.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		f.To = f.To.UTC()
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return LogFilter{}, errInvalidTimeRange
	}
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	return f, nil
}

// List returns journal entries matching f, oldest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	nf, err := f.normalized()
	if err != nil {
		return nil, err
	}
	return s.journal.List(ctx, nf.From, nf.To, nf.Type)
}
