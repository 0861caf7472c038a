package service

import (
	"context"
	"strings"
	"time"

	"co2_ampel/internal/button"
	"co2_ampel/internal/clock"
)

// Poster accepts calibration requests for the controller loop.
type Poster interface {
	Post(ev button.Event)
}

// CalibrationService is the remote equivalent of the calibration button.
type CalibrationService struct {
	clk     clock.Clock
	mailbox Poster
}

func NewCalibrationService(clk clock.Clock, mailbox Poster) *CalibrationService {
	return &CalibrationService{clk: clk, mailbox: mailbox}
}

// Request queues a zero calibration. The controller picks it up on its next
// tick; the press time is the clock reading taken here.
func (s *CalibrationService) Request(ctx context.Context, source string) (CalibrationAck, error) {
	if err := ctx.Err(); err != nil {
		return CalibrationAck{}, err
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = button.SourceHTTP
	}
	at := s.clk.Millis()
	s.mailbox.Post(button.Event{At: at, Source: source})
	return CalibrationAck{Source: source, ClockMS: at, Queued: time.Now().UTC()}, nil
}
