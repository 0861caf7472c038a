package service

import (
	"context"
	"testing"

	"co2_ampel/internal/button"
	"co2_ampel/internal/clock"
)

func TestCalibrationService_Request(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		source     string
		wantSource string
	}{
		{name: "explicit source", source: button.SourceSignal, wantSource: button.SourceSignal},
		{name: "empty defaults to http", source: "", wantSource: button.SourceHTTP},
		{name: "whitespace defaults to http", source: "   ", wantSource: button.SourceHTTP},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			clk := clock.NewManual(123456)
			mb := &fakeEvents{}
			svc := NewCalibrationService(clk, mb)

			ack, err := svc.Request(context.Background(), tc.source)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ack.Source != tc.wantSource || ack.ClockMS != 123456 {
				t.Fatalf("unexpected ack %+v", ack)
			}
			if ack.Queued.IsZero() || ack.Queued.Location().String() != "UTC" {
				t.Fatalf("queued time must be set in UTC, got %v", ack.Queued)
			}

			ev, ok := mb.Poll()
			if !ok {
				t.Fatalf("expected a queued event")
			}
			if ev.At != 123456 || ev.Source != tc.wantSource {
				t.Fatalf("unexpected event %+v", ev)
			}
		})
	}
}

func TestCalibrationService_RequestCanceled(t *testing.T) {
	t.Parallel()

	mb := &fakeEvents{}
	svc := NewCalibrationService(clock.NewManual(0), mb)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Request(ctx, ""); err == nil {
		t.Fatalf("expected error for canceled context")
	}
	if _, ok := mb.Poll(); ok {
		t.Fatalf("canceled request must not be queued")
	}
}

// A queued request reaches the controller on its next step.
func TestCalibrationService_FeedsController(t *testing.T) {
	r := newRig(0, fastTimings)
	svc := NewCalibrationService(r.clk, r.events)
	r.ctrl.Start(context.Background())
	r.at(3000)

	if _, err := svc.Request(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.at(3010)
	if r.sensor.zeroCmds != 1 {
		t.Fatalf("expected one zero command, got %d", r.sensor.zeroCmds)
	}
}
