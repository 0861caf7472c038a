package sensor

import (
	"math"
	"sync"
)

// Simulated produces a slow synthetic CO₂ wave for running without hardware.
type Simulated struct {
	mu        sync.Mutex
	BasePPM   float64
	SwingPPM  float64
	TempC     float64
	FailEvery int // every Nth read fails with a timeout; 0 disables

	reads      int
	zeroed     int
	autoCalOn  bool
	phase      float64
	phaseDelta float64
}

// NewSimulated returns a driver oscillating around base by swing ppm.
func NewSimulated(base, swing float64, failEvery int) *Simulated {
	return &Simulated{
		BasePPM:    base,
		SwingPPM:   swing,
		TempC:      21,
		FailEvery:  failEvery,
		phaseDelta: 0.15,
	}
}

func (s *Simulated) SetAutoCalibration(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoCalOn = on
	return nil
}

func (s *Simulated) CalibrateZero() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zeroed++
	return nil
}

func (s *Simulated) Read() (uint16, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.FailEvery > 0 && s.reads%s.FailEvery == 0 {
		return 0, 0, ErrTimeout
	}
	v := s.BasePPM + s.SwingPPM*math.Sin(s.phase)
	s.phase += s.phaseDelta
	if v < 1 {
		v = 1
	}
	return uint16(v), s.TempC, nil
}

// ZeroCommands returns how many zero calibrations were requested.
func (s *Simulated) ZeroCommands() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zeroed
}

// AutoCalibration reports whether ABC was last switched on.
func (s *Simulated) AutoCalibration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoCalOn
}
