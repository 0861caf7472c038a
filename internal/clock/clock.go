package clock

import (
	"sync/atomic"
	"time"
)

// Clock supplies a 32-bit millisecond counter that wraps after ~49.7 days.
type Clock interface {
	Millis() uint32
}

// Monotonic counts milliseconds since it was created, plus an optional offset.
// Go's monotonic time reading backs it, so wall clock jumps do not affect it.
type Monotonic struct {
	boot   time.Time
	offset uint32
}

// NewMonotonic returns a clock starting at offset milliseconds.
// A non-zero offset lets a bench setup run through the counter wrap quickly.
func NewMonotonic(offset uint32) *Monotonic {
	return &Monotonic{boot: time.Now(), offset: offset}
}

// Millis returns the current counter value.
func (m *Monotonic) Millis() uint32 {
	// truncation to 32 bits is the wrap
	return m.offset + uint32(time.Since(m.boot).Milliseconds())
}

// Elapsed returns now-start using unsigned arithmetic, correct across one wrap.
func Elapsed(now, start uint32) uint32 {
	return now - start
}

// Reached reports whether now is at or past deadline.
// Valid while the two are less than 2^31 ms apart.
func Reached(now, deadline uint32) bool {
	return int32(now-deadline) >= 0
}

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	now atomic.Uint32
}

// NewManual returns a manual clock set to start.
func NewManual(start uint32) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

func (m *Manual) Millis() uint32 { return m.now.Load() }

// Set moves the clock to ms.
func (m *Manual) Set(ms uint32) { m.now.Store(ms) }

// Advance moves the clock forward by d milliseconds and returns the new value.
func (m *Manual) Advance(d uint32) uint32 { return m.now.Add(d) }
