package clock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsed_AcrossWrap(t *testing.T) {
	start := uint32(math.MaxUint32 - 999)
	now := uint32(500) // 1500 ms later, after the wrap

	assert.Equal(t, uint32(1500), Elapsed(now, start))
	assert.True(t, Elapsed(now, start) < 180000, "phase must not look finished after a wrap")
}

func TestReached(t *testing.T) {
	cases := []struct {
		name     string
		now      uint32
		deadline uint32
		want     bool
	}{
		{"before", 100, 200, false},
		{"exact", 200, 200, true},
		{"after", 201, 200, true},
		{"deadline_past_wrap_not_yet", math.MaxUint32 - 10, 5, false},
		{"deadline_past_wrap_reached", 6, 5, true},
		{"now_wrapped_deadline_before_wrap", 10, math.MaxUint32 - 10, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Reached(tc.now, tc.deadline))
		})
	}
}

func TestManual(t *testing.T) {
	m := NewManual(10)
	assert.Equal(t, uint32(10), m.Millis())
	assert.Equal(t, uint32(25), m.Advance(15))
	m.Set(math.MaxUint32)
	assert.Equal(t, uint32(0), m.Advance(1))
}

func TestMonotonic_NonDecreasingWithOffset(t *testing.T) {
	m := NewMonotonic(math.MaxUint32 - 5)
	first := m.Millis()
	time.Sleep(20 * time.Millisecond)
	second := m.Millis()

	assert.GreaterOrEqual(t, Elapsed(second, first), uint32(20))
	assert.True(t, Reached(second, first))
}
