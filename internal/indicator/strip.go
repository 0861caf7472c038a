package indicator

import (
	"sync"
)

// RGB is an 8-bit per channel color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	Black = RGB{}
	White = RGB{255, 255, 255}
	Cyan  = RGB{0, 255, 255}
)

// Strip is a chain of addressable pixels. SetPixel only buffers; Show latches
// the buffer out to the LEDs.
type Strip interface {
	Len() int
	SetPixel(i int, c RGB)
	Show() error
}

// MemoryStrip keeps the pixels in memory. It backs simulation mode and tests.
type MemoryStrip struct {
	mu     sync.Mutex
	buf    []RGB
	shown  []RGB
	frames int
}

// NewMemoryStrip returns a strip of n pixels, all off.
func NewMemoryStrip(n int) *MemoryStrip {
	return &MemoryStrip{buf: make([]RGB, n), shown: make([]RGB, n)}
}

func (s *MemoryStrip) Len() int { return len(s.buf) }

func (s *MemoryStrip) SetPixel(i int, c RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.buf) {
		s.buf[i] = c
	}
}

func (s *MemoryStrip) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.shown, s.buf)
	s.frames++
	return nil
}

// Pixels returns a copy of what was last shown.
func (s *MemoryStrip) Pixels() []RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RGB, len(s.shown))
	copy(out, s.shown)
	return out
}

// Frames returns the number of Show calls so far.
func (s *MemoryStrip) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
