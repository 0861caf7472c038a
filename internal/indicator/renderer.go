package indicator

import (
	"co2_ampel/internal/logger"
)

const (
	// DefaultBrightness is the global brightness applied to every pixel, out of 255.
	DefaultBrightness = 5

	// RampCycleMS is one full up-then-down cycle of the loading pulse.
	RampCycleMS = 1000
)

// Renderer drives the pixel strip. It never blocks beyond a single Show and
// keeps no animation state of its own: callers step animations frame by frame.
type Renderer struct {
	strip      Strip
	brightness uint8
	log        *logger.Logger
}

// NewRenderer wraps strip with the given global brightness.
func NewRenderer(strip Strip, brightness uint8, log *logger.Logger) *Renderer {
	return &Renderer{strip: strip, brightness: brightness, log: log}
}

// Solid sets every pixel to c.
func (r *Renderer) Solid(c RGB) {
	scaled := r.scale(c)
	for i := 0; i < r.strip.Len(); i++ {
		r.strip.SetPixel(i, scaled)
	}
	r.show()
}

// Off turns every pixel off.
func (r *Renderer) Off() {
	r.Solid(Black)
}

// Loading draws one frame of the progress animation. The first
// percent*(N-1)/100 pixels are solid white, the next one pulses white
// according to phaseMS within the ramp cycle, the rest are off.
// On a one-pixel strip only the pulse is visible.
func (r *Renderer) Loading(percent uint8, phaseMS uint32) {
	if percent > 100 {
		percent = 100
	}
	n := r.strip.Len()
	if n == 0 {
		return
	}
	lit := int(percent) * (n - 1) / 100
	white := r.scale(White)
	for i := 0; i < lit; i++ {
		r.strip.SetPixel(i, white)
	}
	if lit < n {
		level := RampLevel(phaseMS)
		r.strip.SetPixel(lit, r.scale(RGB{level, level, level}))
	}
	for i := lit + 1; i < n; i++ {
		r.strip.SetPixel(i, Black)
	}
	r.show()
}

// RampLevel maps a phase within the ramp cycle to a 0→255→0 triangle.
func RampLevel(phaseMS uint32) uint8 {
	p := phaseMS % RampCycleMS
	half := uint32(RampCycleMS / 2)
	if p < half {
		return uint8(p * 255 / half)
	}
	return uint8((RampCycleMS - p) * 255 / half)
}

// scale applies the global brightness the way NeoPixel strips do.
func (r *Renderer) scale(c RGB) RGB {
	b := uint16(r.brightness) + 1
	return RGB{
		R: uint8((uint16(c.R) * b) >> 8),
		G: uint8((uint16(c.G) * b) >> 8),
		B: uint8((uint16(c.B) * b) >> 8),
	}
}

func (r *Renderer) show() {
	if err := r.strip.Show(); err != nil && r.log != nil {
		r.log.Errorw("indicator_show_failed", "err", err)
	}
}
