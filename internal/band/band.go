// Package band maps CO₂ concentrations onto the seven indicator colors.
package band

import (
	"co2_ampel/internal/indicator"
)

// Band is an air quality bucket. Higher values mean worse air.
type Band uint8

const (
	Excellent Band = iota
	Good
	Fair
	Mediocre
	Poor
	Bad
	Critical
)

// Inclusive upper bounds in ppm. Anything above the last one is Critical.
var thresholds = [...]uint16{500, 700, 900, 1100, 1500, 2000}

var colors = [...]indicator.RGB{
	Excellent: {R: 44, G: 186, B: 0},
	Good:      {R: 163, G: 255, B: 0},
	Fair:      {R: 255, G: 244, B: 0},
	Mediocre:  {R: 255, G: 167, B: 0},
	Poor:      {R: 255, G: 0, B: 0},
	Bad:       {R: 255, G: 0, B: 127},
	Critical:  {R: 255, G: 0, B: 255},
}

var names = [...]string{
	Excellent: "EXCELLENT",
	Good:      "GOOD",
	Fair:      "FAIR",
	Mediocre:  "MEDIOCRE",
	Poor:      "POOR",
	Bad:       "BAD",
	Critical:  "CRITICAL",
}

// Classify returns the band for ppm. It is total and monotonic.
func Classify(ppm uint16) Band {
	for i, upper := range thresholds {
		if ppm <= upper {
			return Band(i)
		}
	}
	return Critical
}

// Color is the indicator color for b.
func (b Band) Color() indicator.RGB {
	if int(b) >= len(colors) {
		return colors[Critical]
	}
	return colors[b]
}

func (b Band) String() string {
	if int(b) >= len(names) {
		return "UNKNOWN"
	}
	return names[b]
}
