package band

import (
	"math"
	"testing"

	"co2_ampel/internal/indicator"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		ppm  uint16
		want Band
		rgb  indicator.RGB
	}{
		{0, Excellent, indicator.RGB{R: 44, G: 186, B: 0}},
		{450, Excellent, indicator.RGB{R: 44, G: 186, B: 0}},
		{500, Excellent, indicator.RGB{R: 44, G: 186, B: 0}},
		{501, Good, indicator.RGB{R: 163, G: 255, B: 0}},
		{700, Good, indicator.RGB{R: 163, G: 255, B: 0}},
		{701, Fair, indicator.RGB{R: 255, G: 244, B: 0}},
		{900, Fair, indicator.RGB{R: 255, G: 244, B: 0}},
		{901, Mediocre, indicator.RGB{R: 255, G: 167, B: 0}},
		{1100, Mediocre, indicator.RGB{R: 255, G: 167, B: 0}},
		{1101, Poor, indicator.RGB{R: 255, G: 0, B: 0}},
		{1500, Poor, indicator.RGB{R: 255, G: 0, B: 0}},
		{1501, Bad, indicator.RGB{R: 255, G: 0, B: 127}},
		{2000, Bad, indicator.RGB{R: 255, G: 0, B: 127}},
		{2001, Critical, indicator.RGB{R: 255, G: 0, B: 255}},
		{2500, Critical, indicator.RGB{R: 255, G: 0, B: 255}},
		{math.MaxUint16, Critical, indicator.RGB{R: 255, G: 0, B: 255}},
	}
	for _, tc := range cases {
		got := Classify(tc.ppm)
		assert.Equal(t, tc.want, got, "ppm=%d", tc.ppm)
		assert.Equal(t, tc.rgb, got.Color(), "ppm=%d", tc.ppm)
	}
}

func TestClassify_MonotonicAndTotal(t *testing.T) {
	prev := Classify(0)
	for ppm := 1; ppm <= math.MaxUint16; ppm++ {
		cur := Classify(uint16(ppm))
		if cur < prev {
			t.Fatalf("band decreased at %d: %v -> %v", ppm, prev, cur)
		}
		if cur > Critical {
			t.Fatalf("band out of range at %d: %d", ppm, cur)
		}
		prev = cur
	}
}

func TestBand_String(t *testing.T) {
	assert.Equal(t, "EXCELLENT", Excellent.String())
	assert.Equal(t, "CRITICAL", Critical.String())
	assert.Equal(t, "UNKNOWN", Band(42).String())
}
