package indicator

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
)

// NRZStrip drives WS2812-style pixels through an SPI port. The nrzled driver
// handles the 800 kHz NRZ encoding and the GRB wire order; this type only
// keeps the RGB frame buffer.
type NRZStrip struct {
	mu  sync.Mutex
	dev *nrzled.Dev
	buf []byte
	n   int
}

// NewNRZStrip opens n pixels on port.
func NewNRZStrip(port spi.Port, n int) (*NRZStrip, error) {
	opts := nrzled.DefaultOpts
	opts.NumPixels = n
	opts.Channels = 3
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("open nrzled on spi: %w", err)
	}
	return &NRZStrip{dev: dev, buf: make([]byte, 3*n), n: n}, nil
}

func (s *NRZStrip) Len() int { return s.n }

func (s *NRZStrip) SetPixel(i int, c RGB) {
	if i < 0 || i >= s.n {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf[3*i] = c.R
	s.buf[3*i+1] = c.G
	s.buf[3*i+2] = c.B
}

func (s *NRZStrip) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.dev.Write(s.buf); err != nil {
		return fmt.Errorf("write %d pixels: %w", s.n, err)
	}
	return nil
}

// Close blanks the strip and releases the driver.
func (s *NRZStrip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Halt()
}
