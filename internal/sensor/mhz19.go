package sensor

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

const (
	// DefaultBaud is the MH-Z19 factory UART speed.
	DefaultBaud = 9600

	frameLen  = 9
	startByte = 0xFF
	sensorID  = 0x01

	cmdReadCO2         = 0x86
	cmdZeroCalibration = 0x87
	cmdAutoCalibration = 0x79

	abcOn  = 0xA0
	abcOff = 0x00

	// The sensor answers within a few ms; the port timeout bounds a dead link.
	readTimeout = 500 * time.Millisecond

	// Temperature byte is offset by 40 °C.
	temperatureOffset = 40

	// maxResync is how many bytes Read may skip looking for a frame header.
	maxResync = 2 * frameLen
)

// flusher discards buffered serial input. *serial.Port implements it.
type flusher interface {
	Flush() error
}

// MHZ19 speaks the MH-Z19(B) 9-byte UART protocol over any byte stream.
type MHZ19 struct {
	mu    sync.Mutex
	port  io.ReadWriter
	flush flusher // nil when the port cannot drop stale input
}

// NewMHZ19 wraps an already opened port.
func NewMHZ19(port io.ReadWriter) *MHZ19 {
	m := &MHZ19{port: port}
	if f, ok := port.(flusher); ok {
		m.flush = f
	}
	return m
}

// OpenMHZ19 opens the serial device at baud and returns the driver with its closer.
func OpenMHZ19(device string, baud int) (*MHZ19, io.Closer, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud, ReadTimeout: readTimeout})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open serial port %s", device)
	}
	return NewMHZ19(p), p, nil
}

// SetAutoCalibration toggles automatic baseline correction (ABC).
func (m *MHZ19) SetAutoCalibration(on bool) error {
	arg := byte(abcOff)
	if on {
		arg = abcOn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Wrap(m.send(cmdAutoCalibration, arg), "set auto calibration")
}

// CalibrateZero tells the sensor that the current air is 400 ppm.
func (m *MHZ19) CalibrateZero() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Wrap(m.send(cmdZeroCalibration, 0), "calibrate zero")
}

// Read returns the CO₂ concentration in ppm and the sensor's internal temperature.
func (m *MHZ19) Read() (uint16, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.send(cmdReadCO2, 0); err != nil {
		return 0, 0, errors.Wrap(err, "request co2")
	}

	resp, err := m.readFrame(cmdReadCO2)
	if err != nil {
		return 0, 0, errors.Wrap(err, "read co2 response")
	}

	co2 := uint16(resp[2])<<8 | uint16(resp[3])
	temp := float64(int(resp[4]) - temperatureOffset)
	return co2, temp, nil
}

// readFrame returns the next valid response to cmd. Bytes before a frame
// header (line noise, the tail of an earlier answer) are skipped, up to
// maxResync of them.
func (m *MHZ19) readFrame(cmd byte) ([]byte, error) {
	win := make([]byte, 0, frameLen)
	one := make([]byte, 1)
	var reject error // why the last full window was not a frame
	for skipped := 0; ; {
		for len(win) < frameLen {
			if _, err := io.ReadFull(m.port, one); err != nil {
				if reject != nil {
					return nil, reject
				}
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					return nil, ErrTimeout
				}
				return nil, err
			}
			win = append(win, one[0])
		}

		switch {
		case win[0] != startByte || win[1] != cmd:
			reject = errors.Wrapf(ErrMismatch, "got % x", win[:2])
		case checksum(win) != win[8]:
			reject = errors.Wrapf(ErrChecksum, "got 0x%02x want 0x%02x", win[8], checksum(win))
		default:
			return win, nil
		}

		if skipped == maxResync {
			return nil, reject
		}
		skipped++
		win = append(win[:0], win[1:]...)
	}
}

func (m *MHZ19) send(cmd, arg byte) error {
	if m.flush != nil {
		// stale input is also handled by readFrame; a failed flush is not fatal
		_ = m.flush.Flush()
	}
	if _, err := m.port.Write(frame(cmd, arg)); err != nil {
		return err
	}
	return nil
}

// frame builds a request: FF 01 cmd arg 00 00 00 00 crc.
func frame(cmd, arg byte) []byte {
	b := []byte{startByte, sensorID, cmd, arg, 0, 0, 0, 0, 0}
	b[8] = checksum(b)
	return b
}

// checksum is 0xFF minus the sum of bytes 1..7, plus one.
func checksum(b []byte) byte {
	var sum byte
	for i := 1; i < frameLen-1; i++ {
		sum += b[i]
	}
	return 0xFF - sum + 1
}
