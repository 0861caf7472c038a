package hal

import (
	"context"
	"errors"
	"testing"

	"co2_ampel/internal/config"
	"co2_ampel/internal/indicator"
	"co2_ampel/internal/sensor"
	"co2_ampel/internal/uplink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Simulated(t *testing.T) {
	cfg := &config.Config{
		Hardware: config.HardwareConfig{Simulate: true, PixelCount: 3, SimBasePPM: 800},
		Wifi:     config.WifiConfig{AccessPoints: []uplink.AccessPoint{{SSID: "home"}}},
	}
	d, err := Open(cfg, nil)
	require.NoError(t, err)
	defer d.Close()

	assert.True(t, d.Simulated)
	assert.Nil(t, d.Button)
	assert.IsType(t, &sensor.Simulated{}, d.Sensor)
	require.IsType(t, &indicator.MemoryStrip{}, d.Strip)
	assert.Equal(t, 3, d.Strip.Len())

	co2, _, err := d.Sensor.Read()
	require.NoError(t, err)
	assert.InDelta(t, 800, int(co2), simSwingPPM)

	require.NoError(t, d.Station.Connect(context.Background(), uplink.AccessPoint{SSID: "home"}))
	cur, err := d.Station.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "home", cur)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestDevices_CloseReverseOrder(t *testing.T) {
	var order []int
	d := &Devices{}
	for i := 0; i < 3; i++ {
		i := i
		d.track(closerFunc(func() error {
			order = append(order, i)
			if i == 1 {
				return errors.New("busy")
			}
			return nil
		}))
	}
	d.track(nil)

	assert.EqualError(t, d.Close(), "busy")
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.NoError(t, d.Close())
}
