package button

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"co2_ampel/internal/clock"
	"co2_ampel/internal/logger"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// edgePoll bounds each WaitForEdge so the watcher notices ctx cancellation.
const edgePoll = 500 * time.Millisecond

// EdgePin is the part of a GPIO pin the watcher needs.
type EdgePin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
	Name() string
}

// OpenPin looks up name in the periph GPIO registry. host.Init must have run.
func OpenPin(name string) (EdgePin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return p, nil
}

// WatchPin configures pin as a pulled-up input with rising-edge detection and
// posts one event per edge until ctx ends. There is no debounce.
func WatchPin(ctx context.Context, pin EdgePin, clk clock.Clock, mb *Mailbox, log *logger.Logger) error {
	if err := pin.In(gpio.PullUp, gpio.RisingEdge); err != nil {
		return fmt.Errorf("configure %s for rising edge: %w", pin.Name(), err)
	}
	go func() {
		for ctx.Err() == nil {
			if !pin.WaitForEdge(edgePoll) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			mb.Post(Event{At: clk.Millis(), Source: SourceGPIO})
			log.Debugw("button_edge", "pin", pin.Name())
		}
	}()
	return nil
}

// WatchSignal posts an event whenever the process receives SIGUSR1.
// It lets an operator trigger a zero calibration on a host without a button.
func WatchSignal(ctx context.Context, clk clock.Clock, mb *Mailbox, log *logger.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1)
	go func() {
		defer signal.Stop(sigs)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigs:
				mb.Post(Event{At: clk.Millis(), Source: SourceSignal})
				log.Debugw("button_signal")
			}
		}
	}()
}
