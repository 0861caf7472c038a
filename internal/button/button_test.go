package button

import (
	"context"
	"sync"
	"testing"
	"time"

	"co2_ampel/internal/clock"
	"co2_ampel/internal/logger"

	"periph.io/x/conn/v3/gpio"
)

func waitEvent(t *testing.T, mb *Mailbox) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := mb.Next(ctx)
	if err != nil {
		t.Fatalf("no event: %v", err)
	}
	return ev
}

func TestMailbox_PostThenReceive(t *testing.T) {
	mb := NewMailbox(2)
	defer mb.Close()

	if _, ok := mb.Poll(); ok {
		t.Fatalf("empty mailbox returned an event")
	}

	mb.Post(Event{At: 42, Source: SourceHTTP})
	ev := waitEvent(t, mb)
	if ev.At != 42 || ev.Source != SourceHTTP {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestMailbox_PostNeverBlocksAndDropsOldest(t *testing.T) {
	mb := NewMailbox(2)
	defer mb.Close()

	done := make(chan struct{})
	go func() {
		for i := uint32(1); i <= 10; i++ {
			mb.Post(Event{At: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Post blocked on a full mailbox")
	}

	// the newest event always survives
	var last Event
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && last.At != 10 {
		if ev, ok := mb.Poll(); ok {
			last = ev
			continue
		}
		time.Sleep(time.Millisecond)
	}
	if last.At != 10 {
		t.Fatalf("expected newest event 10, got %+v", last)
	}
}

// A press arriving while shutdown closes the mailbox must not panic.
func TestMailbox_PostAfterCloseIsDropped(t *testing.T) {
	mb := NewMailbox(DefaultCapacity)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := uint32(0); i < 200; i++ {
				mb.Post(Event{At: i, Source: SourceGPIO})
			}
		}()
	}
	mb.Close()
	wg.Wait()

	mb.Post(Event{At: 1, Source: SourceSignal})
	mb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		if _, err := mb.Next(ctx); err != nil {
			if ctx.Err() != nil {
				t.Fatalf("closed mailbox never drained")
			}
			break
		}
	}
}

// fakePin fires a fixed number of edges.
type fakePin struct {
	mu    sync.Mutex
	pull  gpio.Pull
	edge  gpio.Edge
	edges int
}

func (p *fakePin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pull, p.edge = pull, edge
	return nil
}

func (p *fakePin) WaitForEdge(timeout time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.edges > 0 {
		p.edges--
		return true
	}
	time.Sleep(time.Millisecond)
	return false
}

func (p *fakePin) Name() string { return "GPIO0" }

func TestWatchPin_PullUpRisingEdge(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pin := &fakePin{edges: 1}
	clk := clock.NewManual(600000)
	mb := NewMailbox(DefaultCapacity)

	if err := WatchPin(ctx, pin, clk, mb, logger.Nop()); err != nil {
		t.Fatalf("WatchPin: %v", err)
	}
	ev := waitEvent(t, mb)
	if ev.At != 600000 || ev.Source != SourceGPIO {
		t.Fatalf("unexpected event %+v", ev)
	}

	pin.mu.Lock()
	defer pin.mu.Unlock()
	if pin.pull != gpio.PullUp || pin.edge != gpio.RisingEdge {
		t.Fatalf("pin configured with %v/%v", pin.pull, pin.edge)
	}
}
