// Package button turns calibration button presses (and their remote
// equivalents) into events for the controller loop.
package button

import (
	"context"
	"sync"

	"github.com/eapache/channels"
)

// DefaultCapacity is how many undelivered presses are kept.
const DefaultCapacity = 4

// Source names.
const (
	SourceGPIO   = "gpio"
	SourceSignal = "signal"
	SourceHTTP   = "http"
)

// Event is a zero calibration request.
type Event struct {
	At     uint32 // clock millis when the press was seen
	Source string
}

// Mailbox hands events from any number of posting goroutines to the single
// controller loop. Posting never blocks; when full the oldest event is dropped.
type Mailbox struct {
	mu     sync.RWMutex
	closed bool
	ring   *channels.RingChannel
}

// NewMailbox returns a mailbox holding up to capacity events.
func NewMailbox(capacity int) *Mailbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Mailbox{ring: channels.NewRingChannel(channels.BufferCap(capacity))}
}

// Post enqueues ev. Events posted after Close are dropped.
func (m *Mailbox) Post(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	m.ring.In() <- ev
}

// Poll returns the next pending event without waiting.
func (m *Mailbox) Poll() (Event, bool) {
	select {
	case v, ok := <-m.ring.Out():
		if !ok {
			return Event{}, false
		}
		return v.(Event), true
	default:
		return Event{}, false
	}
}

// Next waits for an event or for ctx to end.
func (m *Mailbox) Next(ctx context.Context) (Event, error) {
	select {
	case v, ok := <-m.ring.Out():
		if !ok {
			return Event{}, context.Canceled
		}
		return v.(Event), nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close stops the mailbox. It is safe to call more than once and while
// sources are still posting.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.ring.Close()
}
