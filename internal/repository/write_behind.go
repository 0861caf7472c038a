package repository

import (
	"context"
	"sync"
	"time"

	"co2_ampel/internal/logger"
	"co2_ampel/internal/models"

	"github.com/eapache/channels"
)

// DefaultJournalBacklog is how many journal entries may wait for the writer
// before the oldest is dropped.
const DefaultJournalBacklog = 256

// WriteBehind takes device state and journal writes off the caller's
// goroutine. Save keeps only the newest snapshot; Append queues into a ring
// that never blocks. Run flushes both to the wrapped repositories.
type WriteBehind struct {
	states StateRepo
	events EventRepo
	log    *logger.Logger

	mu      sync.Mutex
	latest  *models.DeviceState
	pending bool

	kick    chan struct{}
	journal *channels.RingChannel
}

func NewWriteBehind(states StateRepo, events EventRepo, backlog int, log *logger.Logger) *WriteBehind {
	if backlog <= 0 {
		backlog = DefaultJournalBacklog
	}
	if log == nil {
		log = logger.Nop()
	}
	return &WriteBehind{
		states:  states,
		events:  events,
		log:     log,
		kick:    make(chan struct{}, 1),
		journal: channels.NewRingChannel(channels.BufferCap(backlog)),
	}
}

// Wrap returns a Repository whose state and journal writes go through w.
func (w *WriteBehind) Wrap(r *Repository) *Repository {
	return &Repository{StateRepo: w, EventRepo: w, Operators: r.Operators}
}

// Save records s as the newest snapshot. It never touches the database.
func (w *WriteBehind) Save(ctx context.Context, s models.DeviceState) error {
	w.mu.Lock()
	w.latest = &s
	w.pending = true
	w.mu.Unlock()

	select {
	case w.kick <- struct{}{}:
	default:
	}
	return nil
}

// Load serves the newest snapshot from memory once one was saved.
func (w *WriteBehind) Load(ctx context.Context) (models.DeviceState, error) {
	w.mu.Lock()
	latest := w.latest
	w.mu.Unlock()
	if latest != nil {
		return *latest, nil
	}
	return w.states.Load(ctx)
}

// Append queues e for the journal.
func (w *WriteBehind) Append(ctx context.Context, e models.DeviceEvent) error {
	w.journal.In() <- e
	return nil
}

func (w *WriteBehind) List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	return w.events.List(ctx, from, to, typ)
}

// Run writes queued work until ctx ends, then flushes what is left.
func (w *WriteBehind) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case <-w.kick:
			w.flushState(ctx)
		case v := <-w.journal.Out():
			w.appendEvent(ctx, v.(models.DeviceEvent))
		}
	}
}

func (w *WriteBehind) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case v := <-w.journal.Out():
			w.appendEvent(ctx, v.(models.DeviceEvent))
			continue
		default:
		}
		break
	}
	w.flushState(ctx)
}

func (w *WriteBehind) flushState(ctx context.Context) {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	s := *w.latest
	w.pending = false
	w.mu.Unlock()

	if err := w.states.Save(ctx, s); err != nil {
		w.log.Warnw("state save failed", "err", err)
	}
}

func (w *WriteBehind) appendEvent(ctx context.Context, e models.DeviceEvent) {
	if err := w.events.Append(ctx, e); err != nil {
		w.log.Warnw("journal append failed", "type", e.Type, "err", err)
	}
}
