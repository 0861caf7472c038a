package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"co2_ampel/internal/models"

	"github.com/google/uuid"
)

// DefaultJournalRows bounds the journal; older rows are pruned.
const DefaultJournalRows = 5000

// pruneEvery is how many appends pass between two prune runs.
const pruneEvery = 100

type EventSQLite struct {
	db   *sql.DB
	keep int

	mu      sync.Mutex
	appends int
}

func NewEventSQLite(db *sql.DB) *EventSQLite {
	return &EventSQLite{db: db, keep: DefaultJournalRows}
}

// WithRetention changes how many rows Prune keeps. Zero disables pruning.
func (r *EventSQLite) WithRetention(keep int) *EventSQLite {
	r.keep = keep
	return r
}

const insertEventSQL = `
		INSERT INTO device_events (id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`

// Append inserts a new event. Empty EventID and OccurredAt are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.DeviceEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt,
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		metaPtr,
	)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.appends++
	due := r.keep > 0 && r.appends >= pruneEvery
	if due {
		r.appends = 0
	}
	r.mu.Unlock()
	if due {
		if _, err := r.Prune(ctx); err != nil {
			return err
		}
	}
	return nil
}

const pruneEventsSQL = `
		DELETE FROM device_events WHERE id NOT IN (
			SELECT id FROM device_events ORDER BY occurred_at DESC, rowid DESC LIMIT ?
		)
	`

// Prune deletes all but the newest keep rows and returns how many went.
func (r *EventSQLite) Prune(ctx context.Context) (int64, error) {
	if r.keep <= 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, pruneEventsSQL, r.keep)
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return res.RowsAffected()
}

// List returns events filtered by [from, to] (inclusive) and/or type, oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, occurred_at, type, message, meta FROM device_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.DeviceEvent, 0, 64)
	for rows.Next() {
		var ev models.DeviceEvent
		var metaStr sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Description, &metaStr); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
