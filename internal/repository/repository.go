package repository

import (
	"context"
	"database/sql"
	"time"

	"co2_ampel/internal/models"
)

// Operators stores the accounts allowed to trigger a remote calibration.
type Operators interface {
	Upsert(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// StateRepo keeps the single latest device snapshot.
type StateRepo interface {
	Save(ctx context.Context, s models.DeviceState) error
	Load(ctx context.Context) (models.DeviceState, error)
}

// EventRepo is the append-only device journal.
type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Operators Operators
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Operators: NewOperatorRepository(db),
	}
}
