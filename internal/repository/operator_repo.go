package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"co2_ampel/internal/models"
)

type OperatorRepository struct {
	db *sql.DB
}

func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

var _ Operators = (*OperatorRepository)(nil)

const (
	upsertOperatorSQL = `INSERT INTO operators (username, password_hash) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET password_hash=excluded.password_hash
		RETURNING id`
	selectOperatorByUsernameSQL = `SELECT id, username, password_hash FROM operators WHERE username = ?`
)

// Upsert stores the operator from the config, replacing the hash of an
// existing account, and returns its ID.
func (r *OperatorRepository) Upsert(ctx context.Context, username, passwordHash string) (int, error) {
	var id int
	if err := r.db.QueryRowContext(ctx, upsertOperatorSQL, username, passwordHash).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert operator %q: %w", username, err)
	}
	return id, nil
}

// GetByUsername returns (nil, nil) if the operator does not exist.
func (r *OperatorRepository) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var op models.Operator
	err := r.db.QueryRowContext(ctx, selectOperatorByUsernameSQL, username).Scan(&op.ID, &op.Username, &op.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select operator %q: %w", username, err)
	}
	return &op, nil
}
