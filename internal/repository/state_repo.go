package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"co2_ampel/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	deviceStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO device_state (id, mode, progress, co2, temp_c, band, color, wifi_up, db_up, uplink_enabled, errors, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode=excluded.mode,
			progress=excluded.progress,
			co2=excluded.co2,
			temp_c=excluded.temp_c,
			band=excluded.band,
			color=excluded.color,
			wifi_up=excluded.wifi_up,
			db_up=excluded.db_up,
			uplink_enabled=excluded.uplink_enabled,
			errors=excluded.errors,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, mode, progress, co2, temp_c, band, color, wifi_up, db_up, uplink_enabled, errors, updated_at
		FROM device_state WHERE id=?
	`
)

func marshalErrorCodes(codes []string) (string, error) {
	b, err := json.Marshal(codes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalErrorCodes(s string) ([]string, error) {
	if s == "" || s == "null" {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(s), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// packColor stores an RGB triple as 0xRRGGBB.
func packColor(c [3]uint8) int64 {
	return int64(c[0])<<16 | int64(c[1])<<8 | int64(c[2])
}

func unpackColor(v int64) [3]uint8 {
	return [3]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)}
}

// Save upserts the device_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, state models.DeviceState) error {
	errorsJSONStr, err := marshalErrorCodes(state.ErrorCodes)
	if err != nil {
		return err
	}

	tsUTC := state.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err = r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		deviceStateRowID,
		string(state.Mode),
		state.ProgressPercent,
		state.CO2,
		state.TemperatureC,
		state.Band,
		packColor(state.Color),
		state.WifiUp,
		state.DBUp,
		state.UplinkEnabled,
		errorsJSONStr,
		tsUTC,
	)
	return err
}

// Load fetches the device_state row. An empty table yields a zero state.
func (r *StateSQLite) Load(ctx context.Context) (models.DeviceState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, deviceStateRowID)

	var (
		s             models.DeviceState
		mode          string
		color         int64
		errorsJSONStr string
	)
	if err := row.Scan(
		&s.ID,
		&mode,
		&s.ProgressPercent,
		&s.CO2,
		&s.TemperatureC,
		&s.Band,
		&color,
		&s.WifiUp,
		&s.DBUp,
		&s.UplinkEnabled,
		&errorsJSONStr,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeviceState{}, nil
		}
		return models.DeviceState{}, err
	}

	codes, err := unmarshalErrorCodes(errorsJSONStr)
	if err != nil {
		return models.DeviceState{}, err
	}
	s.Mode = models.Mode(mode)
	s.Color = unpackColor(color)
	s.ErrorCodes = codes
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
