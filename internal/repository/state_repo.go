package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"thermal_telemetry/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	upsertReadingSQL = `
		INSERT INTO sensor_state (chip, feature, kind, value, valid, alert, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chip, feature) DO UPDATE SET
			kind=excluded.kind,
			value=excluded.value,
			valid=excluded.valid,
			updated_at=excluded.updated_at
	`

	upsertAlertSQL = `
		INSERT INTO sensor_state (chip, feature, kind, value, valid, alert, updated_at)
		VALUES (?, ?, ?, NULL, 0, ?, ?)
		ON CONFLICT(chip, feature) DO UPDATE SET
			alert=excluded.alert,
			updated_at=excluded.updated_at
	`

	selectStatesSQL = `
		SELECT chip, feature, kind, value, valid, alert, updated_at
		FROM sensor_state ORDER BY chip, feature
	`
)

// SaveReading stores the latest reading and keeps the persisted alert state.
func (r *StateSQLite) SaveReading(ctx context.Context, reading models.SensorReading) error {
	var value any
	if reading.Valid {
		value = reading.Value
	}
	_, err := r.db.ExecContext(ctx, upsertReadingSQL,
		reading.Identity.Chip,
		reading.Identity.Feature,
		reading.Identity.Kind.String(),
		value,
		reading.Valid,
		models.StateNormal.String(),
		formatTime(orNow(reading.Timestamp)),
	)
	return err
}

// SaveAlert stores a new alert state for id.
func (r *StateSQLite) SaveAlert(ctx context.Context, id models.SensorIdentity, s models.AlertState, at time.Time) error {
	_, err := r.db.ExecContext(ctx, upsertAlertSQL,
		id.Chip,
		id.Feature,
		id.Kind.String(),
		s.String(),
		formatTime(orNow(at)),
	)
	return err
}

// List returns every persisted sensor ordered by chip and feature.
func (r *StateSQLite) List(ctx context.Context) ([]models.SensorState, error) {
	rows, err := r.db.QueryContext(ctx, selectStatesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SensorState
	for rows.Next() {
		var (
			s           models.SensorState
			kind, alert string
			value       sql.NullFloat64
		)
		if err := rows.Scan(&s.Identity.Chip, &s.Identity.Feature, &kind, &value, &s.Valid, &alert, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if s.Identity.Kind, err = models.ParseSensorKind(kind); err != nil {
			return nil, fmt.Errorf("sensor_state %s/%s: %w", s.Identity.Chip, s.Identity.Feature, err)
		}
		if s.Alert, err = models.ParseAlertState(alert); err != nil {
			return nil, fmt.Errorf("sensor_state %s/%s: %w", s.Identity.Chip, s.Identity.Feature, err)
		}
		s.Value = value.Float64
		s.UpdatedAt = s.UpdatedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
