package repository

import (
	"context"
	"database/sql"
	"time"

	"thermal_telemetry/internal/models"
)

// EventRepo is the append-only telemetry journal.
type EventRepo interface {
	Append(ctx context.Context, e models.TelemetryEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.TelemetryEvent, error)
}

// StateRepo keeps one row per sensor with its last reading and alert state.
type StateRepo interface {
	SaveReading(ctx context.Context, r models.SensorReading) error
	SaveAlert(ctx context.Context, id models.SensorIdentity, s models.AlertState, at time.Time) error
	List(ctx context.Context) ([]models.SensorState, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
	}
}

// timeLayout is fixed-width so stored timestamps compare lexically.
const timeLayout = "2006-01-02 15:04:05.000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
