package service

import (
	"context"
	"errors"
	"time"

	"thermal_telemetry/internal/events"
	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/repository"
)

// ErrJournalDisabled is returned by journal queries when db.enabled is false.
var ErrJournalDisabled = errors.New("event journal is disabled")

// Monitoring exposes read-only views over the in-memory core.
type Monitoring interface {
	Sensors() []SensorView
	Lookup(chip, feature string) (models.SensorIdentity, bool)
	History(id models.SensorIdentity, since time.Time) ([]models.SensorReading, bool)
	Alerts() []AlertView
	Health() models.HealthStatus
	LastKnown(ctx context.Context) ([]models.SensorState, error)
}

// EventLog exposes the persisted journal with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.TelemetryEvent, error)
}

// Telemetry is the running pipeline: poll loop, notifications and
// live reconfiguration.
type Telemetry interface {
	Run(ctx context.Context) error
	Subscribe(buffer int) *events.Subscription
	SetInterval(d time.Duration) error
	Interval() time.Duration
}

// LogFilter selects journal events by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "reading", "alert", "health_degraded", "health_recovered"
}

// Service aggregates everything the HTTP adapter needs.
type Service struct {
	Monitoring
	EventLog
	Telemetry
}

// NewService wires the read services around a running core. repos may be
// nil when the journal is disabled.
func NewService(core *TelemetryService, repos *repository.Repository) *Service {
	var (
		eventRepo repository.EventRepo
		stateRepo repository.StateRepo
	)
	if repos != nil {
		eventRepo, stateRepo = repos.EventRepo, repos.StateRepo
	}
	return &Service{
		Monitoring: NewMonitoringService(core, stateRepo),
		EventLog:   NewEventLogService(eventRepo),
		Telemetry:  core,
	}
}
