package service

import (
	"context"
	"time"

	"thermal_telemetry/internal/history"
	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/repository"
)

// SensorView is one row of the live sensor table.
type SensorView struct {
	Identity  models.SensorIdentity `json:"identity"`
	Latest    *models.SensorReading `json:"latest,omitempty"`
	Stats     history.Stats         `json:"stats"`
	Alert     models.AlertState     `json:"alert"`
	Threshold models.AlertThreshold `json:"threshold"`
}

// AlertView is the alert state of one sensor.
type AlertView struct {
	Identity models.SensorIdentity `json:"identity"`
	State    models.AlertState     `json:"state"`
}

type MonitoringService struct {
	core      *TelemetryService
	stateRepo repository.StateRepo
}

func NewMonitoringService(core *TelemetryService, stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{core: core, stateRepo: stateRepo}
}

// Sensors lists every sensor seen so far with its latest reading.
func (s *MonitoringService) Sensors() []SensorView {
	reg, eval := s.core.registry, s.core.evaluator
	thresholds := eval.Thresholds()

	ids := reg.CurrentIdentities()
	out := make([]SensorView, 0, len(ids))
	for _, id := range ids {
		v := SensorView{Identity: id, Threshold: thresholds.For(id)}
		if r, ok := reg.Latest(id); ok {
			v.Latest = &r
		}
		v.Stats, _ = reg.Stats(id)
		v.Alert, _ = eval.State(id)
		out = append(out, v)
	}
	return out
}

// Lookup resolves a chip/feature pair to a known identity.
func (s *MonitoringService) Lookup(chip, feature string) (models.SensorIdentity, bool) {
	for _, id := range s.core.registry.CurrentIdentities() {
		if id.Chip == chip && id.Feature == feature {
			return id, true
		}
	}
	return models.SensorIdentity{}, false
}

// History returns the retained readings of id taken at or after since. A
// zero since returns the whole series.
func (s *MonitoringService) History(id models.SensorIdentity, since time.Time) ([]models.SensorReading, bool) {
	return s.core.registry.Since(id, since)
}

// Alerts returns the alert state of every known sensor, in identity order.
func (s *MonitoringService) Alerts() []AlertView {
	states := s.core.evaluator.States()
	ids := s.core.registry.CurrentIdentities()
	out := make([]AlertView, 0, len(ids))
	for _, id := range ids {
		st, ok := states[id]
		if !ok {
			continue
		}
		out = append(out, AlertView{Identity: id, State: st})
	}
	return out
}

func (s *MonitoringService) Health() models.HealthStatus {
	return s.core.Health()
}

// LastKnown returns the persisted per-sensor state, which outlives restarts.
func (s *MonitoringService) LastKnown(ctx context.Context) ([]models.SensorState, error) {
	if s.stateRepo == nil {
		return nil, ErrJournalDisabled
	}
	states, err := s.stateRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range states {
		states[i].UpdatedAt = toUTC(states[i].UpdatedAt)
	}
	return states, nil
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
