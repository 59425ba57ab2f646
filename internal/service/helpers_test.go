package service

import (
	"context"
	"testing"
	"time"

	"thermal_telemetry/internal/alert"
	"thermal_telemetry/internal/logger"
	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/sensor"
)

var (
	t0     = time.Date(2026, 2, 21, 14, 0, 0, 0, time.UTC)
	cpuID  = models.SensorIdentity{Kind: models.KindCPU, Chip: "coretemp-isa-0000", Feature: "Core 0"}
	nvmeID = models.SensorIdentity{Kind: models.KindHDD, Chip: "nvme-pci-0300", Feature: "Composite"}
	base   = models.AlertThreshold{Warning: 70, Critical: 85, Hysteresis: 5}
)

func newTestCore(t *testing.T, src sensor.Source) *TelemetryService {
	t.Helper()
	th, err := alert.NewThresholds(base,
		map[models.SensorKind]models.AlertThreshold{models.KindHDD: {Warning: 50, Critical: 60, Hysteresis: 3}},
		nil)
	if err != nil {
		t.Fatalf("NewThresholds: %v", err)
	}
	core, err := NewTelemetryService(src, TelemetryConfig{
		Interval:       10 * time.Millisecond,
		AcquireTimeout: time.Second,
		Capacity:       8,
		Thresholds:     th,
	}, logger.Nop(), nil)
	if err != nil {
		t.Fatalf("NewTelemetryService: %v", err)
	}
	return core
}

// stateRepoStub satisfies repository.StateRepo.
type stateRepoStub struct {
	readings []models.SensorReading
	alerts   []models.AlertState
	list     []models.SensorState
	err      error
}

func (s *stateRepoStub) SaveReading(_ context.Context, r models.SensorReading) error {
	s.readings = append(s.readings, r)
	return s.err
}

func (s *stateRepoStub) SaveAlert(_ context.Context, _ models.SensorIdentity, st models.AlertState, _ time.Time) error {
	s.alerts = append(s.alerts, st)
	return s.err
}

func (s *stateRepoStub) List(context.Context) ([]models.SensorState, error) {
	return s.list, s.err
}
