package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/sensor"
)

func TestMonitoringService_SensorsAndAlerts(t *testing.T) {
	t.Parallel()

	src := sensor.NewStaticFrames(
		[]models.SensorReading{
			models.NewReading(nvmeID, 40, t0),
			models.NewReading(cpuID, 60, t0),
		},
		[]models.SensorReading{
			models.NewReading(nvmeID, 55, t0.Add(time.Second)),
			models.NewReading(cpuID, 72, t0.Add(time.Second)),
		},
	)
	core := newTestCore(t, src)
	core.RunCycle(context.Background())
	core.RunCycle(context.Background())

	svc := NewMonitoringService(core, nil)
	views := svc.Sensors()
	if len(views) != 2 {
		t.Fatalf("want 2 sensors, got %d", len(views))
	}
	// CPU sorts before HDD
	cpu, nvme := views[0], views[1]
	if cpu.Identity != cpuID || nvme.Identity != nvmeID {
		t.Fatalf("unexpected order: %v, %v", cpu.Identity, nvme.Identity)
	}
	if cpu.Latest == nil || cpu.Latest.Value != 72 || cpu.Alert != models.StateWarning {
		t.Fatalf("cpu view: %+v", cpu)
	}
	if cpu.Stats.Count != 2 || cpu.Stats.Min != 60 || cpu.Stats.Peak != 72 {
		t.Fatalf("cpu stats: %+v", cpu.Stats)
	}
	if nvme.Threshold.Warning != 50 || nvme.Alert != models.StateWarning {
		t.Fatalf("nvme view: %+v", nvme)
	}

	alerts := svc.Alerts()
	if len(alerts) != 2 || alerts[0].State != models.StateWarning {
		t.Fatalf("alerts: %+v", alerts)
	}
	if h := svc.Health(); !h.Healthy {
		t.Fatalf("health: %+v", h)
	}
}

func TestMonitoringService_History(t *testing.T) {
	t.Parallel()

	var frames [][]models.SensorReading
	for i := 0; i < 5; i++ {
		frames = append(frames, []models.SensorReading{models.NewReading(cpuID, float64(50+i), t0.Add(time.Duration(i)*time.Minute))})
	}
	core := newTestCore(t, sensor.NewStaticFrames(frames...))
	for range frames {
		core.RunCycle(context.Background())
	}
	svc := NewMonitoringService(core, nil)

	all, ok := svc.History(cpuID, time.Time{})
	if !ok || len(all) != 5 {
		t.Fatalf("full history: %d ok=%v", len(all), ok)
	}
	recent, _ := svc.History(cpuID, t0.Add(3*time.Minute))
	if len(recent) != 2 || recent[0].Value != 53 {
		t.Fatalf("recent: %+v", recent)
	}
	if id, ok := svc.Lookup("coretemp-isa-0000", "Core 0"); !ok || id != cpuID {
		t.Fatalf("Lookup = %v, %v", id, ok)
	}
	if _, ok := svc.Lookup("coretemp-isa-0000", "Core 9"); ok {
		t.Fatal("Lookup of unknown feature should fail")
	}
	if _, ok := svc.History(nvmeID, time.Time{}); ok {
		t.Fatal("unknown sensor should report !ok")
	}
}

func TestMonitoringService_LastKnown(t *testing.T) {
	t.Parallel()

	core := newTestCore(t, sensor.NewStatic())

	if _, err := NewMonitoringService(core, nil).LastKnown(context.Background()); !errors.Is(err, ErrJournalDisabled) {
		t.Fatalf("expected ErrJournalDisabled, got %v", err)
	}

	local := time.Date(2026, 2, 21, 16, 0, 0, 0, time.FixedZone("UTC+2", 7200))
	repo := &stateRepoStub{list: []models.SensorState{{Identity: cpuID, Value: 70, Valid: true, UpdatedAt: local}}}
	got, err := NewMonitoringService(core, repo).LastKnown(context.Background())
	if err != nil {
		t.Fatalf("LastKnown: %v", err)
	}
	if len(got) != 1 || got[0].UpdatedAt.Location() != time.UTC || !got[0].UpdatedAt.Equal(local) {
		t.Fatalf("unexpected states %+v", got)
	}

	repo.err = errors.New("db down")
	if _, err := NewMonitoringService(core, repo).LastKnown(context.Background()); err == nil {
		t.Fatal("expected repo error")
	}
}

func TestMonitoringService_AlertsIncludeFaultOnlySensors(t *testing.T) {
	t.Parallel()

	core := newTestCore(t, sensor.NewStatic(models.InvalidReading(nvmeID, t0)))
	core.RunCycle(context.Background())

	alerts := NewMonitoringService(core, nil).Alerts()
	if len(alerts) != 1 || alerts[0].Identity != nvmeID || alerts[0].State != models.StateNormal {
		t.Fatalf("alerts = %+v", alerts)
	}
}
