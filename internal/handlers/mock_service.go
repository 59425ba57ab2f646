package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"thermal_telemetry/internal/events"
	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/service"
)

// ---- Service Mocks ----

type mockMonitoring struct {
	sensors  []service.SensorView
	alerts   []service.AlertView
	health   models.HealthStatus
	known    map[string]models.SensorIdentity // "chip/feature" -> identity
	history  map[models.SensorIdentity][]models.SensorReading
	states   []models.SensorState
	statesEr error

	lastSince time.Time
}

func (m *mockMonitoring) Sensors() []service.SensorView { return m.sensors }
func (m *mockMonitoring) Alerts() []service.AlertView   { return m.alerts }
func (m *mockMonitoring) Health() models.HealthStatus   { return m.health }

func (m *mockMonitoring) Lookup(chip, feature string) (models.SensorIdentity, bool) {
	id, ok := m.known[chip+"/"+feature]
	return id, ok
}

func (m *mockMonitoring) History(id models.SensorIdentity, since time.Time) ([]models.SensorReading, bool) {
	m.lastSince = since
	rs, ok := m.history[id]
	return rs, ok
}

func (m *mockMonitoring) LastKnown(ctx context.Context) ([]models.SensorState, error) {
	return m.states, m.statesEr
}

type mockEventLog struct {
	resp     []models.TelemetryEvent
	err      error
	calls    int
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.TelemetryEvent, error) {
	m.calls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// mockTelemetry hands out subscriptions on a real bus so tests can publish.
type mockTelemetry struct {
	bus      *events.Bus
	interval time.Duration
}

func newMockTelemetry() *mockTelemetry {
	return &mockTelemetry{bus: events.NewBus(), interval: 2 * time.Second}
}

func (m *mockTelemetry) Run(ctx context.Context) error {
	<-ctx.Done()
	m.bus.Close()
	return nil
}

func (m *mockTelemetry) Subscribe(buffer int) *events.Subscription { return m.bus.Subscribe(buffer) }

func (m *mockTelemetry) SetInterval(d time.Duration) error {
	m.interval = d
	return nil
}

func (m *mockTelemetry) Interval() time.Duration { return m.interval }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts...)
	return h.InitRoutes()
}

// stubEventRepo backs a real EventLogService in tests.
type stubEventRepo struct {
	events []models.TelemetryEvent
}

func (s *stubEventRepo) Append(ctx context.Context, e models.TelemetryEvent) error {
	s.events = append(s.events, e)
	return nil
}

func (s *stubEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.TelemetryEvent, error) {
	return s.events, nil
}
