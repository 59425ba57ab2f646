package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"thermal_telemetry/internal/models"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d", rec.Code)
	}
	return rec.Body.String()
}

func TestMetrics_RecordsDomainSeries(t *testing.T) {
	m := New()
	id := models.SensorIdentity{Kind: models.KindCPU, Chip: "coretemp-isa-0000", Feature: "Core 0"}

	m.Cycle(15*time.Millisecond, true, 0)
	m.Cycle(time.Second, false, 1)
	m.Reading(models.NewReading(id, 47.5, time.Now()))
	m.Transition(models.AlertTransition{Identity: id, From: models.StateNormal, To: models.StateWarning})
	m.Dropped(models.HealthDegraded{})

	body := scrape(t, m)
	for _, want := range []string{
		`thermal_poll_cycles_total{result="ok"} 1`,
		`thermal_poll_cycles_total{result="unavailable"} 1`,
		`thermal_acquisition_consecutive_failures 1`,
		`thermal_sensor_temperature_celsius{chip="coretemp-isa-0000",feature="Core 0",kind="CPU"} 47.5`,
		`thermal_sensor_valid{chip="coretemp-isa-0000",feature="Core 0",kind="CPU"} 1`,
		`thermal_sensor_alert_state{chip="coretemp-isa-0000",feature="Core 0",kind="CPU"} 1`,
		`thermal_alert_transitions_total{to="Warning"} 1`,
		`thermal_notifications_dropped_total{type="health_degraded"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Cycle(time.Second, false, 3)
	m.Reading(models.SensorReading{})
	m.Transition(models.AlertTransition{})
	m.Dropped(models.HealthRecovered{})
	if m.Registry() != nil {
		t.Fatal("nil metrics should have no registry")
	}
}

func TestMetrics_GinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/v1/sensors", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	body := scrape(t, m)
	if !strings.Contains(body, `thermal_http_requests_total{route="/api/v1/sensors",status="204"} 1`) {
		t.Errorf("missing matched route counter:\n%s", body)
	}
	if !strings.Contains(body, `thermal_http_requests_total{route="unmatched",status="404"} 1`) {
		t.Errorf("missing unmatched route counter")
	}
}
