package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"thermal_telemetry/internal/metrics"
	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/service"
)

var (
	core0 = models.SensorIdentity{Kind: models.KindCPU, Chip: "coretemp-isa-0000", Feature: "Core 0"}
	t0    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newMonitoring() *mockMonitoring {
	latest := models.NewReading(core0, 61.5, t0)
	return &mockMonitoring{
		sensors: []service.SensorView{{
			Identity:  core0,
			Latest:    &latest,
			Alert:     models.StateNormal,
			Threshold: models.AlertThreshold{Warning: 75, Critical: 85, Hysteresis: 5},
		}},
		alerts: []service.AlertView{{Identity: core0, State: models.StateNormal}},
		health: models.HealthStatus{Healthy: true, LastSuccess: &t0},
		known:  map[string]models.SensorIdentity{"coretemp-isa-0000/Core 0": core0},
		history: map[models.SensorIdentity][]models.SensorReading{
			core0: {
				models.NewReading(core0, 60, t0.Add(-2*time.Second)),
				models.NewReading(core0, 61.5, t0),
			},
		},
	}
}

func TestSensorsHandler_List(t *testing.T) {
	r := newTestRouter(&service.Service{Monitoring: newMonitoring()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count   int                  `json:"count"`
		Sensors []service.SensorView `json:"sensors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || out.Sensors[0].Identity != core0 {
		t.Fatalf("unexpected body: %+v", out)
	}
	if out.Sensors[0].Latest == nil || out.Sensors[0].Latest.Value != 61.5 {
		t.Fatalf("latest reading missing: %+v", out.Sensors[0])
	}
}

func TestSensorsHandler_History(t *testing.T) {
	cases := []struct {
		name      string
		query     url.Values
		want      int
		wantCount int
		wantSince bool
	}{
		{"ok", url.Values{"chip": {"coretemp-isa-0000"}, "feature": {"Core 0"}}, http.StatusOK, 2, false},
		{"ok with minutes", url.Values{"chip": {"coretemp-isa-0000"}, "feature": {"Core 0"}, "minutes": {"5"}}, http.StatusOK, 2, true},
		{"missing feature", url.Values{"chip": {"coretemp-isa-0000"}}, http.StatusBadRequest, 0, false},
		{"bad minutes", url.Values{"chip": {"coretemp-isa-0000"}, "feature": {"Core 0"}, "minutes": {"-1"}}, http.StatusBadRequest, 0, false},
		{"minutes too large", url.Values{"chip": {"coretemp-isa-0000"}, "feature": {"Core 0"}, "minutes": {"20000"}}, http.StatusBadRequest, 0, false},
		{"unknown sensor", url.Values{"chip": {"nvme-pci-0100"}, "feature": {"Composite"}}, http.StatusNotFound, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mon := newMonitoring()
			r := newTestRouter(&service.Service{Monitoring: mon})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sensors/history?"+tc.query.Encode(), nil))
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
			if tc.want != http.StatusOK {
				return
			}
			var out struct {
				Count    int                    `json:"count"`
				Readings []models.SensorReading `json:"readings"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Count != tc.wantCount {
				t.Fatalf("count=%d want %d", out.Count, tc.wantCount)
			}
			if tc.wantSince == mon.lastSince.IsZero() {
				t.Fatalf("since=%v, wantSince=%v", mon.lastSince, tc.wantSince)
			}
		})
	}
}

func TestSensorsHandler_Alerts(t *testing.T) {
	r := newTestRouter(&service.Service{Monitoring: newMonitoring()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out struct {
		Count  int                 `json:"count"`
		Alerts []service.AlertView `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || out.Alerts[0].State != models.StateNormal {
		t.Fatalf("unexpected alerts: %+v", out)
	}
}

func TestSensorsHandler_LastKnown(t *testing.T) {
	cases := []struct {
		name   string
		states []models.SensorState
		err    error
		want   int
	}{
		{"ok", []models.SensorState{{Identity: core0, Value: 61.5, Valid: true, UpdatedAt: t0}}, nil, http.StatusOK},
		{"journal disabled", nil, service.ErrJournalDisabled, http.StatusServiceUnavailable},
		{"repo failure", nil, errors.New("database is locked"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mon := newMonitoring()
			mon.states, mon.statesEr = tc.states, tc.err
			r := newTestRouter(&service.Service{Monitoring: mon})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sensors/state", nil))
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name   string
		health models.HealthStatus
		want   string
	}{
		{"healthy", models.HealthStatus{Healthy: true, LastSuccess: &t0}, statusOK},
		{"degraded", models.HealthStatus{ConsecutiveFailures: 3, LastError: "sensors: exit status 1"}, statusDegraded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mon := newMonitoring()
			mon.health = tc.health
			r := newTestRouter(&service.Service{Monitoring: mon})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status=%d", w.Code)
			}
			var out struct {
				Status      string              `json:"status"`
				Acquisition models.HealthStatus `json:"acquisition"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Status != tc.want {
				t.Fatalf("status=%q want %q", out.Status, tc.want)
			}
			if out.Acquisition.ConsecutiveFailures != tc.health.ConsecutiveFailures {
				t.Fatalf("acquisition=%+v", out.Acquisition)
			}
			if hasSuccess := strings.Contains(w.Body.String(), "last_success"); hasSuccess != (tc.health.LastSuccess != nil) {
				t.Fatalf("last_success presence=%v body=%s", hasSuccess, w.Body.String())
			}
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	r := newTestRouter(&service.Service{Monitoring: newMonitoring()}, WithMetrics(m))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "thermal_http_requests_total") {
		t.Fatalf("request counter not exported:\n%s", body)
	}
}
