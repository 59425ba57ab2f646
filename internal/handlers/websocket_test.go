package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/service"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"disabled_when_missing", "/ws", 0},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_small", "/ws?interval=10ms", 0},
		{"interval_too_large", "/ws?interval=2m", 0},
		{"interval_ms_too_large", "/ws?interval_ms=120000", 0},
		{"interval_invalid_string", "/ws?interval=bogus", 0},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 0},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

func TestParseTypes(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ", nil},
		{"alert", []string{"alert"}},
		{"ALERT, health_degraded", []string{"alert", "health_degraded"}},
	}
	for _, tc := range cases {
		got := parseTypes(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("parseTypes(%q)=%v want %v", tc.in, got, tc.want)
		}
		for _, w := range tc.want {
			if !got[w] {
				t.Fatalf("parseTypes(%q) missing %q", tc.in, w)
			}
		}
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialStream(t *testing.T, tel *mockTelemetry, query url.Values, opts ...Option) *websocket.Conn {
	t.Helper()
	s := &service.Service{Monitoring: newMonitoring(), Telemetry: tel}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil, opts...)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_InitialSnapshotThenNotifications(t *testing.T) {
	tel := newMockTelemetry()
	conn := dialStream(t, tel, nil)

	// the snapshot is written after subscribing, so the bus has a subscriber now
	env := readEnvelope(t, conn)
	if env.Type != envelopeSensors {
		t.Fatalf("expected sensors snapshot, got %+v", env)
	}
	var views []service.SensorView
	if err := json.Unmarshal(env.Data, &views); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(views) != 1 || views[0].Identity != core0 {
		t.Fatalf("unexpected snapshot: %+v", views)
	}

	tel.bus.Publish(models.AlertTransitioned{
		Identity: core0, From: models.StateNormal, To: models.StateWarning, Value: 76, Timestamp: t0,
	})

	env = readEnvelope(t, conn)
	if env.Type != models.EventAlertTransitioned {
		t.Fatalf("expected alert envelope, got %+v", env)
	}
	var at models.AlertTransitioned
	if err := json.Unmarshal(env.Data, &at); err != nil {
		t.Fatalf("unmarshal alert: %v", err)
	}
	if at.Identity != core0 || at.To != models.StateWarning || at.Value != 76 {
		t.Fatalf("unexpected alert: %+v", at)
	}
}

func TestWebSocket_TypeFilter(t *testing.T) {
	tel := newMockTelemetry()
	conn := dialStream(t, tel, url.Values{"types": {"health_degraded"}})
	_ = readEnvelope(t, conn)

	tel.bus.Publish(models.ReadingRecorded{Identity: core0, Reading: models.NewReading(core0, 60, t0)})
	tel.bus.Publish(models.HealthDegraded{ConsecutiveFailures: 1, Error: "exit status 1", OccurredAt: t0})

	env := readEnvelope(t, conn)
	if env.Type != models.EventHealthDegraded {
		t.Fatalf("filtered stream delivered %q", env.Type)
	}
}

func TestWebSocket_PeriodicSnapshots(t *testing.T) {
	tel := newMockTelemetry()
	conn := dialStream(t, tel, url.Values{"interval_ms": {"100"}})

	for i := 0; i < 2; i++ {
		if env := readEnvelope(t, conn); env.Type != envelopeSensors {
			t.Fatalf("snapshot %d: got %+v", i, env)
		}
	}
}

func TestWebSocket_BusClosedSendsGoingAway(t *testing.T) {
	tel := newMockTelemetry()
	conn := dialStream(t, tel, nil)
	_ = readEnvelope(t, conn)

	tel.bus.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.CloseGoingAway {
		t.Fatalf("expected going-away close, got %v", err)
	}
}

func TestWebSocket_DisconnectUnsubscribes(t *testing.T) {
	tel := newMockTelemetry()
	conn := dialStream(t, tel, nil)
	_ = readEnvelope(t, conn)

	if n := tel.bus.Len(); n != 1 {
		t.Fatalf("subscribers=%d want 1", n)
	}
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for tel.bus.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription not released after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
