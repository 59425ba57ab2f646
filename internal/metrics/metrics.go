package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"thermal_telemetry/internal/models"
)

const namespace = "thermal"

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pollCycles          *prometheus.CounterVec
	acquireDuration     prometheus.Histogram
	consecutiveFailures prometheus.Gauge
	sensorValue         *prometheus.GaugeVec
	sensorValid         *prometheus.GaugeVec
	alertState          *prometheus.GaugeVec
	alertTransitions    *prometheus.CounterVec
	notificationsDrop   *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Poll cycles by result (ok, unavailable).",
		}, []string{"result"}),
		acquireDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "acquisition_duration_seconds",
			Help:      "Time spent acquiring one sensor snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		consecutiveFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "acquisition_consecutive_failures",
			Help:      "Failed acquisitions since the last success.",
		}),
		sensorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_temperature_celsius",
			Help:      "Latest valid temperature per sensor.",
		}, []string{"kind", "chip", "feature"}),
		sensorValid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_valid",
			Help:      "1 if the latest reading was valid, 0 if the sensor reported a fault.",
		}, []string{"kind", "chip", "feature"}),
		alertState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_alert_state",
			Help:      "Alert state per sensor (0 normal, 1 warning, 2 critical).",
		}, []string{"kind", "chip", "feature"}),
		alertTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_transitions_total",
			Help:      "Alert transitions by target state.",
		}, []string{"to"}),
		notificationsDrop: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Notifications discarded because a subscriber queue was full.",
		}, []string{"type"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pollCycles,
		m.acquireDuration,
		m.consecutiveFailures,
		m.sensorValue,
		m.sensorValid,
		m.alertState,
		m.alertTransitions,
		m.notificationsDrop,
		m.httpRequestsTotal,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the exposition format for this registry only.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Cycle records one poll cycle outcome.
func (m *Metrics) Cycle(d time.Duration, ok bool, consecutiveFailures int) {
	if m == nil {
		return
	}
	m.acquireDuration.Observe(d.Seconds())
	result := "ok"
	if !ok {
		result = "unavailable"
	}
	m.pollCycles.WithLabelValues(result).Inc()
	m.consecutiveFailures.Set(float64(consecutiveFailures))
}

func (m *Metrics) Reading(r models.SensorReading) {
	if m == nil {
		return
	}
	labels := identityLabels(r.Identity)
	if !r.Valid {
		m.sensorValid.WithLabelValues(labels...).Set(0)
		return
	}
	m.sensorValid.WithLabelValues(labels...).Set(1)
	m.sensorValue.WithLabelValues(labels...).Set(r.Value)
}

func (m *Metrics) Transition(t models.AlertTransition) {
	if m == nil {
		return
	}
	m.alertState.WithLabelValues(identityLabels(t.Identity)...).Set(float64(t.To))
	m.alertTransitions.WithLabelValues(t.To.String()).Inc()
}

// Dropped matches events.DropHook.
func (m *Metrics) Dropped(e models.Event) {
	if m == nil {
		return
	}
	m.notificationsDrop.WithLabelValues(e.Type()).Inc()
}

// GinMiddleware counts requests by matched route and status.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func identityLabels(id models.SensorIdentity) []string {
	return []string{id.Kind.String(), id.Chip, id.Feature}
}
