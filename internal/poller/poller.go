// Package poller drives acquisition. It owns timing; every other core
// component is passive and is called synchronously within a cycle.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"thermal_telemetry/internal/logger"
	"thermal_telemetry/internal/metrics"
	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/sensor"
)

const (
	DefaultInterval       = 2 * time.Second
	DefaultAcquireTimeout = 10 * time.Second
)

// Recorder stores readings (history.Registry).
type Recorder interface {
	Record(r models.SensorReading)
}

// Evaluator classifies readings (alert.Evaluator).
type Evaluator interface {
	Evaluate(r models.SensorReading) (models.AlertTransition, bool)
}

// Publisher delivers notifications (events.Bus).
type Publisher interface {
	Publish(e models.Event)
}

// Poller periodically snapshots a Source and feeds the results through the
// registry, the evaluator and the bus.
type Poller struct {
	src       sensor.Source
	recorder  Recorder
	evaluator Evaluator
	publisher Publisher

	interval       atomic.Int64
	acquireTimeout time.Duration
	wake           chan struct{}

	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.RWMutex
	health models.HealthStatus
}

// Option configures a Poller.
type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval.Store(int64(d)) }
}

func WithAcquireTimeout(d time.Duration) Option {
	return func(p *Poller) { p.acquireTimeout = d }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Poller) { p.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// New validates timing and returns an idle Poller. Call Run to start it.
func New(src sensor.Source, rec Recorder, eval Evaluator, pub Publisher, opts ...Option) (*Poller, error) {
	p := &Poller{
		src:            src,
		recorder:       rec,
		evaluator:      eval,
		publisher:      pub,
		acquireTimeout: DefaultAcquireTimeout,
		wake:           make(chan struct{}, 1),
		now:            time.Now,
		health:         models.HealthStatus{Healthy: true},
	}
	p.interval.Store(int64(DefaultInterval))
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.OrNop(p.log).Named("poller")

	if d := p.Interval(); d <= 0 {
		return nil, models.NewConfigurationError("poll_interval_ms", "must be > 0, got %s", d)
	}
	if p.acquireTimeout <= 0 {
		return nil, models.NewConfigurationError("acquire_timeout_ms", "must be > 0, got %s", p.acquireTimeout)
	}
	if src == nil || rec == nil || eval == nil || pub == nil {
		return nil, models.NewConfigurationError("poller", "source, recorder, evaluator and publisher are required")
	}
	return p, nil
}

// Interval returns the current poll period.
func (p *Poller) Interval() time.Duration {
	return time.Duration(p.interval.Load())
}

// SetInterval changes the poll period. The running loop re-arms its timer
// with the new value without a restart. Non-positive values are rejected.
func (p *Poller) SetInterval(d time.Duration) error {
	if d <= 0 {
		return models.NewConfigurationError("poll_interval_ms", "must be > 0, got %s", d)
	}
	if time.Duration(p.interval.Swap(int64(d))) == d {
		return nil
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// Health returns the acquisition health.
func (p *Poller) Health() models.HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

// Run polls until ctx is cancelled and returns ctx.Err(). The first cycle
// starts immediately. Acquisition failures never stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Infow("poller_started", "interval", p.Interval(), "acquire_timeout", p.acquireTimeout)
	defer p.log.Infow("poller_stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wake:
			// interval changed: restart the wait with the new period
			timer.Reset(p.Interval())
		case <-timer.C:
			p.RunCycle(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			timer.Reset(p.Interval())
		}
	}
}

// RunCycle performs exactly one acquisition and applies the whole
// snapshot. Cancelling ctx does not interrupt an acquisition that already
// started; the acquire timeout bounds it instead.
func (p *Poller) RunCycle(ctx context.Context) {
	acqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.acquireTimeout)
	defer cancel()

	start := p.now()
	readings, err := p.src.Snapshot(acqCtx)
	elapsed := p.now().Sub(start)

	if err != nil {
		p.fail(err, elapsed)
		return
	}
	p.succeed(elapsed)

	for _, r := range readings {
		p.recorder.Record(r)
		p.metrics.Reading(r)
		p.publisher.Publish(models.ReadingRecorded{Identity: r.Identity, Reading: r})
		// invalid readings register the sensor at Normal and never transition
		if t, changed := p.evaluator.Evaluate(r); changed {
			p.metrics.Transition(t)
			p.log.Infow("alert_transition",
				"sensor", t.Identity.String(),
				"from", t.From.String(),
				"to", t.To.String(),
				"value", t.Value,
			)
			p.publisher.Publish(models.NewAlertTransitioned(t))
		}
	}
}

func (p *Poller) fail(err error, elapsed time.Duration) {
	p.mu.Lock()
	p.health.Healthy = false
	p.health.ConsecutiveFailures++
	p.health.LastError = err.Error()
	n := p.health.ConsecutiveFailures
	p.mu.Unlock()

	p.metrics.Cycle(elapsed, false, n)
	p.log.Warnw("poll_cycle_failed", "consecutive_failures", n, "err", err)
	p.publisher.Publish(models.HealthDegraded{
		ConsecutiveFailures: n,
		Error:               err.Error(),
		OccurredAt:          p.now().UTC(),
	})
}

func (p *Poller) succeed(elapsed time.Duration) {
	p.mu.Lock()
	after := p.health.ConsecutiveFailures
	at := p.now().UTC()
	p.health = models.HealthStatus{Healthy: true, LastSuccess: &at}
	p.mu.Unlock()

	p.metrics.Cycle(elapsed, true, 0)
	if after > 0 {
		p.log.Infow("acquisition_recovered", "after_failures", after)
		p.publisher.Publish(models.HealthRecovered{After: after, OccurredAt: p.now().UTC()})
	}
}
