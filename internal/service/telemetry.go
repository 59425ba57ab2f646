package service

import (
	"context"
	"time"

	"thermal_telemetry/internal/alert"
	"thermal_telemetry/internal/events"
	"thermal_telemetry/internal/history"
	"thermal_telemetry/internal/logger"
	"thermal_telemetry/internal/metrics"
	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/poller"
	"thermal_telemetry/internal/sensor"
)

// TelemetryConfig holds the core settings.
type TelemetryConfig struct {
	Interval       time.Duration
	AcquireTimeout time.Duration
	Capacity       int
	Thresholds     *alert.Thresholds
}

// TelemetryService owns the core components and the poller driving them.
type TelemetryService struct {
	registry  *history.Registry
	evaluator *alert.Evaluator
	bus       *events.Bus
	poller    *poller.Poller
	log       *logger.Logger
}

// NewTelemetryService builds the registry, evaluator, bus and poller.
// Invalid settings come back as *models.ConfigurationError.
func NewTelemetryService(src sensor.Source, cfg TelemetryConfig, log *logger.Logger, m *metrics.Metrics) (*TelemetryService, error) {
	log = logger.OrNop(log)
	if cfg.Thresholds == nil {
		return nil, models.NewConfigurationError("thresholds", "a threshold table is required")
	}
	reg, err := history.NewRegistry(cfg.Capacity)
	if err != nil {
		return nil, err
	}
	eval := alert.NewEvaluator(cfg.Thresholds)
	bus := events.NewBus(events.WithDropHook(m.Dropped))

	p, err := poller.New(src, reg, eval, bus,
		poller.WithInterval(cfg.Interval),
		poller.WithAcquireTimeout(cfg.AcquireTimeout),
		poller.WithLogger(log),
		poller.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	return &TelemetryService{
		registry:  reg,
		evaluator: eval,
		bus:       bus,
		poller:    p,
		log:       log,
	}, nil
}

// Run polls until ctx is done, then closes every subscription.
func (s *TelemetryService) Run(ctx context.Context) error {
	defer s.bus.Close()
	return s.poller.Run(ctx)
}

// RunCycle performs one acquisition outside the loop.
func (s *TelemetryService) RunCycle(ctx context.Context) { s.poller.RunCycle(ctx) }

func (s *TelemetryService) Subscribe(buffer int) *events.Subscription {
	return s.bus.Subscribe(buffer)
}

func (s *TelemetryService) SetInterval(d time.Duration) error { return s.poller.SetInterval(d) }
func (s *TelemetryService) Interval() time.Duration           { return s.poller.Interval() }

// SetThresholds swaps the evaluator table; alert states are kept.
func (s *TelemetryService) SetThresholds(t *alert.Thresholds) { s.evaluator.SetThresholds(t) }

// Reconfigure applies a reloaded interval and threshold table. Nothing
// changes if either is invalid.
func (s *TelemetryService) Reconfigure(interval time.Duration, thresholds *alert.Thresholds) error {
	if thresholds == nil {
		return models.NewConfigurationError("thresholds", "a threshold table is required")
	}
	if err := s.poller.SetInterval(interval); err != nil {
		return err
	}
	s.evaluator.SetThresholds(thresholds)
	s.log.Infow("telemetry_reconfigured", "interval", interval)
	return nil
}

func (s *TelemetryService) Registry() *history.Registry { return s.registry }
func (s *TelemetryService) Evaluator() *alert.Evaluator { return s.evaluator }
func (s *TelemetryService) Health() models.HealthStatus { return s.poller.Health() }
