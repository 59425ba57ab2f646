package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "thermal_telemetry/docs"
	"thermal_telemetry/internal/config"
	"thermal_telemetry/internal/handlers"
	"thermal_telemetry/internal/logger"
	"thermal_telemetry/internal/metrics"
	"thermal_telemetry/internal/repository"
	"thermal_telemetry/internal/repository/db"
	"thermal_telemetry/internal/sensor"
	"thermal_telemetry/internal/server"
	"thermal_telemetry/internal/service"
)

const (
	configPath      = "configs/config.yml"
	shutdownTimeout = 10 * time.Second
)

// @title        Thermal Telemetry API
// @version      1.0
// @description  Hardware temperature polling, history, alerting and notification stream.
// @BasePath     /
func main() {
	// load config.yml (+ .env, THERMAL_* env)
	loader := config.NewLoader(configPath, nil)
	cfg, err := loader.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Encoding)
	defer func() { _ = log.Sync() }()
	loader.SetLogger(log.Named("config"))

	src := newSource(cfg, log)
	m := metrics.New()

	thresholds, err := cfg.ToThresholds()
	if err != nil {
		log.Fatalw("invalid thresholds", "err", err)
	}
	core, err := service.NewTelemetryService(src, service.TelemetryConfig{
		Interval:       cfg.PollInterval(),
		AcquireTimeout: cfg.AcquireTimeout(),
		Capacity:       cfg.SeriesCapacity,
		Thresholds:     thresholds,
	}, log.Named("telemetry"), m)
	if err != nil {
		log.Fatalw("failed to build telemetry core", "err", err)
	}

	// open DB and start the journal
	var (
		conn        *sql.DB
		repos       *repository.Repository
		journalDone = make(chan struct{})
	)
	if cfg.DB.Enabled {
		conn, err = db.InitDB(cfg.DB.Path)
		if err != nil {
			log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
		}
		repos = repository.NewRepository(conn)
		sub := core.Subscribe(cfg.EventsBuffer)
		go func() {
			defer close(journalDone)
			// drains until the bus closes so the last notifications are written
			service.NewJournal(repos, log).Run(context.Background(), sub)
		}()
	} else {
		close(journalDone)
		log.Infow("event journal disabled")
	}

	// wire dependencies
	services := service.NewService(core, repos)
	apiHandler := handlers.NewHandler(services, log.Named("http"),
		handlers.WithMetrics(m),
		handlers.WithStreamBuffer(cfg.EventsBuffer),
	)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coreDone := make(chan struct{})
	go func() {
		defer close(coreDone)
		if err := core.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("telemetry_stopped", "err", err)
		}
	}()

	loader.Watch(func(next *config.Config, err error) {
		if err != nil {
			log.Warnw("config_reload_rejected", "err", err)
			return
		}
		th, err := next.ToThresholds()
		if err != nil {
			log.Warnw("config_reload_rejected", "err", err)
			return
		}
		if err := core.Reconfigure(next.PollInterval(), th); err != nil {
			log.Warnw("config_reload_rejected", "err", err)
		}
	})

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Addr(), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)

	<-coreDone
	<-journalDone
	if conn != nil {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}
}

// newSource picks the acquisition backend named by source.kind.
func newSource(cfg *config.Config, log *logger.Logger) sensor.Source {
	if cfg.Source.Kind == config.SourceSynthetic {
		log.Infow("using synthetic sensor source", "sensors", len(cfg.Source.Synthetic.Sensors))
		return sensor.NewSynthetic(cfg.SyntheticSensors()...)
	}
	faults := log.Named("sensors")
	return sensor.NewLMSensors(
		sensor.WithCommand(cfg.Source.Command, cfg.Source.Args...),
		sensor.WithFaultHandler(func(f sensor.ParseFault) {
			faults.Debugw("parse_fault", "chip", f.Chip, "feature", f.Feature, "reason", f.Reason)
		}),
	)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, addr string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "addr", addr)
		if err := srv.Run(addr, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop polling; the bus closes and stream clients get a going-away frame
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
