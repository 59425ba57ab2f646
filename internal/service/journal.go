package service

import (
	"context"
	"fmt"
	"time"

	"thermal_telemetry/internal/events"
	"thermal_telemetry/internal/logger"
	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/repository"
)

const journalWriteTimeout = 5 * time.Second

// Journal persists notifications from the bus. Readings update the
// per-sensor state row; alert transitions and health changes are appended
// to the event log. Only the first failure of an outage is journaled so a
// long outage does not flood the table.
type Journal struct {
	events repository.EventRepo
	states repository.StateRepo
	log    *logger.Logger
}

func NewJournal(repos *repository.Repository, log *logger.Logger) *Journal {
	return &Journal{
		events: repos.EventRepo,
		states: repos.StateRepo,
		log:    logger.OrNop(log).Named("journal"),
	}
}

// Run consumes sub until its channel is closed or ctx is done. Write
// errors are logged and never stop consumption.
func (j *Journal) Run(ctx context.Context, sub *events.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
			if err := j.Handle(wctx, e); err != nil {
				j.log.Errorw("journal_write_failed", "type", e.Type(), "err", err)
			}
			cancel()
		}
	}
}

// Handle writes one notification.
func (j *Journal) Handle(ctx context.Context, e models.Event) error {
	switch ev := e.(type) {
	case models.ReadingRecorded:
		return j.states.SaveReading(ctx, ev.Reading)

	case models.AlertTransitioned:
		if err := j.states.SaveAlert(ctx, ev.Identity, ev.To, ev.Timestamp); err != nil {
			return err
		}
		return j.events.Append(ctx, models.TelemetryEvent{
			OccurredAt:  ev.Timestamp,
			Type:        ev.Type(),
			Description: fmt.Sprintf("%s %s -> %s at %.1f°C", ev.Identity, ev.From, ev.To, ev.Value),
			Metadata: map[string]any{
				"kind":    ev.Identity.Kind.String(),
				"chip":    ev.Identity.Chip,
				"feature": ev.Identity.Feature,
				"from":    ev.From.String(),
				"to":      ev.To.String(),
				"value":   ev.Value,
			},
		})

	case models.HealthDegraded:
		if ev.ConsecutiveFailures != 1 {
			return nil
		}
		return j.events.Append(ctx, models.TelemetryEvent{
			OccurredAt:  ev.OccurredAt,
			Type:        ev.Type(),
			Description: "sensor acquisition failed: " + ev.Error,
			Metadata:    map[string]any{"consecutive_failures": ev.ConsecutiveFailures},
		})

	case models.HealthRecovered:
		return j.events.Append(ctx, models.TelemetryEvent{
			OccurredAt:  ev.OccurredAt,
			Type:        ev.Type(),
			Description: fmt.Sprintf("sensor acquisition recovered after %d failures", ev.After),
			Metadata:    map[string]any{"after_failures": ev.After},
		})
	}
	return nil
}
