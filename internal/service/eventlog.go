package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	errUnknownEventType = errors.New("unknown event type")
)

var knownEventTypes = map[string]bool{
	models.EventReadingRecorded:   true,
	models.EventAlertTransitioned: true,
	models.EventHealthDegraded:    true,
	models.EventHealthRecovered:   true,
}

// IsInvalidFilter reports whether err comes from a malformed LogFilter.
func IsInvalidFilter(err error) bool {
	return errors.Is(err, errInvalidTimeRange) || errors.Is(err, errUnknownEventType)
}

// normalizeEventType trims spaces and lowercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// normalizeAndValidateFilter converts bounds to UTC and checks the range
// and the type.
func normalizeAndValidateFilter(f LogFilter) (LogFilter, error) {
	out := LogFilter{From: toUTC(f.From), To: toUTC(f.To), Type: normalizeEventType(f.Type)}

	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, errInvalidTimeRange
	}
	if out.Type != "" && !knownEventTypes[out.Type] {
		return LogFilter{}, fmt.Errorf("%w %q", errUnknownEventType, f.Type)
	}
	return out, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.TelemetryEvent, error) {
	if s.eventRepo == nil {
		return nil, ErrJournalDisabled
	}
	nf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, nf.From, nf.To, nf.Type)
}
