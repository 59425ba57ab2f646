package models

import "time"

// Notification types delivered to subscribers.
const (
	EventReadingRecorded   = "reading"
	EventAlertTransitioned = "alert"
	EventHealthDegraded    = "health_degraded"
	EventHealthRecovered   = "health_recovered"
)

// Event is a notification published on the event bus.
type Event interface {
	Type() string
}

// ReadingRecorded is published for every reading stored in history.
type ReadingRecorded struct {
	Identity SensorIdentity `json:"identity"`
	Reading  SensorReading  `json:"reading"`
}

func (ReadingRecorded) Type() string { return EventReadingRecorded }

// AlertTransitioned is published when a sensor changes alert state.
type AlertTransitioned struct {
	Identity  SensorIdentity `json:"identity"`
	From      AlertState     `json:"from"`
	To        AlertState     `json:"to"`
	Value     float64        `json:"value"`
	Timestamp time.Time      `json:"timestamp"`
}

func (AlertTransitioned) Type() string { return EventAlertTransitioned }

// NewAlertTransitioned converts a transition into its notification.
func NewAlertTransitioned(t AlertTransition) AlertTransitioned {
	return AlertTransitioned{
		Identity:  t.Identity,
		From:      t.From,
		To:        t.To,
		Value:     t.Value,
		Timestamp: t.Timestamp,
	}
}

// HealthDegraded is published once per failed acquisition cycle.
type HealthDegraded struct {
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Error               string    `json:"error,omitempty"`
	OccurredAt          time.Time `json:"occurred_at"`
}

func (HealthDegraded) Type() string { return EventHealthDegraded }

// HealthRecovered is published on the first success after failures.
type HealthRecovered struct {
	After      int       `json:"after_failures"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (HealthRecovered) Type() string { return EventHealthRecovered }

// HealthStatus summarizes acquisition health.
type HealthStatus struct {
	Healthy             bool       `json:"healthy"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastError           string     `json:"last_error,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"` // nil until the first success
}
