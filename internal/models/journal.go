package models

import "time"

// TelemetryEvent is one journal row.
type TelemetryEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

// SensorState is the last persisted view of one sensor. It survives
// restarts, unlike the in-memory history.
type SensorState struct {
	Identity  SensorIdentity `json:"identity"`
	Value     float64        `json:"value"`
	Valid     bool           `json:"valid"`
	Alert     AlertState     `json:"alert"`
	UpdatedAt time.Time      `json:"updated_at"`
}
