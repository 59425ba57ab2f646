package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// AlertState is the per-sensor alert level.
type AlertState int

const (
	StateNormal AlertState = iota
	StateWarning
	StateCritical
)

func (s AlertState) String() string {
	switch s {
	case StateWarning:
		return "Warning"
	case StateCritical:
		return "Critical"
	default:
		return "Normal"
	}
}

// ParseAlertState is the inverse of String, case-insensitive.
func ParseAlertState(s string) (AlertState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return StateNormal, nil
	case "warning":
		return StateWarning, nil
	case "critical":
		return StateCritical, nil
	}
	return StateNormal, fmt.Errorf("unknown alert state %q", s)
}

func (s AlertState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *AlertState) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	parsed, err := ParseAlertState(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AlertThreshold configures the hysteresis machine for a sensor.
type AlertThreshold struct {
	Warning    float64 `json:"warning" mapstructure:"warning"`
	Critical   float64 `json:"critical" mapstructure:"critical"`
	Hysteresis float64 `json:"hysteresis" mapstructure:"hysteresis"`
}

// Validate checks critical >= warning >= 0 and hysteresis >= 0.
func (t AlertThreshold) Validate() error {
	for _, v := range []float64{t.Warning, t.Critical, t.Hysteresis} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("threshold values must be finite: %+v", t)
		}
	}
	if t.Warning < 0 {
		return fmt.Errorf("warning %.1f must be >= 0", t.Warning)
	}
	if t.Critical < t.Warning {
		return fmt.Errorf("critical %.1f must be >= warning %.1f", t.Critical, t.Warning)
	}
	if t.Hysteresis < 0 {
		return fmt.Errorf("hysteresis %.1f must be >= 0", t.Hysteresis)
	}
	return nil
}

// AlertTransition records one change of alert state.
type AlertTransition struct {
	Identity  SensorIdentity `json:"identity"`
	From      AlertState     `json:"from"`
	To        AlertState     `json:"to"`
	Value     float64        `json:"value"`
	Timestamp time.Time      `json:"timestamp"`
}
