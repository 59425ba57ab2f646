package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// SensorKind is the hardware component class a sensor belongs to.
type SensorKind int

const (
	KindOther SensorKind = iota
	KindCPU
	KindGPU
	KindHDD
	KindMotherboard
)

var kindNames = map[SensorKind]string{
	KindOther:       "Other",
	KindCPU:         "CPU",
	KindGPU:         "GPU",
	KindHDD:         "HDD",
	KindMotherboard: "Motherboard",
}

func (k SensorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Other"
}

// ParseSensorKind maps a case-insensitive kind name to a SensorKind.
func ParseSensorKind(s string) (SensorKind, error) {
	s = strings.TrimSpace(s)
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return KindOther, fmt.Errorf("unknown sensor kind %q", s)
}

func (k SensorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *SensorKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseSensorKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SensorIdentity is the stable key of one physical sensor across polls.
type SensorIdentity struct {
	Kind    SensorKind `json:"kind"`
	Chip    string     `json:"chip"`    // e.g. "coretemp-isa-0000"
	Feature string     `json:"feature"` // e.g. "Core 0"
}

func (id SensorIdentity) String() string {
	return id.Chip + "/" + id.Feature
}

// Less orders identities by kind, chip, then feature.
func (id SensorIdentity) Less(other SensorIdentity) bool {
	if id.Kind != other.Kind {
		return id.Kind < other.Kind
	}
	if id.Chip != other.Chip {
		return id.Chip < other.Chip
	}
	return id.Feature < other.Feature
}

// SensorReading is one temperature sample. Value is in degrees Celsius.
type SensorReading struct {
	Identity  SensorIdentity `json:"identity"`
	Value     float64        `json:"value"`
	Timestamp time.Time      `json:"timestamp"`
	Valid     bool           `json:"valid"`
}

// NewReading builds a valid reading unless value is NaN or infinite.
func NewReading(id SensorIdentity, value float64, at time.Time) SensorReading {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return InvalidReading(id, at)
	}
	return SensorReading{Identity: id, Value: value, Timestamp: at, Valid: true}
}

// InvalidReading marks a sensor that is present but reporting a fault.
func InvalidReading(id SensorIdentity, at time.Time) SensorReading {
	return SensorReading{Identity: id, Timestamp: at}
}
