// Package alert classifies readings into Normal, Warning and Critical with
// hysteresis so that a value hovering at a boundary does not flap.
package alert

import (
	"fmt"
	"strings"

	"thermal_telemetry/internal/models"
)

// Override pins a threshold to one chip/feature pair.
type Override struct {
	Chip      string                `json:"chip"`
	Feature   string                `json:"feature"`
	Threshold models.AlertThreshold `json:"threshold"`
}

type overrideKey struct{ chip, feature string }

func keyOf(chip, feature string) overrideKey {
	return overrideKey{strings.ToLower(chip), strings.ToLower(feature)}
}

// Thresholds resolves the threshold for an identity: a per-identity
// override wins over a per-kind entry, which wins over the default.
type Thresholds struct {
	def       models.AlertThreshold
	kinds     map[models.SensorKind]models.AlertThreshold
	overrides map[overrideKey]models.AlertThreshold
}

// NewThresholds validates every entry.
func NewThresholds(def models.AlertThreshold, kinds map[models.SensorKind]models.AlertThreshold, overrides []Override) (*Thresholds, error) {
	if err := def.Validate(); err != nil {
		return nil, &models.ConfigurationError{Field: "thresholds.default", Reason: err.Error()}
	}
	t := &Thresholds{
		def:       def,
		kinds:     make(map[models.SensorKind]models.AlertThreshold, len(kinds)),
		overrides: make(map[overrideKey]models.AlertThreshold, len(overrides)),
	}
	for k, th := range kinds {
		if err := th.Validate(); err != nil {
			return nil, &models.ConfigurationError{Field: "thresholds.kinds." + strings.ToLower(k.String()), Reason: err.Error()}
		}
		t.kinds[k] = th
	}
	for i, o := range overrides {
		field := fmt.Sprintf("thresholds.overrides[%d]", i)
		if o.Chip == "" || o.Feature == "" {
			return nil, models.NewConfigurationError(field, "chip and feature are required")
		}
		if err := o.Threshold.Validate(); err != nil {
			return nil, &models.ConfigurationError{Field: field, Reason: err.Error()}
		}
		t.overrides[keyOf(o.Chip, o.Feature)] = o.Threshold
	}
	return t, nil
}

// Uniform applies one threshold to every sensor.
func Uniform(th models.AlertThreshold) (*Thresholds, error) {
	return NewThresholds(th, nil, nil)
}

// For returns the threshold that applies to id.
func (t *Thresholds) For(id models.SensorIdentity) models.AlertThreshold {
	if th, ok := t.overrides[keyOf(id.Chip, id.Feature)]; ok {
		return th
	}
	if th, ok := t.kinds[id.Kind]; ok {
		return th
	}
	return t.def
}

// Default returns the fallback threshold.
func (t *Thresholds) Default() models.AlertThreshold { return t.def }
