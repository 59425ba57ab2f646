package sensor

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"thermal_telemetry/internal/models"
)

const (
	adapterKey = "Adapter"
	// DefaultFeature labels the invalid reading emitted for a malformed chip.
	DefaultFeature = "temp1"
)

// Normalizer maps a generic Tree to typed readings. Unknown or malformed
// shapes become invalid readings instead of failing the snapshot.
type Normalizer struct {
	// Classify defaults to ClassifyChip.
	Classify func(chip string) models.SensorKind
	// OnFault is called for every recovered parse fault.
	OnFault FaultHandler
}

// Normalize uses the default Normalizer.
func Normalize(tree Tree, at time.Time) []models.SensorReading {
	return Normalizer{}.Normalize(tree, at)
}

// Normalize returns readings sorted by chip, then feature.
func (n Normalizer) Normalize(tree Tree, at time.Time) []models.SensorReading {
	classify := n.Classify
	if classify == nil {
		classify = ClassifyChip
	}

	var out []models.SensorReading
	for _, chip := range tree.Keys() {
		kind := classify(chip)
		chipVal := tree[chip]

		if !chipVal.IsTree() {
			out = append(out, n.fault(kind, chip, DefaultFeature, "chip value is not a tree", at))
			continue
		}

		produced, malformed, features := 0, 0, 0
		for _, feature := range chipVal.Tree.Keys() {
			if feature == adapterKey {
				continue
			}
			features++
			fv := chipVal.Tree[feature]
			if !fv.IsTree() {
				malformed++
				continue
			}
			input, ok := temperatureInput(feature, fv.Tree)
			if !ok {
				if expectsTemperature(feature, fv.Tree) {
					produced++
					out = append(out, n.fault(kind, chip, feature, "temperature input missing", at))
				}
				// fans, voltages, currents
				continue
			}
			produced++
			id := models.SensorIdentity{Kind: kind, Chip: chip, Feature: feature}
			c, ok := toCelsius(input)
			if !ok {
				out = append(out, n.fault(kind, chip, feature, "temperature input is not a finite number", at))
				continue
			}
			out = append(out, models.NewReading(id, c, at))
		}

		if produced == 0 && (features == 0 || malformed > 0) {
			out = append(out, n.fault(kind, chip, DefaultFeature, "no temperature structure", at))
		}
	}
	return out
}

func (n Normalizer) fault(kind models.SensorKind, chip, feature, reason string, at time.Time) models.SensorReading {
	if n.OnFault != nil {
		n.OnFault(ParseFault{Chip: chip, Feature: feature, Reason: reason})
	}
	return models.InvalidReading(models.SensorIdentity{Kind: kind, Chip: chip, Feature: feature}, at)
}

// temperatureInput finds the first sub-field that carries a temperature
// input, e.g. "temp1_input", or "temp2_input" under a "Tctl" feature.
func temperatureInput(feature string, fields Tree) (Value, bool) {
	featureIsTemp := isTemperatureFeature(feature)

	for _, sub := range fields.Keys() {
		ls := strings.ToLower(sub)
		if !strings.HasSuffix(ls, "_input") {
			continue
		}
		if strings.Contains(ls, "temp") || featureIsTemp {
			return fields[sub], true
		}
	}
	return Value{}, false
}

func isTemperatureFeature(feature string) bool {
	lf := strings.ToLower(feature)
	return strings.HasPrefix(lf, "temp") ||
		strings.HasPrefix(lf, "tctl") ||
		strings.HasPrefix(lf, "tdie")
}

// expectsTemperature reports whether a feature without an input still
// looks like a temperature sensor: temperature-named, carrying temp*
// limits, or empty.
func expectsTemperature(feature string, fields Tree) bool {
	if len(fields) == 0 || isTemperatureFeature(feature) {
		return true
	}
	for sub := range fields {
		if strings.Contains(strings.ToLower(sub), "temp") {
			return true
		}
	}
	return false
}

var unitValRe = regexp.MustCompile(`^([+-]?\d+(?:\.\d+)?)\s*(°?\s*[CFK])?$`)

// toCelsius converts a scalar leaf to degrees Celsius. Plain numbers are
// taken as Celsius, which is what `sensors -j` reports by default.
func toCelsius(v Value) (float64, bool) {
	if v.IsTree() {
		return 0, false
	}
	var (
		f    float64
		unit string
	)
	switch s := v.Scalar.(type) {
	case json.Number:
		parsed, err := s.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = s
	case int:
		f = float64(s)
	case string:
		m := unitValRe.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		f = parsed
		unit = strings.ToUpper(strings.TrimLeft(strings.ReplaceAll(m[2], " ", ""), "°"))
	default:
		return 0, false
	}

	switch unit {
	case "F":
		f = (f - 32) * 5 / 9
	case "K":
		f -= 273.15
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
