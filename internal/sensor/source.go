// Package sensor acquires temperature snapshots. The lm-sensors adapter runs
// `sensors -j` and maps its tree-shaped output to typed readings in two
// stages: ParseTree builds a generic key/value tree, and Normalizer turns
// known shapes into models.SensorReading. Static and Synthetic sources never
// touch a process.
package sensor

import (
	"context"
	"errors"
	"fmt"

	"thermal_telemetry/internal/models"
)

// Source produces one snapshot of current sensor values per call.
type Source interface {
	Snapshot(ctx context.Context) ([]models.SensorReading, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]models.SensorReading, error)

func (f SourceFunc) Snapshot(ctx context.Context) ([]models.SensorReading, error) {
	return f(ctx)
}

// ErrSourceUnavailable means the whole acquisition failed: missing tool,
// unexpected exit, timeout or an unparsable root. Callers retry next cycle.
var ErrSourceUnavailable = errors.New("sensor source unavailable")

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSourceUnavailable, fmt.Sprintf(format, args...))
}

// ParseFault describes a malformed sub-structure for one chip or feature.
// It is recovered as an invalid reading and never aborts a snapshot.
type ParseFault struct {
	Chip    string
	Feature string
	Reason  string
}

func (f ParseFault) Error() string {
	return fmt.Sprintf("parse fault %s/%s: %s", f.Chip, f.Feature, f.Reason)
}

// FaultHandler receives parse faults as they are recovered.
type FaultHandler func(ParseFault)
