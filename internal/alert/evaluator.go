package alert

import (
	"maps"
	"sync"

	"thermal_telemetry/internal/models"
)

// Evaluator owns the alert state of every sensor it has seen.
type Evaluator struct {
	mu         sync.RWMutex
	thresholds *Thresholds
	states     map[models.SensorIdentity]models.AlertState
}

func NewEvaluator(t *Thresholds) *Evaluator {
	return &Evaluator{
		thresholds: t,
		states:     make(map[models.SensorIdentity]models.AlertState),
	}
}

// Evaluate feeds one reading through the state machine and reports a
// transition when the state changed. Invalid readings register the sensor
// at Normal on first sighting but never move its state.
func (e *Evaluator) Evaluate(r models.SensorReading) (models.AlertTransition, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	from, seen := e.states[r.Identity]
	if !seen {
		from = models.StateNormal
		e.states[r.Identity] = from
	}
	if !r.Valid {
		return models.AlertTransition{}, false
	}

	to := next(from, r.Value, e.thresholds.For(r.Identity))
	if to == from {
		return models.AlertTransition{}, false
	}
	e.states[r.Identity] = to
	return models.AlertTransition{
		Identity:  r.Identity,
		From:      from,
		To:        to,
		Value:     r.Value,
		Timestamp: r.Timestamp,
	}, true
}

// next is the hysteresis transition function. Escalation happens at the
// raw threshold; de-escalation needs the value to fall a margin below it.
func next(cur models.AlertState, v float64, th models.AlertThreshold) models.AlertState {
	w, c, m := th.Warning, th.Critical, th.Hysteresis
	switch cur {
	case models.StateNormal:
		if v >= c {
			return models.StateCritical
		}
		if v >= w {
			return models.StateWarning
		}
	case models.StateWarning:
		if v >= c {
			return models.StateCritical
		}
		if v <= w-m {
			return models.StateNormal
		}
	case models.StateCritical:
		if v <= w-m {
			return models.StateNormal
		}
		// a value in (w-m, w) stays Critical
		if v <= c-m && v >= w {
			return models.StateWarning
		}
	}
	return cur
}

// State returns the current state of id. Unknown sensors are Normal.
func (e *Evaluator) State(id models.SensorIdentity) (models.AlertState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.states[id]
	return s, ok
}

// States copies the full state table.
func (e *Evaluator) States() map[models.SensorIdentity]models.AlertState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.states)
}

// SetThresholds swaps the table. Current states are kept and the new
// thresholds apply from the next reading.
func (e *Evaluator) SetThresholds(t *Thresholds) {
	e.mu.Lock()
	e.thresholds = t
	e.mu.Unlock()
}

// Thresholds returns the table in use.
func (e *Evaluator) Thresholds() *Thresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.thresholds
}
