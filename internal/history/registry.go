package history

import (
	"iter"
	"slices"
	"sync"
	"time"

	"thermal_telemetry/internal/models"
)

// Registry maps each identity to its Series. Series are created lazily on
// first sighting and live for the rest of the run.
type Registry struct {
	mu       sync.RWMutex
	capacity int
	series   map[models.SensorIdentity]*Series
}

// NewRegistry returns a registry whose series hold capacity readings each.
func NewRegistry(capacity int) (*Registry, error) {
	if capacity <= 0 {
		return nil, models.NewConfigurationError("series_capacity", "must be > 0, got %d", capacity)
	}
	return &Registry{
		capacity: capacity,
		series:   make(map[models.SensorIdentity]*Series),
	}, nil
}

// Capacity is the per-series bound.
func (r *Registry) Capacity() int { return r.capacity }

// Record appends the reading to its identity's series.
func (r *Registry) Record(reading models.SensorReading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[reading.Identity]
	if !ok {
		s = NewSeries(r.capacity)
		r.series[reading.Identity] = s
	}
	s.Push(reading)
}

// History returns a lazy sequence over the identity's readings, oldest
// first. The readings are copied when History is called, so records made
// afterwards never show up in the returned sequence. The sequence can be
// ranged over any number of times.
func (r *Registry) History(id models.SensorIdentity) (iter.Seq[models.SensorReading], bool) {
	r.mu.RLock()
	s, ok := r.series[id]
	var snap []models.SensorReading
	if ok {
		snap = s.Snapshot()
	}
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return slices.Values(snap), true
}

// Since returns the readings taken at or after t.
func (r *Registry) Since(id models.SensorIdentity, t time.Time) ([]models.SensorReading, bool) {
	seq, ok := r.History(id)
	if !ok {
		return nil, false
	}
	out := []models.SensorReading{}
	for reading := range seq {
		if !reading.Timestamp.Before(t) {
			out = append(out, reading)
		}
	}
	return out, true
}

// Latest returns the newest reading for id.
func (r *Registry) Latest(id models.SensorIdentity) (models.SensorReading, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.series[id]
	if !ok {
		return models.SensorReading{}, false
	}
	return s.Latest()
}

// Stats summarizes the retained readings for id.
func (r *Registry) Stats(id models.SensorIdentity) (Stats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.series[id]
	if !ok {
		return Stats{}, false
	}
	return s.Stats(), true
}

// CurrentIdentities lists every identity seen so far, ordered by kind,
// chip and feature.
func (r *Registry) CurrentIdentities() []models.SensorIdentity {
	r.mu.RLock()
	ids := make([]models.SensorIdentity, 0, len(r.series))
	for id := range r.series {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.SortFunc(ids, func(a, b models.SensorIdentity) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return ids
}
