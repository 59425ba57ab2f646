// Package history keeps a bounded, chronological series of readings per
// sensor identity.
package history

import (
	"math"

	"thermal_telemetry/internal/models"
)

// Series is a fixed-capacity ring buffer of readings. Once full, each Push
// overwrites the oldest entry.
type Series struct {
	buf  []models.SensorReading
	head int // index of the oldest reading
	n    int
}

// NewSeries allocates a series holding at most capacity readings.
func NewSeries(capacity int) *Series {
	return &Series{buf: make([]models.SensorReading, capacity)}
}

// Push appends r, evicting the oldest reading when the series is full.
func (s *Series) Push(r models.SensorReading) {
	if len(s.buf) == 0 {
		return
	}
	if s.n < len(s.buf) {
		s.buf[(s.head+s.n)%len(s.buf)] = r
		s.n++
		return
	}
	s.buf[s.head] = r
	s.head = (s.head + 1) % len(s.buf)
}

func (s *Series) Len() int { return s.n }
func (s *Series) Cap() int { return len(s.buf) }

// Latest returns the most recent reading.
func (s *Series) Latest() (models.SensorReading, bool) {
	if s.n == 0 {
		return models.SensorReading{}, false
	}
	return s.at(s.n - 1), true
}

func (s *Series) at(i int) models.SensorReading {
	return s.buf[(s.head+i)%len(s.buf)]
}

// Snapshot copies the readings oldest first.
func (s *Series) Snapshot() []models.SensorReading {
	out := make([]models.SensorReading, s.n)
	for i := range out {
		out[i] = s.at(i)
	}
	return out
}

// Stats summarizes the valid readings currently retained.
type Stats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Peak  float64 `json:"peak"`
	Mean  float64 `json:"mean"`
}

// Stats ignores invalid readings. Count is zero when none are valid.
func (s *Series) Stats() Stats {
	st := Stats{Min: math.Inf(1), Peak: math.Inf(-1)}
	sum := 0.0
	for i := 0; i < s.n; i++ {
		r := s.at(i)
		if !r.Valid {
			continue
		}
		st.Count++
		sum += r.Value
		st.Min = math.Min(st.Min, r.Value)
		st.Peak = math.Max(st.Peak, r.Value)
	}
	if st.Count == 0 {
		return Stats{}
	}
	st.Mean = sum / float64(st.Count)
	return st
}
