package sensor

import (
	"context"
	"sync"
	"time"

	"thermal_telemetry/internal/models"
)

// ----------- Simulation constants -----------
const (
	DefaultAmbientC     = 35.0 // idle temperature °C
	DefaultPeakC        = 90.0 // load temperature °C
	HeatRateCPerSec     = 3.0  // °C per second while under load
	CoolRateCPerSec     = 5.0  // °C per second while idle
	maxSimulatedStepSec = 60.0
)

// SyntheticSensor describes one simulated sensor.
type SyntheticSensor struct {
	Identity models.SensorIdentity
	AmbientC float64
	PeakC    float64
}

type syntheticState struct {
	SyntheticSensor
	tempC   float64
	heating bool
}

// Synthetic generates a sawtooth thermal profile per sensor: it ramps up
// toward the peak under load, then cools back to ambient, forever.
type Synthetic struct {
	mu      sync.Mutex
	sensors []syntheticState
	last    time.Time
	now     func() time.Time
}

// NewSynthetic returns a synthetic source starting every sensor at ambient.
func NewSynthetic(sensors ...SyntheticSensor) *Synthetic {
	return newSynthetic(time.Now, sensors...)
}

func newSynthetic(now func() time.Time, sensors ...SyntheticSensor) *Synthetic {
	s := &Synthetic{now: now}
	for _, sc := range sensors {
		if sc.AmbientC == 0 && sc.PeakC == 0 {
			sc.AmbientC, sc.PeakC = DefaultAmbientC, DefaultPeakC
		}
		if sc.PeakC < sc.AmbientC {
			sc.PeakC = sc.AmbientC
		}
		s.sensors = append(s.sensors, syntheticState{SyntheticSensor: sc, tempC: sc.AmbientC, heating: true})
	}
	return s
}

// Snapshot advances the simulation by the wall time since the last call.
func (s *Synthetic) Snapshot(_ context.Context) ([]models.SensorReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	elapsed := 0.0
	if !s.last.IsZero() {
		elapsed = now.Sub(s.last).Seconds()
	}
	if elapsed > maxSimulatedStepSec {
		elapsed = maxSimulatedStepSec
	}
	s.last = now

	out := make([]models.SensorReading, 0, len(s.sensors))
	for i := range s.sensors {
		st := &s.sensors[i]
		if elapsed > 0 {
			if st.heating {
				s.handleHeat(st, elapsed)
			} else {
				s.handleCooling(st, elapsed)
			}
		}
		out = append(out, models.NewReading(st.Identity, st.tempC, now))
	}
	return out, nil
}

// handleHeat ramps toward the peak and flips to cooling once reached.
func (s *Synthetic) handleHeat(st *syntheticState, elapsed float64) {
	st.tempC = minFloat(st.tempC+HeatRateCPerSec*elapsed, st.PeakC)
	if st.tempC >= st.PeakC {
		st.heating = false
	}
}

// handleCooling drifts toward ambient and flips to heating once reached.
func (s *Synthetic) handleCooling(st *syntheticState, elapsed float64) {
	st.tempC = maxFloat(st.tempC-CoolRateCPerSec*elapsed, st.AmbientC)
	if st.tempC <= st.AmbientC {
		st.heating = true
	}
}

// helpers
func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}
