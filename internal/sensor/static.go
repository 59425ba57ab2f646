package sensor

import (
	"context"
	"sync"

	"thermal_telemetry/internal/models"
)

// Static replays caller-supplied frames, one per Snapshot, cycling when it
// reaches the end. It can also be told to fail every call.
type Static struct {
	mu     sync.Mutex
	frames [][]models.SensorReading
	next   int
	calls  int
	err    error
}

// NewStatic returns a source that always yields the same readings.
func NewStatic(readings ...models.SensorReading) *Static {
	return &Static{frames: [][]models.SensorReading{readings}}
}

// NewStaticFrames returns a source cycling through the given frames.
func NewStaticFrames(frames ...[]models.SensorReading) *Static {
	return &Static{frames: frames}
}

// FailWith makes every following Snapshot return err. A nil err restores
// normal replay.
func (s *Static) FailWith(err error) *Static {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	return s
}

// Calls reports how many times Snapshot was invoked.
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Static) Snapshot(_ context.Context) ([]models.SensorReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.frames) == 0 {
		return nil, nil
	}
	frame := s.frames[s.next%len(s.frames)]
	s.next++
	out := make([]models.SensorReading, len(frame))
	copy(out, frame)
	return out, nil
}
