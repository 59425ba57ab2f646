package history

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"thermal_telemetry/internal/models"
)

var (
	t0    = time.Date(2026, 2, 21, 14, 0, 0, 0, time.UTC)
	cpuID = models.SensorIdentity{Kind: models.KindCPU, Chip: "coretemp-isa-0000", Feature: "Core 0"}
	gpuID = models.SensorIdentity{Kind: models.KindGPU, Chip: "amdgpu-pci-0600", Feature: "edge"}
)

func reading(id models.SensorIdentity, sec int, v float64) models.SensorReading {
	return models.NewReading(id, v, t0.Add(time.Duration(sec)*time.Second))
}

func collect(t *testing.T, reg *Registry, id models.SensorIdentity) []models.SensorReading {
	t.Helper()
	seq, ok := reg.History(id)
	if !ok {
		t.Fatalf("no history for %s", id)
	}
	return slices.Collect(seq)
}

func TestNewRegistry_RejectsNonPositiveCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		_, err := NewRegistry(c)
		var cfgErr *models.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("NewRegistry(%d) err = %v, want ConfigurationError", c, err)
		}
		if cfgErr.Field != "series_capacity" {
			t.Fatalf("field = %q", cfgErr.Field)
		}
	}
}

func TestRegistry_EvictsOldest(t *testing.T) {
	reg, err := NewRegistry(3)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	for sec := 1; sec <= 4; sec++ {
		reg.Record(reading(cpuID, sec, float64(40+sec)))
	}

	got := collect(t, reg, cpuID)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, wantSec := range []int{2, 3, 4} {
		if want := t0.Add(time.Duration(wantSec) * time.Second); !got[i].Timestamp.Equal(want) {
			t.Errorf("history[%d] at %v, want %v", i, got[i].Timestamp, want)
		}
	}
}

func TestRegistry_NeverExceedsCapacityAndStaysOrdered(t *testing.T) {
	reg, _ := NewRegistry(5)
	for sec := 0; sec < 23; sec++ {
		reg.Record(reading(cpuID, sec, 50))
		got := collect(t, reg, cpuID)
		if len(got) > 5 {
			t.Fatalf("after %d records len = %d", sec+1, len(got))
		}
		for i := 1; i < len(got); i++ {
			if !got[i-1].Timestamp.Before(got[i].Timestamp) {
				t.Fatalf("out of order at %d: %v then %v", i, got[i-1].Timestamp, got[i].Timestamp)
			}
		}
	}
}

func TestRegistry_SequenceIsDetachedAndRestartable(t *testing.T) {
	reg, _ := NewRegistry(4)
	reg.Record(reading(cpuID, 1, 41))
	reg.Record(reading(cpuID, 2, 42))

	seq, ok := reg.History(cpuID)
	if !ok {
		t.Fatal("expected history")
	}
	reg.Record(reading(cpuID, 3, 43))
	reg.Record(reading(cpuID, 4, 44))
	reg.Record(reading(cpuID, 5, 45))

	for pass := 0; pass < 2; pass++ {
		var values []float64
		for r := range seq {
			values = append(values, r.Value)
		}
		if !slices.Equal(values, []float64{41, 42}) {
			t.Fatalf("pass %d: got %v, want [41 42]", pass, values)
		}
	}

	// early break must not leave the sequence unusable
	for range seq {
		break
	}
	if n := len(slices.Collect(seq)); n != 2 {
		t.Fatalf("collect after break: %d", n)
	}
}

func TestRegistry_UnknownIdentity(t *testing.T) {
	reg, _ := NewRegistry(2)
	if _, ok := reg.History(gpuID); ok {
		t.Fatal("unknown identity should have no history")
	}
	if _, ok := reg.Latest(gpuID); ok {
		t.Fatal("unknown identity should have no latest")
	}
	if _, ok := reg.Since(gpuID, t0); ok {
		t.Fatal("unknown identity should have no range")
	}
}

func TestRegistry_CurrentIdentitiesGrowsByOne(t *testing.T) {
	reg, _ := NewRegistry(2)
	reg.Record(reading(gpuID, 1, 50))
	reg.Record(reading(gpuID, 2, 51))
	if n := len(reg.CurrentIdentities()); n != 1 {
		t.Fatalf("identities = %d, want 1", n)
	}

	reg.Record(reading(cpuID, 3, 40))
	ids := reg.CurrentIdentities()
	if len(ids) != 2 {
		t.Fatalf("identities = %d, want 2", len(ids))
	}
	// CPU sorts before GPU
	if ids[0] != cpuID || ids[1] != gpuID {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestRegistry_InvalidReadingsStoredButNotCounted(t *testing.T) {
	reg, _ := NewRegistry(10)
	reg.Record(reading(cpuID, 1, 40))
	reg.Record(models.InvalidReading(cpuID, t0.Add(2*time.Second)))
	reg.Record(reading(cpuID, 3, 60))

	if n := len(collect(t, reg, cpuID)); n != 3 {
		t.Fatalf("stored %d readings, want 3", n)
	}
	st, _ := reg.Stats(cpuID)
	if st.Count != 2 || st.Min != 40 || st.Peak != 60 || st.Mean != 50 {
		t.Fatalf("unexpected stats %+v", st)
	}
	latest, _ := reg.Latest(cpuID)
	if latest.Value != 60 {
		t.Fatalf("latest = %v", latest.Value)
	}
}

func TestRegistry_Since(t *testing.T) {
	reg, _ := NewRegistry(10)
	for sec := 0; sec < 6; sec++ {
		reg.Record(reading(cpuID, sec*60, float64(sec)))
	}
	got, ok := reg.Since(cpuID, t0.Add(3*time.Minute))
	if !ok {
		t.Fatal("expected range")
	}
	if len(got) != 3 || got[0].Value != 3 || got[2].Value != 5 {
		t.Fatalf("unexpected range %+v", got)
	}
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	reg, _ := NewRegistry(16)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			reg.Record(reading(cpuID, i, float64(i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if seq, ok := reg.History(cpuID); ok {
				for range seq {
				}
			}
			reg.CurrentIdentities()
		}
	}()
	wg.Wait()
	if n := len(collect(t, reg, cpuID)); n != 16 {
		t.Fatalf("len = %d, want 16", n)
	}
}
