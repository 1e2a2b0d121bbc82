package fault

import (
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/sovd-sim/internal/clock"
	"github.com/nerrad567/sovd-sim/internal/entity"
	"github.com/nerrad567/sovd-sim/internal/lock"
)

// scriptedSource returns the queued Float64 draws in order, then 0.99.
type scriptedSource struct {
	floats []float64
	index  int
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.99
	}
	f := s.floats[0]
	s.floats = s.floats[1:]
	return f
}

func (s *scriptedSource) IntN(n int) int { return s.index % n }

func setupStore(t *testing.T, src *scriptedSource) (*Store, *lock.Manager) {
	t.Helper()
	reg, err := entity.NewRegistry([]entity.Entity{
		{ID: "vehicle", Type: entity.TypeVehicle},
		{ID: "engine", Type: entity.TypeComponent, Parent: "vehicle"},
		{ID: "battery", Type: entity.TypeComponent, Parent: "vehicle"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	clk := clock.NewManual(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	locks := lock.NewManager(reg, clk, 0)
	s := NewStore(reg, locks, src, clk, Injection{EntityID: "engine", Probability: 0.05})
	return s, locks
}

func TestListReturnsSeededFaults(t *testing.T) {
	s, _ := setupStore(t, &scriptedSource{})
	if err := s.Seed("engine", Record{Code: "P0301", Description: "Cylinder 1 misfire detected", Status: StatusStored}); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	list, err := s.List("engine")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Code != "P0301" || list[0].DetectedAt.IsZero() {
		t.Errorf("List() = %+v", list)
	}

	empty, err := s.List("vehicle")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("List(vehicle) = %v, %v; want empty non-nil", empty, err)
	}
}

func TestInjectionFiresBelowProbability(t *testing.T) {
	src := &scriptedSource{floats: []float64{0.5, 0.049, 0.05}, index: 1}
	s, _ := setupStore(t, src)

	first, _ := s.List("engine")
	if len(first) != 0 {
		t.Fatalf("draw 0.5 injected a fault: %+v", first)
	}

	second, _ := s.List("engine")
	if len(second) != 1 {
		t.Fatalf("draw 0.049 did not inject: %+v", second)
	}
	if second[0].Status != StatusActive || second[0].Code != DefaultPool[1].Code {
		t.Errorf("injected = %+v, want active %s", second[0], DefaultPool[1].Code)
	}

	third, _ := s.List("engine")
	if len(third) != 1 {
		t.Errorf("draw 0.05 should not inject (p is exclusive): %+v", third)
	}
}

func TestInjectionOnlyTargetsConfiguredEntity(t *testing.T) {
	src := &scriptedSource{floats: []float64{0, 0, 0}}
	s, _ := setupStore(t, src)

	for range 3 {
		list, _ := s.List("battery")
		if len(list) != 0 {
			t.Fatalf("battery received injected faults: %+v", list)
		}
	}
}

func TestClearRequiresLock(t *testing.T) {
	s, locks := setupStore(t, &scriptedSource{})
	s.Seed("engine", Record{Code: "P0301", Status: StatusStored})
	s.Seed("engine", Record{Code: "P0420", Status: StatusActive})

	if err := s.Clear("engine", ""); !errors.Is(err, lock.ErrLockRequired) {
		t.Fatalf("Clear() without lock error = %v, want ErrLockRequired", err)
	}
	if list, _ := s.List("engine"); len(list) != 2 {
		t.Fatalf("rejected clear mutated faults: %+v", list)
	}

	lease, _ := locks.Acquire("engine", time.Minute)
	if err := s.Clear("engine", lease.Token); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if list, _ := s.List("engine"); len(list) != 0 {
		t.Errorf("faults after clear = %+v", list)
	}
}

func TestUnknownEntity(t *testing.T) {
	s, _ := setupStore(t, &scriptedSource{})

	if _, err := s.List("gearbox"); !errors.Is(err, entity.ErrEntityNotFound) {
		t.Errorf("List() error = %v, want ErrEntityNotFound", err)
	}
	if err := s.Clear("gearbox", "x"); !errors.Is(err, entity.ErrEntityNotFound) {
		t.Errorf("Clear() error = %v, want ErrEntityNotFound", err)
	}
}
