package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/sovd-sim/internal/clock"
	"github.com/nerrad567/sovd-sim/internal/entity"
	"github.com/nerrad567/sovd-sim/internal/event"
	"github.com/nerrad567/sovd-sim/internal/lock"
	"github.com/nerrad567/sovd-sim/internal/mode"
	"github.com/nerrad567/sovd-sim/internal/operation"
	"github.com/nerrad567/sovd-sim/internal/resource"
	"github.com/nerrad567/sovd-sim/internal/vehicle"
)

type zeroSource struct{}

func (zeroSource) Float64() float64 { return 0.5 }
func (zeroSource) IntN(int) int     { return 0 }

type eventLog struct {
	mu       sync.Mutex
	channels []string
}

func (l *eventLog) Broadcast(channel string, _ any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.channels = append(l.channels, channel)
}

func (l *eventLog) has(channel string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.channels {
		if c == channel {
			return true
		}
	}
	return false
}

func setupEngine(t *testing.T) (*Engine, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC))
	e, err := New(Options{
		Source:             zeroSource{},
		Clock:              clk,
		OperationStepDelay: time.Hour,
		FaultProbability:   -1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e, clk
}

func acquire(t *testing.T, e *Engine, entityID string) string {
	t.Helper()
	lease, err := e.Locks().Acquire(entityID, 30*time.Second)
	if err != nil {
		t.Fatalf("Acquire(%s) error = %v", entityID, err)
	}
	return lease.Token
}

// ─── Construction ──────────────────────────────────────────────────────────

func TestNewBuildsDefaultVehicle(t *testing.T) {
	e, _ := setupEngine(t)

	root := e.Registry().Root()
	if root.ID != EntityVehicle || root.DisplayName != "DemoCar" {
		t.Errorf("root = %+v", root)
	}
	if got := len(e.Registry().List()); got != 6 {
		t.Errorf("entity count = %d, want 6", got)
	}
	if info := e.Info(); info.Version != "0.1" || info.Description != "Test vehicle" {
		t.Errorf("Info() = %+v", info)
	}

	faults, err := e.Faults().List(EntityEngine)
	if err != nil || len(faults) != 1 || faults[0].Code != "P0301" {
		t.Errorf("engine faults = %+v, %v", faults, err)
	}

	defs, _ := e.Operations().Definitions(EntityEngine)
	if len(defs) != 3 || defs[0].Name != "start" || !defs[2].Privileged {
		t.Errorf("engine operations = %+v", defs)
	}
}

// ─── Write properties ──────────────────────────────────────────────────────

// validAlternative returns a legal value for a writable resource that
// differs from current where possible.
func validAlternative(d resource.Descriptor, current any) any {
	switch d.Kind {
	case resource.KindBool:
		return !current.(bool)
	case resource.KindEnum:
		for _, v := range d.Values {
			if v != current {
				return v
			}
		}
		return d.Values[0]
	case resource.KindInteger:
		if d.Range != nil {
			return int(d.Range.Min)
		}
		return 1
	case resource.KindNumber:
		return 1.5
	}
	return "changed"
}

func TestWriteVisibilityForEveryWritableResource(t *testing.T) {
	e, _ := setupEngine(t)

	for _, ent := range e.Registry().List() {
		resources, err := e.Resources().List(ent.ID)
		if err != nil {
			t.Fatalf("List(%s) error = %v", ent.ID, err)
		}
		for _, r := range resources {
			if !r.Writable() {
				continue
			}
			t.Run(ent.ID+"/"+r.Name, func(t *testing.T) {
				want := validAlternative(r.Descriptor, r.Value)

				if err := e.Resources().Write(ent.ID, r.Name, want, ""); !errors.Is(err, lock.ErrLockRequired) {
					t.Fatalf("Write() without lock error = %v, want ErrLockRequired", err)
				}

				token := acquire(t, e, ent.ID)
				if err := e.Resources().Write(ent.ID, r.Name, want, token); err != nil {
					t.Fatalf("Write() error = %v", err)
				}

				after, _ := e.Resources().List(ent.ID)
				for _, a := range after {
					if a.Name == r.Name && a.Value != want {
						t.Errorf("live value = %v, want %v", a.Value, want)
					}
				}
			})
		}
	}
}

func TestDoorsScenario(t *testing.T) {
	e, _ := setupEngine(t)
	token := acquire(t, e, EntityDoors)

	if err := e.Resources().Write(EntityDoors, "doors_locked", false, token); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if v, _ := e.Resources().Read(EntityDoors, "doors_locked"); v != false {
		t.Fatalf("doors_locked = %v, want false", v)
	}

	if err := e.Resources().Write(EntityDoors, "doors_locked", true, "wrong-token"); !errors.Is(err, lock.ErrLockRequired) {
		t.Fatalf("Write(wrong-token) error = %v, want ErrLockRequired", err)
	}
	if v, _ := e.Resources().Read(EntityDoors, "doors_locked"); v != false {
		t.Errorf("doors_locked = %v after rejected write, want false", v)
	}
}

func TestReadOnlyResources(t *testing.T) {
	e, _ := setupEngine(t)
	token := acquire(t, e, EntityEngine)

	err := e.Resources().Write(EntityEngine, "rpm", 3000, token)
	if !errors.Is(err, resource.ErrReadOnly) {
		t.Errorf("Write(rpm) error = %v, want ErrReadOnly", err)
	}
	err = e.Resources().Write(EntityVehicle, "vin", "X", "")
	if !errors.Is(err, resource.ErrReadOnly) {
		t.Errorf("Write(vin) error = %v, want ErrReadOnly", err)
	}
}

// ─── Modes ─────────────────────────────────────────────────────────────────

func TestInvalidModeScenario(t *testing.T) {
	e, _ := setupEngine(t)
	token := acquire(t, e, EntityVehicle)

	if err := e.Modes().Set(EntityVehicle, "moon-drive", token); !errors.Is(err, mode.ErrInvalidMode) {
		t.Fatalf("Set(moon-drive) error = %v, want ErrInvalidMode", err)
	}
	if got := e.Modes().Current(); got != mode.Drive {
		t.Errorf("mode = %q, want drive", got)
	}

	if err := e.Resources().Write(EntityVehicle, "mode", "moon-drive", token); !errors.Is(err, resource.ErrInvalidValue) {
		t.Fatalf("Write(mode, moon-drive) error = %v, want ErrInvalidValue", err)
	}
	if err := e.Resources().Write(EntityVehicle, "mode", "transport", token); err != nil {
		t.Fatalf("Write(mode, transport) error = %v", err)
	}
	state, _ := e.Modes().Get(EntityVehicle)
	if state.Current != mode.Transport {
		t.Errorf("mode after resource write = %q, want transport", state.Current)
	}
}

// ─── Operations ────────────────────────────────────────────────────────────

func TestSpeedLimiterScenario(t *testing.T) {
	e, _ := setupEngine(t)
	params := map[string]any{"limit": 100}

	_, err := e.Operations().Start(EntityVehicle, "setSpeedLimiter", params, "")
	if !errors.Is(err, lock.ErrLockRequired) {
		t.Fatalf("Start() without lock error = %v, want ErrLockRequired", err)
	}

	token := acquire(t, e, EntityVehicle)
	op, err := e.Operations().Start(EntityVehicle, "setSpeedLimiter", params, token)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if op.Status != operation.StatusRunning || op.ID < 1 {
		t.Errorf("Start() = %+v", op)
	}
	if got := e.Model().Snapshot().SpeedLimit; got != 100 {
		t.Errorf("speed limit = %d, want 100", got)
	}
	if v, _ := e.Resources().Read(EntityVehicle, "speed_limit"); v != 100 {
		t.Errorf("speed_limit resource = %v, want 100", v)
	}
}

func TestEngineStartAppliesImmediately(t *testing.T) {
	e, _ := setupEngine(t)

	op, err := e.Operations().Start(EntityEngine, "start", nil, "")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if op.Progress != 0 || op.Status != operation.StatusRunning {
		t.Errorf("op = %+v", op)
	}

	v, _ := e.Resources().Read(EntityEngine, "engine_state")
	if v != "running" {
		t.Errorf("engine_state = %v, want running", v)
	}
	if s := e.Model().Snapshot(); s.RPM < vehicle.DefaultPolicy().IdleRPM {
		t.Errorf("rpm = %d after observation, want >= idle", s.RPM)
	}
	if v, _ := e.Resources().Read(EntityBattery, "battery_status"); v != "charging" {
		t.Errorf("battery_status = %v, want charging", v)
	}

	if _, err := e.Operations().Start(EntityEngine, "reset", nil, ""); !errors.Is(err, lock.ErrLockRequired) {
		t.Errorf("reset without lock error = %v", err)
	}
	token := acquire(t, e, EntityEngine)
	if _, err := e.Operations().Start(EntityEngine, "reset", nil, token); err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if got := e.Model().Snapshot().Engine; got != vehicle.EngineOff {
		t.Errorf("engine = %q after reset, want off", got)
	}
}

func TestFlashTogglesThenRestores(t *testing.T) {
	e, clk := setupEngine(t)
	token := acquire(t, e, EntityLights)

	if _, err := e.Operations().Start(EntityLights, "flash", nil, token); err != nil {
		t.Fatalf("Start(flash) error = %v", err)
	}

	// One progress timer plus one blink timer.
	sawOn := false
	for range DefaultBlinkToggles {
		if !clk.WaitForTimers(2, time.Second) {
			t.Fatal("blink timer not scheduled")
		}
		if e.Model().Snapshot().Lights == vehicle.LightsOn {
			sawOn = true
		}
		clk.Advance(DefaultBlinkInterval)
	}
	if !sawOn {
		t.Error("lights never switched on during flash")
	}

	deadline := time.Now().Add(time.Second)
	for clk.Pending() != 1 || e.Model().Snapshot().Lights != vehicle.LightsOff {
		if time.Now().After(deadline) {
			t.Fatalf("flash did not finish: pending=%d lights=%q", clk.Pending(), e.Model().Snapshot().Lights)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOverlappingFlashesRestoreInitialLights(t *testing.T) {
	e, err := New(Options{
		Source:             zeroSource{},
		OperationStepDelay: time.Hour,
		BlinkInterval:      5 * time.Millisecond,
		FaultProbability:   -1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(e.Close)
	token := acquire(t, e, EntityLights)

	if _, err := e.Operations().Start(EntityLights, "flash", nil, token); err != nil {
		t.Fatalf("Start(flash) error = %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for e.Model().Snapshot().Lights != vehicle.LightsOn {
		if time.Now().After(deadline) {
			t.Fatal("first flash never switched the lights on")
		}
		time.Sleep(time.Millisecond)
	}
	// The second sequence starts while the lights are on mid-flash.
	if _, err := e.Operations().Start(EntityLights, "flash", nil, token); err != nil {
		t.Fatalf("second Start(flash) error = %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if got := e.Model().Snapshot().Lights; got != vehicle.LightsOff {
		t.Errorf("lights after both flashes = %q, want %q", got, vehicle.LightsOff)
	}
}

// ─── Events ────────────────────────────────────────────────────────────────

func TestSubscribeReceivesComponentEvents(t *testing.T) {
	e, _ := setupEngine(t)
	log := &eventLog{}
	e.Subscribe(log)

	token := acquire(t, e, EntityVehicle)
	e.Resources().List(EntityVehicle)
	e.Resources().Write(EntityVehicle, "nickname", "Herbie", token)
	e.Modes().Set(EntityVehicle, mode.Service, token)
	e.Operations().Start(EntityBattery, "selfTest", nil, "")

	for _, ch := range []string{
		event.ChannelLockAcquired,
		event.ChannelVehicleObserved,
		event.ChannelResourceWritten,
		event.ChannelModeChanged,
		event.ChannelOperationStarted,
	} {
		if !log.has(ch) {
			t.Errorf("missing %s event", ch)
		}
	}
}

func TestUnknownEntityAcrossComponents(t *testing.T) {
	e, _ := setupEngine(t)

	checks := map[string]error{}
	_, checks["resources"] = e.Resources().List("gearbox")
	_, checks["faults"] = e.Faults().List("gearbox")
	_, checks["locks"] = e.Locks().Acquire("gearbox", time.Minute)
	_, checks["modes"] = e.Modes().Get("gearbox")
	_, checks["operations"] = e.Operations().List("gearbox")

	for name, err := range checks {
		if !errors.Is(err, entity.ErrEntityNotFound) {
			t.Errorf("%s: error = %v, want ErrEntityNotFound", name, err)
		}
	}
}
