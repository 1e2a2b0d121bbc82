package vehicle

import (
	"math"
	"sync"

	"github.com/nerrad567/sovd-sim/internal/event"
)

// Model is the single mutable physical state of the simulation.
//
// Thread Safety: all methods are safe for concurrent use. Each Observe call
// is one atomic tick.
type Model struct {
	mu       sync.Mutex
	state    State
	policy   Policy
	src      Source
	notifier event.Notifier
}

// Option customises a Model.
type Option func(*Model)

// WithPolicy overrides the evolution constants.
func WithPolicy(p Policy) Option {
	return func(m *Model) { m.policy = p }
}

// WithState overrides the initial state.
func WithState(s State) Option {
	return func(m *Model) { m.state = s }
}

// NewModel creates a model in the parked InitialState.
func NewModel(src Source, opts ...Option) *Model {
	m := &Model{
		state:    InitialState(),
		policy:   DefaultPolicy(),
		src:      src,
		notifier: event.Nop{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetNotifier sets the receiver of vehicle.observed events.
func (m *Model) SetNotifier(n event.Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n == nil {
		n = event.Nop{}
	}
	m.notifier = n
}

// Policy returns the evolution constants in use.
func (m *Model) Policy() Policy {
	return m.policy
}

// Observe advances the model by one tick and returns the resulting snapshot.
func (m *Model) Observe() State {
	m.mu.Lock()
	m.tick()
	snap := m.state
	notifier := m.notifier
	m.mu.Unlock()

	notifier.Broadcast(event.ChannelVehicleObserved, snap)
	return snap
}

// Snapshot returns the current state without advancing it.
func (m *Model) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// tick applies one evolution step. Caller must hold m.mu.
func (m *Model) tick() {
	p := m.policy
	s := &m.state

	if s.Engine != EngineRunning {
		s.RPM = 0
		s.Speed = max(s.Speed-p.CoastStep, 0)
		return
	}

	s.RPM = clamp(s.RPM+delta(m.src, p.RPMStep), p.IdleRPM, p.MaxRPM)
	s.Battery.Voltage = round2(uniform(m.src, p.VoltageMin, p.VoltageMax))
	s.Temperature = round2(uniform(m.src, p.TempMin, p.TempMax))

	step := m.src.IntN(p.SpeedStep + 1)
	if s.Brake == BrakeApplied {
		step = -step
	}
	s.Speed = clamp(s.Speed+step, 0, min(p.MaxSpeed, s.SpeedLimit))

	s.FuelLevel = math.Max(round2(s.FuelLevel-p.FuelDecrement), 0)
}

// SetEngine starts or stops the engine. The alternator follows the engine:
// a running engine charges the battery, a stopped one lets it discharge.
func (m *Model) SetEngine(e EngineState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Engine = e
	if e == EngineRunning {
		m.state.Battery.Status = BatteryCharging
	} else {
		m.state.Battery.Status = BatteryDischarging
	}
}

// SetBrake applies or releases the brakes.
func (m *Model) SetBrake(b BrakeState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Brake = b
}

// SetLights switches the lights.
func (m *Model) SetLights(l LightState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Lights = l
}

// ToggleLights flips the lights and returns the new position.
func (m *Model) ToggleLights() LightState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Lights == LightsOn {
		m.state.Lights = LightsOff
	} else {
		m.state.Lights = LightsOn
	}
	return m.state.Lights
}

// SetDoorsLocked locks or unlocks the doors.
func (m *Model) SetDoorsLocked(locked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.DoorsLocked = locked
}

// SetSpeedLimit sets the speed limiter. The value caps the effective
// maximum speed on the next running tick.
func (m *Model) SetSpeedLimit(limit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SpeedLimit = limit
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
