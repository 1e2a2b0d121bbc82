package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/sovd-sim/internal/clock"
	"github.com/nerrad567/sovd-sim/internal/entity"
	"github.com/nerrad567/sovd-sim/internal/event"
	"github.com/nerrad567/sovd-sim/internal/fault"
	"github.com/nerrad567/sovd-sim/internal/lock"
	"github.com/nerrad567/sovd-sim/internal/mode"
	"github.com/nerrad567/sovd-sim/internal/operation"
	"github.com/nerrad567/sovd-sim/internal/resource"
	"github.com/nerrad567/sovd-sim/internal/vehicle"
)

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Info identifies the simulated vehicle.
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	VIN         string `json:"vin"`
}

// Options configures a new Engine. Zero values use the defaults.
type Options struct {
	Info Info

	// Source drives all randomness. Defaults to vehicle.NewSource(Seed).
	Source vehicle.Source
	Seed   int64

	// Clock drives lease expiry and background delays. Defaults to wall time.
	Clock clock.Clock

	OperationSteps     int
	OperationStepDelay time.Duration
	BlinkInterval      time.Duration
	BlinkToggles       int

	// FaultProbability is the per-listing injection chance on the engine
	// entity. Zero means fault.DefaultProbability; negative disables it.
	FaultProbability float64

	MaxLockTTL time.Duration

	Logger Logger
}

// Defaults for Options.
const (
	DefaultBlinkInterval = 500 * time.Millisecond
	DefaultBlinkToggles  = 6
)

// DefaultInfo is the identity reported when none is configured.
var DefaultInfo = Info{
	Name:        "DemoCar",
	Version:     "0.1",
	Description: "Test vehicle",
	VIN:         "WVWZZZ1JZXW000001",
}

// Engine owns the whole simulation.
type Engine struct {
	info   Info
	clock  clock.Clock
	logger Logger
	events *event.Fanout

	blinkInterval time.Duration
	blinkToggles  int

	// flashMu guards the shared state of overlapping flash sequences. The
	// first sequence records the lights position and the last one restores it.
	flashMu    sync.Mutex
	flashing   int
	flashPrior vehicle.LightState

	registry   *entity.Registry
	model      *vehicle.Model
	locks      *lock.Manager
	catalog    *resource.Catalog
	faults     *fault.Store
	modes      *mode.Controller
	operations *operation.Scheduler
}

// New builds an engine with the default vehicle catalogue.
func New(opts Options) (*Engine, error) {
	opts = withDefaults(opts)

	registry, err := entity.NewRegistry(defaultEntities(opts.Info))
	if err != nil {
		return nil, fmt.Errorf("building entity registry: %w", err)
	}

	e := &Engine{
		info:          opts.Info,
		clock:         opts.Clock,
		logger:        opts.Logger,
		events:        event.NewFanout(),
		blinkInterval: opts.BlinkInterval,
		blinkToggles:  opts.BlinkToggles,
		registry:      registry,
	}

	e.model = vehicle.NewModel(opts.Source)
	e.locks = lock.NewManager(registry, opts.Clock, opts.MaxLockTTL)
	e.catalog = resource.NewCatalog(registry, e.locks, e.model)
	e.faults = fault.NewStore(registry, e.locks, opts.Source, opts.Clock, fault.Injection{
		EntityID:    EntityEngine,
		Probability: opts.FaultProbability,
	})
	e.modes = mode.NewController(registry.RootID(), registry, e.locks)
	e.operations = operation.NewScheduler(registry, e.locks, opts.Clock, operation.Config{
		Steps:     opts.OperationSteps,
		StepDelay: opts.OperationStepDelay,
	})

	e.model.SetNotifier(e.events)
	e.locks.SetNotifier(e.events)
	e.catalog.SetNotifier(e.events)
	e.faults.SetNotifier(e.events)
	e.modes.SetNotifier(e.events)
	e.operations.SetNotifier(e.events)
	e.locks.SetLogger(opts.Logger)
	e.operations.SetLogger(opts.Logger)

	if err := e.registerDefaults(); err != nil {
		e.operations.Close()
		return nil, err
	}

	e.logger.Info("simulation engine ready",
		"vehicle", e.info.Name,
		"entities", len(registry.List()),
	)
	return e, nil
}

func withDefaults(opts Options) Options {
	if opts.Info.Name == "" {
		opts.Info.Name = DefaultInfo.Name
	}
	if opts.Info.Version == "" {
		opts.Info.Version = DefaultInfo.Version
	}
	if opts.Info.Description == "" {
		opts.Info.Description = DefaultInfo.Description
	}
	if opts.Info.VIN == "" {
		opts.Info.VIN = DefaultInfo.VIN
	}
	if opts.Source == nil {
		opts.Source = vehicle.NewSource(opts.Seed)
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.BlinkInterval <= 0 {
		opts.BlinkInterval = DefaultBlinkInterval
	}
	if opts.BlinkToggles <= 0 {
		opts.BlinkToggles = DefaultBlinkToggles
	}
	switch {
	case opts.FaultProbability == 0:
		opts.FaultProbability = fault.DefaultProbability
	case opts.FaultProbability < 0:
		opts.FaultProbability = 0
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return opts
}

// Subscribe adds a receiver for every simulation event.
func (e *Engine) Subscribe(n event.Notifier) {
	e.events.Add(n)
}

// Close stops all background tasks.
func (e *Engine) Close() {
	e.operations.Close()
}

// Info returns the vehicle identity.
func (e *Engine) Info() Info { return e.info }

// Registry returns the entity registry.
func (e *Engine) Registry() *entity.Registry { return e.registry }

// Model returns the physical state model.
func (e *Engine) Model() *vehicle.Model { return e.model }

// Locks returns the lock manager.
func (e *Engine) Locks() *lock.Manager { return e.locks }

// Resources returns the data resource catalog.
func (e *Engine) Resources() *resource.Catalog { return e.catalog }

// Faults returns the fault store.
func (e *Engine) Faults() *fault.Store { return e.faults }

// Modes returns the mode controller.
func (e *Engine) Modes() *mode.Controller { return e.modes }

// Operations returns the operation scheduler.
func (e *Engine) Operations() *operation.Scheduler { return e.operations }
