package engine

import (
	"context"
	"fmt"

	"github.com/nerrad567/sovd-sim/internal/entity"
	"github.com/nerrad567/sovd-sim/internal/fault"
	"github.com/nerrad567/sovd-sim/internal/mode"
	"github.com/nerrad567/sovd-sim/internal/operation"
	"github.com/nerrad567/sovd-sim/internal/resource"
	"github.com/nerrad567/sovd-sim/internal/vehicle"
)

// Entity ids of the default vehicle.
const (
	EntityVehicle = "vehicle"
	EntityEngine  = "engine"
	EntityBrakes  = "brakes"
	EntityBattery = "battery"
	EntityLights  = "lights"
	EntityDoors   = "doors"
)

// speedLimitRange is shared by the speed_limit resource and the
// setSpeedLimiter operation parameter.
var speedLimitRange = resource.Range{Min: 30, Max: 180, Step: 5}

func defaultEntities(info Info) []entity.Entity {
	return []entity.Entity{
		{ID: EntityVehicle, Type: entity.TypeVehicle, DisplayName: info.Name},
		{ID: EntityEngine, Type: entity.TypeComponent, DisplayName: "Engine", Parent: EntityVehicle},
		{ID: EntityBrakes, Type: entity.TypeComponent, DisplayName: "Brakes", Parent: EntityVehicle},
		{ID: EntityBattery, Type: entity.TypeComponent, DisplayName: "Battery", Parent: EntityVehicle},
		{ID: EntityLights, Type: entity.TypeComponent, DisplayName: "Lights", Parent: EntityVehicle},
		{ID: EntityDoors, Type: entity.TypeComponent, DisplayName: "Doors", Parent: EntityVehicle},
	}
}

func (e *Engine) registerDefaults() error {
	for entityID, defs := range e.defaultResources() {
		for _, def := range defs {
			if err := e.catalog.Register(entityID, def); err != nil {
				return fmt.Errorf("registering resource: %w", err)
			}
		}
	}
	for entityID, defs := range e.defaultOperations() {
		for _, def := range defs {
			if err := e.operations.Register(entityID, def); err != nil {
				return fmt.Errorf("registering operation: %w", err)
			}
		}
	}
	seeded := map[string]fault.Record{
		EntityEngine:  {Code: "P0301", Description: "Cylinder 1 misfire detected", Status: fault.StatusStored},
		EntityBattery: {Code: "B1325", Description: "Control module voltage low", Status: fault.StatusStored},
	}
	for entityID, r := range seeded {
		if err := e.faults.Seed(entityID, r); err != nil {
			return fmt.Errorf("seeding faults: %w", err)
		}
	}
	return nil
}

func readOnly(fn func(vehicle.State) any) resource.Binding {
	return resource.BindingFuncs{ValueFunc: fn}
}

func (e *Engine) defaultResources() map[string][]resource.Definition {
	m := e.model
	limitRange := speedLimitRange

	return map[string][]resource.Definition{
		EntityVehicle: {
			{
				Descriptor: resource.Descriptor{Name: "vin", Kind: resource.KindString, Description: "Vehicle identification number"},
				Initial:    e.info.VIN,
			},
			{
				Descriptor: resource.Descriptor{Name: "speed", Kind: resource.KindInteger, Unit: "km/h"},
				Binding:    readOnly(func(s vehicle.State) any { return s.Speed }),
			},
			{
				Descriptor: resource.Descriptor{Name: "fuel_level", Kind: resource.KindNumber, Unit: "%"},
				Binding:    readOnly(func(s vehicle.State) any { return s.FuelLevel }),
			},
			{
				Descriptor: resource.Descriptor{
					Name: "mode", Kind: resource.KindEnum, Access: resource.AccessReadWrite,
					Values: modeValues(),
				},
				Binding: resource.BindingFuncs{
					ValueFunc: func(vehicle.State) any { return string(e.modes.Current()) },
					ApplyFunc: func(v any) error { return e.modes.Apply(mode.Mode(v.(string))) },
				},
			},
			{
				Descriptor: resource.Descriptor{
					Name: "speed_limit", Kind: resource.KindInteger, Unit: "km/h",
					Range: &limitRange, Access: resource.AccessReadWrite,
				},
				Binding: resource.BindingFuncs{
					ValueFunc: func(s vehicle.State) any { return s.SpeedLimit },
					ApplyFunc: func(v any) error { m.SetSpeedLimit(v.(int)); return nil },
				},
			},
			{
				Descriptor: resource.Descriptor{Name: "nickname", Kind: resource.KindString, Access: resource.AccessReadWrite},
				Initial:    e.info.Name,
			},
		},
		EntityEngine: {
			{
				Descriptor: resource.Descriptor{
					Name: "engine_state", Kind: resource.KindEnum,
					Values: []string{string(vehicle.EngineOff), string(vehicle.EngineRunning)},
				},
				Binding: readOnly(func(s vehicle.State) any { return string(s.Engine) }),
			},
			{
				Descriptor: resource.Descriptor{Name: "rpm", Kind: resource.KindInteger, Unit: "rpm"},
				Binding:    readOnly(func(s vehicle.State) any { return s.RPM }),
			},
			{
				Descriptor: resource.Descriptor{Name: "temperature", Kind: resource.KindNumber, Unit: "°C"},
				Binding:    readOnly(func(s vehicle.State) any { return s.Temperature }),
			},
		},
		EntityBrakes: {
			{
				Descriptor: resource.Descriptor{
					Name: "brake_state", Kind: resource.KindEnum, Access: resource.AccessReadWrite,
					Values: []string{string(vehicle.BrakeApplied), string(vehicle.BrakeReleased)},
				},
				Binding: resource.BindingFuncs{
					ValueFunc: func(s vehicle.State) any { return string(s.Brake) },
					ApplyFunc: func(v any) error { m.SetBrake(vehicle.BrakeState(v.(string))); return nil },
				},
			},
		},
		EntityBattery: {
			{
				Descriptor: resource.Descriptor{Name: "voltage", Kind: resource.KindNumber, Unit: "V"},
				Binding:    readOnly(func(s vehicle.State) any { return s.Battery.Voltage }),
			},
			{
				Descriptor: resource.Descriptor{
					Name: "battery_status", Kind: resource.KindEnum,
					Values: []string{string(vehicle.BatteryCharging), string(vehicle.BatteryDischarging)},
				},
				Binding: readOnly(func(s vehicle.State) any { return string(s.Battery.Status) }),
			},
		},
		EntityLights: {
			{
				Descriptor: resource.Descriptor{
					Name: "lights", Kind: resource.KindEnum, Access: resource.AccessReadWrite,
					Values: []string{string(vehicle.LightsOff), string(vehicle.LightsOn)},
				},
				Binding: resource.BindingFuncs{
					ValueFunc: func(s vehicle.State) any { return string(s.Lights) },
					ApplyFunc: func(v any) error { m.SetLights(vehicle.LightState(v.(string))); return nil },
				},
			},
			{
				Descriptor: resource.Descriptor{
					Name: "brightness", Kind: resource.KindInteger, Unit: "%", Access: resource.AccessReadWrite,
					Range: &resource.Range{Min: 0, Max: 100, Step: 1},
				},
				Initial: 100,
			},
		},
		EntityDoors: {
			{
				Descriptor: resource.Descriptor{Name: "doors_locked", Kind: resource.KindBool, Access: resource.AccessReadWrite},
				Binding: resource.BindingFuncs{
					ValueFunc: func(s vehicle.State) any { return s.DoorsLocked },
					ApplyFunc: func(v any) error { m.SetDoorsLocked(v.(bool)); return nil },
				},
			},
		},
	}
}

func (e *Engine) defaultOperations() map[string][]operation.Definition {
	m := e.model
	limitRange := speedLimitRange

	return map[string][]operation.Definition{
		EntityEngine: {
			{
				Name:        "start",
				Description: "Start the engine",
				Apply:       func(map[string]any) { m.SetEngine(vehicle.EngineRunning) },
			},
			{
				Name:        "stop",
				Description: "Stop the engine",
				Apply:       func(map[string]any) { m.SetEngine(vehicle.EngineOff) },
			},
			{
				Name:        "reset",
				Description: "ECU reset; the engine is switched off",
				Privileged:  true,
				Apply:       func(map[string]any) { m.SetEngine(vehicle.EngineOff) },
			},
		},
		EntityLights: {
			{
				Name:        "flash",
				Description: "Flash the lights, then restore their previous state",
				Privileged:  true,
				Background:  e.flashLights,
			},
		},
		EntityVehicle: {
			{
				Name:        "setSpeedLimiter",
				Description: "Set the speed limiter",
				Privileged:  true,
				Parameters: []resource.Descriptor{{
					Name: "limit", Kind: resource.KindInteger, Unit: "km/h", Range: &limitRange,
				}},
				Apply: func(p map[string]any) { m.SetSpeedLimit(p["limit"].(int)) },
			},
		},
		EntityBattery: {
			{
				Name:        "selfTest",
				Description: "Run the battery self test",
			},
		},
	}
}

// flashLights toggles the lights at the blink cadence and then restores
// the position they had before any flash sequence was running.
func (e *Engine) flashLights(ctx context.Context) {
	e.beginFlash()
	defer e.endFlash()

	for range e.blinkToggles {
		e.model.ToggleLights()
		select {
		case <-ctx.Done():
			return
		case <-e.clock.After(e.blinkInterval):
		}
	}
}

func (e *Engine) beginFlash() {
	e.flashMu.Lock()
	defer e.flashMu.Unlock()
	if e.flashing == 0 {
		e.flashPrior = e.model.Snapshot().Lights
	}
	e.flashing++
}

func (e *Engine) endFlash() {
	e.flashMu.Lock()
	defer e.flashMu.Unlock()
	e.flashing--
	if e.flashing == 0 {
		e.model.SetLights(e.flashPrior)
	}
}

func modeValues() []string {
	out := make([]string, 0, len(mode.Supported))
	for _, m := range mode.Supported {
		out = append(out, string(m))
	}
	return out
}
