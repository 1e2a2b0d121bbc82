// Package vehicle provides the physical state model of the simulated car.
//
// The model holds a single PhysicalState record and advances it one tick
// every time Observe is called. There is no background ticker: evolution is
// strictly pull-driven, so the simulation only moves when a client looks at
// it.
//
// # Evolution rules
//
// With the engine running, each tick:
//
//   - rpm moves by a bounded random delta, clamped to [IdleRPM, MaxRPM]
//   - battery voltage and coolant temperature are redrawn inside their bands
//   - speed rises (brake released) or falls (brake applied) by a bounded
//     random step, clamped to [0, min(MaxSpeed, speed limit)]
//   - fuel drops by a fixed decrement, floored at 0
//
// With the engine off, rpm is forced to 0 and speed coasts down by a fixed
// step until it reaches 0.
//
// # Usage
//
//	model := vehicle.NewModel(vehicle.NewSource(0))
//	model.SetEngine(vehicle.EngineRunning)
//	model.SetBrake(vehicle.BrakeReleased)
//	snap := model.Observe()
//	fmt.Println(snap.Speed, snap.RPM)
//
// Randomness is injected through Source so tests can pin every draw.
package vehicle
