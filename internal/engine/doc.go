// Package engine assembles the simulation: one Engine owns the physical
// state model and every table (entities, resources, faults, locks,
// operations, mode), wired to each other by reference.
//
// A fresh Engine is built per process, or per test, with New. Nothing in
// the simulation is held in package-level state.
//
// # Default vehicle
//
// New registers the stock demo car: a root "vehicle" entity with engine,
// brakes, battery, lights and doors children, their data resources bound
// to the physical state model, the engine/lights/vehicle/battery
// operations and two seeded stored faults. See catalog.go.
package engine
