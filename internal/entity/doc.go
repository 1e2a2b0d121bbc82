// Package entity provides the Entity Registry: the fixed tree of
// addressable diagnostic entities (the vehicle and its components).
//
// The registry is built once at startup and never mutated. Every other
// component validates entity-id parameters against it, so an unknown id
// surfaces as ErrEntityNotFound regardless of which operation was called.
//
// # Usage
//
//	reg, err := entity.NewRegistry([]entity.Entity{
//	    {ID: "vehicle", Type: entity.TypeVehicle, DisplayName: "DemoCar"},
//	    {ID: "engine", Type: entity.TypeComponent, DisplayName: "Engine", Parent: "vehicle"},
//	})
//	root := reg.Root()
//	eng, err := reg.Get("engine")
package entity
