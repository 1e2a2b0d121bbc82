// Package resource provides the Data Resource Catalog.
//
// Each entity exposes a fixed, ordered set of named data resources. A
// resource is described by a Descriptor (kind, unit, enum values, range,
// access) and is either bound to a live source through a Binding or holds a
// stored value of its own.
//
// Reads take exactly one physical-state observation per call and resolve
// every bound value from that single snapshot, so the values returned by
// List are mutually consistent.
//
// Writes run their checks in a fixed order: unknown entity, unknown
// resource, read-only access, lock validation, then value validation.
// Nothing is mutated unless every check passes.
package resource
