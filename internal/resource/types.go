package resource

import "github.com/nerrad567/sovd-sim/internal/vehicle"

// Kind is the value type of a resource.
type Kind string

// Resource kinds.
const (
	KindEnum    Kind = "enum"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBool    Kind = "bool"
	KindString  Kind = "string"
)

// Access says whether a resource may be written. It never changes at
// runtime.
type Access string

// Access levels.
const (
	AccessReadOnly  Access = "read-only"
	AccessReadWrite Access = "read-write"
)

// Range bounds numeric resources. Step of zero means any value in
// [Min, Max] is accepted.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step,omitempty"`
}

// Descriptor is the static description of one resource.
type Descriptor struct {
	Name        string   `json:"name"`
	Kind        Kind     `json:"kind"`
	Unit        string   `json:"unit,omitempty"`
	Description string   `json:"description,omitempty"`
	Values      []string `json:"values,omitempty"`
	Range       *Range   `json:"range,omitempty"`
	Access      Access   `json:"access"`
	Bound       bool     `json:"bound"`
}

// Writable reports whether the resource accepts writes.
func (d Descriptor) Writable() bool {
	return d.Access == AccessReadWrite
}

// Binding connects a resource to a live source.
type Binding interface {
	// Value resolves the resource from a physical-state snapshot.
	Value(state vehicle.State) any
	// Apply propagates a validated value to the source. Read-only
	// bindings are never asked to apply.
	Apply(value any) error
}

// Definition registers one resource on an entity.
type Definition struct {
	Descriptor
	// Binding is nil for resources that only hold a stored value.
	Binding Binding
	// Initial is the stored value of an unbound resource.
	Initial any
}

// Resource is a descriptor together with its current value.
type Resource struct {
	Descriptor
	Value any `json:"value"`
}

// BindingFuncs adapts a pair of functions to Binding. A nil ApplyFunc
// makes the binding reject writes with ErrReadOnly.
type BindingFuncs struct {
	ValueFunc func(vehicle.State) any
	ApplyFunc func(any) error
}

// Value implements Binding.
func (b BindingFuncs) Value(s vehicle.State) any {
	return b.ValueFunc(s)
}

// Apply implements Binding.
func (b BindingFuncs) Apply(v any) error {
	if b.ApplyFunc == nil {
		return ErrReadOnly
	}
	return b.ApplyFunc(v)
}
