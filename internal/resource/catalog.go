package resource

import (
	"fmt"
	"sync"

	"github.com/nerrad567/sovd-sim/internal/event"
	"github.com/nerrad567/sovd-sim/internal/vehicle"
)

// EntityChecker validates entity ids.
type EntityChecker interface {
	Check(id string) error
}

// LockValidator checks lock tokens.
type LockValidator interface {
	Validate(entityID, token string) error
}

// StateSource advances and returns the physical state.
type StateSource interface {
	Observe() vehicle.State
}

type entry struct {
	desc    Descriptor
	binding Binding
	stored  any
}

// Catalog holds the resources of every entity.
//
// All public methods are thread-safe. A Write is atomic with respect to
// other catalog calls.
type Catalog struct {
	mu       sync.RWMutex
	entities EntityChecker
	locks    LockValidator
	states   StateSource
	order    map[string][]string
	entries  map[string]map[string]*entry
	notifier event.Notifier
}

// NewCatalog creates an empty catalog.
func NewCatalog(entities EntityChecker, locks LockValidator, states StateSource) *Catalog {
	return &Catalog{
		entities: entities,
		locks:    locks,
		states:   states,
		order:    make(map[string][]string),
		entries:  make(map[string]map[string]*entry),
		notifier: event.Nop{},
	}
}

// SetNotifier sets the receiver of resource.written events.
func (c *Catalog) SetNotifier(n event.Notifier) {
	c.notifier = n
}

// Register adds a resource to an entity. Resources are listed in
// registration order.
func (c *Catalog) Register(entityID string, def Definition) error {
	if err := c.entities.Check(entityID); err != nil {
		return err
	}
	if def.Access == "" {
		def.Access = AccessReadOnly
	}
	def.Bound = def.Binding != nil

	c.mu.Lock()
	defer c.mu.Unlock()

	byName := c.entries[entityID]
	if byName == nil {
		byName = make(map[string]*entry)
		c.entries[entityID] = byName
	}
	if _, dup := byName[def.Name]; dup {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateResource, entityID, def.Name)
	}
	byName[def.Name] = &entry{desc: def.Descriptor, binding: def.Binding, stored: def.Initial}
	c.order[entityID] = append(c.order[entityID], def.Name)
	return nil
}

// List returns every resource of the entity with its live value. It
// observes the physical state exactly once.
func (c *Catalog) List(entityID string) ([]Resource, error) {
	if err := c.entities.Check(entityID); err != nil {
		return nil, err
	}

	snap := c.states.Observe()

	c.mu.RLock()
	defer c.mu.RUnlock()

	names := c.order[entityID]
	out := make([]Resource, 0, len(names))
	for _, name := range names {
		e := c.entries[entityID][name]
		out = append(out, Resource{Descriptor: cloneDescriptor(e.desc), Value: e.value(snap)})
	}
	return out, nil
}

// Read returns the live value of one resource. It observes the physical
// state exactly once.
func (c *Catalog) Read(entityID, name string) (any, error) {
	if _, err := c.Describe(entityID, name); err != nil {
		return nil, err
	}

	snap := c.states.Observe()

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[entityID][name].value(snap), nil
}

// Describe returns the descriptor of one resource.
func (c *Catalog) Describe(entityID, name string) (Descriptor, error) {
	if err := c.entities.Check(entityID); err != nil {
		return Descriptor{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[entityID][name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s/%s", ErrResourceNotFound, entityID, name)
	}
	return cloneDescriptor(e.desc), nil
}

// Write validates and stores a new value, propagating it through the
// binding when the resource is bound.
func (c *Catalog) Write(entityID, name string, value any, token string) error {
	_, err := c.WriteResource(entityID, name, value, token)
	return err
}

// WriteResource is Write returning the descriptor and the normalized value
// that was stored. It does not advance the state model.
func (c *Catalog) WriteResource(entityID, name string, value any, token string) (Resource, error) {
	if err := c.entities.Check(entityID); err != nil {
		return Resource{}, err
	}

	c.mu.Lock()

	e, ok := c.entries[entityID][name]
	if !ok {
		c.mu.Unlock()
		return Resource{}, fmt.Errorf("%w: %s/%s", ErrResourceNotFound, entityID, name)
	}
	if !e.desc.Writable() {
		c.mu.Unlock()
		return Resource{}, fmt.Errorf("%w: %s/%s", ErrReadOnly, entityID, name)
	}
	if err := c.locks.Validate(entityID, token); err != nil {
		c.mu.Unlock()
		return Resource{}, err
	}
	v, err := Normalize(e.desc, value)
	if err != nil {
		c.mu.Unlock()
		return Resource{}, err
	}
	if e.binding != nil {
		if err := e.binding.Apply(v); err != nil {
			c.mu.Unlock()
			return Resource{}, fmt.Errorf("applying %s/%s: %w", entityID, name, err)
		}
	}
	e.stored = v
	desc := cloneDescriptor(e.desc)
	c.mu.Unlock()

	c.notifier.Broadcast(event.ChannelResourceWritten, map[string]any{
		"entity_id": entityID,
		"resource":  name,
		"value":     v,
	})
	return Resource{Descriptor: desc, Value: v}, nil
}

func (e *entry) value(snap vehicle.State) any {
	if e.binding != nil {
		return e.binding.Value(snap)
	}
	return e.stored
}

func cloneDescriptor(d Descriptor) Descriptor {
	if d.Values != nil {
		d.Values = append([]string(nil), d.Values...)
	}
	if d.Range != nil {
		r := *d.Range
		d.Range = &r
	}
	return d
}
