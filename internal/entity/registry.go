package entity

import "fmt"

// Registry is the immutable entity tree.
//
// All public methods are safe for concurrent use: the registry is never
// modified after NewRegistry returns.
type Registry struct {
	root  string
	order []string
	byID  map[string]Entity
}

// NewRegistry builds a registry from a flat list of entities. Exactly one
// entity must have no parent; every other parent must reference an entity
// in the list. Children are derived from Parent links in list order.
func NewRegistry(entities []Entity) (*Registry, error) {
	r := &Registry{byID: make(map[string]Entity, len(entities))}

	for _, e := range entities {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: entity with empty id", ErrInvalidTree)
		}
		if _, dup := r.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidTree, e.ID)
		}
		if e.IsRoot() {
			if r.root != "" {
				return nil, fmt.Errorf("%w: multiple roots %q and %q", ErrInvalidTree, r.root, e.ID)
			}
			r.root = e.ID
		}
		e.Children = nil
		r.byID[e.ID] = e
		r.order = append(r.order, e.ID)
	}
	if r.root == "" {
		return nil, fmt.Errorf("%w: no root entity", ErrInvalidTree)
	}

	for _, id := range r.order {
		e := r.byID[id]
		if e.IsRoot() {
			continue
		}
		parent, ok := r.byID[e.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: %q references unknown parent %q", ErrInvalidTree, id, e.Parent)
		}
		parent.Children = append(parent.Children, id)
		r.byID[e.Parent] = parent
	}

	return r, nil
}

// Root returns the root entity.
func (r *Registry) Root() Entity {
	return r.byID[r.root].clone()
}

// RootID returns the id of the root entity.
func (r *Registry) RootID() string {
	return r.root
}

// Get returns the entity with the given id.
// Returns ErrEntityNotFound if it does not exist.
func (r *Registry) Get(id string) (Entity, error) {
	e, ok := r.byID[id]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return e.clone(), nil
}

// Exists reports whether id names a registered entity.
func (r *Registry) Exists(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// List returns every entity, root first, in registration order.
func (r *Registry) List() []Entity {
	out := make([]Entity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].clone())
	}
	return out
}

// Check returns ErrEntityNotFound for unknown ids and nil otherwise.
func (r *Registry) Check(id string) error {
	if !r.Exists(id) {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return nil
}
