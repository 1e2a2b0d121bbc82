package entity

import "errors"

// Domain errors for the entity package.
var (
	// ErrEntityNotFound is returned when an entity ID does not exist.
	ErrEntityNotFound = errors.New("entity: not found")

	// ErrInvalidTree is returned when registry construction finds a
	// malformed tree (no root, duplicate IDs, dangling parents).
	ErrInvalidTree = errors.New("entity: invalid tree")
)
