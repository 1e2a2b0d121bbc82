package resource

import "errors"

// Domain errors for the resource package.
var (
	// ErrResourceNotFound is returned when an entity has no resource with
	// the requested name.
	ErrResourceNotFound = errors.New("resource: not found")

	// ErrReadOnly is returned when writing a read-only resource.
	ErrReadOnly = errors.New("resource: read-only")

	// ErrInvalidValue is returned when a written value has the wrong kind,
	// is not an allowed enum value, or falls outside the resource range.
	ErrInvalidValue = errors.New("resource: invalid value")

	// ErrDuplicateResource is returned when registering a resource name
	// twice on the same entity.
	ErrDuplicateResource = errors.New("resource: already registered")
)
