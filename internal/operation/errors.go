package operation

import "errors"

// Domain errors for the operation package.
var (
	// ErrUnknownOperation is returned when an entity has no operation
	// definition with the requested name.
	ErrUnknownOperation = errors.New("operation: unknown name")

	// ErrOperationNotFound is returned when an operation id does not exist.
	ErrOperationNotFound = errors.New("operation: not found")

	// ErrInvalidParameter is returned when a start parameter is missing or
	// fails validation.
	ErrInvalidParameter = errors.New("operation: invalid parameter")

	// ErrDuplicateDefinition is returned when registering a name twice on
	// the same entity.
	ErrDuplicateDefinition = errors.New("operation: already registered")
)
