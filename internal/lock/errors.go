package lock

import "errors"

// Domain errors for the lock package.
var (
	// ErrLockRequired is returned when a mutating call presents no token,
	// a wrong token, or a token whose lease has expired. Other packages
	// return it unchanged so callers can test for it with errors.Is.
	ErrLockRequired = errors.New("lock: valid lock required")

	// ErrInvalidTTL is returned when a lease duration is out of range.
	ErrInvalidTTL = errors.New("lock: invalid ttl")
)
