package repository

import "errors"

// Errors shared across repository implementations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry indicates a unique constraint violation.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrCapacityExceeded indicates an insert was rejected because the
	// target collection is at its configured capacity.
	ErrCapacityExceeded = errors.New("repository: capacity exceeded")
)

var (
	ErrUserNotFound = ErrNotFound
	ErrRoomNotFound = ErrNotFound
	ErrFileNotFound = ErrNotFound
)
