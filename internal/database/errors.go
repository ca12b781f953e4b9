package database

import "errors"

var (
	// ErrCapacityConflict means the slot cannot seat the requested
	// passengers at commit time.
	ErrCapacityConflict = errors.New("schedule slot capacity conflict")

	// ErrNotFound means no booking record matches the identifier.
	ErrNotFound = errors.New("booking not found")

	// ErrConcurrentModification means the record version changed between
	// read and write.
	ErrConcurrentModification = errors.New("booking modified concurrently")

	// ErrPastDate rejects reservations for dates already gone.
	ErrPastDate = errors.New("date is in the past")
)
