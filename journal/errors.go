package journal

import "errors"

var (
	// ErrRunNotFound indicates no run is stored under the requested id.
	ErrRunNotFound = errors.New("journal: run not found")

	// ErrInvalidRunID indicates a run id is empty or not a UUID.
	ErrInvalidRunID = errors.New("journal: invalid run id")
)
