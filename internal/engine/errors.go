package engine

import "errors"

// Typed failures surfaced by engine operations. Callers match them with
// errors.Is; every rejected operation leaves the record, the registry and the
// audit trail untouched.
var (
	// ErrInvalidTransition means the requested action is illegal from the
	// escalation's current status. Never retried automatically.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrCapacityExceeded means a specific member is at or over capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrNoCapacity means routing found no available member at all. The
	// escalation stays pending and an operational signal is emitted.
	ErrNoCapacity = errors.New("no routing capacity")

	// ErrMissingResolution means resolve was called without resolution text.
	ErrMissingResolution = errors.New("missing resolution")

	// ErrStaleVersion means a concurrent writer committed first. The caller
	// must refetch and retry; the engine does not retry on its own.
	ErrStaleVersion = errors.New("stale version")

	// ErrNotFound means an unknown escalation or member id.
	ErrNotFound = errors.New("not found")
)
